// -----------------------------------------------------------------------
// App - dependency wiring for the Specto service
// Builds storage, clients, orchestrators, scheduler, and handlers
// -----------------------------------------------------------------------

package app

import (
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/analysis"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/fmp"
	"github.com/ternarybob/specto/internal/handlers"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/notify"
	"github.com/ternarybob/specto/internal/services/retry"
	"github.com/ternarybob/specto/internal/services/scanner"
	"github.com/ternarybob/specto/internal/services/scheduler"
	"github.com/ternarybob/specto/internal/services/status"
	badgerstore "github.com/ternarybob/specto/internal/storage/badger"
)

// App holds all application dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	Scheduler      interfaces.SchedulerService
	Notifier       interfaces.Notifier

	// HTTP handlers
	APIHandler    *handlers.APIHandler
	StatusHandler *handlers.StatusHandler
	ScanHandler   *handlers.ScanHandler
	QueueHandler  *handlers.QueueHandler
	NotifyHandler *handlers.NotifyHandler
}

// New creates and wires the application
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storageManager, err := badgerstore.NewManager(logger, &config.Storage.Badger, config.Scan.RetentionDays)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	pending := storageManager.PendingStorage()

	if config.FMP.APIKey == "" {
		logger.Warn().Msg("FMP API key not configured, calendar fetches will fail")
	}
	fmpOpts := []fmp.ClientOption{
		fmp.WithLogger(logger),
		fmp.WithHTTPClient(&http.Client{Timeout: config.FMP.HTTPTimeout()}),
	}
	if config.FMP.BaseURL != "" {
		fmpOpts = append(fmpOpts, fmp.WithBaseURL(config.FMP.BaseURL))
	}
	if config.FMP.RateLimit > 0 {
		fmpOpts = append(fmpOpts, fmp.WithRateLimit(config.FMP.RateLimit))
	}
	fmpClient := fmp.NewClient(config.FMP.APIKey, fmpOpts...)

	if config.Analysis.BaseURL == "" {
		logger.Warn().Msg("Analysis service URL not configured, analyses will fail")
	}
	analysisClient := analysis.NewClient(
		config.Analysis.BaseURL,
		analysis.WithLogger(logger),
		analysis.WithTimeout(config.Analysis.HTTPTimeout()),
	)

	notifier := notify.NewTelegramNotifier(
		config.Telegram.BotToken,
		config.Telegram.ChatID,
		notify.WithLogger(logger),
		notify.WithHTTPClient(&http.Client{Timeout: config.Telegram.HTTPTimeout()}),
	)
	if !notifier.IsConfigured() {
		logger.Warn().Msg("Telegram not configured, notifications will be dropped")
	}

	scannerService := scanner.NewService(&config.Scan, fmpClient, analysisClient, notifier, pending, logger)
	retryService := retry.NewService(&config.Scan, analysisClient, notifier, pending, logger)
	schedulerService, err := scheduler.NewService(&config.Scheduler, scannerService, retryService, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	if config.Scheduler.Enabled {
		if err := schedulerService.Start(); err != nil {
			storageManager.Close()
			return nil, fmt.Errorf("failed to start scheduler: %w", err)
		}
	} else {
		logger.Info().Msg("Scheduler disabled, cycles run on manual trigger only")
	}

	statusService := status.NewService(schedulerService, pending, logger)

	app := &App{
		Config:         config,
		Logger:         logger,
		StorageManager: storageManager,
		Scheduler:      schedulerService,
		Notifier:       notifier,

		APIHandler:    handlers.NewAPIHandler(),
		StatusHandler: handlers.NewStatusHandler(statusService, logger),
		ScanHandler:   handlers.NewScanHandler(schedulerService, logger),
		QueueHandler:  handlers.NewQueueHandler(pending, logger),
		NotifyHandler: handlers.NewNotifyHandler(notifier, logger),
	}

	logger.Info().Msg("Application initialized")
	return app, nil
}

// Close releases application resources
func (a *App) Close() error {
	if a.Scheduler != nil {
		if err := a.Scheduler.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Scheduler stop failed")
		}
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	return nil
}
