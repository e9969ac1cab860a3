// -----------------------------------------------------------------------
// Scanner Service - one pass of the earnings discovery pipeline
// Fetch calendar, drop known and excluded events, analyze sequentially,
// notify in batches, route missing transcripts to the pending queue
// -----------------------------------------------------------------------

package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
	"github.com/ternarybob/specto/internal/notify"
	"github.com/ternarybob/specto/internal/services/classifier"
)

// Service runs scan cycles.
type Service struct {
	config   *common.ScanConfig
	calendar interfaces.CalendarService
	analysis interfaces.AnalysisService
	notifier interfaces.Notifier
	pending  interfaces.PendingStorage
	exclude  classifier.ExcludeFilter
	logger   arbor.ILogger

	// now is split out for deterministic window tests
	now func() time.Time
}

// NewService creates a new scanner service.
func NewService(
	config *common.ScanConfig,
	calendar interfaces.CalendarService,
	analysis interfaces.AnalysisService,
	notifier interfaces.Notifier,
	pending interfaces.PendingStorage,
	logger arbor.ILogger,
) *Service {
	return &Service{
		config:   config,
		calendar: calendar,
		analysis: analysis,
		notifier: notifier,
		pending:  pending,
		exclude:  classifier.DefaultExcludeFilter,
		logger:   logger,
		now:      time.Now,
	}
}

// SetExcludeFilter replaces the default exclusion filter.
func (s *Service) SetExcludeFilter(filter classifier.ExcludeFilter) {
	s.exclude = filter
}

// window resolves the scan date range from the options.
//
// An explicit date scans that single day unless RangeMode extends it back
// by the lookback. Without a date, the window ends at today minus the
// configured offset, which gives transcript providers time to publish.
func (s *Service) window(opts models.ScanOptions) (start, end time.Time, err error) {
	lookback := s.config.LookbackDays
	if opts.LookbackDays > 0 {
		lookback = opts.LookbackDays
	}

	if opts.Date != "" {
		end, err = models.ParseDate(opts.Date)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if opts.RangeMode {
			return end.AddDate(0, 0, -lookback), end, nil
		}
		return end, end, nil
	}

	now := s.now().UTC()
	end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end = end.AddDate(0, 0, -s.config.ScanOffsetDays)
	return end.AddDate(0, 0, -lookback), end, nil
}

// RunScan executes one scan cycle. A cycle that finds nothing to analyze
// returns (nil, nil) without notifying. Notification failures never fail
// the cycle; a pending-queue write failure does.
func (s *Service) RunScan(ctx context.Context, opts models.ScanOptions) (*models.DailyScanResult, error) {
	start, end, err := s.window(opts)
	if err != nil {
		return nil, err
	}
	startStr := start.Format(models.DateFormat)
	endStr := end.Format(models.DateFormat)

	scanID := uuid.New().String()
	log := s.logger.WithCorrelationId(scanID)
	log.Info().
		Str("start", startStr).
		Str("end", endStr).
		Bool("skip_dedup", opts.SkipDedup).
		Msg("Starting earnings scan")

	events, err := s.calendar.GetEarningsCalendar(ctx, start, end, s.config.MinMarketCap)
	if err != nil {
		log.Error().Err(err).Msg("Calendar fetch failed, aborting cycle")
		s.notifier.Push(ctx, []string{formatFailure("calendar fetch", err)})
		return nil, nil
	}

	candidates := events
	if !opts.SkipDedup {
		analyzed, err := s.analysis.ListAnalyzed(ctx, start, end)
		if err != nil {
			// Better to re-analyze a few calls than to skip a scan
			log.Warn().Err(err).Msg("Analyzed-set fetch failed, proceeding without dedup")
			analyzed = nil
		}
		candidates = classifier.FilterAnalyzed(candidates, analyzed)
	}

	kept, excluded := classifier.FilterExcluded(candidates, s.exclude)
	for _, item := range excluded {
		log.Debug().Str("symbol", item.Symbol).Str("company", item.Company).Msg("Excluded non-operating instrument")
	}
	candidates = classifier.SortAndCap(kept, s.config.MaxSymbols)

	if len(candidates) == 0 {
		log.Info().Int("events", len(events)).Msg("No new earnings calls to analyze")
		return nil, nil
	}

	result := &models.DailyScanResult{
		ScanID:    scanID,
		ScannedAt: s.now().UTC(),
		StartDate: startStr,
		EndDate:   endStr,
	}
	result.TotalEvents = len(events)

	s.notifier.Push(ctx, []string{formatAnnounce(startStr, endStr, candidates, s.config.PreviewLimit)})

	var batch []models.SymbolAnalysis
	for i, item := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan interrupted: %w", err)
		}

		analysis := s.analyzeOne(ctx, item)
		result.Analyzed++

		switch analysis.Status {
		case models.StatusBuy:
			result.BuyList = append(result.BuyList, analysis)
		case models.StatusNoAction:
			result.NoActionList = append(result.NoActionList, analysis)
		case models.StatusPending:
			result.PendingList = append(result.PendingList, analysis)
		default:
			result.ErrorList = append(result.ErrorList, analysis)
		}

		batch = append(batch, analysis)
		if len(batch) >= s.config.BatchSize {
			s.flushBatch(ctx, log, batch)
			batch = nil
		}

		// Pace the analysis backend, but not after the last event
		if i < len(candidates)-1 {
			if delay := s.config.Delay(); delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return nil, fmt.Errorf("scan interrupted: %w", ctx.Err())
				}
			}
		}
	}
	s.flushBatch(ctx, log, batch)

	if err := s.enqueuePending(ctx, log, result.PendingList, events); err != nil {
		return nil, err
	}

	if stats, err := s.pending.Stats(ctx); err == nil {
		result.PendingQueueSize = stats.TotalCount
	}

	s.notifier.Push(ctx, []string{formatScanSummary(result)})

	log.Info().
		Str("scan_id", result.ScanID).
		Int("analyzed", result.Analyzed).
		Int("buy", len(result.BuyList)).
		Int("pending", len(result.PendingList)).
		Int("errors", len(result.ErrorList)).
		Msg("Scan complete")

	return result, nil
}

// analyzeOne requests one verdict and maps it to an outcome.
func (s *Service) analyzeOne(ctx context.Context, item models.EarningsCallItem) models.SymbolAnalysis {
	analysis := models.SymbolAnalysis{
		Symbol:  item.Symbol,
		Company: item.Company,
		Date:    item.Date,
	}

	verdict, err := s.analysis.Analyze(ctx, item.Symbol, item.Date)
	if err != nil {
		if errors.Is(err, interfaces.ErrTranscriptNotReady) {
			analysis.Status = models.StatusPending
			return analysis
		}
		analysis.Status = models.StatusError
		analysis.Error = err.Error()
		return analysis
	}

	analysis.Confidence = verdict.Confidence
	analysis.Prediction = verdict.Prediction
	analysis.Reasons = verdict.Reasons
	analysis.DirectionScore = verdict.DirectionScore
	if verdict.LongEligible {
		analysis.Status = models.StatusBuy
	} else {
		analysis.Status = models.StatusNoAction
	}
	return analysis
}

// flushBatch pushes one batch of results. Batches holding only pending or
// error outcomes are logged, not pushed, to keep the chat signal-heavy.
func (s *Service) flushBatch(ctx context.Context, log arbor.ILogger, batch []models.SymbolAnalysis) {
	if len(batch) == 0 {
		return
	}

	notable := false
	texts := make([]string, 0, len(batch))
	for _, analysis := range batch {
		texts = append(texts, notify.FormatAnalysis(analysis))
		if analysis.Status == models.StatusBuy || analysis.Status == models.StatusNoAction {
			notable = true
		}
	}

	if !notable {
		log.Debug().Int("size", len(batch)).Msg("Batch holds no completed verdicts, skipping push")
		return
	}

	if result := s.notifier.Push(ctx, texts); !result.Success {
		log.Warn().Str("error", result.Error).Msg("Batch notification failed")
	}
}

// enqueuePending adds this cycle's transcript-pending events to the durable
// queue in one write.
func (s *Service) enqueuePending(ctx context.Context, log arbor.ILogger, pendings []models.SymbolAnalysis, events []models.EarningsCallItem) error {
	if len(pendings) == 0 {
		return nil
	}

	byKey := make(map[string]models.EarningsCallItem, len(events))
	for _, event := range events {
		byKey[event.Key()] = event
	}

	items := make([]models.EarningsCallItem, 0, len(pendings))
	for _, pending := range pendings {
		key := pending.Symbol + "|" + pending.Date
		if event, ok := byKey[key]; ok {
			items = append(items, event)
		} else {
			items = append(items, models.EarningsCallItem{
				Symbol:  pending.Symbol,
				Company: pending.Company,
				Date:    pending.Date,
			})
		}
	}

	added, err := s.pending.Add(ctx, items)
	if err != nil {
		return fmt.Errorf("failed to enqueue pending calls: %w", err)
	}
	log.Info().Int("added", added).Int("pending", len(items)).Msg("Queued transcript-pending calls for retry")
	return nil
}

var _ interfaces.ScanRunner = (*Service)(nil)
