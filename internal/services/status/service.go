package status

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
)

// Service reports application status for the admin API.
type Service struct {
	startedAt time.Time
	scheduler interfaces.SchedulerService
	pending   interfaces.PendingStorage
	logger    arbor.ILogger
}

// NewService creates a new status service
func NewService(scheduler interfaces.SchedulerService, pending interfaces.PendingStorage, logger arbor.ILogger) *Service {
	return &Service{
		startedAt: time.Now(),
		scheduler: scheduler,
		pending:   pending,
		logger:    logger,
	}
}

// GetStatus returns the full status: version, uptime, scheduler jobs and
// pending-queue summary.
func (s *Service) GetStatus(ctx context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"status":    "ok",
		"version":   common.GetVersion(),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
		"timestamp": time.Now().UTC(),
	}

	if s.scheduler != nil {
		status["scheduler"] = map[string]interface{}{
			"running": s.scheduler.IsRunning(),
			"jobs":    s.scheduler.JobStatuses(),
		}
	}

	if s.pending != nil {
		if stats, err := s.pending.Stats(ctx); err == nil {
			status["queue"] = stats
		} else {
			s.logger.Warn().Err(err).Msg("Failed to read queue stats for status")
		}
	}

	return status
}
