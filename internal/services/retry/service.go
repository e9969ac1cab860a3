// -----------------------------------------------------------------------
// Retry Service - drains the pending queue of transcript-delayed calls
// Expire stale items, re-analyze the rest sequentially, remove everything
// that resolved, and report once per cycle
// -----------------------------------------------------------------------

package retry

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
)

// Service runs retry cycles over the pending queue.
type Service struct {
	config   *common.ScanConfig
	analysis interfaces.AnalysisService
	notifier interfaces.Notifier
	pending  interfaces.PendingStorage
	logger   arbor.ILogger

	now func() time.Time
}

// NewService creates a new retry service.
func NewService(
	config *common.ScanConfig,
	analysis interfaces.AnalysisService,
	notifier interfaces.Notifier,
	pending interfaces.PendingStorage,
	logger arbor.ILogger,
) *Service {
	return &Service{
		config:   config,
		analysis: analysis,
		notifier: notifier,
		pending:  pending,
		logger:   logger,
		now:      time.Now,
	}
}

// RunRetry executes one retry cycle. An empty queue ends the cycle silently
// with (nil, nil). Store write failures fail the cycle; notification
// failures do not.
func (s *Service) RunRetry(ctx context.Context) (*models.RetryQueueResult, error) {
	retryID := uuid.New().String()
	log := s.logger.WithCorrelationId(retryID)

	expired, err := s.pending.CleanupExpired(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to expire stale pending items: %w", err)
	}

	items, err := s.pending.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending queue: %w", err)
	}
	if len(items) == 0 {
		if expired > 0 {
			log.Info().Int("expired", expired).Msg("Retry queue drained by expiry")
		} else {
			log.Debug().Msg("Retry queue empty")
		}
		return nil, nil
	}

	log.Info().Int("queued", len(items)).Int("expired", expired).Msg("Starting pending-queue retry")

	result := &models.RetryQueueResult{
		RetryID:      retryID,
		RanAt:        s.now().UTC(),
		Processed:    len(items),
		ExpiredCount: expired,
	}

	var resolved []models.AnalyzedKey
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("retry interrupted: %w", err)
		}

		analysis := s.analyzeOne(ctx, item)
		switch analysis.Status {
		case models.StatusPending:
			result.StillPendingCount++
			if err := s.pending.UpdateRetryCount(ctx, item.Symbol, item.Date); err != nil {
				log.Warn().Err(err).Str("symbol", item.Symbol).Msg("Failed to bump retry count")
			}
		case models.StatusBuy:
			result.SuccessCount++
			result.BuyList = append(result.BuyList, analysis)
			resolved = append(resolved, models.AnalyzedKey{Symbol: item.Symbol, Date: item.Date})
		default:
			// NO_ACTION and ERROR both leave the queue. A call that keeps
			// erroring must not retry forever.
			result.SuccessCount++
			if analysis.Status == models.StatusNoAction {
				result.NoActionList = append(result.NoActionList, analysis)
			} else {
				log.Warn().Str("symbol", item.Symbol).Str("error", analysis.Error).Msg("Pending item errored on retry, dropping from queue")
			}
			resolved = append(resolved, models.AnalyzedKey{Symbol: item.Symbol, Date: item.Date})
		}

		if i < len(items)-1 {
			if delay := s.config.Delay(); delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return nil, fmt.Errorf("retry interrupted: %w", ctx.Err())
				}
			}
		}
	}

	if len(resolved) > 0 {
		if _, err := s.pending.Remove(ctx, resolved); err != nil {
			return nil, fmt.Errorf("failed to remove resolved pending items: %w", err)
		}
	}

	s.notifyResult(ctx, log, result)

	log.Info().
		Int("processed", result.Processed).
		Int("resolved", result.SuccessCount).
		Int("still_pending", result.StillPendingCount).
		Int("expired", result.ExpiredCount).
		Msg("Retry cycle complete")

	return result, nil
}

// analyzeOne re-runs analysis for one queued call using the same outcome
// mapping as the scan cycle.
func (s *Service) analyzeOne(ctx context.Context, item models.PendingItem) models.SymbolAnalysis {
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

// notifyResult applies the retry notification policy: detailed when any BUY
// resolved, terse when anything resolved at all, silent when the whole queue
// is still waiting on transcripts.
func (s *Service) notifyResult(ctx context.Context, log arbor.ILogger, result *models.RetryQueueResult) {
	var texts []string
	switch {
	case len(result.BuyList) > 0:
		texts = append(texts, fmt.Sprintf("🔁 Retry: %d of %d resolved, %d still pending", result.SuccessCount, result.Processed, result.StillPendingCount))
		for _, analysis := range result.BuyList {
			texts = append(texts, notify.FormatAnalysis(analysis))
		}
	case result.SuccessCount > 0:
		texts = append(texts, fmt.Sprintf("🔁 Retry: %d of %d resolved, no BUY signal, %d still pending", result.SuccessCount, result.Processed, result.StillPendingCount))
	default:
		return
	}

	if push := s.notifier.Push(ctx, texts); !push.Success {
		log.Warn().Str("error", push.Error).Msg("Retry notification failed")
	}
}

var _ interfaces.RetryRunner = (*Service)(nil)
