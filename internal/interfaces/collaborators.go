package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/specto/internal/models"
)

// ErrTranscriptNotReady signals that the analysis provider has no transcript
// for the requested call yet. It is an expected condition, routed to the
// pending queue rather than logged as an error.
var ErrTranscriptNotReady = errors.New("transcript not yet available")

// CalendarService provides candidate earnings events for a date window,
// filtered server-side by a minimum market capitalization.
type CalendarService interface {
	GetEarningsCalendar(ctx context.Context, from, to time.Time, minMarketCap float64) ([]models.EarningsCallItem, error)
}

// AnalysisService is the external earnings-analysis provider.
type AnalysisService interface {
	// Analyze requests a verdict for one call. Returns
	// ErrTranscriptNotReady (possibly wrapped) when the transcript is not
	// yet available; any other error is a non-retryable failure for this
	// cycle.
	Analyze(ctx context.Context, symbol, date string) (*models.Verdict, error)

	// ListAnalyzed returns the (symbol, date) keys the provider has
	// already analyzed within the window.
	ListAnalyzed(ctx context.Context, from, to time.Time) ([]models.AnalyzedKey, error)
}

// Notifier pushes outbound notifications. One call per logical message; the
// texts of a call compose a single message.
type Notifier interface {
	Push(ctx context.Context, texts []string) models.PushResult
}

// ScanRunner exposes the core orchestration operations to the scheduler and
// the administrative surface.
type ScanRunner interface {
	// RunScan drives one scan cycle. A nil result with nil error means
	// "nothing to do" (no candidates, or calendar fetch failed and was
	// reported).
	RunScan(ctx context.Context, opts models.ScanOptions) (*models.DailyScanResult, error)
}

// RetryRunner drives one retry cycle over the pending queue.
type RetryRunner interface {
	// RunRetry returns nil with nil error when the queue is empty after
	// expiry cleanup.
	RunRetry(ctx context.Context) (*models.RetryQueueResult, error)
}
