package interfaces

import (
	"time"

	"github.com/ternarybob/specto/internal/models"
)

// JobStatus describes one scheduled job.
type JobStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	IsRunning bool       `json:"is_running"`
	LastError string     `json:"last_error,omitempty"`
}

// SchedulerService owns the cron lifecycle and serializes orchestration
// cycles: at most one scan or retry cycle executes at a time, whether
// triggered by schedule or manually.
type SchedulerService interface {
	// Start begins the cron loop. Manual triggers work whether or not
	// the loop is running. Starting an already-running scheduler is an
	// error.
	Start() error

	// Stop halts the cron loop. Stopping a stopped scheduler is a no-op.
	Stop() error

	IsRunning() bool

	// TriggerScan runs a scan cycle in the background. Fire-and-forget
	// from the caller's perspective; the cycle still queues behind any
	// running cycle.
	TriggerScan(opts models.ScanOptions) error

	// TriggerRetry runs a retry cycle in the background.
	TriggerRetry() error

	// JobStatuses returns the status of all registered jobs.
	JobStatuses() map[string]JobStatus
}
