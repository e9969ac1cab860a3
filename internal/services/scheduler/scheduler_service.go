package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
)

const (
	// JobDailyScan discovers and analyzes fresh earnings calls.
	JobDailyScan = "daily-scan"

	// JobRetryQueue re-analyzes transcript-delayed calls.
	JobRetryQueue = "retry-queue"
)

// jobEntry represents a registered job with metadata
type jobEntry struct {
	name      string
	schedule  string
	handler   func() error
	cronID    cron.EntryID
	lastRun   *time.Time
	isRunning bool
	lastError string
}

// Service implements SchedulerService
type Service struct {
	config  *common.SchedulerConfig
	scanner interfaces.ScanRunner
	retrier interfaces.RetryRunner
	cron    *cron.Cron
	logger  arbor.ILogger

	jobMu    sync.Mutex // Protects jobs map
	globalMu sync.Mutex // Serializes cycle execution: one scan OR retry at a time
	jobs     map[string]*jobEntry
	running  bool
}

// NewService creates a new scheduler service with both jobs registered.
// The cron loop does not tick until Start, but manual triggers work
// immediately so a disabled scheduler still serves the admin API.
func NewService(config *common.SchedulerConfig, scanner interfaces.ScanRunner, retrier interfaces.RetryRunner, logger arbor.ILogger) (*Service, error) {
	s := &Service{
		config:  config,
		scanner: scanner,
		retrier: retrier,
		cron:    cron.New(),
		logger:  logger,
		jobs:    make(map[string]*jobEntry),
	}

	if err := s.registerJob(JobDailyScan, config.ScanSchedule, func() error {
		_, err := s.scanner.RunScan(context.Background(), models.ScanOptions{})
		return err
	}); err != nil {
		return nil, err
	}

	if err := s.registerJob(JobRetryQueue, config.RetrySchedule, func() error {
		_, err := s.retrier.RunRetry(context.Background())
		return err
	}); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins the cron loop
func (s *Service) Start() error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("scan_schedule", s.config.ScanSchedule).
		Str("retry_schedule", s.config.RetrySchedule).
		Msg("Scheduler started")

	return nil
}

// Stop halts the scheduler
func (s *Service) Stop() error {
	if !s.running {
		return nil
	}

	s.cron.Stop()
	s.running = false

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning returns true if scheduler is active
func (s *Service) IsRunning() bool {
	return s.running
}

// registerJob adds a job to the cron loop
func (s *Service) registerJob(name, schedule string, handler func() error) error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{
		name:     name,
		schedule: schedule,
		handler:  handler,
	}

	cronID, err := s.cron.AddFunc(schedule, func() {
		s.executeJob(name)
	})
	if err != nil {
		return fmt.Errorf("failed to add job %s to cron: %w", name, err)
	}

	entry.cronID = cronID
	s.jobs[name] = entry

	s.logger.Info().
		Str("job_name", name).
		Str("schedule", schedule).
		Msg("Job registered")

	return nil
}

// TriggerScan manually runs a scan cycle in the background. The cycle
// queues behind whatever is currently executing.
func (s *Service) TriggerScan(opts models.ScanOptions) error {
	s.jobMu.Lock()
	entry, exists := s.jobs[JobDailyScan]
	if !exists {
		s.jobMu.Unlock()
		return fmt.Errorf("job %s not found", JobDailyScan)
	}
	if entry.isRunning {
		s.jobMu.Unlock()
		return fmt.Errorf("job %s is already running", JobDailyScan)
	}
	s.jobMu.Unlock()

	s.logger.Info().
		Str("date", opts.Date).
		Bool("skip_dedup", opts.SkipDedup).
		Msg("Manually triggering scan")

	go s.runJob(JobDailyScan, func() error {
		_, err := s.scanner.RunScan(context.Background(), opts)
		return err
	})

	return nil
}

// TriggerRetry manually runs a retry cycle in the background.
func (s *Service) TriggerRetry() error {
	s.jobMu.Lock()
	entry, exists := s.jobs[JobRetryQueue]
	if !exists {
		s.jobMu.Unlock()
		return fmt.Errorf("job %s not found", JobRetryQueue)
	}
	if entry.isRunning {
		s.jobMu.Unlock()
		return fmt.Errorf("job %s is already running", JobRetryQueue)
	}
	s.jobMu.Unlock()

	s.logger.Info().Msg("Manually triggering retry")

	go s.executeJob(JobRetryQueue)

	return nil
}

// JobStatuses returns the status of all registered jobs
func (s *Service) JobStatuses() map[string]interfaces.JobStatus {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	entries := s.cron.Entries()
	statuses := make(map[string]interfaces.JobStatus, len(s.jobs))
	for name, entry := range s.jobs {
		var nextRun *time.Time
		for _, cronEntry := range entries {
			if cronEntry.ID == entry.cronID {
				next := cronEntry.Next
				nextRun = &next
				break
			}
		}

		statuses[name] = interfaces.JobStatus{
			Name:      entry.name,
			Schedule:  entry.schedule,
			LastRun:   entry.lastRun,
			NextRun:   nextRun,
			IsRunning: entry.isRunning,
			LastError: entry.lastError,
		}
	}
	return statuses
}

// executeJob runs a job with its registered handler.
func (s *Service) executeJob(name string) {
	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.jobMu.Unlock()
		s.logger.Warn().Str("job_name", name).Msg("Job not found")
		return
	}
	handler := entry.handler
	s.jobMu.Unlock()

	s.runJob(name, handler)
}

// runJob wraps one cycle with the global mutex, panic recovery, and status
// tracking. The global mutex is the serialization point the pending store
// relies on: its load-then-save snapshot writes would race otherwise.
func (s *Service) runJob(name string, handler func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("job_name", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in job execution")

			s.jobMu.Lock()
			if entry, exists := s.jobs[name]; exists {
				entry.isRunning = false
				entry.lastError = fmt.Sprintf("panic: %v", r)
			}
			s.jobMu.Unlock()
		}
	}()

	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.jobMu.Unlock()
		return
	}
	entry.isRunning = true
	s.jobMu.Unlock()

	started := time.Now()
	s.logger.Info().Str("job_name", name).Msg("🚀 Job execution started")

	err := handler()

	completionTime := time.Now()
	s.jobMu.Lock()
	entry.isRunning = false
	entry.lastRun = &completionTime
	if err != nil {
		entry.lastError = err.Error()
	} else {
		entry.lastError = ""
	}
	s.jobMu.Unlock()

	if err != nil {
		s.logger.Error().
			Str("job_name", name).
			Err(err).
			Dur("duration", time.Since(started)).
			Msg("❌ Job execution failed")
	} else {
		s.logger.Info().
			Str("job_name", name).
			Dur("duration", time.Since(started)).
			Msg("✅ Job execution completed successfully")
	}
}

var _ interfaces.SchedulerService = (*Service)(nil)
