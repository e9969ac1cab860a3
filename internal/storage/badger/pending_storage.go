package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// pendingSnapshotKey is the fixed key for the single snapshot record. The
// whole collection is written as one versioned document so a reader never
// observes a half-updated queue.
const pendingSnapshotKey = "pending_queue"

// PendingStorage implements interfaces.PendingStorage on badgerhold
type PendingStorage struct {
	db            *BadgerDB
	logger        arbor.ILogger
	retentionDays int
	mu            sync.Mutex
}

// NewPendingStorage creates a new pending-queue storage
func NewPendingStorage(db *BadgerDB, logger arbor.ILogger) *PendingStorage {
	return &PendingStorage{
		db:            db,
		logger:        logger,
		retentionDays: 30,
	}
}

// SetRetentionDays overrides the default pending-item lifetime
func (s *PendingStorage) SetRetentionDays(days int) {
	if days > 0 {
		s.retentionDays = days
	}
}

// Load returns all pending items. A missing or unreadable snapshot yields
// an empty slice so a storage hiccup cannot wedge the scan cycle.
func (s *PendingStorage) Load(ctx context.Context) ([]models.PendingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(), nil
}

// load reads the snapshot without locking. Callers hold s.mu.
func (s *PendingStorage) load() []models.PendingItem {
	var snapshot models.PendingSnapshot
	err := s.db.Store().Get(pendingSnapshotKey, &snapshot)
	if err != nil {
		if !errors.Is(err, badgerhold.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("Failed to read pending snapshot, treating queue as empty")
		}
		return []models.PendingItem{}
	}
	if snapshot.Items == nil {
		return []models.PendingItem{}
	}
	return snapshot.Items
}

// Save atomically replaces the full collection with a versioned snapshot
func (s *PendingStorage) Save(ctx context.Context, items []models.PendingItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(items)
}

// save writes the snapshot without locking. Callers hold s.mu.
func (s *PendingStorage) save(items []models.PendingItem) error {
	if items == nil {
		items = []models.PendingItem{}
	}
	snapshot := models.PendingSnapshot{
		SchemaVersion: models.PendingSchemaVersion,
		UpdatedAt:     time.Now().UTC(),
		Items:         items,
	}
	if err := s.db.Store().Upsert(pendingSnapshotKey, &snapshot); err != nil {
		return fmt.Errorf("failed to save pending snapshot: %w", err)
	}
	return nil
}

// Add inserts each candidate whose (symbol, date) key is not already present.
// Existing keys keep their AddedAt and RetryCount untouched.
func (s *PendingStorage) Add(ctx context.Context, candidates []models.EarningsCallItem) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.load()
	existing := make(map[string]bool, len(items))
	for _, item := range items {
		existing[item.Key()] = true
	}

	added := 0
	now := time.Now().UTC()
	for _, candidate := range candidates {
		if existing[candidate.Key()] {
			continue
		}
		existing[candidate.Key()] = true
		items = append(items, models.PendingItem{
			EarningsCallItem: candidate,
			AddedAt:          now,
			RetryCount:       0,
		})
		added++
	}

	if added == 0 {
		return 0, nil
	}

	if err := s.save(items); err != nil {
		return 0, err
	}

	s.logger.Debug().Int("added", added).Int("total", len(items)).Msg("Added items to pending queue")
	return added, nil
}

// Remove deletes the items matching the given keys
func (s *PendingStorage) Remove(ctx context.Context, keys []models.AnalyzedKey) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]bool, len(keys))
	for _, key := range keys {
		drop[key.Key()] = true
	}

	items := s.load()
	kept := items[:0]
	removed := 0
	for _, item := range items {
		if drop[item.Key()] {
			removed++
			continue
		}
		kept = append(kept, item)
	}

	if removed == 0 {
		return 0, nil
	}

	if err := s.save(kept); err != nil {
		return 0, err
	}

	s.logger.Debug().Int("removed", removed).Int("remaining", len(kept)).Msg("Removed items from pending queue")
	return removed, nil
}

// UpdateRetryCount increments the retry counter for the matching item.
// Unknown keys are a no-op so a retry pass never resurrects removed items.
func (s *PendingStorage) UpdateRetryCount(ctx context.Context, symbol, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := symbol + "|" + date
	items := s.load()
	now := time.Now().UTC()
	for i := range items {
		if items[i].Key() != key {
			continue
		}
		items[i].RetryCount++
		items[i].LastRetryAt = &now
		return s.save(items)
	}
	return nil
}

// CleanupExpired removes items whose event date is strictly older than the
// retention window, measured from today. An item at exactly the retention
// boundary is kept.
func (s *PendingStorage) CleanupExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.AddDate(0, 0, -s.retentionDays)

	items := s.load()
	kept := items[:0]
	removed := 0
	for _, item := range items {
		eventDate, err := models.ParseDate(item.Date)
		if err != nil {
			s.logger.Warn().Str("symbol", item.Symbol).Str("date", item.Date).Msg("Dropping pending item with unparseable date")
			removed++
			continue
		}
		if eventDate.Before(cutoff) {
			s.logger.Info().
				Str("symbol", item.Symbol).
				Str("date", item.Date).
				Int("retry_count", item.RetryCount).
				Msg("Expiring pending item past retention window")
			removed++
			continue
		}
		kept = append(kept, item)
	}

	if removed == 0 {
		return 0, nil
	}

	if err := s.save(kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// Stats summarizes the queue for the admin API
func (s *PendingStorage) Stats(ctx context.Context) (models.QueueStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.load()
	stats := models.QueueStats{TotalCount: len(items)}
	if len(items) == 0 {
		return stats, nil
	}

	oldest := items[0].Date
	newest := items[0].Date
	totalRetries := 0
	for _, item := range items {
		// Dates are YYYY-MM-DD so string order is chronological order
		if item.Date < oldest {
			oldest = item.Date
		}
		if item.Date > newest {
			newest = item.Date
		}
		totalRetries += item.RetryCount
	}

	stats.OldestDate = &oldest
	stats.NewestDate = &newest
	stats.AvgRetryCount = float64(totalRetries) / float64(len(items))
	return stats, nil
}

var _ interfaces.PendingStorage = (*PendingStorage)(nil)
