package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/specto/internal/models"
)

// ErrSnapshotNotFound is returned when no pending snapshot has been written
// yet. Callers treat it as an empty queue.
var ErrSnapshotNotFound = errors.New("pending snapshot not found")

// PendingStorage is the durable registry of earnings calls awaiting retry.
// Keys are (symbol, date) pairs; the store never holds two items with the
// same key.
type PendingStorage interface {
	// Load returns all pending items. A missing or unreadable snapshot is
	// not an error: it yields an empty slice (fail-open).
	Load(ctx context.Context) ([]models.PendingItem, error)

	// Save atomically replaces the full collection with a versioned,
	// timestamped snapshot.
	Save(ctx context.Context, items []models.PendingItem) error

	// Add inserts each candidate whose key is not already present with
	// RetryCount 0, and returns the number actually inserted. Re-adding
	// an existing key is a no-op, not an update.
	Add(ctx context.Context, candidates []models.EarningsCallItem) (int, error)

	// Remove deletes the items matching the given keys and returns how
	// many were removed.
	Remove(ctx context.Context, keys []models.AnalyzedKey) (int, error)

	// UpdateRetryCount increments RetryCount and stamps LastRetryAt for
	// the matching item. No-op if the key is absent; never creates items.
	UpdateRetryCount(ctx context.Context, symbol, date string) error

	// CleanupExpired removes every item whose event date is strictly older
	// than the retention window and returns how many were removed.
	CleanupExpired(ctx context.Context) (int, error)

	// Stats summarizes the queue. Oldest/newest dates are nil when empty.
	Stats(ctx context.Context) (models.QueueStats, error)
}

// StorageManager owns the storage backends and their lifecycle.
type StorageManager interface {
	PendingStorage() PendingStorage

	// DB returns the underlying database handle for diagnostics.
	DB() interface{}

	Close() error
}
