package badger

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func newTestStorage(t *testing.T) *PendingStorage {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "specto-badger-test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	db := &BadgerDB{store: store}
	return NewPendingStorage(db, arbor.NewLogger())
}

func TestPendingAddIsIdempotent(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	candidates := []models.EarningsCallItem{
		{Symbol: "AAPL", Company: "Apple Inc.", Date: "2026-08-27", MarketCap: 3e12},
		{Symbol: "MSFT", Company: "Microsoft Corp.", Date: "2026-08-27", MarketCap: 2.8e12},
	}

	added, err := storage.Add(ctx, candidates)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if added != 2 {
		t.Errorf("Expected 2 added, got %d", added)
	}

	// Bump a retry count, then re-add the same candidates. The existing
	// items must keep their state and nothing new must be inserted.
	if err := storage.UpdateRetryCount(ctx, "AAPL", "2026-08-27"); err != nil {
		t.Fatalf("UpdateRetryCount failed: %v", err)
	}

	added, err = storage.Add(ctx, candidates)
	if err != nil {
		t.Fatalf("Re-add failed: %v", err)
	}
	if added != 0 {
		t.Errorf("Expected 0 added on re-add, got %d", added)
	}

	items, err := storage.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	for _, item := range items {
		if item.Symbol == "AAPL" && item.RetryCount != 1 {
			t.Errorf("Re-add reset retry count for AAPL: got %d, want 1", item.RetryCount)
		}
	}
}

func TestPendingAddSameSymbolDifferentDate(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	added, err := storage.Add(ctx, []models.EarningsCallItem{
		{Symbol: "NVDA", Date: "2026-05-20"},
		{Symbol: "NVDA", Date: "2026-08-19"},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if added != 2 {
		t.Errorf("Distinct quarters for one symbol must both enter the queue, got %d", added)
	}
}

func TestPendingRemove(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	_, err := storage.Add(ctx, []models.EarningsCallItem{
		{Symbol: "AAPL", Date: "2026-08-27"},
		{Symbol: "MSFT", Date: "2026-08-27"},
		{Symbol: "NVDA", Date: "2026-08-26"},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	removed, err := storage.Remove(ctx, []models.AnalyzedKey{
		{Symbol: "AAPL", Date: "2026-08-27"},
		{Symbol: "NVDA", Date: "2026-08-26"},
		{Symbol: "GOOG", Date: "2026-08-25"}, // not present
	})
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 removed, got %d", removed)
	}

	items, _ := storage.Load(ctx)
	if len(items) != 1 || items[0].Symbol != "MSFT" {
		t.Errorf("Expected only MSFT to remain, got %+v", items)
	}
}

func TestPendingCleanupExpired(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	now := time.Now().UTC()
	old := now.AddDate(0, 0, -31).Format(models.DateFormat)
	fresh := now.AddDate(0, 0, -29).Format(models.DateFormat)

	_, err := storage.Add(ctx, []models.EarningsCallItem{
		{Symbol: "OLD", Date: old},
		{Symbol: "FRESH", Date: fresh},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	removed, err := storage.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 expired, got %d", removed)
	}

	items, _ := storage.Load(ctx)
	if len(items) != 1 || items[0].Symbol != "FRESH" {
		t.Errorf("Expected FRESH to survive cleanup, got %+v", items)
	}
}

func TestPendingStatsEmpty(t *testing.T) {
	storage := newTestStorage(t)

	stats, err := storage.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats on empty store must not error: %v", err)
	}
	if stats.TotalCount != 0 {
		t.Errorf("Expected 0 total, got %d", stats.TotalCount)
	}
	if stats.OldestDate != nil || stats.NewestDate != nil {
		t.Error("Expected nil oldest/newest dates on empty queue")
	}
}

func TestPendingStats(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	_, err := storage.Add(ctx, []models.EarningsCallItem{
		{Symbol: "AAPL", Date: "2026-08-27"},
		{Symbol: "MSFT", Date: "2026-08-25"},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := storage.UpdateRetryCount(ctx, "AAPL", "2026-08-27"); err != nil {
		t.Fatalf("UpdateRetryCount failed: %v", err)
	}

	stats, err := storage.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalCount != 2 {
		t.Errorf("Expected total 2, got %d", stats.TotalCount)
	}
	if stats.OldestDate == nil || *stats.OldestDate != "2026-08-25" {
		t.Errorf("Unexpected oldest date: %v", stats.OldestDate)
	}
	if stats.NewestDate == nil || *stats.NewestDate != "2026-08-27" {
		t.Errorf("Unexpected newest date: %v", stats.NewestDate)
	}
	if stats.AvgRetryCount != 0.5 {
		t.Errorf("Expected avg retry 0.5, got %f", stats.AvgRetryCount)
	}
}

func TestPendingLoadMissingSnapshot(t *testing.T) {
	storage := newTestStorage(t)

	items, err := storage.Load(context.Background())
	if err != nil {
		t.Fatalf("Load with no snapshot must not error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected empty queue, got %d items", len(items))
	}
}

func TestPendingUpdateRetryCountUnknownKey(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	if err := storage.UpdateRetryCount(ctx, "GHOST", "2026-01-01"); err != nil {
		t.Fatalf("UpdateRetryCount on absent key must be a no-op: %v", err)
	}

	items, _ := storage.Load(ctx)
	if len(items) != 0 {
		t.Errorf("UpdateRetryCount must never create items, got %d", len(items))
	}
}
