package scanner

import (
	"strings"
	"testing"

	"github.com/ternarybob/specto/internal/models"
)

func TestFormatAnnouncePreviewCap(t *testing.T) {
	items := []models.EarningsCallItem{
		{Symbol: "A"}, {Symbol: "B"}, {Symbol: "C"}, {Symbol: "D"},
	}

	text := formatAnnounce("2026-08-26", "2026-08-29", items, 2)
	if !strings.Contains(text, "4 candidates") {
		t.Errorf("Expected candidate count, got: %s", text)
	}
	if !strings.Contains(text, "A, B") || strings.Contains(text, "C") {
		t.Errorf("Expected preview capped at 2 symbols, got: %s", text)
	}
	if !strings.Contains(text, "and 2 more") {
		t.Errorf("Expected overflow note, got: %s", text)
	}
}

func TestFormatScanSummarySingleDay(t *testing.T) {
	result := &models.DailyScanResult{
		StartDate:   "2026-08-27",
		EndDate:     "2026-08-27",
		TotalEvents: 10,
		Analyzed:    4,
		BuyList:     []models.SymbolAnalysis{{Symbol: "A"}},
		PendingList: []models.SymbolAnalysis{{Symbol: "B"}, {Symbol: "C"}},
	}
	result.PendingQueueSize = 5

	text := formatScanSummary(result)
	for _, want := range []string{"2026-08-27", "4 of 10", "BUY 1", "pending 2", "5 waiting"} {
		if !strings.Contains(text, want) {
			t.Errorf("Summary missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "2026-08-27 to") {
		t.Error("Single-day window must not render as a range")
	}
}
