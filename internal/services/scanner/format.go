package scanner

import (
	"fmt"
	"strings"

	"github.com/ternarybob/specto/internal/models"
)

// formatAnnounce builds the cycle-start notification with a capped ticker
// preview.
func formatAnnounce(start, end string, candidates []models.EarningsCallItem, previewLimit int) string {
	var b strings.Builder

	window := end
	if start != end {
		window = fmt.Sprintf("%s to %s", start, end)
	}
	fmt.Fprintf(&b, "🔍 Earnings scan %s\n%d candidates", window, len(candidates))

	preview := candidates
	if previewLimit > 0 && len(preview) > previewLimit {
		preview = preview[:previewLimit]
	}
	symbols := make([]string, 0, len(preview))
	for _, item := range preview {
		symbols = append(symbols, item.Symbol)
	}
	if len(symbols) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(symbols, ", "))
		if len(candidates) > len(preview) {
			fmt.Fprintf(&b, " and %d more", len(candidates)-len(preview))
		}
	}

	return b.String()
}

// formatScanSummary builds the end-of-cycle notification.
func formatScanSummary(result *models.DailyScanResult) string {
	var b strings.Builder

	window := result.EndDate
	if result.StartDate != result.EndDate {
		window = fmt.Sprintf("%s to %s", result.StartDate, result.EndDate)
	}
	fmt.Fprintf(&b, "📊 Scan complete %s\n", window)
	fmt.Fprintf(&b, "Analyzed %d of %d events\n", result.Analyzed, result.TotalEvents)
	fmt.Fprintf(&b, "BUY %d | no action %d | pending %d | errors %d",
		len(result.BuyList), len(result.NoActionList), len(result.PendingList), len(result.ErrorList))
	if result.PendingQueueSize > 0 {
		fmt.Fprintf(&b, "\nRetry queue: %d waiting", result.PendingQueueSize)
	}

	return b.String()
}

// formatFailure builds the notification for a cycle that could not run.
func formatFailure(stage string, err error) string {
	return fmt.Sprintf("⚠️ Earnings scan failed at %s: %v", stage, err)
}
