// Package classifier holds the pure candidate-selection logic of the scan
// cycle: dedup against already-analyzed calls, exclusion of instruments that
// are not operating companies, and deterministic ordering.
package classifier

import (
	"sort"
	"strings"

	"github.com/ternarybob/specto/internal/models"
)

// ExcludeFilter reports whether an earnings event should be dropped before
// analysis.
type ExcludeFilter func(item models.EarningsCallItem) bool

// fundKeywords flag closed-end funds and similar vehicles by name. These
// entities file earnings dates but have no transcripts worth analyzing.
var fundKeywords = []string{
	" fund",
	"closed end",
	"closed-end",
	"municipal income",
	"income trust",
	"capital corp",
}

// fundIssuers are sponsors whose listed vehicles are practically always
// funds, whatever the reported sector says.
var fundIssuers = []string{
	"blackrock",
	"nuveen",
	"eaton vance",
	"pimco",
	"john hancock",
	"abrdn",
	"invesco",
}

// fundSectors are the sector labels under which fund vehicles report.
// An empty sector is treated as suspect rather than trusted.
var fundSectors = map[string]bool{
	"Financial Services": true,
	"Financials":         true,
	"":                   true,
}

// DefaultExcludeFilter drops closed-end funds and trust vehicles.
func DefaultExcludeFilter(item models.EarningsCallItem) bool {
	name := strings.ToLower(item.Company)

	for _, issuer := range fundIssuers {
		if strings.HasPrefix(name, issuer) {
			return true
		}
	}

	if !fundSectors[item.Sector] {
		return false
	}
	for _, keyword := range fundKeywords {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}

// FilterAnalyzed removes events whose (symbol, date) key is in the analyzed
// set. Order is preserved.
func FilterAnalyzed(items []models.EarningsCallItem, analyzed []models.AnalyzedKey) []models.EarningsCallItem {
	if len(analyzed) == 0 {
		return items
	}

	done := make(map[string]bool, len(analyzed))
	for _, key := range analyzed {
		done[key.Key()] = true
	}

	kept := make([]models.EarningsCallItem, 0, len(items))
	for _, item := range items {
		if done[item.Key()] {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// FilterExcluded applies the exclusion filter and returns the kept events
// plus the excluded ones for logging.
func FilterExcluded(items []models.EarningsCallItem, filter ExcludeFilter) (kept, excluded []models.EarningsCallItem) {
	if filter == nil {
		return items, nil
	}

	kept = make([]models.EarningsCallItem, 0, len(items))
	for _, item := range items {
		if filter(item) {
			excluded = append(excluded, item)
			continue
		}
		kept = append(kept, item)
	}
	return kept, excluded
}

// SortAndCap orders events by date descending, then market cap descending,
// and truncates to max. The sort is stable so equal events keep their
// calendar order. Unknown market caps sort last within their date.
func SortAndCap(items []models.EarningsCallItem, max int) []models.EarningsCallItem {
	sorted := make([]models.EarningsCallItem, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date > sorted[j].Date
		}
		return sorted[i].MarketCap > sorted[j].MarketCap
	})

	if max > 0 && len(sorted) > max {
		sorted = sorted[:max]
	}
	return sorted
}
