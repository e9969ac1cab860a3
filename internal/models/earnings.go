package models

import (
	"fmt"
	"time"
)

// DateFormat is the calendar date layout used throughout the service.
const DateFormat = "2006-01-02"

// AnalysisStatus is the outcome of analyzing one earnings call.
type AnalysisStatus string

const (
	// StatusBuy indicates the call qualified as long-eligible.
	StatusBuy AnalysisStatus = "BUY"

	// StatusNoAction indicates the analysis completed without a long signal.
	StatusNoAction AnalysisStatus = "NO_ACTION"

	// StatusPending indicates the transcript is not yet available (retryable).
	StatusPending AnalysisStatus = "PENDING"

	// StatusError indicates a non-retryable failure for this cycle.
	StatusError AnalysisStatus = "ERROR"
)

// EarningsCallItem is a candidate earnings event produced by the calendar
// provider. Immutable once fetched.
type EarningsCallItem struct {
	Symbol    string  `json:"symbol"`
	Company   string  `json:"company"`
	Date      string  `json:"date"` // YYYY-MM-DD
	Sector    string  `json:"sector,omitempty"`
	MarketCap float64 `json:"market_cap,omitempty"`
}

// Key returns the (symbol, date) identity of the event.
func (e EarningsCallItem) Key() string {
	return e.Symbol + "|" + e.Date
}

// AnalyzedKey identifies an earnings call that has already been analyzed.
type AnalyzedKey struct {
	Symbol string `json:"symbol"`
	Date   string `json:"date"`
}

// Key returns the (symbol, date) identity in the same form as
// EarningsCallItem.Key.
func (k AnalyzedKey) Key() string {
	return k.Symbol + "|" + k.Date
}

// Verdict is the response of the external analysis service for one call.
type Verdict struct {
	LongEligible   bool     `json:"long_eligible"`
	Prediction     string   `json:"prediction,omitempty"` // UP or DOWN
	Confidence     float64  `json:"confidence,omitempty" validate:"gte=0,lte=1"`
	DirectionScore float64  `json:"direction_score,omitempty" validate:"gte=0,lte=10"`
	Reasons        []string `json:"reasons,omitempty"`
}

// SymbolAnalysis is the outcome of one analysis attempt. Never persisted on
// its own; aggregated into cycle results or folded into the pending queue.
type SymbolAnalysis struct {
	Symbol         string         `json:"symbol"`
	Company        string         `json:"company"`
	Date           string         `json:"date"`
	Status         AnalysisStatus `json:"status"`
	Confidence     float64        `json:"confidence,omitempty"`
	Prediction     string         `json:"prediction,omitempty"`
	Reasons        []string       `json:"reasons,omitempty"`
	DirectionScore float64        `json:"direction_score,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// PendingItem is an earnings call awaiting retry because its transcript was
// not available when first analyzed.
type PendingItem struct {
	EarningsCallItem
	AddedAt     time.Time  `json:"added_at"`
	RetryCount  int        `json:"retry_count"`
	LastRetryAt *time.Time `json:"last_retry_at,omitempty"`
}

// PendingSnapshot is the persisted form of the pending queue: one versioned
// document replaced wholesale on every write.
type PendingSnapshot struct {
	SchemaVersion int           `json:"schema_version"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Items         []PendingItem `json:"items"`
}

// PendingSchemaVersion is the current snapshot schema version.
const PendingSchemaVersion = 1

// QueueStats summarizes the pending queue.
type QueueStats struct {
	TotalCount    int     `json:"total_count"`
	OldestDate    *string `json:"oldest_date"`
	NewestDate    *string `json:"newest_date"`
	AvgRetryCount float64 `json:"avg_retry_count"`
}

// ScanOptions controls one scan cycle. The zero value runs a default
// scheduled scan: window ending at "today minus the configured offset",
// extended back by the configured lookback.
type ScanOptions struct {
	// Date is an explicit window end date (YYYY-MM-DD). Empty means
	// "now minus the configured scan offset".
	Date string `json:"date,omitempty"`

	// LookbackDays overrides the configured lookback when > 0.
	LookbackDays int `json:"lookback_days,omitempty"`

	// SkipDedup disables the already-analyzed filter.
	SkipDedup bool `json:"skip_dedup,omitempty"`

	// RangeMode extends an explicit Date backward by the lookback. When
	// false and Date is set, only that single day is scanned.
	RangeMode bool `json:"range_mode,omitempty"`
}

// DailyScanResult summarizes one scan cycle.
type DailyScanResult struct {
	ScanID      string    `json:"scan_id"`
	ScannedAt   time.Time `json:"scanned_at"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	TotalEvents int       `json:"total_events"` // fetched from the calendar
	Analyzed    int       `json:"analyzed"`     // classified and analyzed this cycle

	BuyList      []SymbolAnalysis `json:"buy_list"`
	NoActionList []SymbolAnalysis `json:"no_action_list"`
	PendingList  []SymbolAnalysis `json:"pending_list"`
	ErrorList    []SymbolAnalysis `json:"error_list"`

	PendingQueueSize int `json:"pending_queue_size"`
}

// RetryQueueResult summarizes one retry cycle.
type RetryQueueResult struct {
	RetryID   string    `json:"retry_id"`
	RanAt     time.Time `json:"ran_at"`
	Processed int       `json:"processed_count"` // queue size at cycle start

	SuccessCount      int `json:"success_count"`
	StillPendingCount int `json:"still_pending_count"`
	ExpiredCount      int `json:"expired_count"`

	BuyList      []SymbolAnalysis `json:"buy_list"`
	NoActionList []SymbolAnalysis `json:"no_action_list"`
}

// PushResult is the per-call outcome of a notification push.
type PushResult struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	Error      string `json:"error,omitempty"`
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
