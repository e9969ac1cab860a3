// Package analysis provides a client for the earnings-analysis backend.
// The backend reads the call transcript and prices, produces a verdict and
// records every completed analysis for later dedup queries.
package analysis

import (
	"fmt"
	"time"
)

// DefaultTimeout is generous on purpose. The backend fetches transcripts
// and runs a full model pass per request, which can take minutes.
const DefaultTimeout = 10 * time.Minute

// APIError represents an error from the analysis backend.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("analysis API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// analyzeResponse is the verdict wire format.
type analyzeResponse struct {
	TradeLong      bool     `json:"trade_long"`
	Prediction     string   `json:"prediction"`
	DirectionScore float64  `json:"direction_score"`
	Reasons        []string `json:"reasons"`
}

// analyzedEntry is one recorded analysis in the dedup listing.
type analyzedEntry struct {
	Symbol string `json:"symbol"`
	Date   string `json:"date"`
}
