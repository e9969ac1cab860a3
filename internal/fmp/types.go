// Package fmp provides a client for the Financial Modeling Prep API.
// This package centralizes all FMP API interactions for the application.
package fmp

import (
	"fmt"
	"time"
)

// APIError represents an error from the FMP API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("FMP API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("FMP rate limit exceeded, retry after %v", e.RetryAfter)
}
