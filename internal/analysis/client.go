package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
)

// Client is a client for the earnings-analysis backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new analysis backend client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Analyze requests a verdict for one earnings call. When the transcript has
// not been published yet the backend answers 404 and the error wraps
// interfaces.ErrTranscriptNotReady so callers can route the event to the
// pending queue.
func (c *Client) Analyze(ctx context.Context, symbol, date string) (*models.Verdict, error) {
	payload, err := json.Marshal(map[string]string{
		"symbol": symbol,
		"date":   date,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.logger != nil {
		c.logger.Debug().Str("symbol", symbol).Str("date", date).Msg("Requesting earnings analysis")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s %s: %w", symbol, date, interfaces.ErrTranscriptNotReady)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   "/api/analyze",
		}
	}

	var result analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &models.Verdict{
		LongEligible:   result.TradeLong,
		Prediction:     result.Prediction,
		Confidence:     result.DirectionScore / 10,
		DirectionScore: result.DirectionScore,
		Reasons:        result.Reasons,
	}, nil
}

// ListAnalyzed returns the (symbol, date) keys already analyzed in the
// [from, to] range. The scanner uses this set to skip repeat work.
func (c *Client) ListAnalyzed(ctx context.Context, from, to time.Time) ([]models.AnalyzedKey, error) {
	params := url.Values{}
	params.Set("from", from.Format(models.DateFormat))
	params.Set("to", to.Format(models.DateFormat))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/analyses?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   "/api/analyses",
		}
	}

	var entries []analyzedEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	keys := make([]models.AnalyzedKey, 0, len(entries))
	for _, entry := range entries {
		keys = append(keys, models.AnalyzedKey{Symbol: entry.Symbol, Date: entry.Date})
	}
	return keys, nil
}
