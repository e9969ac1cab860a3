package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/models"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the FMP API.
	DefaultBaseURL = "https://financialmodelingprep.com/api/v3"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 5

	// profileBatchSize is how many symbols one profile request may carry.
	profileBatchSize = 50
)

// Client is an FMP API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

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

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a new FMP API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET request to the API.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return &RateLimitError{RetryAfter: time.Second}
	}

	// Add API key
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)

	// Build URL
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	// Create request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Log request
	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+path).
			Msg("FMP API request")
	}

	// Execute request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	// Check status
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	// Parse response
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// GetEarningsCalendar retrieves earnings events in the [from, to] date range,
// enriched with company name, sector and market cap from the profile
// endpoint. Events below minMarketCap (or without a known market cap) are
// dropped.
func (c *Client) GetEarningsCalendar(ctx context.Context, from, to time.Time, minMarketCap float64) ([]models.EarningsCallItem, error) {
	params := url.Values{}
	params.Set("from", from.Format(models.DateFormat))
	params.Set("to", to.Format(models.DateFormat))

	var events []calendarEvent
	if err := c.get(ctx, "/earning_calendar", params, &events); err != nil {
		return nil, err
	}

	if len(events) == 0 {
		return []models.EarningsCallItem{}, nil
	}

	// Collect unique symbols, skipping foreign listings with exchange
	// suffixes. Transcript coverage outside US listings is too thin to
	// be worth the profile lookups.
	seen := make(map[string]bool)
	symbols := make([]string, 0, len(events))
	for _, event := range events {
		if event.Symbol == "" || strings.Contains(event.Symbol, ".") {
			continue
		}
		if seen[event.Symbol] {
			continue
		}
		seen[event.Symbol] = true
		symbols = append(symbols, event.Symbol)
	}

	profiles, err := c.getProfiles(ctx, symbols)
	if err != nil {
		return nil, err
	}

	items := make([]models.EarningsCallItem, 0, len(events))
	for _, event := range events {
		profile, ok := profiles[event.Symbol]
		if !ok {
			continue
		}
		if profile.MarketCap < minMarketCap {
			continue
		}
		items = append(items, models.EarningsCallItem{
			Symbol:    event.Symbol,
			Company:   profile.CompanyName,
			Date:      event.Date,
			Sector:    profile.Sector,
			MarketCap: profile.MarketCap,
		})
	}

	if c.logger != nil {
		c.logger.Debug().
			Int("events", len(events)).
			Int("candidates", len(items)).
			Msg("Earnings calendar fetched")
	}

	return items, nil
}

// getProfiles fetches company profiles in batches and keys them by symbol.
func (c *Client) getProfiles(ctx context.Context, symbols []string) (map[string]companyProfile, error) {
	profiles := make(map[string]companyProfile, len(symbols))

	for start := 0; start < len(symbols); start += profileBatchSize {
		end := start + profileBatchSize
		if end > len(symbols) {
			end = len(symbols)
		}

		var batch []companyProfile
		path := "/profile/" + strings.Join(symbols[start:end], ",")
		if err := c.get(ctx, path, nil, &batch); err != nil {
			return nil, err
		}
		for _, profile := range batch {
			profiles[profile.Symbol] = profile
		}
	}

	return profiles, nil
}
