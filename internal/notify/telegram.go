// -----------------------------------------------------------------------
// Telegram Notifier - pushes scan and retry notifications to a chat
// Delivery is best-effort: a failed push never aborts the calling cycle
// -----------------------------------------------------------------------

package notify

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
)

const (
	// DefaultBaseURL is the Telegram Bot API endpoint.
	DefaultBaseURL = "https://api.telegram.org"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 15 * time.Second

	// messageLimit stays under Telegram's 4096-character cap per message.
	messageLimit = 4000
)

// TelegramNotifier sends messages through the Telegram Bot API.
type TelegramNotifier struct {
	baseURL    string
	botToken   string
	chatID     string
	httpClient *http.Client
	logger     arbor.ILogger
}

// Option configures the TelegramNotifier.
type Option func(*TelegramNotifier)

// WithBaseURL sets a custom API base URL.
func WithBaseURL(baseURL string) Option {
	return func(n *TelegramNotifier) {
		n.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(n *TelegramNotifier) {
		n.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) Option {
	return func(n *TelegramNotifier) {
		n.logger = logger
	}
}

// NewTelegramNotifier creates a new Telegram notifier.
func NewTelegramNotifier(botToken, chatID string, opts ...Option) *TelegramNotifier {
	n := &TelegramNotifier{
		baseURL:  DefaultBaseURL,
		botToken: botToken,
		chatID:   chatID,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// IsConfigured reports whether both the bot token and chat ID are set.
func (n *TelegramNotifier) IsConfigured() bool {
	return n.botToken != "" && n.chatID != ""
}

// Push joins the given texts into one message and sends it to the chat.
// Messages over the Telegram size cap are split on paragraph boundaries.
// Push never panics and never returns an error through the result in a way
// that should abort a cycle; callers log the result and move on.
func (n *TelegramNotifier) Push(ctx context.Context, texts []string) models.PushResult {
	if len(texts) == 0 {
		return models.PushResult{Success: true}
	}

	if !n.IsConfigured() {
		if n.logger != nil {
			n.logger.Info().Msg("Telegram not configured, dropping notification")
		}
		return models.PushResult{Success: false, Error: "telegram not configured"}
	}

	message := strings.Join(texts, "\n\n")

	for _, chunk := range splitMessage(message, messageLimit) {
		if result := n.sendMessage(ctx, chunk); !result.Success {
			return result
		}
	}

	return models.PushResult{Success: true, StatusCode: http.StatusOK}
}

func (n *TelegramNotifier) sendMessage(ctx context.Context, text string) models.PushResult {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)

	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return models.PushResult{Success: false, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		if n.logger != nil {
			n.logger.Warn().Err(err).Msg("Telegram push failed")
		}
		return models.PushResult{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		apiErr := parseAPIError(body)
		if n.logger != nil {
			n.logger.Warn().
				Int("status", resp.StatusCode).
				Str("error", apiErr).
				Msg("Telegram push rejected")
		}
		return models.PushResult{Success: false, StatusCode: resp.StatusCode, Error: apiErr}
	}

	return models.PushResult{Success: true, StatusCode: resp.StatusCode}
}

// parseAPIError extracts the description from a Telegram error response.
func parseAPIError(body []byte) string {
	var apiResp struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &apiResp); err == nil && apiResp.Description != "" {
		return apiResp.Description
	}
	return string(body)
}

// splitMessage breaks a message into chunks no longer than limit, preferring
// paragraph boundaries so batched results stay readable.
func splitMessage(message string, limit int) []string {
	if len(message) <= limit {
		return []string{message}
	}

	var chunks []string
	var current strings.Builder
	for _, paragraph := range strings.Split(message, "\n\n") {
		// A single oversized paragraph is hard-split
		for len(paragraph) > limit {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			chunks = append(chunks, paragraph[:limit])
			paragraph = paragraph[limit:]
		}

		if current.Len() > 0 && current.Len()+2+len(paragraph) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
