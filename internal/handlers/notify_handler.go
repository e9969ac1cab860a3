package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/interfaces"
)

// NotifyHandler exposes a notification test endpoint for verifying the
// Telegram wiring without waiting for a scan cycle.
type NotifyHandler struct {
	notifier interfaces.Notifier
	logger   arbor.ILogger
}

// NewNotifyHandler creates a new NotifyHandler
func NewNotifyHandler(notifier interfaces.Notifier, logger arbor.ILogger) *NotifyHandler {
	return &NotifyHandler{
		notifier: notifier,
		logger:   logger,
	}
}

// TestHandler handles POST /api/notify/test
func (h *NotifyHandler) TestHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	message := "🔔 Specto notification test"
	if r.Body != nil {
		body, err := io.ReadAll(r.Body)
		if err == nil && len(body) > 0 {
			var req struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(body, &req); err != nil {
				WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
				return
			}
			if req.Message != "" {
				message = req.Message
			}
		}
	}

	result := h.notifier.Push(r.Context(), []string{message})
	if !result.Success {
		h.logger.Warn().Str("error", result.Error).Msg("Notification test failed")
		WriteJSON(w, http.StatusBadGateway, result)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
