package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/interfaces"
)

// QueueHandler exposes the pending retry queue for inspection.
type QueueHandler struct {
	pending interfaces.PendingStorage
	logger  arbor.ILogger
}

// NewQueueHandler creates a new QueueHandler
func NewQueueHandler(pending interfaces.PendingStorage, logger arbor.ILogger) *QueueHandler {
	return &QueueHandler{
		pending: pending,
		logger:  logger,
	}
}

// ListHandler handles GET /api/queue
func (h *QueueHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	items, err := h.pending.Load(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(items),
		"items": items,
	})
}

// StatsHandler handles GET /api/queue/stats
func (h *QueueHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	stats, err := h.pending.Stats(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}
