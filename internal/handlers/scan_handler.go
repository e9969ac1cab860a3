package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
)

// ScanHandler exposes manual scan and retry triggers. Both are
// fire-and-forget: the response acknowledges the trigger, the cycle runs in
// the background behind the scheduler's serialization.
type ScanHandler struct {
	scheduler interfaces.SchedulerService
	logger    arbor.ILogger
}

// NewScanHandler creates a new ScanHandler
func NewScanHandler(scheduler interfaces.SchedulerService, logger arbor.ILogger) *ScanHandler {
	return &ScanHandler{
		scheduler: scheduler,
		logger:    logger,
	}
}

// TriggerScanHandler handles POST /api/scan/trigger.
// Request body is optional; when present it carries ScanOptions.
func (h *ScanHandler) TriggerScanHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var opts models.ScanOptions
	if r.Body != nil {
		body, err := io.ReadAll(r.Body)
		if err == nil && len(body) > 0 {
			if err := json.Unmarshal(body, &opts); err != nil {
				WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
				return
			}
		}
	}

	if opts.Date != "" {
		if _, err := models.ParseDate(opts.Date); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
	}

	if err := h.scheduler.TriggerScan(opts); err != nil {
		if strings.Contains(err.Error(), "already running") {
			WriteError(w, http.StatusConflict, err.Error())
			return
		}
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	h.logger.Info().Str("date", opts.Date).Msg("Scan triggered via API")
	WriteStarted(w, "Scan started")
}

// TriggerRetryHandler handles POST /api/retry/trigger
func (h *ScanHandler) TriggerRetryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := h.scheduler.TriggerRetry(); err != nil {
		if strings.Contains(err.Error(), "already running") {
			WriteError(w, http.StatusConflict, err.Error())
			return
		}
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	h.logger.Info().Msg("Retry triggered via API")
	WriteStarted(w, "Retry started")
}
