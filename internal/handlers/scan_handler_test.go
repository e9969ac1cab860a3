package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
)

// mockScheduler implements interfaces.SchedulerService for testing
type mockScheduler struct {
	triggerScanFunc  func(opts models.ScanOptions) error
	triggerRetryFunc func() error
	lastOpts         models.ScanOptions
}

func (m *mockScheduler) Start() error    { return nil }
func (m *mockScheduler) Stop() error     { return nil }
func (m *mockScheduler) IsRunning() bool { return true }

func (m *mockScheduler) TriggerScan(opts models.ScanOptions) error {
	m.lastOpts = opts
	if m.triggerScanFunc != nil {
		return m.triggerScanFunc(opts)
	}
	return nil
}

func (m *mockScheduler) TriggerRetry() error {
	if m.triggerRetryFunc != nil {
		return m.triggerRetryFunc()
	}
	return nil
}

func (m *mockScheduler) JobStatuses() map[string]interfaces.JobStatus {
	return map[string]interfaces.JobStatus{}
}

func executeTrigger(handler *ScanHandler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	if path == "/api/retry/trigger" {
		handler.TriggerRetryHandler(rec, req)
	} else {
		handler.TriggerScanHandler(rec, req)
	}
	return rec
}

func TestTriggerScanHandler_Success(t *testing.T) {
	scheduler := &mockScheduler{}
	handler := NewScanHandler(scheduler, arbor.NewLogger())

	rec := executeTrigger(handler, "POST", "/api/scan/trigger", `{"date":"2026-08-15","skip_dedup":true}`)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if scheduler.lastOpts.Date != "2026-08-15" {
		t.Errorf("Expected date passed through, got %q", scheduler.lastOpts.Date)
	}
	if !scheduler.lastOpts.SkipDedup {
		t.Error("Expected skip_dedup passed through")
	}
}

func TestTriggerScanHandler_EmptyBody(t *testing.T) {
	scheduler := &mockScheduler{}
	handler := NewScanHandler(scheduler, arbor.NewLogger())

	rec := executeTrigger(handler, "POST", "/api/scan/trigger", "")

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 for empty body, got %d", rec.Code)
	}
	if scheduler.lastOpts != (models.ScanOptions{}) {
		t.Errorf("Expected zero options, got %+v", scheduler.lastOpts)
	}
}

func TestTriggerScanHandler_InvalidDate(t *testing.T) {
	scheduler := &mockScheduler{}
	handler := NewScanHandler(scheduler, arbor.NewLogger())

	rec := executeTrigger(handler, "POST", "/api/scan/trigger", `{"date":"15/08/2026"}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestTriggerScanHandler_MethodNotAllowed(t *testing.T) {
	handler := NewScanHandler(&mockScheduler{}, arbor.NewLogger())

	rec := executeTrigger(handler, "GET", "/api/scan/trigger", "")

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}

func TestTriggerScanHandler_AlreadyRunning(t *testing.T) {
	scheduler := &mockScheduler{
		triggerScanFunc: func(opts models.ScanOptions) error {
			return fmt.Errorf("job daily-scan is already running")
		},
	}
	handler := NewScanHandler(scheduler, arbor.NewLogger())

	rec := executeTrigger(handler, "POST", "/api/scan/trigger", "")

	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
}

func TestTriggerRetryHandler_Success(t *testing.T) {
	called := false
	scheduler := &mockScheduler{
		triggerRetryFunc: func() error {
			called = true
			return nil
		},
	}
	handler := NewScanHandler(scheduler, arbor.NewLogger())

	rec := executeTrigger(handler, "POST", "/api/retry/trigger", "")

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if !called {
		t.Error("Expected retry trigger to be called")
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["status"] != "started" {
		t.Errorf("Expected started status, got %v", resp["status"])
	}
}
