package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ternarybob/specto/internal/interfaces"
)

func TestAnalyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/analyze" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Bad request body: %v", err)
		}
		if req["symbol"] != "AAPL" || req["date"] != "2026-08-27" {
			t.Errorf("Unexpected payload: %v", req)
		}

		fmt.Fprint(w, `{
			"trade_long": true,
			"prediction": "UP",
			"direction_score": 8.5,
			"reasons": ["Guidance raised", "Margin expansion", "Buyback acceleration"]
		}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	verdict, err := client.Analyze(context.Background(), "AAPL", "2026-08-27")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !verdict.LongEligible {
		t.Error("Expected long-eligible verdict")
	}
	if verdict.Prediction != "UP" {
		t.Errorf("Expected prediction UP, got %s", verdict.Prediction)
	}
	if verdict.DirectionScore != 8.5 {
		t.Errorf("Expected direction score 8.5, got %f", verdict.DirectionScore)
	}
	if verdict.Confidence != 0.85 {
		t.Errorf("Expected confidence 0.85, got %f", verdict.Confidence)
	}
	if len(verdict.Reasons) != 3 {
		t.Errorf("Expected 3 reasons, got %d", len(verdict.Reasons))
	}
}

func TestAnalyzeTranscriptNotReady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"detail":"transcript not found"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	_, err := client.Analyze(context.Background(), "MSFT", "2026-08-26")
	if !errors.Is(err, interfaces.ErrTranscriptNotReady) {
		t.Fatalf("Expected ErrTranscriptNotReady, got %v", err)
	}
}

func TestAnalyzeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "model backend unavailable")
	}))
	defer server.Close()

	client := NewClient(server.URL)

	_, err := client.Analyze(context.Background(), "NVDA", "2026-08-26")
	if err == nil {
		t.Fatal("Expected error from 500 response")
	}
	if errors.Is(err, interfaces.ErrTranscriptNotReady) {
		t.Fatal("Server errors must not look like a pending transcript")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", apiErr.StatusCode)
	}
}

func TestListAnalyzed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analyses" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("from") != "2026-08-24" || r.URL.Query().Get("to") != "2026-08-27" {
			t.Errorf("Unexpected range: %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `[
			{"symbol":"AAPL","date":"2026-08-27"},
			{"symbol":"MSFT","date":"2026-08-26"}
		]`)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	from, _ := time.Parse("2006-01-02", "2026-08-24")
	to, _ := time.Parse("2006-01-02", "2026-08-27")

	keys, err := client.ListAnalyzed(context.Background(), from, to)
	if err != nil {
		t.Fatalf("ListAnalyzed failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("Expected 2 keys, got %d", len(keys))
	}
	if keys[0].Key() != "AAPL|2026-08-27" {
		t.Errorf("Unexpected first key: %s", keys[0].Key())
	}
}
