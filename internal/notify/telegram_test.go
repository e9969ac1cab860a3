package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPushJoinsTextsIntoOneMessage(t *testing.T) {
	var got []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/sendMessage" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("chat_id") != "42" {
			t.Errorf("Unexpected chat_id: %s", r.PostForm.Get("chat_id"))
		}
		got = append(got, r.PostForm.Get("text"))
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	notifier := NewTelegramNotifier("test-token", "42", WithBaseURL(server.URL))

	result := notifier.Push(context.Background(), []string{"first", "second", "third"})
	if !result.Success {
		t.Fatalf("Push failed: %s", result.Error)
	}
	if len(got) != 1 {
		t.Fatalf("Expected one API call for a batched push, got %d", len(got))
	}
	if got[0] != "first\n\nsecond\n\nthird" {
		t.Errorf("Unexpected message body: %q", got[0])
	}
}

func TestPushUnconfigured(t *testing.T) {
	notifier := NewTelegramNotifier("", "")

	result := notifier.Push(context.Background(), []string{"hello"})
	if result.Success {
		t.Error("Push without credentials must report failure")
	}
	if result.Error == "" {
		t.Error("Expected an error description")
	}
}

func TestPushAPIFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"ok":false,"description":"chat not found"}`)
	}))
	defer server.Close()

	notifier := NewTelegramNotifier("test-token", "bad-chat", WithBaseURL(server.URL))

	result := notifier.Push(context.Background(), []string{"hello"})
	if result.Success {
		t.Fatal("Expected failure result")
	}
	if result.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", result.StatusCode)
	}
	if result.Error != "chat not found" {
		t.Errorf("Expected parsed description, got %q", result.Error)
	}
}

func TestPushEmpty(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	notifier := NewTelegramNotifier("test-token", "42", WithBaseURL(server.URL))

	result := notifier.Push(context.Background(), nil)
	if !result.Success {
		t.Error("Empty push must succeed trivially")
	}
	if called {
		t.Error("Empty push must not hit the API")
	}
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		limit  int
		chunks int
	}{
		{"short message", "hello", 100, 1},
		{"exact fit", strings.Repeat("a", 100), 100, 1},
		{"two paragraphs over limit", strings.Repeat("a", 80) + "\n\n" + strings.Repeat("b", 80), 100, 2},
		{"oversized paragraph", strings.Repeat("a", 250), 100, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := splitMessage(tt.input, tt.limit)
			if len(chunks) != tt.chunks {
				t.Errorf("Expected %d chunks, got %d", tt.chunks, len(chunks))
			}
			for i, chunk := range chunks {
				if len(chunk) > tt.limit {
					t.Errorf("Chunk %d exceeds limit: %d > %d", i, len(chunk), tt.limit)
				}
			}
		})
	}
}
