package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func withServer(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	oldURL := apiURL
	server := httptest.NewServer(h)
	apiURL = server.URL
	t.Cleanup(func() {
		apiURL = oldURL
		server.Close()
	})
}

func TestCompleteOmitsTemperatureForDenylist(t *testing.T) {
	var bodyMu sync.Mutex
	var lastBody map[string]any

	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		bodyMu.Lock()
		lastBody = payload
		bodyMu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"An answer."}}]}`))
	})
	t.Setenv("LLM_NO_TEMP0_MODELS", "o4-mini, custom-model")

	client, err := NewClient("test-key", "custom-model")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	got, err := client.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "An answer." {
		t.Fatalf("unexpected answer %q", got)
	}

	bodyMu.Lock()
	_, hasTemp := lastBody["temperature"]
	bodyMu.Unlock()
	if hasTemp {
		t.Fatalf("expected temperature to be omitted for denylisted model")
	}
}

func TestCompleteRetriesWithoutTemperature(t *testing.T) {
	var reqBodies []map[string]any
	var mu sync.Mutex

	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		mu.Lock()
		reqBodies = append(reqBodies, payload)
		callNum := len(reqBodies)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if callNum == 1 {
			_, _ = w.Write([]byte(`{"error":{"message":"Unsupported value: 'temperature' does not support 0 with this model.","type":"invalid_request_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})
	t.Setenv("LLM_NO_TEMP0_MODELS", "")

	client, err := NewClient("test-key", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Complete(context.Background(), "prompt"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reqBodies) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqBodies))
	}
	if _, ok := reqBodies[0]["temperature"]; !ok {
		t.Fatalf("expected first request to include temperature")
	}
	if _, ok := reqBodies[1]["temperature"]; ok {
		t.Fatalf("expected retry request to omit temperature")
	}
}

func TestCompleteNoInfiniteRetry(t *testing.T) {
	var mu sync.Mutex
	var calls int
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":{"message":"Unsupported value: 'temperature' does not support 0 with this model.","type":"invalid_request_error"}}`))
	})
	t.Setenv("LLM_NO_TEMP0_MODELS", "")

	client, err := NewClient("test-key", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Complete(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error on repeated temperature unsupported response")
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Fatalf("expected 2 requests (one retry), got %d", calls)
	}
}

func TestCompleteSurfacesHTTPErrors(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	})

	client, err := NewClient("bad-key", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Complete(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error")
	}
}
