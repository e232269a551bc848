package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestGlobalLimiterEnforcesLimit(t *testing.T) {
	cfg := Config{
		GlobalEnabled: true,
		GlobalLimit:   2,
		GlobalWindow:  time.Minute,
	}
	handler := GlobalLimiter(cfg)(okHandler())

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, httptest.NewRequest("GET", "/health", nil))
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on third request, got %d", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	var body struct {
		Error             string `json:"error"`
		RetryAfterSeconds int    `json:"retry_after_seconds"`
	}
	if err := json.Unmarshal(last.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if body.Error != "rate_limit_exceeded" {
		t.Errorf("expected rate_limit_exceeded, got %q", body.Error)
	}
	if body.RetryAfterSeconds != 60 {
		t.Errorf("expected 60s retry, got %d", body.RetryAfterSeconds)
	}
}

func TestGlobalLimiterDisabled(t *testing.T) {
	handler := GlobalLimiter(Config{GlobalEnabled: false})(okHandler())

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected all requests to pass when disabled, got %d", rec.Code)
		}
	}
}

func TestIPLimiterIsolatesClients(t *testing.T) {
	cfg := Config{
		PerIPEnabled: true,
		PerIPLimit:   1,
		PerIPWindow:  time.Minute,
	}
	handler := IPLimiter(cfg)(okHandler())

	reqA := httptest.NewRequest("GET", "/health", nil)
	reqA.RemoteAddr = "10.0.0.1:1234"
	reqB := httptest.NewRequest("GET", "/health", nil)
	reqB.RemoteAddr = "10.0.0.2:1234"

	recA1 := httptest.NewRecorder()
	handler.ServeHTTP(recA1, reqA)
	if recA1.Code != http.StatusOK {
		t.Fatalf("expected first request from A to pass, got %d", recA1.Code)
	}

	reqA2 := httptest.NewRequest("GET", "/health", nil)
	reqA2.RemoteAddr = "10.0.0.1:1234"
	recA2 := httptest.NewRecorder()
	handler.ServeHTTP(recA2, reqA2)
	if recA2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request from A limited, got %d", recA2.Code)
	}

	recB := httptest.NewRecorder()
	handler.ServeHTTP(recB, reqB)
	if recB.Code != http.StatusOK {
		t.Errorf("expected request from B unaffected, got %d", recB.Code)
	}
}
