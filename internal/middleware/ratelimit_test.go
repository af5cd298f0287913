package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func hit(t *testing.T, h http.Handler, remoteAddr string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	defer rl.Stop()
	h := rl.Handler(okHandler())

	for i := 0; i < 3; i++ {
		if code := hit(t, h, "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, code)
		}
	}
	if code := hit(t, h, "10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("over-burst request: status = %d, want 429", code)
	}
}

func TestRateLimiter_PerClientBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()
	h := rl.Handler(okHandler())

	if code := hit(t, h, "10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("first client: status = %d, want 200", code)
	}
	if code := hit(t, h, "10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("first client again: status = %d, want 429", code)
	}
	// A different client gets its own bucket.
	if code := hit(t, h, "10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("second client: status = %d, want 200", code)
	}
}

func TestRateLimiter_RejectionBody(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()
	h := rl.Handler(okHandler())

	hit(t, h, "10.0.0.1:1234")

	req := httptest.NewRequest(http.MethodPost, "/api/webhook", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
	if body := rec.Body.String(); body != `{"error":"rate_limited","message":"too many requests"}` {
		t.Errorf("body = %s", body)
	}
}
