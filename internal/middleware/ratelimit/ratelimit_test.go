package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	now := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, Methods: []string{http.MethodPost}})
	rl.now = func() time.Time { return now }
	t.Cleanup(rl.Stop)
	return rl, &now
}

func TestLimiter_Allow(t *testing.T) {
	rl, now := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("fourth request in the window must be rejected")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other clients have their own budget")
	}

	*now = now.Add(time.Minute)
	if !rl.Allow("10.0.0.1") {
		t.Error("a new window resets the budget")
	}

	m := rl.GetMetrics()
	if m.Allowed != 5 || m.Rejected != 1 || m.ClientCount != 2 {
		t.Errorf("unexpected metrics %+v", m)
	}
}

func TestLimiter_RemoveStale(t *testing.T) {
	rl, now := newTestLimiter(t, 3)
	rl.Allow("a")
	*now = now.Add(30 * time.Second)
	rl.Allow("b")
	*now = now.Add(40 * time.Second)

	rl.removeStale()
	if rl.ActiveClients() != 1 {
		t.Errorf("ActiveClients() = %d, want 1", rl.ActiveClients())
	}
}

func TestLimiter_Middleware(t *testing.T) {
	rl, now := newTestLimiter(t, 1)
	h := rl.Middleware(func(*http.Request) string { return "local" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	do := func(method string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/transactions", nil))
		return rec
	}

	if rec := do(http.MethodPost); rec.Code != http.StatusNoContent {
		t.Fatalf("first POST = %d", rec.Code)
	}
	*now = now.Add(20 * time.Second)
	rec := do(http.MethodPost)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "40" {
		t.Errorf("Retry-After = %q, want 40", got)
	}
	if rec := do(http.MethodGet); rec.Code != http.StatusNoContent {
		t.Errorf("GET must not be limited, got %d", rec.Code)
	}
}
