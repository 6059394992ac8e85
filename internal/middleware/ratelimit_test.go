package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_Allow_NewKeyGetsBurst(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{Rate: 10, Window: time.Minute, Burst: 5})
	defer rl.Stop()

	allowed, remaining, _ := rl.Allow("user-1")
	if !allowed {
		t.Fatal("first request must be allowed")
	}
	if remaining != 14 { // rate + burst - 1
		t.Errorf("remaining = %d, want 14", remaining)
	}
}

func TestRateLimiter_Allow_ExhaustionBlocks(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{Rate: 2, Window: time.Hour, Burst: 1})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if allowed, _, _ := rl.Allow("user-1"); !allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if allowed, _, _ := rl.Allow("user-1"); allowed {
		t.Error("request past the budget must be blocked")
	}
}

func TestRateLimiter_Allow_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{Rate: 1, Window: time.Hour, Burst: 0})
	defer rl.Stop()

	if allowed, _, _ := rl.Allow("user-1"); !allowed {
		t.Fatal("first user should be allowed")
	}
	if allowed, _, _ := rl.Allow("user-1"); allowed {
		t.Fatal("first user should now be blocked")
	}
	if allowed, _, _ := rl.Allow("user-2"); !allowed {
		t.Error("second user has an independent budget")
	}
}

func TestRateLimit_SetsHeaders(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{Rate: 100, Window: time.Minute, Burst: 20})
	defer rl.Stop()
	handler := &captureHandler{}

	req := httptest.NewRequest(http.MethodGet, "/api/characters", nil)
	rr := httptest.NewRecorder()
	RateLimit(rl)(handler).ServeHTTP(rr, req)

	if !handler.called {
		t.Fatal("handler was not called")
	}
	for _, header := range []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"} {
		if rr.Header().Get(header) == "" {
			t.Errorf("missing %s header", header)
		}
	}
}

func TestRateLimit_Blocked_Returns429(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{Rate: 1, Window: time.Hour, Burst: 0})
	defer rl.Stop()
	wrapped := RateLimit(rl)(&captureHandler{})

	first := httptest.NewRecorder()
	wrapped.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/characters", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d", first.Code)
	}

	second := httptest.NewRecorder()
	wrapped.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/characters", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestRateLimit_KeyedByAuthenticatedUser(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{Rate: 1, Window: time.Hour, Burst: 0})
	defer rl.Stop()
	wrapped := RateLimit(rl)(&captureHandler{})

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/characters", nil)
		if userID != "" {
			req = req.WithContext(context.WithValue(req.Context(), UserIDKey, userID))
		}
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send("user-a"); code != http.StatusOK {
		t.Fatalf("user-a first request = %d", code)
	}
	if code := send("user-a"); code != http.StatusTooManyRequests {
		t.Errorf("user-a second request = %d, want 429", code)
	}
	// Same remote address, different user: separate bucket.
	if code := send("user-b"); code != http.StatusOK {
		t.Errorf("user-b first request = %d, want 200", code)
	}
}

func TestRateLimiter_CleanupRemovesStaleBuckets(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{Rate: 1, Window: 10 * time.Millisecond, Cleanup: time.Hour})
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		rl.Allow(fmt.Sprintf("user-%d", i))
	}
	time.Sleep(30 * time.Millisecond)
	rl.cleanupExpired()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.buckets) != 0 {
		t.Errorf("stale buckets remain: %d", len(rl.buckets))
	}
}
