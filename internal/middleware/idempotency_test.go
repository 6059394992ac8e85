package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestStore(t *testing.T, cfg IdempotencyConfig) *IdempotencyStore {
	t.Helper()
	store := NewIdempotencyStore(cfg)
	t.Cleanup(store.Stop)
	return store
}

func countingHandler(calls *atomic.Int32, status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func keyedRequest(method, path, body, key, userID string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, userID))
	}
	return req
}

func TestIdempotency_ReplaysCachedResponse(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, IdempotencyConfig{})
	var calls atomic.Int32
	h := Idempotency(store)(countingHandler(&calls, http.StatusCreated, `{"id":"abc"}`))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, keyedRequest(http.MethodPost, "/v1/characters", `{"name":"Kira"}`, "key-1", "user-1"))

	second := httptest.NewRecorder()
	h.ServeHTTP(second, keyedRequest(http.MethodPost, "/v1/characters", `{"name":"Kira"}`, "key-1", "user-1"))

	if calls.Load() != 1 {
		t.Errorf("handler ran %d times, want 1", calls.Load())
	}
	if second.Code != http.StatusCreated || second.Body.String() != `{"id":"abc"}` {
		t.Errorf("replay = %d %q", second.Code, second.Body.String())
	}
	if second.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Error("replay must be marked with X-Idempotency-Replayed")
	}
	if second.Header().Get("Content-Type") != "application/json" {
		t.Error("replay must carry the original headers")
	}
	if first.Header().Get("X-Idempotency-Replayed") != "" {
		t.Error("first response must not be marked as a replay")
	}
}

func TestIdempotency_DistinctScopesDoNotCollide(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, IdempotencyConfig{})
	var calls atomic.Int32
	h := Idempotency(store)(countingHandler(&calls, http.StatusOK, "ok"))

	// Same key reused with a different user, body, path, or a different key.
	requests := []*http.Request{
		keyedRequest(http.MethodPost, "/v1/characters", `{"a":1}`, "key-1", "user-1"),
		keyedRequest(http.MethodPost, "/v1/characters", `{"a":1}`, "key-1", "user-2"),
		keyedRequest(http.MethodPost, "/v1/characters", `{"a":2}`, "key-1", "user-1"),
		keyedRequest(http.MethodPost, "/v1/encounters", `{"a":1}`, "key-1", "user-1"),
		keyedRequest(http.MethodPost, "/v1/characters", `{"a":1}`, "key-2", "user-1"),
	}
	for _, req := range requests {
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	if calls.Load() != int32(len(requests)) {
		t.Errorf("handler ran %d times, want %d", calls.Load(), len(requests))
	}
}

func TestIdempotency_PassThroughWithoutKeyOrForSafeMethods(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, IdempotencyConfig{})
	var calls atomic.Int32
	h := Idempotency(store)(countingHandler(&calls, http.StatusOK, "ok"))

	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "/v1/characters", "{}", "", "user-1"))
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "/v1/characters", "{}", "", "user-1"))
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodGet, "/v1/characters", "", "key-1", "user-1"))
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodGet, "/v1/characters", "", "key-1", "user-1"))
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodDelete, "/v1/characters/x", "", "key-1", "user-1"))

	if calls.Load() != 5 {
		t.Errorf("handler ran %d times, want 5 (nothing cached)", calls.Load())
	}
}

func TestIdempotency_HandlerStillSeesRequestBody(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, IdempotencyConfig{})
	var seen string
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = string(body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "/v1/characters", `{"name":"Kira"}`, "key-1", "user-1"))

	if seen != `{"name":"Kira"}` {
		t.Errorf("handler saw body %q", seen)
	}
}

func TestIdempotency_ConcurrentRetryWaitsForFirstAttempt(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, IdempotencyConfig{})
	var calls atomic.Int32
	release := make(chan struct{})
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("done"))
	}))

	var wg sync.WaitGroup
	results := make([]*httptest.ResponseRecorder, 2)
	for i := range results {
		results[i] = httptest.NewRecorder()
		wg.Add(1)
		go func(rr *httptest.ResponseRecorder) {
			defer wg.Done()
			h.ServeHTTP(rr, keyedRequest(http.MethodPost, "/v1/characters", "{}", "key-1", "user-1"))
		}(results[i])
	}

	// Let both goroutines reach the store before releasing the handler.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("handler ran %d times, want 1", calls.Load())
	}
	for i, rr := range results {
		if rr.Code != http.StatusCreated || rr.Body.String() != "done" {
			t.Errorf("response %d = %d %q", i, rr.Code, rr.Body.String())
		}
	}
}

func TestIdempotency_ExpiredEntryRunsAgain(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, IdempotencyConfig{TTL: time.Millisecond})
	var calls atomic.Int32
	h := Idempotency(store)(countingHandler(&calls, http.StatusOK, "ok"))

	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "/v1/characters", "{}", "key-1", "user-1"))
	time.Sleep(5 * time.Millisecond)
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "/v1/characters", "{}", "key-1", "user-1"))

	if calls.Load() != 2 {
		t.Errorf("handler ran %d times, want 2 after expiry", calls.Load())
	}
}

func TestIdempotencyStore_SweepRemovesExpiredRecords(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, IdempotencyConfig{TTL: time.Millisecond, Cleanup: 5 * time.Millisecond})
	var calls atomic.Int32
	h := Idempotency(store)(countingHandler(&calls, http.StatusOK, "ok"))

	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "/v1/characters", "{}", "key-1", "user-1"))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		store.mu.Lock()
		n := len(store.records)
		store.mu.Unlock()
		if n == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("expired record was never swept")
}

func TestIdempotency_UnauthenticatedFallsBackToRemoteAddr(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, IdempotencyConfig{})
	var calls atomic.Int32
	h := Idempotency(store)(countingHandler(&calls, http.StatusOK, "ok"))

	a := keyedRequest(http.MethodPost, "/v1/auth/register", "{}", "key-1", "")
	a.RemoteAddr = "10.0.0.1:1234"
	b := keyedRequest(http.MethodPost, "/v1/auth/register", "{}", "key-1", "")
	b.RemoteAddr = "10.0.0.2:1234"

	h.ServeHTTP(httptest.NewRecorder(), a)
	h.ServeHTTP(httptest.NewRecorder(), b)

	if calls.Load() != 2 {
		t.Errorf("handler ran %d times, want 2 (different addresses)", calls.Load())
	}
}
