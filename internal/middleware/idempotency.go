package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"
)

// cachedResponse is a completed response held for replay.
type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

// idempotencyRecord tracks one fingerprinted request. Until the first
// attempt finishes, result is nil and done is open; waiters block on done.
type idempotencyRecord struct {
	result    *cachedResponse
	done      chan struct{}
	expiresAt time.Time
}

func (rec *idempotencyRecord) inFlight() bool { return rec.result == nil }

// IdempotencyConfig holds configuration for the idempotency replay cache
type IdempotencyConfig struct {
	TTL     time.Duration // How long completed responses are replayable (default 24h)
	Cleanup time.Duration // Sweep interval for expired records (default 1h)
}

// IdempotencyStore caches responses to requests carrying an Idempotency-Key
// so client retries of a mutation observe the original outcome instead of
// running it twice.
type IdempotencyStore struct {
	mu      sync.Mutex
	records map[string]*idempotencyRecord
	ttl     time.Duration
	stop    chan struct{}
}

// NewIdempotencyStore creates a store and starts its cleanup sweeper.
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = time.Hour
	}

	s := &IdempotencyStore{
		records: make(map[string]*idempotencyRecord),
		ttl:     cfg.TTL,
		stop:    make(chan struct{}),
	}
	go s.sweep(cfg.Cleanup)
	return s
}

// Stop halts the cleanup sweeper.
func (s *IdempotencyStore) Stop() {
	close(s.stop)
}

func (s *IdempotencyStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, rec := range s.records {
				if !rec.inFlight() && rec.expiresAt.Before(now) {
					delete(s.records, key)
				}
			}
			s.mu.Unlock()
		case <-s.stop:
			return
		}
	}
}

// begin claims the fingerprint for this request. It returns the record to
// complete when this caller is the first attempt (owner true), or the
// existing record when another attempt already claimed it.
func (s *IdempotencyStore) begin(key string) (rec *idempotencyRecord, owner bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[key]; ok {
		if existing.inFlight() || existing.expiresAt.After(time.Now()) {
			return existing, false
		}
		// Expired; fall through and reclaim.
	}

	rec = &idempotencyRecord{done: make(chan struct{})}
	s.records[key] = rec
	return rec, true
}

// complete publishes the captured response and releases any waiters.
func (s *IdempotencyStore) complete(rec *idempotencyRecord, res *cachedResponse) {
	s.mu.Lock()
	rec.result = res
	rec.expiresAt = time.Now().Add(s.ttl)
	s.mu.Unlock()
	close(rec.done)
}

// fingerprint ties a cached response to the user, key, and exact request, so
// reusing a key with a different payload never replays the wrong response.
func fingerprint(userID, idempotencyKey, method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(userID))
	h.Write([]byte(idempotencyKey))
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// replayWriter records the response while passing it through.
type replayWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *replayWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *replayWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func writeReplay(w http.ResponseWriter, res *cachedResponse) {
	for name, values := range res.headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(res.status)
	_, _ = w.Write(res.body)
}

// Idempotency returns middleware that deduplicates POST and PATCH requests
// carrying an Idempotency-Key header. The first attempt runs normally and its
// response is cached; retries within the TTL get the cached response back
// with X-Idempotency-Replayed set. A retry that arrives while the first
// attempt is still running waits for it rather than racing it.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID := GetUserID(r.Context())
			if userID == "" {
				// Unauthenticated requests are scoped by address instead.
				userID = r.RemoteAddr
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			rec, owner := store.begin(fingerprint(userID, key, r.Method, r.URL.Path, body))
			if !owner {
				<-rec.done
				if rec.result != nil {
					writeReplay(w, rec.result)
				}
				return
			}

			rw := &replayWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			store.complete(rec, &cachedResponse{
				status:  rw.status,
				headers: rw.Header().Clone(),
				body:    rw.body.Bytes(),
			})
		})
	}
}
