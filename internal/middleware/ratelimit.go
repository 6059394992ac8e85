package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/critforge/api/internal/model"
)

// RateLimitConfig holds rate limiter configuration
type RateLimitConfig struct {
	Rate    int           // Requests per window (default 100)
	Window  time.Duration // Time window (default 1 minute)
	Burst   int           // Extra requests tolerated above the rate (default 20)
	Cleanup time.Duration // Sweep interval for idle buckets (default 5 minutes)
}

// bucket tracks one caller's remaining budget. Tokens refill continuously in
// proportion to elapsed time rather than all at once on a window boundary.
type bucket struct {
	tokens    int
	lastReset time.Time
}

func (b *bucket) refill(now time.Time, rate, capacity int, window time.Duration) {
	elapsed := now.Sub(b.lastReset)
	if elapsed >= window {
		b.tokens = capacity
		b.lastReset = now
		return
	}

	earned := int(float64(rate) * (float64(elapsed) / float64(window)))
	if earned == 0 {
		return
	}
	b.tokens += earned
	if b.tokens > capacity {
		b.tokens = capacity
	}
	b.lastReset = now
}

// RateLimiter implements per-key token bucket rate limiting
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int
	window  time.Duration
	burst   int
	cleanup time.Duration
	stop    chan struct{}
}

// NewRateLimiter creates a rate limiter and starts its cleanup sweeper.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Rate == 0 {
		cfg.Rate = 100
	}
	if cfg.Window == 0 {
		cfg.Window = time.Minute
	}
	if cfg.Burst == 0 {
		cfg.Burst = 20
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = 5 * time.Minute
	}

	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    cfg.Rate,
		window:  cfg.Window,
		burst:   cfg.Burst,
		cleanup: cfg.Cleanup,
		stop:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Stop halts the cleanup sweeper.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupExpired()
		case <-rl.stop:
			return
		}
	}
}

// cleanupExpired drops buckets idle for at least two windows. Their budget
// would be fully refilled anyway, so forgetting them loses nothing.
func (rl *RateLimiter) cleanupExpired() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-2 * rl.window)
	for key, b := range rl.buckets {
		if b.lastReset.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

// Allow consumes one token for key and reports whether the request may
// proceed, along with the remaining budget and when it resets.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, resetTime time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	capacity := rl.rate + rl.burst

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: capacity - 1, lastReset: now}
		rl.buckets[key] = b
		return true, b.tokens, now.Add(rl.window)
	}

	b.refill(now, rl.rate, capacity, rl.window)
	reset := b.lastReset.Add(rl.window)
	if b.tokens <= 0 {
		return false, 0, reset
	}
	b.tokens--
	return true, b.tokens, reset
}

// RateLimit returns a middleware that applies rate limiting keyed by user ID
// when authenticated, falling back to the remote address.
func RateLimit(limiter *RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := GetUserID(r.Context())
			if key == "" {
				key = r.RemoteAddr
			}

			allowed, remaining, resetTime := limiter.Allow(key)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.rate))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				retryAfter := int(time.Until(resetTime).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests, model.CodeOperationFailed, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
