package ratelimit

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apierrors "github.com/agent-smit/passguard/internal/errors"
)

// maxIdleKeys bounds the limiter map before idle (fully refilled) limiters
// are swept.
const maxIdleKeys = 10000

type entry struct {
	limiter *rate.Limiter
	limit   int
	window  time.Duration
}

// RateLimiter provides in-memory per-key token-bucket rate limiting. A key
// may burst up to limit requests and refills at limit per window.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// NewRateLimiter creates a new in-memory rate limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Allow checks whether a request with the given key is allowed.
// Returns whether the request is allowed, the whole tokens left in the bucket,
// and the time at which the bucket is full again.
func (rl *RateLimiter) Allow(key string, limit int, window time.Duration) (allowed bool, remaining int, resetAt time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	e := rl.getOrCreate(key, limit, window, now)

	allowed = e.limiter.AllowN(now, 1)
	tokens := math.Max(0, e.limiter.TokensAt(now))
	remaining = int(tokens)

	missing := float64(limit) - tokens
	resetAt = now.Add(time.Duration(missing * float64(window) / float64(limit)))
	return allowed, remaining, resetAt
}

func (rl *RateLimiter) getOrCreate(key string, limit int, window time.Duration, now time.Time) *entry {
	if e, ok := rl.entries[key]; ok && e.limit == limit && e.window == window {
		return e
	}
	if len(rl.entries) >= maxIdleKeys {
		rl.sweep(now)
	}
	e := &entry{
		limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit),
		limit:   limit,
		window:  window,
	}
	rl.entries[key] = e
	return e
}

func (rl *RateLimiter) sweep(now time.Time) {
	for k, e := range rl.entries {
		if e.limiter.TokensAt(now) >= float64(e.limit) {
			delete(rl.entries, k)
		}
	}
}

// Middleware returns an HTTP middleware that enforces rate limits.
// keyFunc extracts the rate limit key from the request (e.g., IP address).
func (rl *RateLimiter) Middleware(limit int, window time.Duration, keyFunc func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			allowed, remaining, resetAt := rl.Allow(key, limit, window)

			// Always set rate limit headers
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetAt.Unix()))

			if !allowed {
				retryAfter := int(math.Ceil(float64(window) / float64(limit) / float64(time.Second)))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"success": false,
					"error": map[string]string{
						"code":    apierrors.CodeRateLimited,
						"message": "Too many requests. Please try again later.",
					},
					"data": nil,
					"meta": map[string]interface{}{
						"timestamp":  time.Now().UTC().Format(time.RFC3339),
						"request_id": r.Header.Get("X-Request-Id"),
					},
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
