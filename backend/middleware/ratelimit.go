// ABOUTME: Fixed-window rate limiting for planning and fleet endpoints
// ABOUTME: Budgets are tracked per route and client so heavy callers of one route cannot starve another

package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// sweepEvery is how many new windows are opened between sweeps of expired ones
const sweepEvery = 100

type window struct {
	used    int
	resetAt time.Time
}

// RateLimiter admits at most limit requests per key in each period.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	opened  int

	now func() time.Time
}

// NewRateLimiter creates a limiter admitting limit requests per key per period.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Allow reports whether a request for key is admitted. When it is not, the
// returned duration is the time left until the key's window resets. When it
// is, the returned count is the remaining budget in the current window.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(rl.period)}
		rl.windows[key] = w
		rl.opened++
		if rl.opened >= sweepEvery {
			rl.sweepLocked(now)
			rl.opened = 0
		}
	}

	if w.used >= rl.limit {
		return false, 0, w.resetAt.Sub(now)
	}
	w.used++
	return true, rl.limit - w.used, 0
}

// Limit is the number of requests admitted per key per period
func (rl *RateLimiter) Limit() int {
	return rl.limit
}

// Tracked is the number of keys with a window, expired or not
func (rl *RateLimiter) Tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

func (rl *RateLimiter) sweepLocked(now time.Time) {
	for k, w := range rl.windows {
		if !now.Before(w.resetAt) {
			delete(rl.windows, k)
		}
	}
}

// ClientIP identifies the caller by the leftmost X-Forwarded-For address,
// falling back to RemoteAddr. The header is trusted, so deploy behind a proxy
// that sets it.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return "ip:" + ip
		}
	}

	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return "ip:" + host
}

// RouteClientKey keys requests by route and caller, e.g. "POST /api/v1/plan|ip:10.0.0.1"
func RouteClientKey(route string) func(*http.Request) string {
	return func(r *http.Request) string {
		return route + "|" + ClientIP(r)
	}
}

// RateLimit rejects requests over the limiter's budget with 429 and a
// Retry-After header. A nil limiter or key function disables it, and an
// empty key passes the request through.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if limiter == nil || keyFunc == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next(w, r)
				return
			}

			allowed, remaining, retryAfter := limiter.Allow(key)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if allowed {
				next(w, r)
				return
			}

			seconds := int(math.Ceil(retryAfter.Seconds()))
			slog.Warn("Rate limit exceeded", "key", key, "path", sanitizePath(r.URL.Path), "retry_after", seconds)

			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeJSONError(w, "Rate limit exceeded", fmt.Sprintf("retry in %ds", seconds), http.StatusTooManyRequests)
		}
	}
}
