package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cre-mailflow/api/internal/platform/httpx"
	"github.com/cre-mailflow/api/internal/platform/requestctx"
)

type rateLimiter interface {
	// Allow reports whether key may proceed and, when it may not, how long until the window resets.
	Allow(key string) (bool, time.Duration)
}

type rateLimitMetrics interface {
	IncRateLimitExceeded(route string)
}

// fixedWindowLimiter counts requests per key in fixed windows. Expired keys are swept at most once
// per window, on the first new key after nextPrune.
type fixedWindowLimiter struct {
	limit     int
	window    time.Duration
	clock     func() time.Time
	mu        sync.Mutex
	store     map[string]rateEntry
	nextPrune time.Time
}

type rateEntry struct {
	count int
	reset time.Time
}

// newFixedWindowLimiter returns nil when limiting is disabled.
func newFixedWindowLimiter(limit int, window time.Duration, clock func() time.Time) rateLimiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &fixedWindowLimiter{
		limit:  limit,
		window: window,
		clock:  clock,
		store:  make(map[string]rateEntry),
	}
}

func (l *fixedWindowLimiter) Allow(key string) (bool, time.Duration) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "anonymous"
	}
	now := l.clock()
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.store[key]
	if !ok || !now.Before(entry.reset) {
		l.store[key] = rateEntry{count: 1, reset: now.Add(l.window)}
		if !now.Before(l.nextPrune) {
			l.pruneExpiredLocked(now)
			l.nextPrune = now.Add(l.window)
		}
		return true, 0
	}

	if entry.count >= l.limit {
		return false, entry.reset.Sub(now)
	}
	entry.count++
	l.store[key] = entry
	return true, 0
}

func (l *fixedWindowLimiter) pruneExpiredLocked(now time.Time) {
	for key, entry := range l.store {
		if !now.Before(entry.reset) {
			delete(l.store, key)
		}
	}
}

// rateLimit rejects callers over the limit with 429 and a Retry-After header.
func rateLimit(limiter rateLimiter, route string, metrics rateLimitMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter := limiter.Allow(clientKey(r))
			if allowed {
				next.ServeHTTP(w, r)
				return
			}
			requestctx.Annotate(r.Context(), "rate_limited", route)
			if metrics != nil {
				metrics.IncRateLimitExceeded(route)
			}
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			httpx.WriteError(r.Context(), w, httpx.NewError("rate_limited", "Too many requests, please try again shortly", http.StatusTooManyRequests))
		})
	}
}
