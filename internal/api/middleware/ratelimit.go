package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kiranshivaraju/hiretrack/internal/api/response"
	"github.com/kiranshivaraju/hiretrack/internal/cache"
)

const window = 60 * time.Second

// RateLimit counts requests per client IP in fixed one-minute windows aligned
// to the clock. Each window has its own counter key.
type RateLimit struct {
	cache          cache.Cache
	requestsPerMin int
	now            func() time.Time
}

// NewRateLimit creates the middleware. A non-positive limit disables it.
func NewRateLimit(c cache.Cache, requestsPerMin int) *RateLimit {
	return &RateLimit{cache: c, requestsPerMin: requestsPerMin, now: time.Now}
}

func (rl *RateLimit) Limit(next http.Handler) http.Handler {
	if rl == nil || rl.requestsPerMin <= 0 || rl.cache == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := rl.now()
		start := now.Truncate(window)
		reset := start.Add(window)
		key := fmt.Sprintf("%s:%d", cache.RateLimitKey(ClientIP(r)), start.Unix())
		count, err := rl.cache.IncrWithExpiry(r.Context(), key, reset.Sub(now)+time.Second)
		if err != nil {
			// fail open
			slog.Warn("rate limit counter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		remaining := rl.requestsPerMin - int(count)
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMin))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if count > int64(rl.requestsPerMin) {
			retryAfter := int(reset.Sub(now).Round(time.Second) / time.Second)
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			response.Error(w, http.StatusTooManyRequests,
				"RATE_LIMIT_EXCEEDED", "Too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
