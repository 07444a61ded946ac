package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// ScopedRateLimiter throttles one request scope per client. Clients are the
// authenticated user when known and the client IP otherwise.
type ScopedRateLimiter struct {
	scope    string
	period   time.Duration
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewScopedRateLimiter allows count requests per period for each client.
// A count of zero or less disables the limit.
func NewScopedRateLimiter(scope string, count int, period time.Duration) *ScopedRateLimiter {
	rl := &ScopedRateLimiter{
		scope:    scope,
		period:   period,
		burst:    count,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
	if count > 0 && period > 0 {
		rl.limit = rate.Limit(float64(count) / period.Seconds())
	}
	return rl
}

// Scope names the throttled request group.
func (rl *ScopedRateLimiter) Scope() string {
	return rl.scope
}

func (rl *ScopedRateLimiter) enabled() bool {
	return rl.burst > 0 && rl.limit > 0
}

// Allow consumes one request for key and reports whether it is within the limit.
func (rl *ScopedRateLimiter) Allow(key string) bool {
	if !rl.enabled() {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Sweep forgets clients idle for a full period, whose buckets are full again.
func (rl *ScopedRateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) >= rl.period {
			delete(rl.visitors, key)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (rl *ScopedRateLimiter) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}

// Middleware rejects requests over the limit with 429. It must run after the
// auth middleware so requests are keyed by user.
func (rl *ScopedRateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if userID, ok := UserIDFromContext(c); ok {
				key = fmt.Sprintf("user:%d", userID)
			}
			if !rl.Allow(key) {
				return errTooManyRequests()
			}
			return next(c)
		}
	}
}

func errTooManyRequests() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests. Please wait.")
}

// GlobalRateLimitMiddleware throttles every request not skipped. It runs
// before the per-route auth, so it reads the bearer token itself: a valid
// token counts against user, anything else against anon by client IP.
func GlobalRateLimitMiddleware(secret string, user, anon *ScopedRateLimiter, skip func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skip != nil && skip(c) {
				return next(c)
			}
			rl, key := anon, "ip:"+c.RealIP()
			if token, ok, err := bearerToken(c); ok && err == nil {
				if claims, err := ParseToken(secret, token); err == nil {
					rl, key = user, fmt.Sprintf("user:%d", claims.UserID)
				}
			}
			if !rl.Allow(key) {
				return errTooManyRequests()
			}
			return next(c)
		}
	}
}
