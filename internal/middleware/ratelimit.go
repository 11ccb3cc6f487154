package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/forkspot/restaurant-reservation/internal/config"
)

// bucket is the token bucket state for one client IP.
type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// tokenBuckets refills lazily on access and evicts idle buckets from a
// janitor, so the map does not grow with every IP ever seen.
type tokenBuckets struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	points  float64
	rate    float64 // tokens per second
}

func newTokenBuckets(points int, interval time.Duration) *tokenBuckets {
	tb := &tokenBuckets{
		buckets: map[string]*bucket{},
		points:  float64(points),
		rate:    float64(points) / interval.Seconds(),
	}
	go tb.janitor()
	return tb
}

func (tb *tokenBuckets) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-5 * time.Minute)
		tb.mu.Lock()
		for k, b := range tb.buckets {
			if b.lastRefill.Before(cutoff) {
				delete(tb.buckets, k)
			}
		}
		tb.mu.Unlock()
	}
}

// take consumes one token for the key, reporting whether the request is
// allowed and how many whole tokens remain.
func (tb *tokenBuckets) take(key string, now time.Time) (bool, int) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: tb.points, lastRefill: now}
		tb.buckets[key] = b
	}
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(tb.points, b.tokens+elapsed*tb.rate)
		b.lastRefill = now
	}
	if b.tokens < 1 {
		return false, 0
	}
	b.tokens--
	return true, int(b.tokens)
}

// NewRateLimiter returns middleware enforcing a per-IP token bucket
// with escalating bans. A client that runs out of tokens is banned for
// cfg.InitialBan; every further violation multiplies the ban by
// cfg.BanFactor up to cfg.MaxBan. Requests from a banned client are
// rejected without touching the bucket.
func NewRateLimiter(cfg config.RateLimitConfig, bans BanStore) echo.MiddlewareFunc {
	if !cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	buckets := newTokenBuckets(cfg.Points, cfg.Interval)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			key := cfg.Prefix + ":" + ip
			ctx := c.Request().Context()

			if left, banned := bans.Banned(ctx, key); banned {
				return tooManyRequests(c, left)
			}

			allowed, remaining := buckets.take(key, time.Now())
			if !allowed {
				ban := bans.Escalate(ctx, key, cfg.InitialBan, cfg.BanFactor, cfg.MaxBan)
				return tooManyRequests(c, ban)
			}

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Points))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			return next(c)
		}
	}
}

func tooManyRequests(c echo.Context, left time.Duration) error {
	secs := int(math.Ceil(left.Seconds()))
	if secs < 1 {
		secs = 1
	}
	c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
	mins := int(math.Ceil(left.Minutes()))
	if mins < 1 {
		mins = 1
	}
	return c.JSON(http.StatusTooManyRequests, echo.Map{
		"error":   "Too many requests. You are banned for " + strconv.Itoa(mins) + " minutes.",
		"message": "rate limit exceeded",
	})
}
