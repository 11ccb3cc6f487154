package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkspot/restaurant-reservation/internal/config"
)

func TestTokenBucketAllowsUpToCapacity(t *testing.T) {
	tb := &tokenBuckets{buckets: map[string]*bucket{}, points: 5, rate: 5}
	now := time.Now()
	for i := 0; i < 5; i++ {
		allowed, _ := tb.take("ip", now)
		assert.True(t, allowed, "request %d should pass", i+1)
	}
	allowed, _ := tb.take("ip", now)
	assert.False(t, allowed, "sixth request in the same instant should be blocked")
}

func TestTokenBucketRefills(t *testing.T) {
	tb := &tokenBuckets{buckets: map[string]*bucket{}, points: 5, rate: 5}
	now := time.Now()
	for i := 0; i < 5; i++ {
		tb.take("ip", now)
	}
	allowed, _ := tb.take("ip", now)
	require.False(t, allowed)

	// One second later the bucket is full again.
	allowed, remaining := tb.take("ip", now.Add(time.Second))
	assert.True(t, allowed)
	assert.Equal(t, 4, remaining)
}

func TestMemoryBanStoreEscalation(t *testing.T) {
	s := &MemoryBanStore{entries: map[string]*banEntry{}}
	ctx := context.Background()

	ban := s.Escalate(ctx, "ip", 10*time.Second, 2, time.Hour)
	assert.Equal(t, 10*time.Second, ban)

	ban = s.Escalate(ctx, "ip", 10*time.Second, 2, time.Hour)
	assert.Equal(t, 20*time.Second, ban)

	ban = s.Escalate(ctx, "ip", 10*time.Second, 2, time.Hour)
	assert.Equal(t, 40*time.Second, ban)
}

func TestMemoryBanStoreCapsAtMax(t *testing.T) {
	s := &MemoryBanStore{entries: map[string]*banEntry{}}
	ctx := context.Background()

	var ban time.Duration
	for i := 0; i < 20; i++ {
		ban = s.Escalate(ctx, "ip", 10*time.Second, 2, time.Hour)
	}
	assert.Equal(t, time.Hour, ban)
}

func TestMemoryBanStoreExpiry(t *testing.T) {
	s := &MemoryBanStore{entries: map[string]*banEntry{}}
	ctx := context.Background()

	s.entries["ip"] = &banEntry{until: time.Now().Add(-time.Second), nextBan: 20 * time.Second}
	_, banned := s.Banned(ctx, "ip")
	assert.False(t, banned, "expired ban should not block")

	s.Escalate(ctx, "ip", 10*time.Second, 2, time.Hour)
	left, banned := s.Banned(ctx, "ip")
	assert.True(t, banned)
	// Escalation state survives ban expiry, so the repeat offender gets
	// the doubled duration, not the initial one.
	assert.Greater(t, left, 15*time.Second)
}

func TestRateLimiterBansAfterBurst(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:    true,
		Points:     2,
		Interval:   time.Second,
		InitialBan: 10 * time.Second,
		BanFactor:  2,
		MaxBan:     time.Hour,
		Prefix:     "rl",
	}
	bans := &MemoryBanStore{entries: map[string]*banEntry{}}
	mw := NewRateLimiter(cfg, bans)
	e := echo.New()
	h := mw(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/restaurants", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		require.NoError(t, h(e.NewContext(req, rec)))
		return rec
	}

	assert.Equal(t, http.StatusOK, do().Code)
	assert.Equal(t, http.StatusOK, do().Code)

	rec := do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Once banned, requests are rejected before touching the bucket.
	assert.Equal(t, http.StatusTooManyRequests, do().Code)
}

func TestRateLimiterDisabled(t *testing.T) {
	mw := NewRateLimiter(config.RateLimitConfig{Enabled: false}, &MemoryBanStore{entries: map[string]*banEntry{}})
	e := echo.New()
	h := mw(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, h(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
