package httpserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestIPRateLimiter_PerIP(t *testing.T) {
	l := newIPRateLimiter(rate.Limit(1), 1)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, l.allow("10.0.0.1"))
}

func TestIPRateLimiter_SweepsIdleVisitors(t *testing.T) {
	l := newIPRateLimiter(rate.Limit(1), 1)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	l.allow("10.0.0.1")
	assert.Len(t, l.visitors, 1)

	now = now.Add(limiterIdleTTL + limiterSweepPeriod + time.Second)
	l.allow("10.0.0.2")

	assert.Len(t, l.visitors, 1)
	assert.Contains(t, l.visitors, "10.0.0.2")
}

func TestIPRateLimiter_RetryAfter(t *testing.T) {
	assert.Equal(t, "2", newIPRateLimiter(rate.Limit(0.5), 1).retryAfter())
	assert.Equal(t, "1", newIPRateLimiter(rate.Limit(5), 1).retryAfter())
	assert.Equal(t, "60", newIPRateLimiter(rate.Inf, 1).retryAfter())
	assert.Equal(t, 1, newIPRateLimiter(rate.Limit(1), 0).burst)
}
