package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiter_PerClientBuckets(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Rate: rate.Every(time.Hour), Burst: 1})

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))
	assert.Equal(t, 2, rl.Len())
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(RateLimitConfig{Rate: rate.Every(time.Hour), Burst: 1, IdleAfter: time.Minute})
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")
	assert.Equal(t, 2, rl.Len())

	now = now.Add(30 * time.Second)
	rl.Allow("10.0.0.2")

	now = now.Add(45 * time.Second)
	rl.Allow("10.0.0.3")
	assert.Equal(t, 2, rl.Len(), "idle client should be evicted")
}
