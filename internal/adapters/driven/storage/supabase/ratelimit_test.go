package supabase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, rl.Wait(ctx))
}

func TestNewRateLimiter_ZeroBurst(t *testing.T) {
	// A positive rate with no burst must still admit requests
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 10})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, rl.Wait(ctx))
}

func TestRateLimiter_Backoff(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 100, BurstSize: 10})

	rl.RecordRateLimitError(60)

	// The backoff window outlives the context, so Wait must give up
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := rl.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiter_BackoffDefaultsTo60s(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{})

	rl.RecordRateLimitError(0)

	assert.Greater(t, time.Until(rl.retryAt), 50*time.Second)
}
