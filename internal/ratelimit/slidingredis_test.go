package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowAllow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	limiter := SlidingWindow{Client: client, Prefix: "test:", Now: func() time.Time { return clock }}

	ctx := context.Background()
	window := 2 * time.Second
	limit := 2

	for i := 0; i < limit; i++ {
		clock = clock.Add(10 * time.Millisecond)
		decision, err := limiter.Allow(ctx, "key", window, limit)
		require.NoError(t, err)
		require.True(t, decision.Allowed, "request %d", i)
		require.Equal(t, limit-(i+1), decision.Remaining)
	}

	decision, err := limiter.Allow(ctx, "key", window, limit)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Zero(t, decision.Remaining)

	// Earlier events slide out of the window.
	clock = clock.Add(window + time.Second)
	decision, err = limiter.Allow(ctx, "key", window, limit)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}

func TestSlidingWindowWithoutClientAllows(t *testing.T) {
	decision, err := SlidingWindow{}.Allow(context.Background(), "key", time.Second, 3)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.Equal(t, 3, decision.Remaining)
}
