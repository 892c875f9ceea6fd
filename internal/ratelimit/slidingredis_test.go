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

	now := time.Unix(1_700_000_000, 0)
	limiter := SlidingWindow{Client: client, Prefix: "test:", Now: func() time.Time { return now }}
	ctx := context.Background()
	window := 2 * time.Second

	for i := 0; i < 2; i++ {
		d, err := limiter.Allow(ctx, "key", window, 2)
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d", i)
		require.Equal(t, 2-(i+1), d.Remaining)
	}

	d, err := limiter.Allow(ctx, "key", window, 2)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Zero(t, d.Remaining)

	now = now.Add(window + time.Millisecond)
	d, err = limiter.Allow(ctx, "key", window, 2)
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestSlidingWindowWithoutClient(t *testing.T) {
	d, err := SlidingWindow{}.Allow(context.Background(), "key", time.Second, 5)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 5, d.Remaining)
}
