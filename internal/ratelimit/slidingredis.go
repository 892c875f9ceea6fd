package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one limiter check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter decides whether another event for key fits within limit per window.
type Limiter interface {
	Allow(ctx context.Context, key string, window time.Duration, limit int) (Decision, error)
}

// SlidingWindow implements Limiter with Redis sorted sets: each event is a member
// scored by its timestamp and members older than the window are trimmed.
type SlidingWindow struct {
	Client *redis.Client
	Prefix string
	Now    func() time.Time
}

// Allow registers an event for key. Without a client or limit every event is allowed.
func (l SlidingWindow) Allow(ctx context.Context, key string, window time.Duration, limit int) (Decision, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	reset := now.Add(window)
	if l.Client == nil || limit <= 0 || window <= 0 {
		return Decision{Allowed: true, Remaining: limit, ResetAt: reset}, nil
	}

	redisKey := l.Prefix + key
	cutoff := now.Add(-window).UnixNano()

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("%d", cutoff))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	count := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{ResetAt: reset}, err
	}

	current := int(count.Val())
	return Decision{
		Allowed:   current <= limit,
		Remaining: max(0, limit-current),
		ResetAt:   reset,
	}, nil
}
