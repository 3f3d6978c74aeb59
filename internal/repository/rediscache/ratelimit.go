package rediscache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "tinkerer:rl"

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// Limiter counts requests per key in fixed windows. The first request of a
// window creates the counter with the window as its TTL; the counter expiring
// starts the next window.
type Limiter struct {
	rdb *redis.Client
}

func NewLimiter(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb}
}

// Allow records one request for key and reports whether it is within limit.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	k := rateLimitKey(key)

	count, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rediscache: incrementing %s: %w", k, err)
	}

	ttl, err := l.rdb.PTTL(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rediscache: reading ttl of %s: %w", k, err)
	}
	// A negative TTL means the counter is new, or a previous EXPIRE never
	// landed. Either way the window starts now.
	if count == 1 || ttl < 0 {
		if err := l.rdb.PExpire(ctx, k, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("rediscache: setting ttl of %s: %w", k, err)
		}
		ttl = window
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   int(count) <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetIn:   ttl,
	}, nil
}

func rateLimitKey(key string) string {
	return rateLimitPrefix + ":" + key
}
