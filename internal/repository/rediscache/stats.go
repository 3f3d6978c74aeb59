package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/tinkerer-vote/internal/model"
	"github.com/sakif/tinkerer-vote/internal/service"
)

const statsKey = "tinkerer:stats"

var _ service.StatsCache = (*StatsCache)(nil)

// StatsCache stores the latest stats snapshot as JSON with a short TTL.
type StatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStatsCache(rdb *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{rdb: rdb, ttl: ttl}
}

func (c *StatsCache) Get(ctx context.Context) (model.Stats, bool, error) {
	raw, err := c.rdb.Get(ctx, statsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Stats{}, false, nil
		}
		return model.Stats{}, false, fmt.Errorf("rediscache: reading stats: %w", err)
	}

	var s model.Stats
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.Stats{}, false, fmt.Errorf("rediscache: decoding stats: %w", err)
	}
	return s, true, nil
}

func (c *StatsCache) Set(ctx context.Context, s model.Stats) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("rediscache: encoding stats: %w", err)
	}
	if err := c.rdb.Set(ctx, statsKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("rediscache: writing stats: %w", err)
	}
	return nil
}
