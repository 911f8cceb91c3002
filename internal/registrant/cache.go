package registrant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const churchCacheKey = "checkin:churches"

// ChurchCache serves the filter dropdown from redis. The roster only changes
// on external imports, so a short TTL is enough to keep the list fresh.
type ChurchCache struct {
	repo   *Repository
	client *redis.Client
	ttl    time.Duration
}

// NewChurchCache wraps a repository with a redis-backed church list. A nil
// client disables caching and reads pass straight through.
func NewChurchCache(repo *Repository, client *redis.Client, ttl time.Duration) *ChurchCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ChurchCache{repo: repo, client: client, ttl: ttl}
}

// Churches returns the distinct church list, cached when redis is available.
// Cache errors fall back to the store; a stale dropdown beats a failed page.
func (c *ChurchCache) Churches(ctx context.Context) ([]string, error) {
	if c.client != nil {
		if raw, err := c.client.Get(ctx, churchCacheKey).Result(); err == nil {
			var churches []string
			if json.Unmarshal([]byte(raw), &churches) == nil {
				return churches, nil
			}
		}
	}

	churches, err := c.repo.Churches(ctx)
	if err != nil {
		return nil, err
	}
	if c.client != nil {
		if raw, err := json.Marshal(churches); err == nil {
			c.client.Set(ctx, churchCacheKey, raw, c.ttl)
		}
	}
	return churches, nil
}
