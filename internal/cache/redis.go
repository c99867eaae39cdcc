package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a thin JSON cache over redis. A nil *Cache is valid and behaves
// as an always-miss cache, so callers never have to branch on whether redis
// is configured.
type Cache struct {
	db *redis.Client
}

func New(ctx context.Context, addr, password string) (*Cache, error) {
	db := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache.New: %w", err)
	}
	return &Cache{db: db}, nil
}

// Get decodes the cached value for key into result. The bool reports a hit.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	if c == nil {
		return false, nil
	}
	val, err := c.db.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache.Get: %w", err)
	}
	if err := json.Unmarshal([]byte(val), result); err != nil {
		return false, fmt.Errorf("cache.Get: %w", err)
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.db.Set(ctx, key, raw, expiration).Err()
}

func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if c == nil {
		return nil
	}
	return c.db.Del(ctx, key).Err()
}
