package pattern

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "assist:suggestions:"

// RedisCache is a Redis-backed Cache for multi-process deployments.
// The Redis expiry is a garbage collector; freshness is still decided
// by the analyzed_at timestamp inside the entry.
type RedisCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(redisURL string, logger *zap.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{rdb: rdb, logger: logger}, nil
}

// Get fetches and decodes the user's entry.
func (c *RedisCache) Get(ctx context.Context, username string) (*CachedSuggestions, error) {
	data, err := c.rdb.Get(ctx, redisKeyPrefix+username).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", username, err)
	}
	var entry CachedSuggestions
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt entry is a miss; the next Put overwrites it.
		c.logger.Warn("corrupt suggestion cache entry",
			zap.String("user", username), zap.Error(err))
		return nil, nil
	}
	return &entry, nil
}

// Put stores the entry with twice the logical TTL as the Redis expiry.
func (c *RedisCache) Put(ctx context.Context, username string, entry *CachedSuggestions, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := c.rdb.Set(ctx, redisKeyPrefix+username, data, 2*ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", username, err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
