package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medsearch-ai/medsearch/common/logger"
	"github.com/medsearch-ai/medsearch/config"
)

type redisCache struct {
	client *redis.Client
}

// NewRedis creates a redis-backed cache and verifies connectivity.
func NewRedis(cfg config.CacheConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &redisCache{client: client}, nil
}

// Get returns the cached value. Redis errors are treated as misses so the
// cache never becomes a correctness dependency.
func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Warnf("cache: redis get %s failed: %v", key, err)
		return nil, false
	}
	return val, true
}

func (c *redisCache) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Warnf("cache: redis set %s failed: %v", key, err)
	}
}

func (c *redisCache) Purge(ctx context.Context) {
	if err := c.client.FlushDB(ctx).Err(); err != nil {
		logger.Warnf("cache: redis flush failed: %v", err)
	}
}
