package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "salestats:report:"

// RedisCache shares cached responses across instances. Redis errors degrade
// to cache misses so a broker outage never fails a report request.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	body, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.WarnContext(ctx, "Redis cache read failed", "key", key, "error", err)
		return nil, false
	}
	return body, true
}

func (c *RedisCache) Set(ctx context.Context, key string, body []byte) {
	if err := c.client.Set(ctx, redisKeyPrefix+key, body, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Redis cache write failed", "key", key, "error", err)
	}
}

// Flush deletes every cached response under the key prefix. Unlike reads,
// a failed flush is reported so the caller can retry the invalidation.
func (c *RedisCache) Flush(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("delete cached response %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cached responses: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
