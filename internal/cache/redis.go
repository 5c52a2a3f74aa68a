package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"finsight/internal/log"

	"github.com/go-redis/redis/v8"
)

const scanBatch = 100

// RedisCache stores JSON-encoded values in Redis under a shared namespace so
// several service replicas see the same computed insights. Expiry is left to
// Redis.
type RedisCache[T any] struct {
	client    redis.UniversalClient
	namespace string
	ttl       time.Duration
	logger    *log.Logger
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient opens a client and verifies the server answers.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// NewRedisCache wraps client. Keys are stored as namespace+key.
func NewRedisCache[T any](client redis.UniversalClient, namespace string, ttl time.Duration, logger *log.Logger) *RedisCache[T] {
	if logger == nil {
		logger = log.Discard()
	}
	return &RedisCache[T]{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
		logger:    logger.WithComponent(log.ComponentCache),
	}
}

func (c *RedisCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	raw, err := c.client.Get(ctx, c.namespace+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "Redis get failed", log.FieldError, err)
		}
		return zero, false
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		c.logger.WarnContext(ctx, "Discarding undecodable cache entry", "key", key, log.FieldError, err)
		return zero, false
	}
	return value, true
}

func (c *RedisCache[T]) Set(ctx context.Context, key string, data T) {
	raw, err := json.Marshal(data)
	if err != nil {
		c.logger.WarnContext(ctx, "Cache value not encodable", "key", key, log.FieldError, err)
		return
	}
	if err := c.client.Set(ctx, c.namespace+key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis set failed", log.FieldError, err)
	}
}

func (c *RedisCache[T]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.namespace+key).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis delete failed", log.FieldError, err)
	}
}

func (c *RedisCache[T]) DeletePrefix(ctx context.Context, prefix string) int {
	removed := 0
	iter := c.client.Scan(ctx, 0, c.namespace+prefix+"*", scanBatch).Iterator()

	batch := make([]string, 0, scanBatch)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		n, err := c.client.Del(ctx, batch...).Result()
		if err != nil {
			c.logger.WarnContext(ctx, "Redis delete failed", log.FieldError, err)
		}
		removed += int(n)
		batch = batch[:0]
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			flush()
		}
	}
	flush()
	if err := iter.Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis scan failed", log.FieldError, err)
	}
	return removed
}
