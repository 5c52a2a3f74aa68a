package cache

import (
	"context"
	"fmt"
	"time"

	"finsight/internal/log"
)

// Options selects and sizes a cache backend.
type Options struct {
	Backend   string // "memory" or "redis"
	Size      int
	TTL       time.Duration
	Namespace string
	Redis     RedisOptions
}

// New builds the cache described by opts. The returned close function
// releases the Redis connection and is a no-op for the in-process cache.
func New[T any](ctx context.Context, opts Options, logger *log.Logger) (Cache[T], func() error, error) {
	switch opts.Backend {
	case "", "memory":
		return NewLRUCache[T](opts.Size, opts.TTL), func() error { return nil }, nil
	case "redis":
		client, err := NewRedisClient(ctx, opts.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis %s: %w", opts.Redis.Addr, err)
		}
		return NewRedisCache[T](client, opts.Namespace, opts.TTL, logger), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
