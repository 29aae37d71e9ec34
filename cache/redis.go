package cache

import (
	"context"
	"time"

	"github.com/kbukum/folio/redis"
)

// RedisStore is the part of the redis package the cache uses.
type RedisStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

var (
	_ RedisStore = (*redis.Client)(nil)
	_ RedisStore = (*redis.Component)(nil)
)

// Redis stores values in a shared Redis instance.
type Redis struct {
	client RedisStore
}

var _ Cache = (*Redis)(nil)

// NewRedis creates a cache on top of client. Keys pick up the client's
// prefix.
func NewRedis(client RedisStore) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return r.client.Get(ctx, key)
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl)
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key)
}
