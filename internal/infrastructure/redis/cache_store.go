package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stocktracker-service/internal/application"
)

// Cache is a CacheStore shared between processes. Entries are stored as JSON
// with their fetch time; freshness is decided on read so expired entries stay
// available to Peek. Retention, when set, is the physical redis expiry.
type Cache[T any] struct {
	Client    *redis.Client
	Prefix    string
	TTL       time.Duration
	Retention time.Duration
	Clock     application.Clock
	Log       *zap.Logger
}

func NewCache[T any](client *redis.Client, prefix string, ttl, retention time.Duration, log *zap.Logger) *Cache[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache[T]{
		Client:    client,
		Prefix:    prefix,
		TTL:       ttl,
		Retention: retention,
		Clock:     application.SystemClock{},
		Log:       log,
	}
}

func (c *Cache[T]) Get(ctx context.Context, key string) (application.Entry[T], bool) {
	e, ok := c.Peek(ctx, key)
	if !ok || !e.Fresh(c.Clock.Now(), c.TTL) {
		return application.Entry[T]{}, false
	}
	return e, true
}

func (c *Cache[T]) Peek(ctx context.Context, key string) (application.Entry[T], bool) {
	b, err := c.Client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.Log.Warn("cache.redis_get_failed", zap.String("key", key), zap.Error(err))
		}
		return application.Entry[T]{}, false
	}
	var e application.Entry[T]
	if err := json.Unmarshal(b, &e); err != nil {
		c.Log.Warn("cache.redis_decode_failed", zap.String("key", key), zap.Error(err))
		return application.Entry[T]{}, false
	}
	return e, true
}

func (c *Cache[T]) Set(ctx context.Context, key string, value T) {
	b, err := json.Marshal(application.Entry[T]{Value: value, FetchedAt: c.Clock.Now().UTC()})
	if err != nil {
		c.Log.Warn("cache.redis_encode_failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.Client.Set(ctx, c.key(key), b, c.Retention).Err(); err != nil {
		c.Log.Warn("cache.redis_set_failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache[T]) key(k string) string { return c.Prefix + ":" + k }
