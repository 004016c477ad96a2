package cache

import (
	"context"
	"sync"
	"time"

	"stocktracker-service/internal/application"
)

// TTL is an in-process CacheStore. Entries are never evicted; an expired
// entry only stops being returned by Get.
type TTL[T any] struct {
	ttl   time.Duration
	clock application.Clock

	mu    sync.RWMutex
	items map[string]application.Entry[T]
}

var _ application.CacheStore[int] = (*TTL[int])(nil)

func NewTTL[T any](ttl time.Duration, clock application.Clock) *TTL[T] {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &TTL[T]{ttl: ttl, clock: clock, items: make(map[string]application.Entry[T])}
}

func (c *TTL[T]) Get(ctx context.Context, key string) (application.Entry[T], bool) {
	e, ok := c.Peek(ctx, key)
	if !ok || !e.Fresh(c.clock.Now(), c.ttl) {
		return application.Entry[T]{}, false
	}
	return e, true
}

func (c *TTL[T]) Peek(_ context.Context, key string) (application.Entry[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	return e, ok
}

func (c *TTL[T]) Set(_ context.Context, key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = application.Entry[T]{Value: value, FetchedAt: c.clock.Now()}
}

// Len reports the number of stored entries, fresh or not.
func (c *TTL[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
