package application

import (
	"context"
	"time"
)

const (
	QuoteTTL     = 5 * time.Minute
	SparklineTTL = 15 * time.Minute
	QueryTTL     = 60 * time.Second
)

// Entry is a cached payload with the instant it was acquired.
type Entry[T any] struct {
	Value     T         `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Fresh reports whether the entry is still within ttl at now.
func (e Entry[T]) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) <= ttl
}

// CacheStore is a TTL keyed store.
type CacheStore[T any] interface {
	// Get returns the entry only while it is fresh.
	Get(ctx context.Context, key string) (Entry[T], bool)
	// Peek returns the entry regardless of age.
	Peek(ctx context.Context, key string) (Entry[T], bool)
	// Set stores value stamped with the current instant.
	Set(ctx context.Context, key string, value T)
}
