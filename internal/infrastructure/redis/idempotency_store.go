package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"stocktracker-service/internal/application"
)

const idemPrefix = "idem:"

// Store reserves idempotency keys with SETNX so duplicates are rejected
// across API replicas.
type Store struct {
	Client *redis.Client
	TTL    time.Duration
}

var _ application.IdempotencyStore = (*Store)(nil)

func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{Client: client, TTL: ttl}
}

func (s *Store) TryReserve(ctx context.Context, key string) (bool, error) {
	ok, err := s.Client.SetNX(ctx, idemPrefix+key, time.Now().UTC().Format(time.RFC3339), s.TTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Store) Release(ctx context.Context, key string) error {
	return s.Client.Del(ctx, idemPrefix+key).Err()
}
