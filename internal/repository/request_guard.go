package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	requestKeyPrefix = "paper-orders:request:"
	defaultGuardTTL  = 24 * time.Hour
)

// RequestGuard makes request processing idempotent. Acquire returns false
// when key was already seen; Release forgets a key whose request failed
// before touching the ledger.
type RequestGuard interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisRequestGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRequestGuard(client *redis.Client, ttl time.Duration) *RedisRequestGuard {
	if ttl <= 0 {
		ttl = defaultGuardTTL
	}
	return &RedisRequestGuard{client: client, ttl: ttl}
}

func (g *RedisRequestGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, requestKeyPrefix+key, 1, g.ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (g *RedisRequestGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, requestKeyPrefix+key).Err()
}

// NoopRequestGuard accepts every key.
type NoopRequestGuard struct{}

func (NoopRequestGuard) Acquire(context.Context, string) (bool, error) {
	return true, nil
}

func (NoopRequestGuard) Release(context.Context, string) error {
	return nil
}

var (
	_ RequestGuard = (*RedisRequestGuard)(nil)
	_ RequestGuard = NoopRequestGuard{}
)
