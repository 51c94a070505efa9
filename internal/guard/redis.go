package guard

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "packlane:copylock:"

// RedisGuard backs the lock with redis SET NX PX so multiple server
// instances share one lock space.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl}
}

func (g *RedisGuard) TryAcquire(ctx context.Context, key string) (bool, error) {
	return g.client.SetNX(ctx, redisKeyPrefix+key, "1", g.ttl).Result()
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, redisKeyPrefix+key).Err()
}
