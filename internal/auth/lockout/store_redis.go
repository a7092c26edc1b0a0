package lockout

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	failuresKeyPrefix = "lockout:failures:"
	lockKeyPrefix     = "lockout:lock:"
)

// RedisStore shares counters and locks across instances.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) RecordFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, failuresKeyPrefix+key)
		pipe.ExpireNX(ctx, failuresKeyPrefix+key, window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (s *RedisStore) LockedFor(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.PTTL(ctx, lockKeyPrefix+key).Result()
	if err != nil {
		return 0, err
	}
	// Missing keys report negative durations.
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (s *RedisStore) Lock(ctx context.Context, key string, d time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, lockKeyPrefix+key, "1", d)
		pipe.Del(ctx, failuresKeyPrefix+key)
		return nil
	})
	return err
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, failuresKeyPrefix+key, lockKeyPrefix+key).Err()
}
