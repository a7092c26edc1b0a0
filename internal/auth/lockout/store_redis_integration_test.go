//go:build integration

package lockout_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"radar/internal/auth/lockout"
	"radar/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *lockout.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = lockout.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestFailuresAccumulateInWindow() {
	ctx := context.Background()
	for want := 1; want <= 3; want++ {
		n, err := s.store.RecordFailure(ctx, "ana@example.com|10.0.0.1", time.Minute)
		s.Require().NoError(err)
		s.Equal(want, n)
	}
}

func (s *RedisStoreSuite) TestLockAndClear() {
	ctx := context.Background()
	key := "ana@example.com|10.0.0.1"

	left, err := s.store.LockedFor(ctx, key)
	s.Require().NoError(err)
	s.Zero(left)

	_, err = s.store.RecordFailure(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Lock(ctx, key, time.Minute))

	left, err = s.store.LockedFor(ctx, key)
	s.Require().NoError(err)
	s.Greater(left, 50*time.Second)

	n, err := s.store.RecordFailure(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.Equal(1, n, "locking resets the counter")

	s.Require().NoError(s.store.Clear(ctx, key))
	left, err = s.store.LockedFor(ctx, key)
	s.Require().NoError(err)
	s.Zero(left)
}
