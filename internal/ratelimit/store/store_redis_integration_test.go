//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"agora/internal/ratelimit"
	"agora/internal/ratelimit/store"
	"agora/pkg/testutil/containers"
)

type RedisWindowsSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisWindowsSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisWindowsSuite))
}

func (s *RedisWindowsSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisWindowsSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisWindowsSuite) TestLimitIsSharedAcrossInstances() {
	ctx := context.Background()
	limit := ratelimit.Limit{Requests: 2, Window: time.Minute}
	a := store.NewRedisWindows(s.redis.Client)
	b := store.NewRedisWindows(s.redis.Client)

	res, err := a.Allow(ctx, "ratelimit:vote:m1", limit)
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(1, res.Remaining)

	res, err = b.Allow(ctx, "ratelimit:vote:m1", limit)
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(0, res.Remaining)

	res, err = a.Allow(ctx, "ratelimit:vote:m1", limit)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.WithinDuration(time.Now().Add(time.Minute), res.ResetAt, 5*time.Second)

	ttl, err := s.redis.Client.PTTL(ctx, "ratelimit:vote:m1").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisWindowsSuite) TestConcurrentRequestsNeverOvershoot() {
	ctx := context.Background()
	limit := ratelimit.Limit{Requests: 10, Window: time.Minute}
	windows := store.NewRedisWindows(s.redis.Client)

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := windows.Allow(ctx, "ratelimit:write:m2", limit)
			if err == nil && res.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(10), allowed.Load())
}

func (s *RedisWindowsSuite) TestShortWindowExpires() {
	ctx := context.Background()
	limit := ratelimit.Limit{Requests: 1, Window: 200 * time.Millisecond}
	windows := store.NewRedisWindows(s.redis.Client)

	res, err := windows.Allow(ctx, "ratelimit:write:m3", limit)
	s.Require().NoError(err)
	s.True(res.Allowed)

	res, err = windows.Allow(ctx, "ratelimit:write:m3", limit)
	s.Require().NoError(err)
	s.False(res.Allowed)

	s.Eventually(func() bool {
		res, err := windows.Allow(ctx, "ratelimit:write:m3", limit)
		return err == nil && res.Allowed
	}, 2*time.Second, 50*time.Millisecond)
}
