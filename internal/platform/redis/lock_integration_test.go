//go:build integration

package redis_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	agoraredis "agora/internal/platform/redis"
	"agora/pkg/platform/sentinel"
	"agora/pkg/testutil/containers"
)

type LockerSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestLockerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(LockerSuite))
}

func (s *LockerSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *LockerSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *LockerSuite) TestMutualExclusion() {
	locker := agoraredis.NewLocker(s.redis.Client, 5*time.Second, 5*time.Second)
	ctx := context.Background()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(ctx, "post:1")
			if err != nil {
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inside.Add(-1)
			_ = release(ctx)
		}()
	}
	wg.Wait()
	s.Equal(int32(1), maxInside.Load())
}

func (s *LockerSuite) TestBusyLockTimesOutAsConflict() {
	locker := agoraredis.NewLocker(s.redis.Client, 5*time.Second, 50*time.Millisecond)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "post:2")
	s.Require().NoError(err)
	defer func() { _ = release(ctx) }()

	_, err = locker.Acquire(ctx, "post:2")
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *LockerSuite) TestReleaseIgnoresForeignToken() {
	locker := agoraredis.NewLocker(s.redis.Client, 50*time.Millisecond, time.Second)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "post:3")
	s.Require().NoError(err)
	time.Sleep(100 * time.Millisecond) // expire

	release2, err := locker.Acquire(ctx, "post:3")
	s.Require().NoError(err)

	s.Require().NoError(release(ctx))
	exists, err := s.redis.Client.Exists(ctx, "agora:lock:post:3").Result()
	s.Require().NoError(err)
	s.Equal(int64(1), exists, "stale release must not drop the new holder's lock")
	s.Require().NoError(release2(ctx))
}
