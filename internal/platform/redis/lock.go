package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"agora/pkg/platform/sentinel"
)

const lockKeyPrefix = "agora:lock:"

// releaseScript deletes the key only if it still holds our token, so a lock
// that expired and was re-acquired by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

// Locker is a SET NX PX lock with token-checked release.
type Locker struct {
	client     redis.Cmdable
	ttl        time.Duration
	wait       time.Duration
	retryEvery time.Duration
}

func NewLocker(client redis.Cmdable, ttl, wait time.Duration) *Locker {
	return &Locker{
		client:     client,
		ttl:        ttl,
		wait:       wait,
		retryEvery: 25 * time.Millisecond,
	}
}

// Acquire spins until the lock is taken, wait elapses (sentinel.ErrConflict) or
// Redis fails (sentinel.ErrUnavailable).
func (l *Locker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	redisKey := lockKeyPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, fmt.Errorf("acquire lock %s: %w: %w", key, sentinel.ErrUnavailable, err)
		}
		if ok {
			return func(ctx context.Context) error {
				if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
					return fmt.Errorf("release lock %s: %w", key, err)
				}
				return nil
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("lock %s busy: %w", key, sentinel.ErrConflict)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryEvery):
		}
	}
}
