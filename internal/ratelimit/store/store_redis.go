package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"agora/internal/ratelimit"
)

// slidingWindow trims the sorted set to the window, then adds the request when
// there is room. It returns {allowed, remaining, oldest score in ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
local remaining = 0
if count < limit then
  redis.call('ZADD', key, now, ARGV[4])
  redis.call('PEXPIRE', key, window)
  allowed = 1
  remaining = limit - count - 1
end
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local first = now
if oldest[2] then first = tonumber(oldest[2]) end
return {allowed, remaining, first}
`)

// RedisWindows shares sliding windows between replicas through one sorted
// set per key.
type RedisWindows struct {
	client redis.Scripter
	now    func() time.Time
}

func NewRedisWindows(client redis.Scripter) *RedisWindows {
	return &RedisWindows{client: client, now: time.Now}
}

func (s *RedisWindows) Allow(ctx context.Context, key string, limit ratelimit.Limit) (*ratelimit.Result, error) {
	now := s.now()
	out, err := slidingWindow.Run(ctx, s.client, []string{key},
		now.UnixMilli(), limit.Window.Milliseconds(), limit.Requests, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(out) != 3 {
		return nil, fmt.Errorf("rate limit script: unexpected reply %v", out)
	}
	return &ratelimit.Result{
		Allowed:   out[0] == 1,
		Limit:     limit.Requests,
		Remaining: int(out[1]),
		ResetAt:   time.UnixMilli(out[2]).Add(limit.Window),
	}, nil
}
