package store

import (
	"context"
	"sync"
	"time"

	"agora/internal/ratelimit"
)

// InMemoryWindows keeps request timestamps per key. Counts are local to the
// process, so it serves single replicas and the Redis fallback.
type InMemoryWindows struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

func NewInMemoryWindows() *InMemoryWindows {
	return &InMemoryWindows{
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// WithClock replaces the time source.
func (s *InMemoryWindows) WithClock(now func() time.Time) *InMemoryWindows {
	s.now = now
	return s
}

// Allow counts the request when the window has room.
func (s *InMemoryWindows) Allow(_ context.Context, key string, limit ratelimit.Limit) (*ratelimit.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stamps := evict(s.windows[key], now.Add(-limit.Window))

	if len(stamps) >= limit.Requests {
		s.windows[key] = stamps
		return &ratelimit.Result{
			Allowed: false,
			Limit:   limit.Requests,
			ResetAt: stamps[0].Add(limit.Window),
		}, nil
	}

	stamps = append(stamps, now)
	s.windows[key] = stamps
	return &ratelimit.Result{
		Allowed:   true,
		Limit:     limit.Requests,
		Remaining: limit.Requests - len(stamps),
		ResetAt:   stamps[0].Add(limit.Window),
	}, nil
}

// Reset forgets the window of key.
func (s *InMemoryWindows) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
}

// evict drops timestamps at or before cutoff. stamps is ordered oldest first.
func evict(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}
