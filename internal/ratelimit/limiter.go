// Package ratelimit caps how often one member may write. Votes and other
// mutations are counted in separate sliding windows.
package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"time"

	id "agora/pkg/domain"
	"agora/pkg/platform/circuit"
)

// Class groups requests that share a quota.
type Class string

const (
	ClassWrite Class = "write"
	ClassVote  Class = "vote"
)

// Limit allows Requests per sliding Window. A non-positive Requests disables
// the class.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Result is the outcome of one check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// Degraded is set when the answer came from the local fallback window.
	Degraded bool
}

// RetryAfter is the whole number of seconds until the oldest counted request
// leaves the window.
func (r *Result) RetryAfter(now time.Time) int {
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// Store counts requests per key in a sliding window.
type Store interface {
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

// Key scopes a window to one member and class.
func Key(class Class, memberID id.MemberID) string {
	return "ratelimit:" + string(class) + ":" + memberID.String()
}

// Limiter applies per-class limits against a primary store. When a fallback
// is configured, primary failures trip a breaker and checks move to the
// fallback until the primary answers again.
type Limiter struct {
	limits   map[Class]Limit
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

type Option func(*Limiter)

func WithFallback(store Store) Option {
	return func(l *Limiter) {
		l.fallback = store
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(l *Limiter) {
		l.breaker = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

func New(primary Store, limits map[Class]Limit, opts ...Option) *Limiter {
	l := &Limiter{
		limits:  limits,
		primary: primary,
		breaker: circuit.New("ratelimit"),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check counts one request. Classes without a limit are always allowed and
// return a nil Result.
func (l *Limiter) Check(ctx context.Context, class Class, memberID id.MemberID) (*Result, error) {
	limit, ok := l.limits[class]
	if !ok || limit.Requests <= 0 {
		return nil, nil
	}
	key := Key(class, memberID)

	if l.fallback == nil {
		return l.primary.Allow(ctx, key, limit)
	}

	if !l.breaker.IsOpen() {
		res, err := l.primary.Allow(ctx, key, limit)
		if err == nil {
			l.breaker.RecordSuccess()
			return res, nil
		}
		useFallback, change := l.breaker.RecordFailure()
		if change.Opened {
			l.logger.WarnContext(ctx, "rate limit store failing, using local windows", "error", err)
		}
		if !useFallback {
			return nil, err
		}
		return l.degraded(ctx, key, limit)
	}

	// Open: probe the primary so the breaker can close, but answer from the
	// fallback until it does.
	if _, err := l.primary.Allow(ctx, key, limit); err != nil {
		l.breaker.RecordFailure()
	} else if _, change := l.breaker.RecordSuccess(); change.Closed {
		l.logger.InfoContext(ctx, "rate limit store recovered")
	}
	return l.degraded(ctx, key, limit)
}

func (l *Limiter) degraded(ctx context.Context, key string, limit Limit) (*Result, error) {
	res, err := l.fallback.Allow(ctx, key, limit)
	if err != nil {
		return nil, err
	}
	res.Degraded = true
	return res, nil
}
