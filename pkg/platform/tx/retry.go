package tx

import (
	"context"

	dErrors "agora/pkg/domain-errors"
)

// DefaultAttempts is used when a caller passes a non-positive attempt count.
const DefaultAttempts = 3

// shouldRetry reports whether a failed unit of work may be replayed. Only
// optimistic-lock and unique-key conflicts qualify; a timeout may already have
// committed on the datastore side.
func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return dErrors.HasCode(err, dErrors.CodeConflict)
}

// RunWithRetry runs fn in a fresh transaction up to attempts times, replaying it
// while it fails with a conflict. onRetry, when non-nil, is told about each
// replay. The last error is returned unchanged.
func RunWithRetry(ctx context.Context, r Runner, attempts int, onRetry func(attempt int, err error), fn func(ctx context.Context) error) error {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = r.RunInTx(ctx, fn)
		if err == nil || !shouldRetry(ctx, err) || attempt == attempts {
			return err
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}
	}
	return err
}
