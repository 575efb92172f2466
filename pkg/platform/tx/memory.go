package tx

import (
	"context"
	"sync"
	"time"

	dErrors "agora/pkg/domain-errors"
)

// numShards spreads lock keys across independent mutexes so unrelated posts do
// not contend.
const numShards = 128

// DefaultTimeout bounds a transaction whose context has no deadline.
const DefaultTimeout = 5 * time.Second

// ShardedMemory is the in-process Runner used with the in-memory stores.
// Transactions sharing a lock key run one at a time; a failed closure is undone
// through the Journal.
type ShardedMemory struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

func NewShardedMemory(timeout time.Duration) *ShardedMemory {
	return &ShardedMemory{timeout: timeout}
}

func (t *ShardedMemory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := t.selectShard(ctx)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	journal := &Journal{}
	if err := fn(WithJournal(ctx, journal)); err != nil {
		journal.Rollback()
		return err
	}
	return nil
}

func (t *ShardedMemory) selectShard(ctx context.Context) int {
	if key := LockKey(ctx); key != "" {
		return int(hashString(key) % numShards)
	}
	return 0
}

// hashString is FNV-1a.
func hashString(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
