// Package tx carries the unit of work through context.
//
// Services open a transaction with a Runner and pass the derived context to
// every store they call. Postgres stores pick the *sql.Tx out of the context;
// in-memory stores record undo steps on the Journal so a failed closure leaves
// no partial writes behind.
package tx

import (
	"context"
	"database/sql"
)

// Runner executes fn as one all-or-nothing unit. fn must use the context it is
// given, not the outer one.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type (
	ctxKey     struct{}
	lockKey    struct{}
	journalKey struct{}
)

var (
	txKey         = ctxKey{}
	lockKeyCtx    = lockKey{}
	journalCtxKey = journalKey{}
)

// WithTx stores a SQL transaction in context so stores outside the transaction
// closure (the audit outbox) join the same unit of work.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// WithLockKey names the resource a transaction contends on (a post, a
// community). Runners serialize transactions that share a key.
func WithLockKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, lockKeyCtx, key)
}

// LockKey returns the key set by WithLockKey, or "".
func LockKey(ctx context.Context) string {
	key, _ := ctx.Value(lockKeyCtx).(string)
	return key
}

// Journal collects undo steps for in-memory writes made inside a transaction.
type Journal struct {
	undo []func()
}

func WithJournal(ctx context.Context, j *Journal) context.Context {
	return context.WithValue(ctx, journalCtxKey, j)
}

// RecordUndo registers fn to run if the surrounding transaction fails. Outside a
// transaction it does nothing.
func RecordUndo(ctx context.Context, fn func()) {
	if j, ok := ctx.Value(journalCtxKey).(*Journal); ok && j != nil {
		j.undo = append(j.undo, fn)
	}
}

// Rollback runs the recorded undo steps in reverse order and clears the journal.
func (j *Journal) Rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// Len reports how many undo steps are pending.
func (j *Journal) Len() int { return len(j.undo) }

// Locker is a cross-process mutex keyed by lock key. Acquire blocks until the
// lock is held or ctx ends; the returned release must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}
