package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	dErrors "agora/pkg/domain-errors"
	"agora/pkg/platform/circuit"
	"agora/pkg/platform/sentinel"
	txcontext "agora/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// TxRunner runs a closure inside one *sql.Tx carried by the context. When the
// context names a lock key the transaction takes a transaction-scoped advisory
// lock on it, so writers to the same post or community run one after another.
// A configured Locker (Redis) is acquired first, which keeps waiting writers
// off the connection pool. While the locker's breaker is open, transactions
// rely on the advisory lock alone.
type TxRunner struct {
	db      *sql.DB
	timeout time.Duration
	locker  txcontext.Locker
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type TxOption func(*TxRunner)

func WithTimeout(d time.Duration) TxOption {
	return func(t *TxRunner) {
		t.timeout = d
	}
}

func WithLocker(l txcontext.Locker) TxOption {
	return func(t *TxRunner) {
		t.locker = l
	}
}

func WithLockBreaker(b *circuit.Breaker) TxOption {
	return func(t *TxRunner) {
		t.breaker = b
	}
}

func WithLogger(logger *slog.Logger) TxOption {
	return func(t *TxRunner) {
		t.logger = logger
	}
}

func NewTxRunner(db *sql.DB, opts ...TxOption) *TxRunner {
	t := &TxRunner{
		db:      db,
		breaker: circuit.New("tx-locker"),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if key := txcontext.LockKey(ctx); key != "" && t.locker != nil {
		release, err := t.acquire(ctx, key)
		if err != nil {
			return err
		}
		defer func() {
			// Detached so an expired request context still frees the lock.
			_ = release(context.WithoutCancel(ctx))
		}()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if key := txcontext.LockKey(ctx); key != "" {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
			return translateLockError(err)
		}
	}

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if IsUniqueViolation(err) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "commit conflict")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "commit transaction")
	}
	return nil
}

// acquire takes the distributed lock for key. Backend failures count against
// the breaker; once it is open the lock is skipped and the advisory lock taken
// inside the transaction still serializes writers.
func (t *TxRunner) acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	release, err := t.locker.Acquire(ctx, key)
	if err == nil {
		if _, change := t.breaker.RecordSuccess(); change.Closed {
			t.logger.InfoContext(ctx, "lock backend recovered", "breaker", t.breaker.Name())
		}
		return release, nil
	}
	if !isBackendFailure(err) {
		return nil, translateLockError(err)
	}
	useFallback, change := t.breaker.RecordFailure()
	if change.Opened {
		t.logger.WarnContext(ctx, "lock backend failing, using advisory locks only",
			"breaker", t.breaker.Name(),
			"error", err,
		)
	}
	if useFallback {
		return func(context.Context) error { return nil }, nil
	}
	return nil, translateLockError(err)
}

func isBackendFailure(err error) bool {
	return !errors.Is(err, sentinel.ErrConflict) &&
		!errors.Is(err, context.DeadlineExceeded) &&
		!errors.Is(err, context.Canceled)
}

func translateLockError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "resource busy")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "timed out waiting for lock")
	default:
		return dErrors.Wrap(fmt.Errorf("lock: %w", err), dErrors.CodeUnavailable, "lock backend unavailable")
	}
}
