package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "agora/pkg/platform/audit"
	"agora/pkg/platform/audit/store/postgres"
	txcontext "agora/pkg/platform/tx"
)

// Outbox is the relay's view of the outbox table.
type Outbox interface {
	FetchUnpublished(ctx context.Context, limit int) ([]postgres.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Producer publishes one record to a topic and waits for the broker ack.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// TopicFor maps an event category to its topic.
type TopicFor func(audit.EventCategory) string

// Relay drains the outbox into Kafka. Each batch runs in one transaction: rows
// are locked, produced, then marked published. A produce failure rolls the
// batch back so the rows are retried on the next tick (at-least-once).
type Relay struct {
	outbox    Outbox
	tx        txcontext.Runner
	producer  Producer
	topicFor  TopicFor
	batchSize int
	interval  time.Duration
	logger    *slog.Logger
}

type Option func(*Relay)

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func NewRelay(outbox Outbox, tx txcontext.Runner, producer Producer, topicFor TopicFor, opts ...Option) *Relay {
	r := &Relay{
		outbox:    outbox,
		tx:        tx,
		producer:  producer,
		topicFor:  topicFor,
		batchSize: 100,
		interval:  time.Second,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil {
				r.logger.WarnContext(ctx, "audit outbox relay failed", "error", err)
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many entries were published.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	published := 0
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		entries, err := r.outbox.FetchUnpublished(ctx, r.batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, 0, len(entries))
		for _, e := range entries {
			if err := r.producer.Produce(ctx, r.topicFor(e.Category), []byte(e.AggregateID), e.Payload); err != nil {
				return err
			}
			ids = append(ids, e.ID)
		}
		if err := r.outbox.MarkPublished(ctx, ids, time.Now()); err != nil {
			return err
		}
		published = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}
