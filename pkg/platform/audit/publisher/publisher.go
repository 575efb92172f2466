package publisher

import (
	"context"
	"log/slog"

	audit "agora/pkg/platform/audit"
	"agora/pkg/requestcontext"
)

// Publisher enriches events with request-scoped metadata and appends them to
// the store synchronously, so a transactional store keeps the event in the
// same unit of work as the mutation that produced it.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit fills Timestamp, Category and RequestID when unset and appends the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if err := p.store.Append(ctx, event); err != nil {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "failed to append audit event",
				"action", event.Action,
				"subject", event.Subject,
				"error", err,
			)
		}
		return err
	}
	return nil
}
