// Package admin serves operator-only views over the audit trail.
package admin

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"agora/internal/authorization"
	identity "agora/internal/identity/models"
	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
	audit "agora/pkg/platform/audit"
	"agora/pkg/requestcontext"
)

// Trail reads the recorded audit history of one aggregate, oldest first.
type Trail interface {
	ListBySubject(ctx context.Context, subject string) ([]audit.Event, error)
}

type ActorLoader interface {
	LoadActor(ctx context.Context, memberID id.MemberID) (*identity.Member, error)
}

type Service struct {
	actors ActorLoader
	trail  Trail
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(actors ActorLoader, trail Trail, opts ...Option) *Service {
	s := &Service{actors: actors, trail: trail, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuditTrail returns every audit event recorded for subject, the ID of a
// member, community, post, comment or ban. Admins only.
func (s *Service) AuditTrail(ctx context.Context, actorID id.MemberID, subject string) ([]audit.Event, error) {
	actor, err := s.actors.LoadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := authorization.RequireAdmin(actor); err != nil {
		return nil, err
	}
	subject = strings.TrimSpace(subject)
	if _, err := uuid.Parse(subject); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "subject must be an aggregate id")
	}
	events, err := s.trail.ListBySubject(ctx, subject)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit trail")
	}
	s.logger.InfoContext(ctx, "audit trail read",
		"request_id", requestcontext.RequestID(ctx),
		"actor_id", actor.ID.String(),
		"subject", subject,
		"events", len(events),
	)
	return events, nil
}
