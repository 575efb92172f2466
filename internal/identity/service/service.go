package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"log/slog"

	"agora/internal/authorization"
	"agora/internal/identity/models"
	"agora/internal/platform/metrics"
	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
	"agora/pkg/platform/audit"
	"agora/pkg/platform/sentinel"
	txcontext "agora/pkg/platform/tx"
	"agora/pkg/requestcontext"
)

// Store is the member repository.
type Store interface {
	Create(ctx context.Context, m *models.Member) error
	FindByID(ctx context.Context, memberID id.MemberID) (*models.Member, error)
	Update(ctx context.Context, m *models.Member) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns the identity facts the rest of the core authorizes against:
// roles, status and email verification.
type Service struct {
	members        Store
	tx             txcontext.Runner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	retries        int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithConflictRetries sets how many times a mutation is attempted when it
// loses an optimistic-lock race.
func WithConflictRetries(n int) Option {
	return func(s *Service) {
		s.retries = n
	}
}

func New(members Store, tx txcontext.Runner, opts ...Option) *Service {
	s := &Service{members: members, tx: tx, retries: txcontext.DefaultAttempts}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRequest carries member facts handed over by the external signup
// flow or by seeding.
type RegisterRequest struct {
	Handle        string        `json:"handle"`
	Email         string        `json:"email"`
	EmailVerified bool          `json:"email_verified"`
	Roles         []models.Role `json:"roles"`
}

// Register records a new member. It performs no authorization: signup lives
// outside the core and calls in after it has done its own checks.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.Member, error) {
	m, err := models.NewMember(id.NewMemberID(), req.Handle, req.Email, req.EmailVerified, req.Roles, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.members.Create(ctx, m); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeValidation, "email is already registered")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create member")
		}
		return s.emit(ctx, audit.EventMemberRegistered, m.ID, m.ID)
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(audit.EventMemberRegistered), "member_id", m.ID.String())
	return m, nil
}

// CreateMember is Register behind an admin check, for the admin API.
func (s *Service) CreateMember(ctx context.Context, actorID id.MemberID, req RegisterRequest) (*models.Member, error) {
	actor, err := s.Get(ctx, actorID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown member")
		}
		return nil, err
	}
	if err := authorization.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.Register(ctx, req)
}

// Get loads a member by ID.
func (s *Service) Get(ctx context.Context, memberID id.MemberID) (*models.Member, error) {
	m, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	return m, nil
}

// VerifyEmail is called by the external verification flow once the member
// proved ownership of their address.
func (s *Service) VerifyEmail(ctx context.Context, memberID id.MemberID) (*models.Member, error) {
	return s.mutate(ctx, memberID, memberID, audit.EventMemberEmailVerified, func(_ *models.Member, target *models.Member) error {
		return target.VerifyEmail(requestcontext.Now(ctx))
	})
}

// Suspend moves an ACTIVE member to SUSPENDED. Admin only; admins cannot
// suspend themselves.
func (s *Service) Suspend(ctx context.Context, actorID, targetID id.MemberID) (*models.Member, error) {
	return s.mutate(ctx, actorID, targetID, audit.EventMemberSuspended, func(actor, target *models.Member) error {
		if err := authorization.RequireAdmin(actor); err != nil {
			return err
		}
		if actor.ID == target.ID {
			return dErrors.New(dErrors.CodeValidation, "admins cannot suspend themselves")
		}
		return target.Suspend(requestcontext.Now(ctx))
	})
}

// Reactivate moves a SUSPENDED member back to ACTIVE. Admin only.
func (s *Service) Reactivate(ctx context.Context, actorID, targetID id.MemberID) (*models.Member, error) {
	return s.mutate(ctx, actorID, targetID, audit.EventMemberReactivated, func(actor, target *models.Member) error {
		if err := authorization.RequireAdmin(actor); err != nil {
			return err
		}
		return target.Reactivate(requestcontext.Now(ctx))
	})
}

// MarkDeleted is terminal. Members may delete themselves; admins may delete
// anyone.
func (s *Service) MarkDeleted(ctx context.Context, actorID, targetID id.MemberID) (*models.Member, error) {
	return s.mutate(ctx, actorID, targetID, audit.EventMemberDeleted, func(actor, target *models.Member) error {
		if actor.ID != target.ID {
			if err := authorization.RequireAdmin(actor); err != nil {
				return err
			}
		}
		return target.MarkDeleted(requestcontext.Now(ctx))
	})
}

// mutate loads actor and target inside one transaction, applies fn and saves
// the target. A version conflict replays the whole closure.
func (s *Service) mutate(ctx context.Context, actorID, targetID id.MemberID, event audit.AuditEvent, fn func(actor, target *models.Member) error) (*models.Member, error) {
	var result *models.Member
	ctx = txcontext.WithLockKey(ctx, "member:"+targetID.String())
	err := txcontext.RunWithRetry(ctx, s.tx, s.retries, s.onRetry(string(event)), func(ctx context.Context) error {
		target, err := s.Get(ctx, targetID)
		if err != nil {
			return err
		}
		actor := target
		if actorID != targetID {
			actor, err = s.members.FindByID(ctx, actorID)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.New(dErrors.CodeUnauthorized, "unknown member")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load actor")
			}
		}
		if err := fn(actor, target); err != nil {
			return err
		}
		if err := s.members.Update(ctx, target); err != nil {
			return translateWrite(err, "failed to save member")
		}
		result = target
		return s.emit(ctx, event, actorID, target.ID)
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(event), "member_id", result.ID.String(), "actor_id", actorID.String(), "status", string(result.Status))
	return result, nil
}

func translateWrite(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "member was modified concurrently")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "member not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func (s *Service) onRetry(operation string) func(int, error) {
	return func(attempt int, err error) {
		s.metrics.IncConflictRetry(operation)
		if s.logger != nil {
			s.logger.Debug("retrying after conflict", "operation", operation, "attempt", attempt, "error", err)
		}
	}
}

// emit appends the audit record inside the transaction so it commits or rolls
// back with the change it describes.
func (s *Service) emit(ctx context.Context, event audit.AuditEvent, actorID, subject id.MemberID) error {
	if s.auditPublisher == nil {
		return nil
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		ActorID:     actorID,
		Action:      string(event),
		SubjectType: "member",
		Subject:     subject.String(),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
}
