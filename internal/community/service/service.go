package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"agora/internal/authorization"
	"agora/internal/community/models"
	identity "agora/internal/identity/models"
	"agora/internal/platform/metrics"
	"agora/internal/platform/tracing"
	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
	"agora/pkg/platform/audit"
	"agora/pkg/platform/sentinel"
	txcontext "agora/pkg/platform/tx"
	"agora/pkg/requestcontext"
)

type CommunityStore interface {
	Create(ctx context.Context, c *models.Community) error
	FindByID(ctx context.Context, communityID id.CommunityID) (*models.Community, error)
	FindByNameKey(ctx context.Context, key models.CommunityNameKey) (*models.Community, error)
}

// ModeratorStore returns sentinel.ErrConflict on a duplicate grant and
// sentinel.ErrNotFound when revoking a grant that does not exist.
type ModeratorStore interface {
	Grant(ctx context.Context, g *models.ModeratorGrant) error
	Revoke(ctx context.Context, communityID id.CommunityID, memberID id.MemberID) error
	IsModerator(ctx context.Context, communityID id.CommunityID, memberID id.MemberID) (bool, error)
	ListByCommunity(ctx context.Context, communityID id.CommunityID) ([]models.ModeratorGrant, error)
}

// BanStore updates with a version check and returns sentinel.ErrConflict on a
// lost race.
type BanStore interface {
	Create(ctx context.Context, b *models.Ban) error
	Update(ctx context.Context, b *models.Ban) error
	FindByID(ctx context.Context, banID id.BanID) (*models.Ban, error)
	FindActive(ctx context.Context, communityID id.CommunityID, memberID id.MemberID, now time.Time) (*models.Ban, error)
	ListByCommunity(ctx context.Context, communityID id.CommunityID) ([]models.Ban, error)
}

type Authorizer interface {
	LoadActor(ctx context.Context, memberID id.MemberID) (*identity.Member, error)
	LoadMember(ctx context.Context, memberID id.MemberID) (*identity.Member, error)
	Authorize(ctx context.Context, actor *identity.Member, action authorization.Action, target authorization.Target) error
	RequireAdminOrModerator(ctx context.Context, actor *identity.Member, communityID id.CommunityID) error
	EnsureNotBanned(ctx context.Context, communityID id.CommunityID, memberID id.MemberID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns community governance: moderator grants and the ban registry.
type Service struct {
	communities    CommunityStore
	moderators     ModeratorStore
	bans           BanStore
	authz          Authorizer
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

func WithConflictRetries(n int) Option {
	return func(s *Service) {
		s.retries = n
	}
}

func New(communities CommunityStore, moderators ModeratorStore, bans BanStore, authz Authorizer, tx txcontext.Runner, opts ...Option) *Service {
	s := &Service{
		communities: communities,
		moderators:  moderators,
		bans:        bans,
		authz:       authz,
		tx:          tx,
		retries:     txcontext.DefaultAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateCommunityRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// CreateCommunity registers a community under a unique name key. The creator
// becomes its first moderator.
func (s *Service) CreateCommunity(ctx context.Context, actorID id.MemberID, req CreateCommunityRequest) (_ *models.Community, err error) {
	ctx, span := tracing.Start(ctx, "community", "CreateCommunity")
	defer func() { tracing.End(span, err) }()
	defer s.metrics.ObserveMutation("create_community", time.Now())

	actor, err := s.authz.LoadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := authorization.RequireActiveVerifiedMember(actor); err != nil {
		return nil, err
	}
	key, err := models.NewCommunityNameKey(req.Name)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	c, err := models.NewCommunity(id.NewCommunityID(), key, req.DisplayName, req.Description, actor.ID, now)
	if err != nil {
		return nil, err
	}

	ctx = txcontext.WithLockKey(ctx, "community-name:"+key.String())
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.communities.FindByNameKey(ctx, key); err == nil {
			return dErrors.New(dErrors.CodeValidation, "community name is already taken")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check community name")
		}
		if err := s.communities.Create(ctx, c); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeValidation, "community name is already taken")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create community")
		}
		grant := &models.ModeratorGrant{CommunityID: c.ID, MemberID: actor.ID, GrantedBy: actor.ID, GrantedAt: now}
		if err := s.moderators.Grant(ctx, grant); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant creator moderation")
		}
		return s.emit(ctx, audit.Event{
			ActorID:     actor.ID,
			Action:      string(audit.EventCommunityCreated),
			SubjectType: "community",
			Subject:     c.ID.String(),
			CommunityID: c.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(audit.EventCommunityCreated), "community_id", c.ID.String(), "name", key.String(), "actor_id", actor.ID.String())
	return c, nil
}

// GetCommunity loads a community by ID.
func (s *Service) GetCommunity(ctx context.Context, communityID id.CommunityID) (*models.Community, error) {
	c, err := s.communities.FindByID(ctx, communityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "community not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load community")
	}
	return c, nil
}

// GrantModerator is admin only. The target must be active and verified.
// Granting an existing grant is a silent no-op.
func (s *Service) GrantModerator(ctx context.Context, actorID id.MemberID, communityID id.CommunityID, targetID id.MemberID) (err error) {
	ctx, span := tracing.Start(ctx, "community", "GrantModerator", attribute.String("community_id", communityID.String()))
	defer func() { tracing.End(span, err) }()

	actor, err := s.authz.LoadActor(ctx, actorID)
	if err != nil {
		return err
	}
	if _, err := s.GetCommunity(ctx, communityID); err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, actor, authorization.ActionGrantModerator, authorization.Target{CommunityID: communityID}); err != nil {
		return err
	}
	target, err := s.authz.LoadMember(ctx, targetID)
	if err != nil {
		return err
	}
	if err := authorization.RequireEligibleAsModerator(target); err != nil {
		return err
	}

	granted := false
	ctx = txcontext.WithLockKey(ctx, communityLockKey(communityID))
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		already, err := s.moderators.IsModerator(ctx, communityID, targetID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check moderator grant")
		}
		if already {
			return nil
		}
		err = s.moderators.Grant(ctx, &models.ModeratorGrant{
			CommunityID: communityID,
			MemberID:    targetID,
			GrantedBy:   actor.ID,
			GrantedAt:   requestcontext.Now(ctx),
		})
		if err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return nil
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant moderator")
		}
		granted = true
		return s.emit(ctx, audit.Event{
			ActorID:     actor.ID,
			Action:      string(audit.EventModeratorGranted),
			SubjectType: "member",
			Subject:     targetID.String(),
			CommunityID: communityID.String(),
		})
	})
	if err != nil {
		return err
	}
	if granted {
		s.logAudit(ctx, string(audit.EventModeratorGranted), "community_id", communityID.String(), "member_id", targetID.String(), "actor_id", actor.ID.String())
	}
	return nil
}

// RevokeModerator is allowed for admins and for moderators of the community.
// Moderators cannot revoke their own grant.
func (s *Service) RevokeModerator(ctx context.Context, actorID id.MemberID, communityID id.CommunityID, targetID id.MemberID) (err error) {
	ctx, span := tracing.Start(ctx, "community", "RevokeModerator", attribute.String("community_id", communityID.String()))
	defer func() { tracing.End(span, err) }()

	actor, err := s.authz.LoadActor(ctx, actorID)
	if err != nil {
		return err
	}
	if _, err := s.GetCommunity(ctx, communityID); err != nil {
		return err
	}
	if err := s.authz.RequireAdminOrModerator(ctx, actor, communityID); err != nil {
		return err
	}
	if actor.ID == targetID && !actor.IsAdmin() {
		return dErrors.New(dErrors.CodeUnauthorized, "moderators cannot revoke their own grant")
	}

	ctx = txcontext.WithLockKey(ctx, communityLockKey(communityID))
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.moderators.Revoke(ctx, communityID, targetID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "moderator grant not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke moderator")
		}
		return s.emit(ctx, audit.Event{
			ActorID:     actor.ID,
			Action:      string(audit.EventModeratorRevoked),
			SubjectType: "member",
			Subject:     targetID.String(),
			CommunityID: communityID.String(),
		})
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, string(audit.EventModeratorRevoked), "community_id", communityID.String(), "member_id", targetID.String(), "actor_id", actor.ID.String())
	return nil
}

// ListModerators returns the grants of a community, oldest first.
func (s *Service) ListModerators(ctx context.Context, communityID id.CommunityID) ([]models.ModeratorGrant, error) {
	if _, err := s.GetCommunity(ctx, communityID); err != nil {
		return nil, err
	}
	grants, err := s.moderators.ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list moderators")
	}
	return grants, nil
}

// BanRequest carries a ban command. A nil Duration bans permanently.
type BanRequest struct {
	MemberID id.MemberID    `json:"member_id"`
	Reason   string         `json:"reason"`
	Duration *time.Duration `json:"duration,omitempty"`
}

// BanMember bans a member from a community. When the member already has an
// active ban it is returned unchanged and nothing is written.
func (s *Service) BanMember(ctx context.Context, actorID id.MemberID, communityID id.CommunityID, req BanRequest) (_ *models.Ban, err error) {
	ctx, span := tracing.Start(ctx, "community", "BanMember", attribute.String("community_id", communityID.String()))
	defer func() { tracing.End(span, err) }()
	defer s.metrics.ObserveMutation("ban_member", time.Now())

	reason, err := models.NewBanReason(req.Reason)
	if err != nil {
		return nil, err
	}
	if req.Duration != nil && *req.Duration <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "ban duration must be positive")
	}
	actor, err := s.authz.LoadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.ID == req.MemberID {
		return nil, dErrors.New(dErrors.CodeValidation, "members cannot ban themselves")
	}
	if _, err := s.GetCommunity(ctx, communityID); err != nil {
		return nil, err
	}
	if err := s.authz.RequireAdminOrModerator(ctx, actor, communityID); err != nil {
		return nil, err
	}
	if _, err := s.authz.LoadMember(ctx, req.MemberID); err != nil {
		return nil, err
	}

	var (
		result  *models.Ban
		created bool
	)
	ctx = txcontext.WithLockKey(ctx, communityLockKey(communityID))
	err = txcontext.RunWithRetry(ctx, s.tx, s.retries, s.onRetry("ban_member"), func(ctx context.Context) error {
		created = false
		now := requestcontext.Now(ctx)
		existing, err := s.bans.FindActive(ctx, communityID, req.MemberID, now)
		if err == nil {
			result = existing
			return nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active ban")
		}
		ban, err := models.NewBan(id.NewBanID(), communityID, req.MemberID, actor.ID, reason, req.Duration, now)
		if err != nil {
			return err
		}
		if err := s.bans.Create(ctx, ban); err != nil {
			return translateBanWrite(err, "failed to create ban")
		}
		result, created = ban, true
		return s.emit(ctx, audit.Event{
			ActorID:     actor.ID,
			Action:      string(audit.EventMemberBanned),
			SubjectType: "ban",
			Subject:     ban.ID.String(),
			CommunityID: communityID.String(),
			Reason:      string(reason),
		})
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.metrics.IncBanIssued()
		s.logAudit(ctx, string(audit.EventMemberBanned),
			"ban_id", result.ID.String(),
			"community_id", communityID.String(),
			"member_id", req.MemberID.String(),
			"actor_id", actor.ID.String(),
			"permanent", result.IsPermanent(),
		)
	}
	return result, nil
}

// UnbanMember lifts the member's active ban in the community. It returns nil
// without error when no ban is active.
func (s *Service) UnbanMember(ctx context.Context, actorID id.MemberID, communityID id.CommunityID, memberID id.MemberID) (_ *models.Ban, err error) {
	ctx, span := tracing.Start(ctx, "community", "UnbanMember", attribute.String("community_id", communityID.String()))
	defer func() { tracing.End(span, err) }()

	actor, err := s.authz.LoadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetCommunity(ctx, communityID); err != nil {
		return nil, err
	}
	if err := s.authz.RequireAdminOrModerator(ctx, actor, communityID); err != nil {
		return nil, err
	}

	var result *models.Ban
	ctx = txcontext.WithLockKey(ctx, communityLockKey(communityID))
	err = txcontext.RunWithRetry(ctx, s.tx, s.retries, s.onRetry("unban_member"), func(ctx context.Context) error {
		result = nil
		ban, err := s.bans.FindActive(ctx, communityID, memberID, requestcontext.Now(ctx))
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active ban")
		}
		if !ban.Lift(actor.ID, requestcontext.Now(ctx)) {
			return nil
		}
		if err := s.saveBan(ctx, ban, actor.ID, audit.EventMemberUnbanned); err != nil {
			return err
		}
		result = ban
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result != nil {
		s.logLift(ctx, result, actor.ID)
	}
	return result, nil
}

// LiftBan lifts a ban by ID. Lifting an inactive ban is a no-op that returns
// the ban as stored.
func (s *Service) LiftBan(ctx context.Context, actorID id.MemberID, banID id.BanID) (_ *models.Ban, err error) {
	ctx, span := tracing.Start(ctx, "community", "LiftBan", attribute.String("ban_id", banID.String()))
	defer func() { tracing.End(span, err) }()

	result, changed, err := s.mutateBan(ctx, actorID, banID, "lift_ban", func(ctx context.Context, actor *identity.Member, ban *models.Ban) (audit.AuditEvent, error) {
		if !ban.Lift(actor.ID, requestcontext.Now(ctx)) {
			return "", nil
		}
		return audit.EventMemberUnbanned, nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.logLift(ctx, result, actorID)
	}
	return result, nil
}

// ExtendBan pushes the expiry of an active temporary ban later by d.
func (s *Service) ExtendBan(ctx context.Context, actorID id.MemberID, banID id.BanID, d time.Duration) (_ *models.Ban, err error) {
	ctx, span := tracing.Start(ctx, "community", "ExtendBan", attribute.String("ban_id", banID.String()))
	defer func() { tracing.End(span, err) }()

	result, _, err := s.mutateBan(ctx, actorID, banID, "extend_ban", func(ctx context.Context, _ *identity.Member, ban *models.Ban) (audit.AuditEvent, error) {
		if err := ban.Extend(d, requestcontext.Now(ctx)); err != nil {
			return "", err
		}
		return audit.EventBanExtended, nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(audit.EventBanExtended),
		"ban_id", result.ID.String(),
		"community_id", result.CommunityID.String(),
		"expires_at", result.ExpiresAt.UTC().Format(time.RFC3339),
		"actor_id", actorID.String(),
	)
	return result, nil
}

// mutateBan authorizes against the ban's community, then reloads the ban
// under the community lock and applies fn. fn returns the event to record, or
// "" when nothing changed and nothing is written.
func (s *Service) mutateBan(ctx context.Context, actorID id.MemberID, banID id.BanID, operation string, fn func(ctx context.Context, actor *identity.Member, ban *models.Ban) (audit.AuditEvent, error)) (*models.Ban, bool, error) {
	actor, err := s.authz.LoadActor(ctx, actorID)
	if err != nil {
		return nil, false, err
	}
	peek, err := s.findBan(ctx, banID)
	if err != nil {
		return nil, false, err
	}
	if err := s.authz.RequireAdminOrModerator(ctx, actor, peek.CommunityID); err != nil {
		return nil, false, err
	}

	var (
		result  *models.Ban
		changed bool
	)
	ctx = txcontext.WithLockKey(ctx, communityLockKey(peek.CommunityID))
	err = txcontext.RunWithRetry(ctx, s.tx, s.retries, s.onRetry(operation), func(ctx context.Context) error {
		ban, err := s.findBan(ctx, banID)
		if err != nil {
			return err
		}
		event, err := fn(ctx, actor, ban)
		if err != nil {
			return err
		}
		result, changed = ban, event != ""
		if !changed {
			return nil
		}
		return s.saveBan(ctx, ban, actor.ID, event)
	})
	if err != nil {
		return nil, false, err
	}
	return result, changed, nil
}

func (s *Service) saveBan(ctx context.Context, ban *models.Ban, actorID id.MemberID, event audit.AuditEvent) error {
	if err := s.bans.Update(ctx, ban); err != nil {
		return translateBanWrite(err, "failed to save ban")
	}
	return s.emit(ctx, audit.Event{
		ActorID:     actorID,
		Action:      string(event),
		SubjectType: "ban",
		Subject:     ban.ID.String(),
		CommunityID: ban.CommunityID.String(),
	})
}

// ListBans returns the community's bans, newest first. Moderators and admins
// only.
func (s *Service) ListBans(ctx context.Context, actorID id.MemberID, communityID id.CommunityID, activeOnly bool) ([]models.Ban, error) {
	actor, err := s.authz.LoadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetCommunity(ctx, communityID); err != nil {
		return nil, err
	}
	if err := s.authz.RequireAdminOrModerator(ctx, actor, communityID); err != nil {
		return nil, err
	}
	bans, err := s.bans.ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list bans")
	}
	if !activeOnly {
		return bans, nil
	}
	now := requestcontext.Now(ctx)
	active := bans[:0]
	for _, b := range bans {
		if b.IsActive(now) {
			active = append(active, b)
		}
	}
	return active, nil
}

// EnsureNotBanned fails with member_banned while memberID has an active ban in
// communityID.
func (s *Service) EnsureNotBanned(ctx context.Context, communityID id.CommunityID, memberID id.MemberID) error {
	return s.authz.EnsureNotBanned(ctx, communityID, memberID)
}

func (s *Service) findBan(ctx context.Context, banID id.BanID) (*models.Ban, error) {
	ban, err := s.bans.FindByID(ctx, banID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "ban not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ban")
	}
	return ban, nil
}

func communityLockKey(communityID id.CommunityID) string {
	return "community:" + communityID.String()
}

func translateBanWrite(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "ban was modified concurrently")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "ban not found")
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

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func (s *Service) logLift(ctx context.Context, ban *models.Ban, actorID id.MemberID) {
	s.logAudit(ctx, string(audit.EventMemberUnbanned),
		"ban_id", ban.ID.String(),
		"community_id", ban.CommunityID.String(),
		"member_id", ban.MemberID.String(),
		"actor_id", actorID.String(),
	)
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
