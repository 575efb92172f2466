package authorization

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	community "agora/internal/community/models"
	identity "agora/internal/identity/models"
	"agora/internal/platform/metrics"
	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
	"agora/pkg/platform/sentinel"
	"agora/pkg/requestcontext"
)

// factTimeout bounds the parallel fact lookups for one decision.
const factTimeout = 2 * time.Second

type MemberStore interface {
	FindByID(ctx context.Context, memberID id.MemberID) (*identity.Member, error)
}

type ModeratorStore interface {
	IsModerator(ctx context.Context, communityID id.CommunityID, memberID id.MemberID) (bool, error)
}

// BanStore returns sentinel.ErrNotFound when no ban is active at now.
type BanStore interface {
	FindActive(ctx context.Context, communityID id.CommunityID, memberID id.MemberID, now time.Time) (*community.Ban, error)
}

// Authorizer gathers the facts Decide needs and turns a Deny into an error.
type Authorizer struct {
	members    MemberStore
	moderators ModeratorStore
	bans       BanStore
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Authorizer)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Authorizer) {
		a.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Authorizer) {
		a.metrics = m
	}
}

func New(members MemberStore, moderators ModeratorStore, bans BanStore, opts ...Option) *Authorizer {
	a := &Authorizer{members: members, moderators: moderators, bans: bans}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LoadActor resolves the acting member. An unknown ID is unauthorized, not
// not_found: the caller is presenting an identity the core does not know.
func (a *Authorizer) LoadActor(ctx context.Context, memberID id.MemberID) (*identity.Member, error) {
	if memberID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor is required")
	}
	m, err := a.members.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown member")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	return m, nil
}

// LoadMember resolves a member the actor is acting on.
func (a *Authorizer) LoadMember(ctx context.Context, memberID id.MemberID) (*identity.Member, error) {
	m, err := a.members.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	return m, nil
}

// Authorize gathers only the facts that can change the outcome, concurrently,
// then applies Decide.
func (a *Authorizer) Authorize(ctx context.Context, actor *identity.Member, action Action, target Target) error {
	facts := Facts{Actor: actor}
	if actor != nil && actor.IsActiveVerified() {
		if err := a.gatherFacts(ctx, &facts, action, target); err != nil {
			return err
		}
	}
	d := Decide(facts, action, target)
	if !d.Allowed {
		a.recordDenial(ctx, actor, action, target, d)
	}
	return d.Err()
}

func (a *Authorizer) gatherFacts(ctx context.Context, facts *Facts, action Action, target Target) error {
	needMod := needsModeratorFact(action, facts.Actor, target)
	needBan := needsBanFact(action, facts.Actor, target)
	if !needMod && !needBan {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, factTimeout)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if needMod {
		g.Go(func() error {
			ok, err := a.isModerator(gctx, target.CommunityID, facts.Actor.ID)
			facts.IsModerator = ok
			return err
		})
	}
	if needBan {
		g.Go(func() error {
			banned, err := a.isBanned(gctx, target.CommunityID, facts.Actor.ID)
			facts.Banned = banned
			return err
		})
	}
	return g.Wait()
}

func (a *Authorizer) isModerator(ctx context.Context, communityID id.CommunityID, memberID id.MemberID) (bool, error) {
	ok, err := a.moderators.IsModerator(ctx, communityID, memberID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check moderator grant")
	}
	return ok, nil
}

func (a *Authorizer) isBanned(ctx context.Context, communityID id.CommunityID, memberID id.MemberID) (bool, error) {
	_, err := a.bans.FindActive(ctx, communityID, memberID, requestcontext.Now(ctx))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check ban")
}

// RequireAdminOrModerator allows ADMIN, else a moderator grant on communityID.
func (a *Authorizer) RequireAdminOrModerator(ctx context.Context, actor *identity.Member, communityID id.CommunityID) error {
	return a.Authorize(ctx, actor, ActionModerate, Target{CommunityID: communityID})
}

// EnsureNotBanned fails with member_banned while memberID has an active ban in
// communityID.
func (a *Authorizer) EnsureNotBanned(ctx context.Context, communityID id.CommunityID, memberID id.MemberID) error {
	banned, err := a.isBanned(ctx, communityID, memberID)
	if err != nil {
		return err
	}
	if banned {
		return dErrors.New(dErrors.CodeMemberBanned, "member is banned from this community")
	}
	return nil
}

func (a *Authorizer) recordDenial(ctx context.Context, actor *identity.Member, action Action, target Target, d Decision) {
	a.metrics.IncDenial(string(action), string(d.Code))
	if a.logger == nil {
		return
	}
	args := []any{
		"action", string(action),
		"code", string(d.Code),
		"community_id", target.CommunityID.String(),
	}
	if actor != nil {
		args = append(args, "actor_id", actor.ID.String())
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	a.logger.InfoContext(ctx, "authorization denied", args...)
}
