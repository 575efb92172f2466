// Package service runs the content mutations: post lifecycle, comment
// threads and the vote ledger.
//
// Every mutation follows the same shape. The actor and the target are loaded
// and authorized outside the transaction (author and community of a post or
// comment never change), then the aggregate is reloaded under the post's lock
// key, mutated and saved together with any ledger row and the audit event.
// A lost version race replays the transaction.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"log/slog"

	"agora/internal/authorization"
	community "agora/internal/community/models"
	"agora/internal/content/models"
	identity "agora/internal/identity/models"
	"agora/internal/platform/metrics"
	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
	"agora/pkg/platform/audit"
	"agora/pkg/platform/sentinel"
	txcontext "agora/pkg/platform/tx"
	"agora/pkg/requestcontext"
)

// PostStore updates with a version check and returns sentinel.ErrConflict on
// a lost race.
type PostStore interface {
	Create(ctx context.Context, p *models.Post) error
	Update(ctx context.Context, p *models.Post) error
	FindByID(ctx context.Context, postID id.PostID) (*models.Post, error)
}

type CommentStore interface {
	Create(ctx context.Context, c *models.Comment) error
	Update(ctx context.Context, c *models.Comment) error
	FindByID(ctx context.Context, commentID id.CommentID) (*models.Comment, error)
	FindRoots(ctx context.Context, postID id.PostID, page models.Page) ([]*models.Comment, error)
	FindReplies(ctx context.Context, postID id.PostID, parentID id.CommentID, page models.Page) ([]*models.Comment, error)
}

// VoteStore is the ledger. Inserting a second row for the same (target,
// voter) returns sentinel.ErrConflict; updating or deleting a missing row
// returns sentinel.ErrNotFound.
type VoteStore interface {
	FindPostVote(ctx context.Context, postID id.PostID, voterID id.MemberID) (*models.PostVote, error)
	InsertPostVote(ctx context.Context, v *models.PostVote) error
	UpdatePostVote(ctx context.Context, v *models.PostVote) error
	DeletePostVote(ctx context.Context, postID id.PostID, voterID id.MemberID) error
	FindPostVotes(ctx context.Context, voterID id.MemberID, postIDs []id.PostID) (map[id.PostID]models.VoteValue, error)

	FindCommentVote(ctx context.Context, commentID id.CommentID, voterID id.MemberID) (*models.CommentVote, error)
	InsertCommentVote(ctx context.Context, v *models.CommentVote) error
	UpdateCommentVote(ctx context.Context, v *models.CommentVote) error
	DeleteCommentVote(ctx context.Context, commentID id.CommentID, voterID id.MemberID) error
	FindCommentVotes(ctx context.Context, voterID id.MemberID, commentIDs []id.CommentID) (map[id.CommentID]models.VoteValue, error)
}

// Communities resolves the community a post is created in.
type Communities interface {
	GetCommunity(ctx context.Context, communityID id.CommunityID) (*community.Community, error)
}

type Authorizer interface {
	LoadActor(ctx context.Context, memberID id.MemberID) (*identity.Member, error)
	Authorize(ctx context.Context, actor *identity.Member, action authorization.Action, target authorization.Target) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	posts          PostStore
	comments       CommentStore
	votes          VoteStore
	communities    Communities
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

// WithConflictRetries sets how many times a mutation is attempted when it
// loses a version or ledger race.
func WithConflictRetries(n int) Option {
	return func(s *Service) {
		s.retries = n
	}
}

func New(posts PostStore, comments CommentStore, votes VoteStore, communities Communities, authz Authorizer, tx txcontext.Runner, opts ...Option) *Service {
	s := &Service{
		posts:       posts,
		comments:    comments,
		votes:       votes,
		communities: communities,
		authz:       authz,
		tx:          tx,
		retries:     txcontext.DefaultAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// postLockKey serializes every write touching a post, its comments and their
// ledgers.
func postLockKey(postID id.PostID) string {
	return "post:" + postID.String()
}

func (s *Service) findPost(ctx context.Context, postID id.PostID) (*models.Post, error) {
	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "post not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load post")
	}
	return p, nil
}

func (s *Service) findComment(ctx context.Context, commentID id.CommentID) (*models.Comment, error) {
	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "comment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load comment")
	}
	return c, nil
}

// translateWrite maps store failures on a versioned aggregate or ledger row.
func translateWrite(err error, entity, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, entity+" was modified concurrently")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeConflict, entity+" disappeared during the update")
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

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
}
