package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"agora/internal/authorization"
	"agora/internal/content/models"
	"agora/internal/platform/tracing"
	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
	"agora/pkg/platform/audit"
	"agora/pkg/platform/sentinel"
	txcontext "agora/pkg/platform/tx"
	"agora/pkg/requestcontext"
)

// ledger adapts the post and comment vote tables to one toggle routine.
type ledger struct {
	find   func(ctx context.Context) (models.VoteValue, error)
	insert func(ctx context.Context, v models.VoteValue, now time.Time) error
	update func(ctx context.Context, v models.VoteValue, now time.Time) error
	remove func(ctx context.Context) error
}

// toggle reads the stored vote, decides the next one and performs exactly one
// of insert, update or delete. A no-op writes nothing.
func toggle(ctx context.Context, l ledger, desired models.VoteValue) (models.VoteOutcome, error) {
	old, err := l.find(ctx)
	if err != nil {
		return models.VoteOutcome{}, err
	}
	next := models.DecideVote(old, desired)
	op := models.PlanLedgerOp(old, next)
	now := requestcontext.Now(ctx)

	switch op {
	case models.LedgerInsert:
		err = l.insert(ctx, next, now)
	case models.LedgerUpdate:
		err = l.update(ctx, next, now)
	case models.LedgerDelete:
		err = l.remove(ctx)
	}
	if err != nil {
		return models.VoteOutcome{}, translateWrite(err, "vote", "failed to write vote")
	}
	return models.VoteOutcome{Previous: old, Current: next, Op: op}, nil
}

// noVoteOnMissing turns a missing ledger row into VoteNone.
func noVoteOnMissing(err error) (models.VoteValue, error) {
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.VoteNone, nil
	}
	return models.VoteNone, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vote")
}

func (s *Service) postLedger(postID id.PostID, voterID id.MemberID) ledger {
	return ledger{
		find: func(ctx context.Context) (models.VoteValue, error) {
			v, err := s.votes.FindPostVote(ctx, postID, voterID)
			if err != nil {
				return noVoteOnMissing(err)
			}
			return v.Value, nil
		},
		insert: func(ctx context.Context, v models.VoteValue, now time.Time) error {
			return s.votes.InsertPostVote(ctx, &models.PostVote{PostID: postID, VoterID: voterID, Value: v, CreatedAt: now, UpdatedAt: now})
		},
		update: func(ctx context.Context, v models.VoteValue, now time.Time) error {
			return s.votes.UpdatePostVote(ctx, &models.PostVote{PostID: postID, VoterID: voterID, Value: v, UpdatedAt: now})
		},
		remove: func(ctx context.Context) error {
			return s.votes.DeletePostVote(ctx, postID, voterID)
		},
	}
}

func (s *Service) commentLedger(commentID id.CommentID, voterID id.MemberID) ledger {
	return ledger{
		find: func(ctx context.Context) (models.VoteValue, error) {
			v, err := s.votes.FindCommentVote(ctx, commentID, voterID)
			if err != nil {
				return noVoteOnMissing(err)
			}
			return v.Value, nil
		},
		insert: func(ctx context.Context, v models.VoteValue, now time.Time) error {
			return s.votes.InsertCommentVote(ctx, &models.CommentVote{CommentID: commentID, VoterID: voterID, Value: v, CreatedAt: now, UpdatedAt: now})
		},
		update: func(ctx context.Context, v models.VoteValue, now time.Time) error {
			return s.votes.UpdateCommentVote(ctx, &models.CommentVote{CommentID: commentID, VoterID: voterID, Value: v, UpdatedAt: now})
		},
		remove: func(ctx context.Context) error {
			return s.votes.DeleteCommentVote(ctx, commentID, voterID)
		},
	}
}

// VotePost applies the toggle rule to the actor's vote on a published post
// and moves the post's counters by the matching delta in the same
// transaction. Bans do not block voting.
func (s *Service) VotePost(ctx context.Context, actorID id.MemberID, postID id.PostID, desired int) (_ *models.VoteOutcome, err error) {
	ctx, span := tracing.Start(ctx, "content", "VotePost", attribute.String("post_id", postID.String()))
	defer func() { tracing.End(span, err) }()
	defer s.metrics.ObserveMutation("vote_post", time.Now())

	value, err := models.ParseVoteValue(desired)
	if err != nil {
		return nil, err
	}
	actor, err := s.authz.LoadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	peek, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, authorization.ActionVote, authorization.Target{CommunityID: peek.CommunityID}); err != nil {
		return nil, err
	}

	var outcome models.VoteOutcome
	ctx = txcontext.WithLockKey(ctx, postLockKey(postID))
	err = txcontext.RunWithRetry(ctx, s.tx, s.retries, s.onRetry("vote_post"), func(ctx context.Context) error {
		post, err := s.findPost(ctx, postID)
		if err != nil {
			return err
		}
		if err := post.EnsureVotable(); err != nil {
			return err
		}
		outcome, err = toggle(ctx, s.postLedger(postID, actor.ID), value)
		if err != nil {
			return err
		}
		if outcome.Op != models.LedgerNoop {
			if err := post.ApplyVoteDelta(outcome.Previous, outcome.Current); err != nil {
				return err
			}
			if err := s.posts.Update(ctx, post); err != nil {
				return translateWrite(err, "post", "failed to update vote counters")
			}
			if err := s.emit(ctx, postEvent(audit.EventPostVoted, actor.ID, post)); err != nil {
				return err
			}
		}
		outcome.Counters = post.VoteCounters
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncVote("post", outcome.Op.String())
	if outcome.Op != models.LedgerNoop {
		s.logAudit(ctx, string(audit.EventPostVoted),
			"post_id", postID.String(),
			"actor_id", actor.ID.String(),
			"previous", outcome.Previous.Int(),
			"current", outcome.Current.Int(),
		)
	}
	return &outcome, nil
}

// VoteComment applies the toggle rule to the actor's vote on a visible
// comment. It shares the owning post's lock key so a comment vote never
// interleaves with a delete of the same comment.
func (s *Service) VoteComment(ctx context.Context, actorID id.MemberID, commentID id.CommentID, desired int) (_ *models.VoteOutcome, err error) {
	ctx, span := tracing.Start(ctx, "content", "VoteComment", attribute.String("comment_id", commentID.String()))
	defer func() { tracing.End(span, err) }()
	defer s.metrics.ObserveMutation("vote_comment", time.Now())

	value, err := models.ParseVoteValue(desired)
	if err != nil {
		return nil, err
	}
	actor, err := s.authz.LoadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	_, post, err := s.loadCommentAndPost(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, authorization.ActionVote, authorization.Target{CommunityID: post.CommunityID}); err != nil {
		return nil, err
	}

	var outcome models.VoteOutcome
	ctx = txcontext.WithLockKey(ctx, postLockKey(post.ID))
	err = txcontext.RunWithRetry(ctx, s.tx, s.retries, s.onRetry("vote_comment"), func(ctx context.Context) error {
		comment, err := s.findComment(ctx, commentID)
		if err != nil {
			return err
		}
		if err := comment.EnsureVotable(); err != nil {
			return err
		}
		outcome, err = toggle(ctx, s.commentLedger(commentID, actor.ID), value)
		if err != nil {
			return err
		}
		if outcome.Op != models.LedgerNoop {
			if err := comment.ApplyVoteDelta(outcome.Previous, outcome.Current); err != nil {
				return err
			}
			if err := s.comments.Update(ctx, comment); err != nil {
				return translateWrite(err, "comment", "failed to update vote counters")
			}
			if err := s.emit(ctx, commentEvent(audit.EventCommentVoted, actor.ID, post, comment)); err != nil {
				return err
			}
		}
		outcome.Counters = comment.VoteCounters
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncVote("comment", outcome.Op.String())
	if outcome.Op != models.LedgerNoop {
		s.logAudit(ctx, string(audit.EventCommentVoted),
			"comment_id", commentID.String(),
			"actor_id", actor.ID.String(),
			"previous", outcome.Previous.Int(),
			"current", outcome.Current.Int(),
		)
	}
	return &outcome, nil
}

// MyPostVote returns the voter's current vote on a post, VoteNone when there
// is no ledger row.
func (s *Service) MyPostVote(ctx context.Context, voterID id.MemberID, postID id.PostID) (models.MyPostVote, error) {
	if _, err := s.findPost(ctx, postID); err != nil {
		return models.MyPostVote{}, err
	}
	value, err := s.postLedger(postID, voterID).find(ctx)
	if err != nil {
		return models.MyPostVote{}, err
	}
	return models.MyPostVote{PostID: postID, Vote: value}, nil
}

// MyCommentVote returns the voter's current vote on a comment.
func (s *Service) MyCommentVote(ctx context.Context, voterID id.MemberID, commentID id.CommentID) (models.MyCommentVote, error) {
	if _, err := s.findComment(ctx, commentID); err != nil {
		return models.MyCommentVote{}, err
	}
	value, err := s.commentLedger(commentID, voterID).find(ctx)
	if err != nil {
		return models.MyCommentVote{}, err
	}
	return models.MyCommentVote{CommentID: commentID, Vote: value}, nil
}

// MyPostVotes is the bulk projection for a listing: one entry per requested
// post in request order, VoteNone where the voter has no row. Unknown posts
// are reported as VoteNone rather than failing the batch.
func (s *Service) MyPostVotes(ctx context.Context, voterID id.MemberID, postIDs []id.PostID) ([]models.MyPostVote, error) {
	if len(postIDs) > models.MaxPageSize {
		return nil, dErrors.New(dErrors.CodeValidation, "too many posts requested")
	}
	stored, err := s.votes.FindPostVotes(ctx, voterID, postIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load votes")
	}
	out := make([]models.MyPostVote, len(postIDs))
	for i, postID := range postIDs {
		out[i] = models.MyPostVote{PostID: postID, Vote: stored[postID]}
	}
	return out, nil
}
