package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"agora/internal/authorization"
	"agora/internal/content/models"
	"agora/internal/platform/tracing"
	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
	"agora/pkg/platform/audit"
	txcontext "agora/pkg/platform/tx"
	"agora/pkg/requestcontext"
)

// threadFanout bounds concurrent reply lookups while assembling a thread.
const threadFanout = 8

// CreateCommentRequest creates a root comment when ParentID is nil and a
// reply otherwise.
type CreateCommentRequest struct {
	ParentID *id.CommentID `json:"parent_id,omitempty"`
	Body     string        `json:"body"`
}

// CreateComment adds a comment to a published post and bumps its visible
// comment count in the same transaction.
func (s *Service) CreateComment(ctx context.Context, actorID id.MemberID, postID id.PostID, req CreateCommentRequest) (_ *models.Comment, err error) {
	ctx, span := tracing.Start(ctx, "content", "CreateComment", attribute.String("post_id", postID.String()))
	defer func() { tracing.End(span, err) }()
	defer s.metrics.ObserveMutation("create_comment", time.Now())

	body, err := models.NewCommentBody(req.Body)
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
	if err := s.authz.Authorize(ctx, actor, authorization.ActionCreateComment, authorization.Target{CommunityID: peek.CommunityID}); err != nil {
		return nil, err
	}

	var comment *models.Comment
	ctx = txcontext.WithLockKey(ctx, postLockKey(postID))
	err = txcontext.RunWithRetry(ctx, s.tx, s.retries, s.onRetry("create_comment"), func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		post, err := s.findPost(ctx, postID)
		if err != nil {
			return err
		}
		if err := post.EnsureCommentable(); err != nil {
			return err
		}
		if req.ParentID == nil {
			comment, err = models.NewRootComment(id.NewCommentID(), postID, actor.ID, body, now)
		} else {
			var parent *models.Comment
			parent, err = s.findComment(ctx, *req.ParentID)
			if err != nil {
				return err
			}
			comment, err = models.NewReply(id.NewCommentID(), postID, actor.ID, parent, body, now)
		}
		if err != nil {
			return err
		}
		if err := s.comments.Create(ctx, comment); err != nil {
			return translateWrite(err, "comment", "failed to create comment")
		}
		post.IncrementCommentCount()
		if err := s.posts.Update(ctx, post); err != nil {
			return translateWrite(err, "post", "failed to update comment count")
		}
		return s.emit(ctx, commentEvent(audit.EventCommentCreated, actor.ID, post, comment))
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(audit.EventCommentCreated),
		"comment_id", comment.ID.String(),
		"post_id", postID.String(),
		"depth", comment.Depth,
		"actor_id", actor.ID.String(),
	)
	return comment, nil
}

// EditComment replaces the body of a visible comment. Author only.
func (s *Service) EditComment(ctx context.Context, actorID id.MemberID, commentID id.CommentID, body string) (_ *models.Comment, err error) {
	ctx, span := tracing.Start(ctx, "content", "EditComment", attribute.String("comment_id", commentID.String()))
	defer func() { tracing.End(span, err) }()

	b, err := models.NewCommentBody(body)
	if err != nil {
		return nil, err
	}
	actor, err := s.authz.LoadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	peek, post, err := s.loadCommentAndPost(ctx, commentID)
	if err != nil {
		return nil, err
	}
	target := authorization.Target{CommunityID: post.CommunityID, AuthorID: peek.AuthorID}
	if err := s.authz.Authorize(ctx, actor, authorization.ActionEditComment, target); err != nil {
		return nil, err
	}

	var result *models.Comment
	ctx = txcontext.WithLockKey(ctx, postLockKey(post.ID))
	err = txcontext.RunWithRetry(ctx, s.tx, s.retries, s.onRetry("edit_comment"), func(ctx context.Context) error {
		comment, err := s.findComment(ctx, commentID)
		if err != nil {
			return err
		}
		if err := comment.Edit(b, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.comments.Update(ctx, comment); err != nil {
			return translateWrite(err, "comment", "failed to save comment")
		}
		result = comment
		return s.emit(ctx, commentEvent(audit.EventCommentEdited, actor.ID, post, comment))
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(audit.EventCommentEdited), "comment_id", commentID.String(), "post_id", post.ID.String(), "actor_id", actor.ID.String())
	return result, nil
}

// DeleteComment soft-deletes a comment. The author, a moderator or an admin
// may delete, bans notwithstanding. Deleting a deleted comment is a no-op
// that leaves the post's comment count alone.
func (s *Service) DeleteComment(ctx context.Context, actorID id.MemberID, commentID id.CommentID) (_ *models.Comment, err error) {
	ctx, span := tracing.Start(ctx, "content", "DeleteComment", attribute.String("comment_id", commentID.String()))
	defer func() { tracing.End(span, err) }()

	actor, err := s.authz.LoadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	peek, peekPost, err := s.loadCommentAndPost(ctx, commentID)
	if err != nil {
		return nil, err
	}
	target := authorization.Target{CommunityID: peekPost.CommunityID, AuthorID: peek.AuthorID}
	if err := s.authz.Authorize(ctx, actor, authorization.ActionDeleteComment, target); err != nil {
		return nil, err
	}

	var (
		result  *models.Comment
		changed bool
	)
	ctx = txcontext.WithLockKey(ctx, postLockKey(peekPost.ID))
	err = txcontext.RunWithRetry(ctx, s.tx, s.retries, s.onRetry("delete_comment"), func(ctx context.Context) error {
		comment, post, err := s.loadCommentAndPost(ctx, commentID)
		if err != nil {
			return err
		}
		result = comment
		changed = comment.SoftDelete(requestcontext.Now(ctx))
		if !changed {
			return nil
		}
		if err := s.comments.Update(ctx, comment); err != nil {
			return translateWrite(err, "comment", "failed to save comment")
		}
		if err := post.ApplyCommentVisibilityChange(true, false); err != nil {
			return err
		}
		if err := s.posts.Update(ctx, post); err != nil {
			return translateWrite(err, "post", "failed to update comment count")
		}
		return s.emit(ctx, commentEvent(audit.EventCommentDeleted, actor.ID, post, comment))
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.metrics.IncTransition("comment", "delete")
		s.logAudit(ctx, string(audit.EventCommentDeleted), "comment_id", commentID.String(), "post_id", peekPost.ID.String(), "actor_id", actor.ID.String())
	}
	return result, nil
}

// ListRootComments pages through a post's top-level comments, oldest first.
func (s *Service) ListRootComments(ctx context.Context, postID id.PostID, page models.Page) ([]*models.Comment, error) {
	if _, err := s.findPost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.comments.FindRoots(ctx, postID, page.Normalize())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list comments")
	}
	return comments, nil
}

// ListReplies pages through the direct replies to parentID.
func (s *Service) ListReplies(ctx context.Context, postID id.PostID, parentID id.CommentID, page models.Page) ([]*models.Comment, error) {
	parent, err := s.findComment(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.PostID != postID {
		return nil, dErrors.New(dErrors.CodeNotFound, "comment not found on this post")
	}
	comments, err := s.comments.FindReplies(ctx, postID, parentID, page.Normalize())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list replies")
	}
	return comments, nil
}

// GetThread returns a page of root comments, each followed by its first page
// of direct replies, plus the viewer's votes on all of them. A nil viewer
// gets no votes. Reply pages are loaded concurrently.
func (s *Service) GetThread(ctx context.Context, viewerID id.MemberID, postID id.PostID, page models.Page) (_ *models.Thread, err error) {
	ctx, span := tracing.Start(ctx, "content", "GetThread", attribute.String("post_id", postID.String()))
	defer func() { tracing.End(span, err) }()

	roots, err := s.ListRootComments(ctx, postID, page)
	if err != nil {
		return nil, err
	}

	replies := make([][]*models.Comment, len(roots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threadFanout)
	for i, root := range roots {
		g.Go(func() error {
			r, err := s.comments.FindReplies(gctx, postID, root.ID, models.Page{})
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list replies")
			}
			replies[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	thread := &models.Thread{PostID: postID}
	for i, root := range roots {
		thread.Comments = append(thread.Comments, root)
		thread.Comments = append(thread.Comments, replies[i]...)
	}
	if viewerID.IsNil() || len(thread.Comments) == 0 {
		return thread, nil
	}
	ids := make([]id.CommentID, len(thread.Comments))
	for i, c := range thread.Comments {
		ids[i] = c.ID
	}
	mine, err := s.votes.FindCommentVotes(ctx, viewerID, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load votes")
	}
	thread.MyVotes = mine
	return thread, nil
}

func (s *Service) loadCommentAndPost(ctx context.Context, commentID id.CommentID) (*models.Comment, *models.Post, error) {
	comment, err := s.findComment(ctx, commentID)
	if err != nil {
		return nil, nil, err
	}
	post, err := s.findPost(ctx, comment.PostID)
	if err != nil {
		return nil, nil, err
	}
	return comment, post, nil
}

func commentEvent(event audit.AuditEvent, actorID id.MemberID, p *models.Post, c *models.Comment) audit.Event {
	return audit.Event{
		ActorID:     actorID,
		Action:      string(event),
		SubjectType: "comment",
		Subject:     c.ID.String(),
		CommunityID: p.CommunityID.String(),
	}
}
