package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"agora/internal/authorization"
	"agora/internal/content/models"
	identity "agora/internal/identity/models"
	"agora/internal/platform/tracing"
	id "agora/pkg/domain"
	"agora/pkg/platform/audit"
	txcontext "agora/pkg/platform/tx"
	"agora/pkg/requestcontext"
)

// CreatePostRequest carries a new draft. Kind defaults to TEXT.
type CreatePostRequest struct {
	CommunityID id.CommunityID      `json:"community_id"`
	Kind        string              `json:"kind"`
	Title       string              `json:"title"`
	Content     string              `json:"content"`
	Media       []models.MediaAsset `json:"media"`
}

// CreatePost stores a DRAFT post. The actor must be an active verified member
// who is not banned from the community.
func (s *Service) CreatePost(ctx context.Context, actorID id.MemberID, req CreatePostRequest) (_ *models.Post, err error) {
	ctx, span := tracing.Start(ctx, "content", "CreatePost", attribute.String("community_id", req.CommunityID.String()))
	defer func() { tracing.End(span, err) }()
	defer s.metrics.ObserveMutation("create_post", time.Now())

	kind, err := models.ParsePostKind(req.Kind)
	if err != nil {
		return nil, err
	}
	title, err := models.NewTitle(req.Title)
	if err != nil {
		return nil, err
	}
	content, err := models.NewContent(req.Content)
	if err != nil {
		return nil, err
	}
	actor, err := s.authz.LoadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.communities.GetCommunity(ctx, req.CommunityID); err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, authorization.ActionCreatePost, authorization.Target{CommunityID: req.CommunityID}); err != nil {
		return nil, err
	}
	post, err := models.NewPost(id.NewPostID(), req.CommunityID, actor.ID, kind, title, content, nil, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if len(req.Media) > 0 {
		if err := post.AttachMedia(req.Media, post.CreatedAt); err != nil {
			return nil, err
		}
	}

	ctx = txcontext.WithLockKey(ctx, postLockKey(post.ID))
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.posts.Create(ctx, post); err != nil {
			return translateWrite(err, "post", "failed to create post")
		}
		return s.emit(ctx, postEvent(audit.EventPostCreated, actor.ID, post))
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(audit.EventPostCreated), "post_id", post.ID.String(), "community_id", post.CommunityID.String(), "actor_id", actor.ID.String())
	return post, nil
}

// GetPost loads a post by ID.
func (s *Service) GetPost(ctx context.Context, postID id.PostID) (*models.Post, error) {
	return s.findPost(ctx, postID)
}

// AttachMedia appends assets to a post that is not archived. Author only.
func (s *Service) AttachMedia(ctx context.Context, actorID id.MemberID, postID id.PostID, assets []models.MediaAsset) (_ *models.Post, err error) {
	ctx, span := tracing.Start(ctx, "content", "AttachMedia", attribute.String("post_id", postID.String()))
	defer func() { tracing.End(span, err) }()

	post, err := s.mutatePost(ctx, actorID, postID, postMutation{
		operation: "attach_media",
		action:    authorization.ActionEditPost,
		event:     audit.EventPostMediaAttached,
		apply: func(now time.Time, p *models.Post) (bool, error) {
			return true, p.AttachMedia(assets, now)
		},
	})
	return post, err
}

// Rename replaces the title of a post that is not archived. Author only.
func (s *Service) Rename(ctx context.Context, actorID id.MemberID, postID id.PostID, title string) (_ *models.Post, err error) {
	ctx, span := tracing.Start(ctx, "content", "Rename", attribute.String("post_id", postID.String()))
	defer func() { tracing.End(span, err) }()

	t, err := models.NewTitle(title)
	if err != nil {
		return nil, err
	}
	post, err := s.mutatePost(ctx, actorID, postID, postMutation{
		operation: "rename_post",
		action:    authorization.ActionEditPost,
		event:     audit.EventPostRenamed,
		apply: func(now time.Time, p *models.Post) (bool, error) {
			return true, p.Rename(t, now)
		},
	})
	return post, err
}

// Rewrite replaces the content of a post that is not archived. Author only.
func (s *Service) Rewrite(ctx context.Context, actorID id.MemberID, postID id.PostID, content string) (_ *models.Post, err error) {
	ctx, span := tracing.Start(ctx, "content", "Rewrite", attribute.String("post_id", postID.String()))
	defer func() { tracing.End(span, err) }()

	c, err := models.NewContent(content)
	if err != nil {
		return nil, err
	}
	post, err := s.mutatePost(ctx, actorID, postID, postMutation{
		operation: "rewrite_post",
		action:    authorization.ActionEditPost,
		event:     audit.EventPostRewritten,
		apply: func(now time.Time, p *models.Post) (bool, error) {
			return true, p.Rewrite(c, now)
		},
	})
	return post, err
}

// Publish moves a DRAFT post to PUBLISHED. Author only.
func (s *Service) Publish(ctx context.Context, actorID id.MemberID, postID id.PostID) (_ *models.Post, err error) {
	ctx, span := tracing.Start(ctx, "content", "Publish", attribute.String("post_id", postID.String()))
	defer func() { tracing.End(span, err) }()
	defer s.metrics.ObserveMutation("publish_post", time.Now())

	post, err := s.mutatePost(ctx, actorID, postID, postMutation{
		operation:  "publish_post",
		action:     authorization.ActionPublishPost,
		event:      audit.EventPostPublished,
		transition: "publish",
		apply: func(now time.Time, p *models.Post) (bool, error) {
			return true, p.Publish(now)
		},
	})
	return post, err
}

// Archive moves a post to ARCHIVED. The author, a moderator or an admin may
// archive; archiving an archived post returns it unchanged.
func (s *Service) Archive(ctx context.Context, actorID id.MemberID, postID id.PostID) (_ *models.Post, err error) {
	ctx, span := tracing.Start(ctx, "content", "Archive", attribute.String("post_id", postID.String()))
	defer func() { tracing.End(span, err) }()

	post, err := s.mutatePost(ctx, actorID, postID, postMutation{
		operation:  "archive_post",
		action:     authorization.ActionArchivePost,
		event:      audit.EventPostArchived,
		transition: "archive",
		apply: func(now time.Time, p *models.Post) (bool, error) {
			return p.Archive(now), nil
		},
	})
	return post, err
}

// Restore moves an ARCHIVED post back to PUBLISHED. Moderators and admins
// only, and unlike Archive it fails on a post that is not archived.
func (s *Service) Restore(ctx context.Context, actorID id.MemberID, postID id.PostID) (_ *models.Post, err error) {
	ctx, span := tracing.Start(ctx, "content", "Restore", attribute.String("post_id", postID.String()))
	defer func() { tracing.End(span, err) }()

	post, err := s.mutatePost(ctx, actorID, postID, postMutation{
		operation:  "restore_post",
		action:     authorization.ActionRestorePost,
		event:      audit.EventPostRestored,
		transition: "restore",
		apply: func(now time.Time, p *models.Post) (bool, error) {
			return true, p.Restore(now)
		},
	})
	return post, err
}

// postMutation describes one post command. apply reports whether it changed
// the post; an unchanged post is returned without a write or an audit event.
type postMutation struct {
	operation  string
	action     authorization.Action
	event      audit.AuditEvent
	transition string
	apply      func(now time.Time, p *models.Post) (bool, error)
}

func (s *Service) mutatePost(ctx context.Context, actorID id.MemberID, postID id.PostID, m postMutation) (*models.Post, error) {
	actor, err := s.authz.LoadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	peek, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizePost(ctx, actor, m.action, peek); err != nil {
		return nil, err
	}

	var (
		result  *models.Post
		changed bool
	)
	ctx = txcontext.WithLockKey(ctx, postLockKey(postID))
	err = txcontext.RunWithRetry(ctx, s.tx, s.retries, s.onRetry(m.operation), func(ctx context.Context) error {
		post, err := s.findPost(ctx, postID)
		if err != nil {
			return err
		}
		changed, err = m.apply(requestcontext.Now(ctx), post)
		if err != nil {
			return err
		}
		result = post
		if !changed {
			return nil
		}
		if err := s.posts.Update(ctx, post); err != nil {
			return translateWrite(err, "post", "failed to save post")
		}
		return s.emit(ctx, postEvent(m.event, actor.ID, post))
	})
	if err != nil {
		return nil, err
	}
	if changed {
		if m.transition != "" {
			s.metrics.IncTransition("post", m.transition)
		}
		s.logAudit(ctx, string(m.event),
			"post_id", result.ID.String(),
			"community_id", result.CommunityID.String(),
			"actor_id", actor.ID.String(),
			"status", string(result.Status),
		)
	}
	return result, nil
}

func (s *Service) authorizePost(ctx context.Context, actor *identity.Member, action authorization.Action, p *models.Post) error {
	return s.authz.Authorize(ctx, actor, action, authorization.Target{CommunityID: p.CommunityID, AuthorID: p.AuthorID})
}

func postEvent(event audit.AuditEvent, actorID id.MemberID, p *models.Post) audit.Event {
	return audit.Event{
		ActorID:     actorID,
		Action:      string(event),
		SubjectType: "post",
		Subject:     p.ID.String(),
		CommunityID: p.CommunityID.String(),
	}
}
