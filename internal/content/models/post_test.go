package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"agora/internal/content/models"
	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
)

type PostSuite struct {
	suite.Suite
	now time.Time
}

func TestPostSuite(t *testing.T) {
	suite.Run(t, new(PostSuite))
}

func (s *PostSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *PostSuite) newPost(kind models.PostKind, media ...models.MediaAsset) *models.Post {
	title, err := models.NewTitle("Hello")
	s.Require().NoError(err)
	content, err := models.NewContent("first post")
	s.Require().NoError(err)
	p, err := models.NewPost(id.NewPostID(), id.NewCommunityID(), id.NewMemberID(), kind, title, content, media, s.now)
	s.Require().NoError(err)
	return p
}

func (s *PostSuite) asset() models.MediaAsset {
	return models.MediaAsset{ID: id.NewMediaID(), URL: "https://cdn.example/a.png", ContentType: "image/png"}
}

func (s *PostSuite) TestConstruction() {
	s.Run("starts as draft with zero counters", func() {
		p := s.newPost(models.PostKindText)
		s.True(p.IsDraft())
		s.Nil(p.PublishedAt)
		s.Zero(p.UpCount)
		s.Zero(p.DownCount)
		s.Zero(p.CommentCount)
	})

	s.Run("rejects nil author", func() {
		_, err := models.NewPost(id.NewPostID(), id.NewCommunityID(), id.MemberID{}, models.PostKindText, "t", "c", nil, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects blank title value", func() {
		_, err := models.NewTitle("   ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// Scenario A: draft → publish → publish again fails.
func (s *PostSuite) TestPublish() {
	s.Run("draft publishes and records publishedAt", func() {
		p := s.newPost(models.PostKindText)
		s.Require().NoError(p.Publish(s.now))
		s.True(p.IsPublished())
		s.Require().NotNil(p.PublishedAt)
		s.Equal(s.now, *p.PublishedAt)

		err := p.Publish(s.now.Add(time.Minute))
		s.True(dErrors.HasCode(err, dErrors.CodeStatusTransitionForbidden))
		s.Equal(s.now, *p.PublishedAt)
	})

	s.Run("media post without assets cannot publish", func() {
		p := s.newPost(models.PostKindMedia)
		err := p.Publish(s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeMediaAssetsRequired))
		s.True(p.IsDraft())

		s.Require().NoError(p.AttachMedia([]models.MediaAsset{s.asset()}, s.now))
		s.Require().NoError(p.Publish(s.now))
	})

	s.Run("archived post cannot publish", func() {
		p := s.newPost(models.PostKindText)
		p.Archive(s.now)
		s.True(dErrors.HasCode(p.Publish(s.now), dErrors.CodeStatusTransitionForbidden))
	})
}

func (s *PostSuite) TestArchiveAndRestore() {
	s.Run("archive is idempotent", func() {
		p := s.newPost(models.PostKindText)
		s.Require().NoError(p.Publish(s.now))
		s.True(p.Archive(s.now))
		s.False(p.Archive(s.now.Add(time.Hour)))
		s.True(p.IsArchived())
		s.Equal(s.now, p.UpdatedAt)
	})

	s.Run("restore requires archived", func() {
		p := s.newPost(models.PostKindText)
		s.True(dErrors.HasCode(p.Restore(s.now), dErrors.CodeStatusTransitionForbidden))
		s.Require().NoError(p.Publish(s.now))
		s.True(dErrors.HasCode(p.Restore(s.now), dErrors.CodeStatusTransitionForbidden))
	})

	s.Run("restore returns to published and keeps publishedAt", func() {
		p := s.newPost(models.PostKindText)
		s.Require().NoError(p.Publish(s.now))
		p.Archive(s.now.Add(time.Hour))
		s.Require().NoError(p.Restore(s.now.Add(2 * time.Hour)))
		s.True(p.IsPublished())
		s.Equal(s.now, *p.PublishedAt)
	})

	s.Run("restoring an archived draft stamps publishedAt", func() {
		p := s.newPost(models.PostKindText)
		p.Archive(s.now)
		s.Require().NoError(p.Restore(s.now.Add(time.Hour)))
		s.True(p.IsPublished())
		s.Require().NotNil(p.PublishedAt)
		s.Equal(s.now.Add(time.Hour), *p.PublishedAt)
	})

	s.Run("archived media draft without assets cannot be restored", func() {
		p := s.newPost(models.PostKindMedia)
		s.True(p.Archive(s.now))
		s.True(dErrors.HasCode(p.Restore(s.now), dErrors.CodeMediaAssetsRequired))
		s.True(p.IsArchived())
		s.Nil(p.PublishedAt)
		s.True(dErrors.HasCode(p.EnsureVotable(), dErrors.CodeVoteUnavailable))
	})
}

func (s *PostSuite) TestEdits() {
	title, _ := models.NewTitle("Renamed")
	content, _ := models.NewContent("rewritten")

	s.Run("draft and published posts accept edits", func() {
		p := s.newPost(models.PostKindText)
		s.Require().NoError(p.Rename(title, s.now))
		s.Require().NoError(p.Publish(s.now))
		s.Require().NoError(p.Rewrite(content, s.now))
		s.Equal(title, p.Title)
		s.Equal(content, p.Content)
	})

	s.Run("archived post rejects edits", func() {
		p := s.newPost(models.PostKindText)
		p.Archive(s.now)
		s.True(dErrors.HasCode(p.Rename(title, s.now), dErrors.CodeArchivedModificationForbidden))
		s.True(dErrors.HasCode(p.Rewrite(content, s.now), dErrors.CodeArchivedModificationForbidden))
		s.True(dErrors.HasCode(p.AttachMedia([]models.MediaAsset{s.asset()}, s.now), dErrors.CodeArchivedModificationForbidden))
	})
}

func (s *PostSuite) TestGuards() {
	p := s.newPost(models.PostKindText)
	s.True(dErrors.HasCode(p.EnsureVotable(), dErrors.CodeVoteUnavailable))
	s.Error(p.EnsureCommentable())

	s.Require().NoError(p.Publish(s.now))
	s.NoError(p.EnsureVotable())
	s.NoError(p.EnsureCommentable())

	p.Archive(s.now)
	s.True(dErrors.HasCode(p.EnsureVotable(), dErrors.CodeVoteUnavailable))
	s.Error(p.EnsureCommentable())
}

// Scenario B at the aggregate level.
func (s *PostSuite) TestVoteCounters() {
	p := s.newPost(models.PostKindText)
	s.Require().NoError(p.Publish(s.now))

	old := models.VoteNone
	next := models.DecideVote(old, models.VoteUp)
	s.Require().NoError(p.ApplyVoteDelta(old, next))
	s.Equal(int64(1), p.UpCount)

	old, next = next, models.DecideVote(next, models.VoteUp)
	s.Require().NoError(p.ApplyVoteDelta(old, next))
	s.Equal(int64(0), p.UpCount)
	s.Equal(models.VoteNone, next)

	old, next = next, models.DecideVote(next, models.VoteDown)
	s.Require().NoError(p.ApplyVoteDelta(old, next))
	s.Equal(int64(0), p.UpCount)
	s.Equal(int64(1), p.DownCount)
	s.Equal(int64(-1), p.Score())
}

func (s *PostSuite) TestCommentCount() {
	p := s.newPost(models.PostKindText)
	p.IncrementCommentCount()
	p.IncrementCommentCount()
	s.Require().NoError(p.ApplyCommentVisibilityChange(true, false))
	s.Equal(int64(1), p.CommentCount)
	s.Require().NoError(p.ApplyCommentVisibilityChange(false, false))
	s.Equal(int64(1), p.CommentCount)
	s.Require().NoError(p.ApplyCommentVisibilityChange(true, false))
	s.Equal(int64(0), p.CommentCount)

	err := p.ApplyCommentVisibilityChange(true, false)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation), "drift below zero is reported")
	s.Equal(int64(0), p.CommentCount)
}
