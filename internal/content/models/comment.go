package models

import (
	"time"

	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
)

type CommentStatus string

const (
	CommentStatusVisible CommentStatus = "VISIBLE"
	CommentStatusDeleted CommentStatus = "DELETED"
)

// Comment is the aggregate root for a comment in a post's thread.
//
// Invariants:
//   - Body is a valid CommentBody
//   - Depth >= 0; a root comment has no parent and depth 0
//   - A reply's depth is exactly its parent's depth + 1 and it lives on the parent's post
//   - Status transitions: VISIBLE → DELETED only, never back
//   - A DELETED comment cannot be edited or voted on
//   - Edited is set by the first successful edit and never cleared
type Comment struct {
	ID           id.CommentID  `json:"id"`
	PostID       id.PostID     `json:"post_id"`
	ParentID     *id.CommentID `json:"parent_id,omitempty"`
	Depth        int           `json:"depth"`
	AuthorID     id.MemberID   `json:"author_id"`
	Body         CommentBody   `json:"body"`
	Status       CommentStatus `json:"status"`
	Edited       bool          `json:"edited"`
	VoteCounters `json:"votes"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	Version      int64      `json:"version"`
}

// NewRootComment creates a top-level comment on postID.
func NewRootComment(commentID id.CommentID, postID id.PostID, authorID id.MemberID, body CommentBody, now time.Time) (*Comment, error) {
	if commentID.IsNil() || postID.IsNil() || authorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "comment requires id, post and author")
	}
	if body == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "comment body is required")
	}
	return &Comment{
		ID:        commentID,
		PostID:    postID,
		AuthorID:  authorID,
		Body:      body,
		Status:    CommentStatusVisible,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewReply creates a comment one level below parent. The parent must be loaded
// and still visible.
func NewReply(commentID id.CommentID, postID id.PostID, authorID id.MemberID, parent *Comment, body CommentBody, now time.Time) (*Comment, error) {
	if parent == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "reply requires a loaded parent")
	}
	if parent.PostID != postID {
		return nil, dErrors.New(dErrors.CodeValidation, "parent comment belongs to another post")
	}
	if parent.Depth < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "parent comment has negative depth")
	}
	if parent.IsDeleted() {
		return nil, dErrors.New(dErrors.CodeDeletedModificationForbidden, "cannot reply to a deleted comment")
	}
	c, err := NewRootComment(commentID, postID, authorID, body, now)
	if err != nil {
		return nil, err
	}
	parentID := parent.ID
	c.ParentID = &parentID
	c.Depth = parent.Depth + 1
	return c, nil
}

func (c *Comment) IsRoot() bool    { return c.ParentID == nil }
func (c *Comment) IsVisible() bool { return c.Status == CommentStatusVisible }
func (c *Comment) IsDeleted() bool { return c.Status == CommentStatusDeleted }

func (c *Comment) IsAuthoredBy(memberID id.MemberID) bool {
	return c.AuthorID == memberID
}

// EnsureNotDeleted guards edits.
func (c *Comment) EnsureNotDeleted() error {
	if c.IsDeleted() {
		return dErrors.New(dErrors.CodeDeletedModificationForbidden, "deleted comments cannot be modified")
	}
	return nil
}

// EnsureVotable guards the vote subsystem.
func (c *Comment) EnsureVotable() error {
	if c.IsDeleted() {
		return dErrors.New(dErrors.CodeVoteUnavailable, "votes are not accepted on deleted comments")
	}
	return nil
}

// Edit replaces the body and marks the comment as edited.
func (c *Comment) Edit(body CommentBody, now time.Time) error {
	if err := c.EnsureNotDeleted(); err != nil {
		return err
	}
	if body == "" {
		return dErrors.New(dErrors.CodeValidation, "comment body is required")
	}
	c.Body = body
	c.Edited = true
	c.UpdatedAt = now
	return nil
}

// SoftDelete hides the comment. Repeated calls are no-ops; the return value
// reports whether this call performed the VISIBLE → DELETED transition so the
// caller can adjust the post's visible-comment count exactly once.
func (c *Comment) SoftDelete(now time.Time) bool {
	if c.IsDeleted() {
		return false
	}
	c.Status = CommentStatusDeleted
	deleted := now
	c.DeletedAt = &deleted
	c.UpdatedAt = now
	return true
}

// ApplyVoteDelta moves the up/down counters from old to next.
func (c *Comment) ApplyVoteDelta(old, next VoteValue) error {
	return c.VoteCounters.apply(old, next)
}

// Thread is a page of comments together with the viewer's votes on them.
type Thread struct {
	PostID   id.PostID                  `json:"post_id"`
	Comments []*Comment                 `json:"comments"`
	MyVotes  map[id.CommentID]VoteValue `json:"my_votes,omitempty"`
}
