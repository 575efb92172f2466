package models

import (
	"time"

	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
)

type PostStatus string

const (
	PostStatusDraft     PostStatus = "DRAFT"
	PostStatusPublished PostStatus = "PUBLISHED"
	PostStatusArchived  PostStatus = "ARCHIVED"
)

func (s PostStatus) IsValid() bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}

// PostKind distinguishes plain text posts from posts whose primary content is
// attached media.
type PostKind string

const (
	PostKindText  PostKind = "TEXT"
	PostKindMedia PostKind = "MEDIA"
)

func ParsePostKind(s string) (PostKind, error) {
	switch PostKind(s) {
	case PostKindText, PostKindMedia:
		return PostKind(s), nil
	case "":
		return PostKindText, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "invalid post kind")
	}
}

// MaxMediaAssets bounds how many assets a single post may carry.
const MaxMediaAssets = 20

// MediaAsset is an uploaded file referenced by a post. Upload and storage are
// handled elsewhere; the post only records the reference.
type MediaAsset struct {
	ID          id.MediaID `json:"id"`
	URL         string     `json:"url"`
	ContentType string     `json:"content_type"`
}

// Post is the aggregate root for a community post.
//
// Invariants:
//   - Title and Content are valid value objects (non-blank, bounded)
//   - Status transitions: DRAFT → PUBLISHED → ARCHIVED, ARCHIVED → PUBLISHED
//   - Nothing ever transitions into DRAFT
//   - Title, Content and media are immutable while ARCHIVED
//   - A MEDIA post cannot be published without at least one asset
//   - PublishedAt is set whenever Status is PUBLISHED
//   - Vote and comment counters change only through their dedicated methods
//   - Version increases by one on every successful save (enforced by stores)
type Post struct {
	ID           id.PostID      `json:"id"`
	CommunityID  id.CommunityID `json:"community_id"`
	AuthorID     id.MemberID    `json:"author_id"`
	Kind         PostKind       `json:"kind"`
	Title        Title          `json:"title"`
	Content      Content        `json:"content"`
	Media        []MediaAsset   `json:"media"`
	Status       PostStatus     `json:"status"`
	VoteCounters `json:"votes"`
	CommentCount int64      `json:"comment_count"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Version      int64      `json:"version"`
}

// NewPost constructs a DRAFT post.
func NewPost(
	postID id.PostID,
	communityID id.CommunityID,
	authorID id.MemberID,
	kind PostKind,
	title Title,
	content Content,
	media []MediaAsset,
	now time.Time,
) (*Post, error) {
	if postID.IsNil() || communityID.IsNil() || authorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "post requires id, community and author")
	}
	if kind != PostKindText && kind != PostKindMedia {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid post kind")
	}
	if title == "" || content == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title and content are required")
	}
	if len(media) > MaxMediaAssets {
		return nil, dErrors.New(dErrors.CodeValidation, "too many media assets")
	}
	return &Post{
		ID:          postID,
		CommunityID: communityID,
		AuthorID:    authorID,
		Kind:        kind,
		Title:       title,
		Content:     content,
		Media:       append([]MediaAsset(nil), media...),
		Status:      PostStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (p *Post) IsDraft() bool     { return p.Status == PostStatusDraft }
func (p *Post) IsPublished() bool { return p.Status == PostStatusPublished }
func (p *Post) IsArchived() bool  { return p.Status == PostStatusArchived }

// IsAuthoredBy reports whether memberID wrote this post.
func (p *Post) IsAuthoredBy(memberID id.MemberID) bool {
	return p.AuthorID == memberID
}

// CanPublish checks the DRAFT → PUBLISHED transition.
func (p *Post) CanPublish() error {
	if !p.IsDraft() {
		return dErrors.New(dErrors.CodeStatusTransitionForbidden, "only draft posts can be published")
	}
	if p.Kind == PostKindMedia && len(p.Media) == 0 {
		return dErrors.New(dErrors.CodeMediaAssetsRequired, "media post requires at least one asset before publishing")
	}
	return nil
}

// ApplyPublish transitions to PUBLISHED. Call CanPublish first.
func (p *Post) ApplyPublish(now time.Time) {
	p.Status = PostStatusPublished
	published := now
	p.PublishedAt = &published
	p.UpdatedAt = now
}

// Publish validates and applies publication in one call.
func (p *Post) Publish(now time.Time) error {
	if err := p.CanPublish(); err != nil {
		return err
	}
	p.ApplyPublish(now)
	return nil
}

// Archive moves the post to ARCHIVED. It is a silent no-op when the post is
// already archived. The return value reports whether anything changed.
func (p *Post) Archive(now time.Time) bool {
	if p.IsArchived() {
		return false
	}
	p.Status = PostStatusArchived
	p.UpdatedAt = now
	return true
}

// CanRestore checks the ARCHIVED → PUBLISHED transition. Unlike Archive, restore
// is strict: calling it on a non-archived post is an error. A post archived
// while still a draft was never published, so restoring it is its first
// publication and must meet the media requirement.
func (p *Post) CanRestore() error {
	if !p.IsArchived() {
		return dErrors.New(dErrors.CodeStatusTransitionForbidden, "only archived posts can be restored")
	}
	if p.PublishedAt == nil && p.Kind == PostKindMedia && len(p.Media) == 0 {
		return dErrors.New(dErrors.CodeMediaAssetsRequired, "media post requires at least one asset before publishing")
	}
	return nil
}

// ApplyRestore transitions back to PUBLISHED. publishedAt is kept when set and
// stamped otherwise.
func (p *Post) ApplyRestore(now time.Time) {
	p.Status = PostStatusPublished
	if p.PublishedAt == nil {
		published := now
		p.PublishedAt = &published
	}
	p.UpdatedAt = now
}

func (p *Post) Restore(now time.Time) error {
	if err := p.CanRestore(); err != nil {
		return err
	}
	p.ApplyRestore(now)
	return nil
}

func (p *Post) ensureModifiable() error {
	if p.IsArchived() {
		return dErrors.New(dErrors.CodeArchivedModificationForbidden, "archived posts cannot be modified")
	}
	return nil
}

// Rename replaces the title.
func (p *Post) Rename(title Title, now time.Time) error {
	if err := p.ensureModifiable(); err != nil {
		return err
	}
	p.Title = title
	p.UpdatedAt = now
	return nil
}

// Rewrite replaces the content.
func (p *Post) Rewrite(content Content, now time.Time) error {
	if err := p.ensureModifiable(); err != nil {
		return err
	}
	p.Content = content
	p.UpdatedAt = now
	return nil
}

// AttachMedia appends assets.
func (p *Post) AttachMedia(assets []MediaAsset, now time.Time) error {
	if err := p.ensureModifiable(); err != nil {
		return err
	}
	if len(assets) == 0 {
		return dErrors.New(dErrors.CodeValidation, "no media assets given")
	}
	if len(p.Media)+len(assets) > MaxMediaAssets {
		return dErrors.New(dErrors.CodeValidation, "too many media assets")
	}
	for _, a := range assets {
		if a.ID.IsNil() || a.URL == "" {
			return dErrors.New(dErrors.CodeValidation, "media asset requires id and url")
		}
	}
	p.Media = append(p.Media, assets...)
	p.UpdatedAt = now
	return nil
}

// EnsureCommentable guards the comment subsystem.
func (p *Post) EnsureCommentable() error {
	if !p.IsPublished() {
		return dErrors.New(dErrors.CodeStatusTransitionForbidden, "comments are only accepted on published posts")
	}
	return nil
}

// EnsureVotable guards the vote subsystem.
func (p *Post) EnsureVotable() error {
	if !p.IsPublished() {
		return dErrors.New(dErrors.CodeVoteUnavailable, "votes are only accepted on published posts")
	}
	return nil
}

// ApplyVoteDelta moves the up/down counters from old to next.
func (p *Post) ApplyVoteDelta(old, next VoteValue) error {
	return p.VoteCounters.apply(old, next)
}

// IncrementCommentCount records a newly created visible comment.
func (p *Post) IncrementCommentCount() {
	p.CommentCount++
}

// ApplyCommentVisibilityChange keeps CommentCount equal to the number of visible
// comments when one of them changes visibility. Hiding a comment while the
// count is already zero means the counter drifted and is reported, not clamped.
func (p *Post) ApplyCommentVisibilityChange(wasVisible, nowVisible bool) error {
	switch {
	case wasVisible && !nowVisible:
		if p.CommentCount == 0 {
			return dErrors.New(dErrors.CodeInvariantViolation, "comment count would become negative")
		}
		p.CommentCount--
	case !wasVisible && nowVisible:
		p.CommentCount++
	}
	return nil
}
