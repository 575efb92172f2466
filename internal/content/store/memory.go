package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"agora/internal/content/models"
	id "agora/pkg/domain"
	"agora/pkg/platform/sentinel"
	txcontext "agora/pkg/platform/tx"
)

// InMemoryPosts keeps posts keyed by ID. Reads return copies so callers can
// mutate freely until they Update.
type InMemoryPosts struct {
	mu    sync.RWMutex
	posts map[id.PostID]models.Post
}

func NewInMemoryPosts() *InMemoryPosts {
	return &InMemoryPosts{posts: make(map[id.PostID]models.Post)}
}

func clonePost(p models.Post) models.Post {
	p.Media = slices.Clone(p.Media)
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		p.PublishedAt = &t
	}
	return p
}

// Create stores p at version 1.
func (s *InMemoryPosts) Create(ctx context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[p.ID]; ok {
		return sentinel.ErrConflict
	}
	p.Version = 1
	s.posts[p.ID] = clonePost(*p)
	postID := p.ID
	txcontext.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.posts, postID)
	})
	return nil
}

// Update writes p when its Version matches the stored one and bumps it.
func (s *InMemoryPosts) Update(ctx context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.posts[p.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if prev.Version != p.Version {
		return sentinel.ErrConflict
	}
	p.Version++
	s.posts[p.ID] = clonePost(*p)
	txcontext.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.posts[prev.ID] = prev
	})
	return nil
}

func (s *InMemoryPosts) FindByID(_ context.Context, postID id.PostID) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := clonePost(p)
	return &out, nil
}

// InMemoryComments keeps comments keyed by ID.
type InMemoryComments struct {
	mu       sync.RWMutex
	comments map[id.CommentID]models.Comment
}

func NewInMemoryComments() *InMemoryComments {
	return &InMemoryComments{comments: make(map[id.CommentID]models.Comment)}
}

func cloneComment(c models.Comment) models.Comment {
	if c.ParentID != nil {
		p := *c.ParentID
		c.ParentID = &p
	}
	if c.DeletedAt != nil {
		t := *c.DeletedAt
		c.DeletedAt = &t
	}
	return c
}

func (s *InMemoryComments) Create(ctx context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[c.ID]; ok {
		return sentinel.ErrConflict
	}
	c.Version = 1
	s.comments[c.ID] = cloneComment(*c)
	commentID := c.ID
	txcontext.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.comments, commentID)
	})
	return nil
}

func (s *InMemoryComments) Update(ctx context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.comments[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if prev.Version != c.Version {
		return sentinel.ErrConflict
	}
	c.Version++
	s.comments[c.ID] = cloneComment(*c)
	txcontext.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.comments[prev.ID] = prev
	})
	return nil
}

func (s *InMemoryComments) FindByID(_ context.Context, commentID id.CommentID) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[commentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := cloneComment(c)
	return &out, nil
}

// FindRoots returns root comments of postID oldest first, deleted ones
// included so threads keep their shape.
func (s *InMemoryComments) FindRoots(_ context.Context, postID id.PostID, page models.Page) ([]*models.Comment, error) {
	return s.collect(page, func(c *models.Comment) bool {
		return c.PostID == postID && c.IsRoot()
	}), nil
}

// FindReplies returns direct replies to parentID oldest first.
func (s *InMemoryComments) FindReplies(_ context.Context, postID id.PostID, parentID id.CommentID, page models.Page) ([]*models.Comment, error) {
	return s.collect(page, func(c *models.Comment) bool {
		return c.PostID == postID && c.ParentID != nil && *c.ParentID == parentID
	}), nil
}

func (s *InMemoryComments) collect(page models.Page, match func(*models.Comment) bool) []*models.Comment {
	page = page.Normalize()
	s.mu.RLock()
	var all []*models.Comment
	for _, c := range s.comments {
		if match(&c) {
			out := cloneComment(c)
			all = append(all, &out)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(all, func(a, b *models.Comment) int {
		if n := a.CreatedAt.Compare(b.CreatedAt); n != 0 {
			return n
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	if page.Offset >= len(all) {
		return nil
	}
	end := min(page.Offset+page.Limit, len(all))
	return all[page.Offset:end]
}

type postVoteKey struct {
	post  id.PostID
	voter id.MemberID
}

type commentVoteKey struct {
	comment id.CommentID
	voter   id.MemberID
}

// InMemoryVotes is the vote ledger. Each map key is the (target, voter)
// uniqueness constraint: inserting an existing key fails with
// sentinel.ErrConflict.
type InMemoryVotes struct {
	mu           sync.RWMutex
	postVotes    map[postVoteKey]models.PostVote
	commentVotes map[commentVoteKey]models.CommentVote
}

func NewInMemoryVotes() *InMemoryVotes {
	return &InMemoryVotes{
		postVotes:    make(map[postVoteKey]models.PostVote),
		commentVotes: make(map[commentVoteKey]models.CommentVote),
	}
}

func (s *InMemoryVotes) FindPostVote(_ context.Context, postID id.PostID, voterID id.MemberID) (*models.PostVote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.postVotes[postVoteKey{postID, voterID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &v, nil
}

func (s *InMemoryVotes) InsertPostVote(ctx context.Context, v *models.PostVote) error {
	return insertRow(ctx, &s.mu, s.postVotes, postVoteKey{v.PostID, v.VoterID}, *v)
}

func (s *InMemoryVotes) UpdatePostVote(ctx context.Context, v *models.PostVote) error {
	return updateRow(ctx, &s.mu, s.postVotes, postVoteKey{v.PostID, v.VoterID}, *v)
}

func (s *InMemoryVotes) DeletePostVote(ctx context.Context, postID id.PostID, voterID id.MemberID) error {
	return deleteRow(ctx, &s.mu, s.postVotes, postVoteKey{postID, voterID})
}

// FindPostVotes returns the voter's stored votes among postIDs. Posts without
// a row are absent from the map.
func (s *InMemoryVotes) FindPostVotes(_ context.Context, voterID id.MemberID, postIDs []id.PostID) (map[id.PostID]models.VoteValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.PostID]models.VoteValue, len(postIDs))
	for _, postID := range postIDs {
		if v, ok := s.postVotes[postVoteKey{postID, voterID}]; ok {
			out[postID] = v.Value
		}
	}
	return out, nil
}

// SumPostVotes totals the ledger for postID.
func (s *InMemoryVotes) SumPostVotes(_ context.Context, postID id.PostID) (models.VoteCounters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var c models.VoteCounters
	for k, v := range s.postVotes {
		if k.post == postID {
			tally(&c, v.Value)
		}
	}
	return c, nil
}

func (s *InMemoryVotes) FindCommentVote(_ context.Context, commentID id.CommentID, voterID id.MemberID) (*models.CommentVote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.commentVotes[commentVoteKey{commentID, voterID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &v, nil
}

func (s *InMemoryVotes) InsertCommentVote(ctx context.Context, v *models.CommentVote) error {
	return insertRow(ctx, &s.mu, s.commentVotes, commentVoteKey{v.CommentID, v.VoterID}, *v)
}

func (s *InMemoryVotes) UpdateCommentVote(ctx context.Context, v *models.CommentVote) error {
	return updateRow(ctx, &s.mu, s.commentVotes, commentVoteKey{v.CommentID, v.VoterID}, *v)
}

func (s *InMemoryVotes) DeleteCommentVote(ctx context.Context, commentID id.CommentID, voterID id.MemberID) error {
	return deleteRow(ctx, &s.mu, s.commentVotes, commentVoteKey{commentID, voterID})
}

func (s *InMemoryVotes) FindCommentVotes(_ context.Context, voterID id.MemberID, commentIDs []id.CommentID) (map[id.CommentID]models.VoteValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.CommentID]models.VoteValue, len(commentIDs))
	for _, commentID := range commentIDs {
		if v, ok := s.commentVotes[commentVoteKey{commentID, voterID}]; ok {
			out[commentID] = v.Value
		}
	}
	return out, nil
}

func (s *InMemoryVotes) SumCommentVotes(_ context.Context, commentID id.CommentID) (models.VoteCounters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var c models.VoteCounters
	for k, v := range s.commentVotes {
		if k.comment == commentID {
			tally(&c, v.Value)
		}
	}
	return c, nil
}

func tally(c *models.VoteCounters, v models.VoteValue) {
	switch v {
	case models.VoteUp:
		c.UpCount++
	case models.VoteDown:
		c.DownCount++
	}
}

func insertRow[K comparable, V any](ctx context.Context, mu *sync.RWMutex, rows map[K]V, key K, row V) error {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := rows[key]; ok {
		return sentinel.ErrConflict
	}
	rows[key] = row
	txcontext.RecordUndo(ctx, func() {
		mu.Lock()
		defer mu.Unlock()
		delete(rows, key)
	})
	return nil
}

func updateRow[K comparable, V any](ctx context.Context, mu *sync.RWMutex, rows map[K]V, key K, row V) error {
	mu.Lock()
	defer mu.Unlock()
	prev, ok := rows[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	rows[key] = row
	txcontext.RecordUndo(ctx, func() {
		mu.Lock()
		defer mu.Unlock()
		rows[key] = prev
	})
	return nil
}

func deleteRow[K comparable, V any](ctx context.Context, mu *sync.RWMutex, rows map[K]V, key K) error {
	mu.Lock()
	defer mu.Unlock()
	prev, ok := rows[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(rows, key)
	txcontext.RecordUndo(ctx, func() {
		mu.Lock()
		defer mu.Unlock()
		rows[key] = prev
	})
	return nil
}
