package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"agora/internal/community/models"
	id "agora/pkg/domain"
	"agora/pkg/platform/sentinel"
	txcontext "agora/pkg/platform/tx"
)

// InMemoryCommunities keeps communities keyed by ID with a name-key index.
type InMemoryCommunities struct {
	mu          sync.RWMutex
	communities map[id.CommunityID]models.Community
	names       map[models.CommunityNameKey]id.CommunityID
}

func NewInMemoryCommunities() *InMemoryCommunities {
	return &InMemoryCommunities{
		communities: make(map[id.CommunityID]models.Community),
		names:       make(map[models.CommunityNameKey]id.CommunityID),
	}
}

// Create returns sentinel.ErrConflict when the name key is taken.
func (s *InMemoryCommunities) Create(ctx context.Context, c *models.Community) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[c.NameKey]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.communities[c.ID]; ok {
		return sentinel.ErrConflict
	}
	s.communities[c.ID] = *c
	s.names[c.NameKey] = c.ID

	communityID, key := c.ID, c.NameKey
	txcontext.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.communities, communityID)
		delete(s.names, key)
	})
	return nil
}

func (s *InMemoryCommunities) FindByID(_ context.Context, communityID id.CommunityID) (*models.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.communities[communityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (s *InMemoryCommunities) FindByNameKey(_ context.Context, key models.CommunityNameKey) (*models.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	communityID, ok := s.names[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := s.communities[communityID]
	return &c, nil
}

type moderatorKey struct {
	community id.CommunityID
	member    id.MemberID
}

// InMemoryModerators keeps moderator grants keyed by (community, member).
type InMemoryModerators struct {
	mu     sync.RWMutex
	grants map[moderatorKey]models.ModeratorGrant
}

func NewInMemoryModerators() *InMemoryModerators {
	return &InMemoryModerators{grants: make(map[moderatorKey]models.ModeratorGrant)}
}

// Grant returns sentinel.ErrConflict when the grant already exists.
func (s *InMemoryModerators) Grant(ctx context.Context, g *models.ModeratorGrant) error {
	key := moderatorKey{g.CommunityID, g.MemberID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grants[key]; ok {
		return sentinel.ErrConflict
	}
	s.grants[key] = *g
	txcontext.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.grants, key)
	})
	return nil
}

// Revoke returns sentinel.ErrNotFound when there is no grant to remove.
func (s *InMemoryModerators) Revoke(ctx context.Context, communityID id.CommunityID, memberID id.MemberID) error {
	key := moderatorKey{communityID, memberID}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.grants[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.grants, key)
	txcontext.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.grants[key] = prev
	})
	return nil
}

func (s *InMemoryModerators) IsModerator(_ context.Context, communityID id.CommunityID, memberID id.MemberID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[moderatorKey{communityID, memberID}]
	return ok, nil
}

// ListByCommunity returns grants oldest first.
func (s *InMemoryModerators) ListByCommunity(_ context.Context, communityID id.CommunityID) ([]models.ModeratorGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ModeratorGrant
	for k, g := range s.grants {
		if k.community == communityID {
			out = append(out, g)
		}
	}
	slices.SortFunc(out, func(a, b models.ModeratorGrant) int { return a.GrantedAt.Compare(b.GrantedAt) })
	return out, nil
}

// InMemoryBans keeps every ban ever issued; lifted and expired rows stay.
type InMemoryBans struct {
	mu   sync.RWMutex
	bans map[id.BanID]models.Ban
}

func NewInMemoryBans() *InMemoryBans {
	return &InMemoryBans{bans: make(map[id.BanID]models.Ban)}
}

func cloneBan(b models.Ban) models.Ban {
	if b.ExpiresAt != nil {
		t := *b.ExpiresAt
		b.ExpiresAt = &t
	}
	if b.LiftedAt != nil {
		t := *b.LiftedAt
		b.LiftedAt = &t
	}
	if b.LiftedBy != nil {
		m := *b.LiftedBy
		b.LiftedBy = &m
	}
	return b
}

// Create stores b at version 1.
func (s *InMemoryBans) Create(ctx context.Context, b *models.Ban) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bans[b.ID]; ok {
		return sentinel.ErrConflict
	}
	b.Version = 1
	s.bans[b.ID] = cloneBan(*b)
	banID := b.ID
	txcontext.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.bans, banID)
	})
	return nil
}

// Update writes b when its Version matches and bumps it.
func (s *InMemoryBans) Update(ctx context.Context, b *models.Ban) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.bans[b.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if prev.Version != b.Version {
		return sentinel.ErrConflict
	}
	b.Version++
	s.bans[b.ID] = cloneBan(*b)
	txcontext.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.bans[prev.ID] = prev
	})
	return nil
}

func (s *InMemoryBans) FindByID(_ context.Context, banID id.BanID) (*models.Ban, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bans[banID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := cloneBan(b)
	return &out, nil
}

// FindActive returns the ban on (community, member) that is active at now, or
// sentinel.ErrNotFound. When several overlap the latest expiry wins.
func (s *InMemoryBans) FindActive(_ context.Context, communityID id.CommunityID, memberID id.MemberID, now time.Time) (*models.Ban, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.Ban
	for _, b := range s.bans {
		if b.CommunityID != communityID || b.MemberID != memberID || !b.IsActive(now) {
			continue
		}
		if found == nil || outlasts(&b, found) {
			c := cloneBan(b)
			found = &c
		}
	}
	if found == nil {
		return nil, sentinel.ErrNotFound
	}
	return found, nil
}

// outlasts reports whether a ends later than b; permanent beats everything.
func outlasts(a, b *models.Ban) bool {
	switch {
	case b.ExpiresAt == nil:
		return false
	case a.ExpiresAt == nil:
		return true
	default:
		return a.ExpiresAt.After(*b.ExpiresAt)
	}
}

// ListByCommunity returns bans newest first.
func (s *InMemoryBans) ListByCommunity(_ context.Context, communityID id.CommunityID) ([]models.Ban, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Ban
	for _, b := range s.bans {
		if b.CommunityID == communityID {
			out = append(out, cloneBan(b))
		}
	}
	slices.SortFunc(out, func(a, b models.Ban) int { return b.BannedAt.Compare(a.BannedAt) })
	return out, nil
}
