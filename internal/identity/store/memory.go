package store

import (
	"context"
	"slices"
	"sync"

	"agora/internal/identity/models"
	id "agora/pkg/domain"
	"agora/pkg/platform/sentinel"
	txcontext "agora/pkg/platform/tx"
)

// InMemory keeps members in a map. Values are copied in and out so callers
// cannot mutate stored state without going through Update.
type InMemory struct {
	mu      sync.RWMutex
	members map[id.MemberID]models.Member
	emails  map[string]id.MemberID
}

func NewInMemory() *InMemory {
	return &InMemory{
		members: make(map[id.MemberID]models.Member),
		emails:  make(map[string]id.MemberID),
	}
}

func clone(m models.Member) models.Member {
	m.Roles = slices.Clone(m.Roles)
	return m
}

// Create stores a new member at version 1. Returns sentinel.ErrConflict when the
// ID or email is already taken.
func (s *InMemory) Create(ctx context.Context, m *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[m.ID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.emails[m.Email]; ok {
		return sentinel.ErrConflict
	}
	m.Version = 1
	s.members[m.ID] = clone(*m)
	s.emails[m.Email] = m.ID

	memberID, email := m.ID, m.Email
	txcontext.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.members, memberID)
		delete(s.emails, email)
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, memberID id.MemberID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[memberID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := clone(m)
	return &out, nil
}

// Update writes m if its Version matches the stored one and bumps the version.
func (s *InMemory) Update(ctx context.Context, m *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.members[m.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if prev.Version != m.Version {
		return sentinel.ErrConflict
	}
	m.Version++
	s.members[m.ID] = clone(*m)
	txcontext.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.members[prev.ID] = prev
	})
	return nil
}

// Count returns the number of stored members.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members), nil
}
