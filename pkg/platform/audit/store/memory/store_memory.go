package memory

import (
	"context"
	"sort"
	"sync"

	audit "agora/pkg/platform/audit"
	txcontext "agora/pkg/platform/tx"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
	seqs   []uint64
	next   uint64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.seqs = nil
}

// Append records the event. Inside a transaction the append is undone if the
// transaction fails.
func (s *InMemoryStore) Append(ctx context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	seq := s.next
	s.events = append(s.events, event)
	s.seqs = append(s.seqs, seq)
	txcontext.RecordUndo(ctx, func() { s.remove(seq) })
	return nil
}

func (s *InMemoryStore) remove(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range s.seqs {
		if v == seq {
			s.events = append(s.events[:i], s.events[i+1:]...)
			s.seqs = append(s.seqs[:i], s.seqs[i+1:]...)
			return
		}
	}
}

// ListBySubject returns events for one aggregate in insertion order.
func (s *InMemoryStore) ListBySubject(_ context.Context, subject string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Subject == subject {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListAll returns every recorded event in insertion order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}

// ListRecent returns the most recent N events, newest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	all := append([]audit.Event{}, s.events...)
	s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
