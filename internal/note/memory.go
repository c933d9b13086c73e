package note

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps notes in process. It backs tests and the demo mode of
// the server, where no database is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	notes []Note
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Add(n Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.notes {
		if existing.ID == n.ID {
			s.notes[i] = n
			return
		}
	}
	s.notes = append(s.notes, n)
}

func (s *MemoryStore) Recent(ctx context.Context, limit int) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Note, len(s.notes))
	copy(out, s.notes)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
