package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps records in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) SaveFlow(_ context.Context, r *Record) (string, error) {
	prepare(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = *r
	return r.ID, nil
}

func (s *MemoryStore) GetFlow(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	return &r, nil
}

func (s *MemoryStore) ListFlows(_ context.Context, limit int) ([]Summary, error) {
	s.mu.RLock()
	out := make([]Summary, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Summary())
	}
	s.mu.RUnlock()
	return newestFirst(out, limitOrDefault(limit)), nil
}

func (s *MemoryStore) DeleteFlow(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return notFound(id)
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// newestFirst sorts by creation time descending, then ID, and truncates.
func newestFirst(out []Summary, limit int) []Summary {
	slices.SortFunc(out, func(a, b Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

var _ Store = (*MemoryStore)(nil)
