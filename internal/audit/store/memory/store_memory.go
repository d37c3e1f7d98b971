package memory

import (
	"context"
	"sync"

	"talentgate/internal/audit"
)

// InMemoryStore keeps entries in a single slice so insertion order is the
// iteration order, matching the writer-ordering guarantee of the SQL store.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryStore) ListByTarget(_ context.Context, targetEntity, targetID string) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Entry
	for _, entry := range s.entries {
		if entry.TargetEntity == targetEntity && entry.TargetID == targetID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Entry{}, s.entries...), nil
}
