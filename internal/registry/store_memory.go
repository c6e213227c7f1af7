package registry

import (
	"context"
	"sort"
	"sync"

	"namereg/pkg/domain"
	"namereg/pkg/sentinel"
)

// InMemoryStore keeps registrations in a map guarded by a RWMutex. It is the
// default backend when no database is configured and the workhorse of the
// unit test suites.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[domain.Name]domain.Principal
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[domain.Name]domain.Principal)}
}

func (s *InMemoryStore) OwnerOf(_ context.Context, name domain.Name) (domain.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.entries[name]
	if !ok {
		return domain.Anonymous, sentinel.ErrNotFound
	}
	return owner, nil
}

func (s *InMemoryStore) SetOwner(_ context.Context, name domain.Name, owner domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[name]; !ok {
		return sentinel.ErrNotFound
	}
	s.entries[name] = owner
	return nil
}

func (s *InMemoryStore) Create(_ context.Context, name domain.Name, owner domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[name]; ok {
		return sentinel.ErrConflict
	}
	s.entries[name] = owner
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for name, owner := range s.entries {
		out = append(out, Entry{Name: name, Owner: owner})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
