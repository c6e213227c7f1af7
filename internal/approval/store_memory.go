package approval

import (
	"context"
	"sync"

	"namereg/pkg/domain"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	delegates map[domain.Name]domain.Principal
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{delegates: make(map[domain.Name]domain.Principal)}
}

func (s *InMemoryStore) Set(_ context.Context, name domain.Name, delegate domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if delegate.IsAnonymous() {
		delete(s.delegates, name)
		return nil
	}
	s.delegates[name] = delegate
	return nil
}

func (s *InMemoryStore) IsApproved(_ context.Context, name domain.Name, candidate domain.Principal) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	delegate, ok := s.delegates[name]
	return ok && delegate == candidate, nil
}

func (s *InMemoryStore) Clear(_ context.Context, name domain.Name) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.delegates, name)
	return nil
}
