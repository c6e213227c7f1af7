package order

import (
	"context"
	"sync"
	"time"

	"namereg/pkg/domain"
	"namereg/pkg/sentinel"
)

type memoryLock struct {
	holder    domain.Principal
	expiresAt time.Time
}

// InMemoryLockStore keeps pending markers in process memory. Suitable for
// single-replica deployments and tests; multi-replica deployments use the
// redis implementation so replicas share the marker.
type InMemoryLockStore struct {
	mu    sync.Mutex
	locks map[domain.Name]memoryLock
	now   func() time.Time
}

func NewInMemoryLockStore() *InMemoryLockStore {
	return &InMemoryLockStore{
		locks: make(map[domain.Name]memoryLock),
		now:   time.Now,
	}
}

func (s *InMemoryLockStore) Acquire(_ context.Context, name domain.Name, holder domain.Principal, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.locks[name]; ok && s.now().Before(lock.expiresAt) {
		return sentinel.ErrConflict
	}
	s.locks[name] = memoryLock{holder: holder, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *InMemoryLockStore) Release(_ context.Context, name domain.Name, holder domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[name]
	if !ok || lock.holder != holder || !s.now().Before(lock.expiresAt) {
		return sentinel.ErrNotFound
	}
	delete(s.locks, name)
	return nil
}
