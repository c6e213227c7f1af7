//go:build integration

package registry_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"namereg/internal/registry"
	"namereg/pkg/domain"
	"namereg/pkg/sentinel"
	"namereg/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *registry.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = registry.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background()))
}

func (s *PostgresStoreSuite) TestCreateAndOwnerOf() {
	ctx := context.Background()

	s.Require().NoError(s.store.Create(ctx, "hello.org", "alice"))

	owner, err := s.store.OwnerOf(ctx, "hello.org")
	s.Require().NoError(err)
	s.Equal(domain.Principal("alice"), owner)
}

func (s *PostgresStoreSuite) TestOwnerOf_Unregistered() {
	_, err := s.store.OwnerOf(context.Background(), "nope.org")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSetOwner_NeverCreates() {
	ctx := context.Background()

	err := s.store.SetOwner(ctx, "nope.org", "bob")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.OwnerOf(ctx, "nope.org")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSetOwner_Updates() {
	ctx := context.Background()

	s.Require().NoError(s.store.Create(ctx, "hello.org", "alice"))
	s.Require().NoError(s.store.SetOwner(ctx, "hello.org", "bob"))

	owner, err := s.store.OwnerOf(ctx, "hello.org")
	s.Require().NoError(err)
	s.Equal(domain.Principal("bob"), owner)
}

func (s *PostgresStoreSuite) TestList() {
	ctx := context.Background()

	s.Require().NoError(s.store.Create(ctx, "bbb.org", "alice"))
	s.Require().NoError(s.store.Create(ctx, "aaa.org", "bob"))

	entries, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(domain.Name("aaa.org"), entries[0].Name)
	s.Equal(domain.Name("bbb.org"), entries[1].Name)
}

// Concurrent creation of the same name must produce exactly one registration.
func (s *PostgresStoreSuite) TestConcurrentCreate_OneWinner() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, "contested.org", "alice")
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), conflictCount.Load())
}
