//go:build integration

package approval_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"namereg/internal/approval"
	"namereg/pkg/domain"
	"namereg/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *approval.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = approval.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background()))
}

func (s *PostgresStoreSuite) TestSetAndIsApproved() {
	ctx := context.Background()

	s.Require().NoError(s.store.Set(ctx, "hello.org", "bob"))

	ok, err := s.store.IsApproved(ctx, "hello.org", "bob")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.IsApproved(ctx, "hello.org", "carol")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *PostgresStoreSuite) TestSet_ReplacesDelegate() {
	ctx := context.Background()

	s.Require().NoError(s.store.Set(ctx, "hello.org", "bob"))
	s.Require().NoError(s.store.Set(ctx, "hello.org", "carol"))

	ok, err := s.store.IsApproved(ctx, "hello.org", "bob")
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.store.IsApproved(ctx, "hello.org", "carol")
	s.Require().NoError(err)
	s.True(ok)
}

func (s *PostgresStoreSuite) TestSet_AnonymousRemoves() {
	ctx := context.Background()

	s.Require().NoError(s.store.Set(ctx, "hello.org", "bob"))
	s.Require().NoError(s.store.Set(ctx, "hello.org", domain.Anonymous))

	ok, err := s.store.IsApproved(ctx, "hello.org", "bob")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *PostgresStoreSuite) TestClear_Idempotent() {
	ctx := context.Background()

	s.Require().NoError(s.store.Set(ctx, "hello.org", "bob"))
	s.Require().NoError(s.store.Clear(ctx, "hello.org"))
	s.Require().NoError(s.store.Clear(ctx, "hello.org"))

	ok, err := s.store.IsApproved(ctx, "hello.org", "bob")
	s.Require().NoError(err)
	s.False(ok)
}
