//go:build integration

package quota_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"namereg/internal/quota"
	"namereg/pkg/domain"
	"namereg/pkg/sentinel"
	"namereg/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *quota.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = quota.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background()))
}

func (s *PostgresStoreSuite) balance(holder domain.Principal, category domain.QuotaCategory) uint32 {
	b, err := s.store.Get(context.Background(), holder, category)
	s.Require().NoError(err)
	return b
}

func (s *PostgresStoreSuite) TestGet_AbsentIsZero() {
	s.Equal(uint32(0), s.balance("alice", "len-gte-7"))
}

func (s *PostgresStoreSuite) TestAddAccumulates() {
	ctx := context.Background()

	s.Require().NoError(s.store.Add(ctx, "alice", "len-gte-7", 5))
	s.Require().NoError(s.store.Add(ctx, "alice", "len-gte-7", 3))

	s.Equal(uint32(8), s.balance("alice", "len-gte-7"))
}

func (s *PostgresStoreSuite) TestSubtract_InsufficientLeavesBalance() {
	ctx := context.Background()

	s.Require().NoError(s.store.Add(ctx, "alice", "len-gte-7", 5))

	err := s.store.Subtract(ctx, "alice", "len-gte-7", 6)
	s.Require().ErrorIs(err, sentinel.ErrInsufficient)
	s.Equal(uint32(5), s.balance("alice", "len-gte-7"))
}

func (s *PostgresStoreSuite) TestTransfer_Conserves() {
	ctx := context.Background()

	s.Require().NoError(s.store.Add(ctx, "alice", "len-gte-7", 10))
	s.Require().NoError(s.store.Transfer(ctx, "alice", "bob", "len-gte-7", 4))

	s.Equal(uint32(6), s.balance("alice", "len-gte-7"))
	s.Equal(uint32(4), s.balance("bob", "len-gte-7"))
}

func (s *PostgresStoreSuite) TestBatchTransfer_AllOrNothing() {
	ctx := context.Background()

	s.Require().NoError(s.store.Add(ctx, "alice", "len-gte-7", 5))

	err := s.store.BatchTransfer(ctx, "alice", []quota.TransferQuotaDetails{
		{To: "bob", Category: "len-gte-7", Amount: 2},
		{To: "carol", Category: "len-gte-7", Amount: 10},
	})
	s.Require().ErrorIs(err, sentinel.ErrInsufficient)

	s.Equal(uint32(5), s.balance("alice", "len-gte-7"))
	s.Equal(uint32(0), s.balance("bob", "len-gte-7"))
	s.Equal(uint32(0), s.balance("carol", "len-gte-7"))
}

// Concurrent transfers must never overdraw or create units.
func (s *PostgresStoreSuite) TestConcurrentTransfers_Conserve() {
	ctx := context.Background()
	const initial = 100
	const goroutines = 20

	s.Require().NoError(s.store.Add(ctx, "alice", "len-gte-7", initial))

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.store.Transfer(ctx, "alice", "bob", "len-gte-7", 7)
		}()
	}
	wg.Wait()

	total := s.balance("alice", "len-gte-7") + s.balance("bob", "len-gte-7")
	s.Equal(uint32(initial), total)
}
