package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namereg/internal/payments"
	"namereg/internal/quota"
	"namereg/internal/registry"
	"namereg/pkg/domain"
	pkgerrors "namereg/pkg/errors"
)

const standard = domain.CategoryStandard

var (
	quotaAdmin = domain.Principal("quota-admin")
	buyer      = domain.Principal("buyer")
)

type fixture struct {
	svc    *Service
	reg    *registry.InMemoryStore
	quota  *quota.Service
	locks  *InMemoryLockStore
	ledger *payments.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := registry.NewInMemoryStore()
	quotaSvc, err := quota.New(quota.NewInMemoryStore(), quota.WithAdmins(quotaAdmin))
	require.NoError(t, err)
	locks := NewInMemoryLockStore()
	ledger := payments.NewFake()

	svc, err := New(reg, quotaSvc, locks, ledger)
	require.NoError(t, err)
	return &fixture{svc: svc, reg: reg, quota: quotaSvc, locks: locks, ledger: ledger}
}

func (f *fixture) grantQuota(t *testing.T, p domain.Principal, amount uint32) {
	t.Helper()
	_, err := f.quota.Add(context.Background(), quotaAdmin, p, standard, amount)
	require.NoError(t, err)
}

func TestPlace_Commits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.grantQuota(t, buyer, 5)

	receipt, err := f.svc.Place(ctx, buyer, "freshname.icp", standard, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.OrderID)
	assert.NotEmpty(t, receipt.TxID)
	assert.Equal(t, domain.Name("freshname.icp"), receipt.Name)

	owner, err := f.reg.OwnerOf(ctx, "freshname.icp")
	require.NoError(t, err)
	assert.Equal(t, buyer, owner)

	balance, err := f.quota.Get(ctx, buyer, standard)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), balance, "two years debits two units")

	charges := f.ledger.Charges()
	require.Len(t, charges, 1)
	assert.Equal(t, buyer, charges[0].Payer)
	assert.Equal(t, uint64(2)*priceE8sPerYear, charges[0].Amount)

	// Lock released: a later order for the same name conflicts on the
	// registration, not on a stale pending marker.
	_, err = f.svc.Place(ctx, domain.Principal("other"), "freshname.icp", standard, 1)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestPlace_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous caller", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Place(ctx, domain.Anonymous, "freshname.icp", standard, 1)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	})

	t.Run("invalid name", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Place(ctx, buyer, "a.b.c", standard, 1)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidName))
	})

	t.Run("category must cover the label length", func(t *testing.T) {
		f := newFixture(t)
		f.grantQuota(t, buyer, 5)
		// standard is len-gte-7; "abc" is three characters.
		_, err := f.svc.Place(ctx, buyer, "abc.icp", standard, 1)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeBadRequest))
	})

	t.Run("zero years", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Place(ctx, buyer, "freshname.icp", standard, 0)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeBadRequest))
	})

	t.Run("registered name conflicts", func(t *testing.T) {
		f := newFixture(t)
		f.grantQuota(t, buyer, 5)
		require.NoError(t, f.reg.Create(ctx, "freshname.icp", domain.Principal("holder")))
		_, err := f.svc.Place(ctx, buyer, "freshname.icp", standard, 1)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
	})

	t.Run("insufficient quota before any charge", func(t *testing.T) {
		f := newFixture(t)
		f.grantQuota(t, buyer, 1)
		_, err := f.svc.Place(ctx, buyer, "freshname.icp", standard, 3)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientQuota))
		assert.Empty(t, f.ledger.Charges(), "no charge without quota")
	})
}

func TestPlace_PendingConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.grantQuota(t, buyer, 5)

	// Simulate an in-flight order holding the lock.
	require.NoError(t, f.locks.Acquire(ctx, "freshname.icp", domain.Principal("someone"), time.Minute))

	_, err := f.svc.Place(ctx, buyer, "freshname.icp", standard, 1)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
	assert.Empty(t, f.ledger.Charges(), "a pending name is never charged")
}

func TestPlace_ChargeFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.grantQuota(t, buyer, 5)
	f.ledger.FailCharge = pkgerrors.Remote(7, "payer account frozen")

	_, err := f.svc.Place(ctx, buyer, "freshname.icp", standard, 2)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeRemote))
	assert.Contains(t, err.Error(), "payer account frozen", "remote diagnostics preserved")

	// No mutation: quota intact, name unregistered, lock released.
	balance, _ := f.quota.Get(ctx, buyer, standard)
	assert.Equal(t, uint32(5), balance)
	_, err = f.reg.OwnerOf(ctx, "freshname.icp")
	assert.Error(t, err)

	f.ledger.FailCharge = nil
	_, err = f.svc.Place(ctx, buyer, "freshname.icp", standard, 1)
	assert.NoError(t, err, "lock must be free after a failed order")
}

func TestPlace_CommitFailureRefunds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.grantQuota(t, buyer, 5)

	// The name gets registered by someone else during the suspension window.
	sneaky := &registrationRacer{InMemoryStore: f.reg, name: "freshname.icp"}
	svc, err := New(sneaky, f.quota, f.locks, f.ledger)
	require.NoError(t, err)

	_, err = svc.Place(ctx, buyer, "freshname.icp", standard, 2)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))

	// The charge happened, so it must be refunded and the quota restored.
	require.Len(t, f.ledger.Charges(), 1)
	require.Len(t, f.ledger.Refunds(), 1)
	balance, _ := f.quota.Get(ctx, buyer, standard)
	assert.Equal(t, uint32(5), balance)
}

// registrationRacer reports the name unregistered during the pre-charge check
// but registers it behind the order's back before commit.
type registrationRacer struct {
	*registry.InMemoryStore
	name domain.Name
}

func (r *registrationRacer) OwnerOf(ctx context.Context, name domain.Name) (domain.Principal, error) {
	return r.InMemoryStore.OwnerOf(ctx, name)
}

func (r *registrationRacer) Create(ctx context.Context, name domain.Name, owner domain.Principal) error {
	if name == r.name {
		_ = r.InMemoryStore.Create(ctx, name, domain.Principal("interloper"))
	}
	return r.InMemoryStore.Create(ctx, name, owner)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("no pending order", func(t *testing.T) {
		err := f.svc.Cancel(ctx, buyer, "freshname.icp")
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})

	t.Run("only the placer may cancel", func(t *testing.T) {
		require.NoError(t, f.locks.Acquire(ctx, "pending.icp", buyer, time.Minute))

		err := f.svc.Cancel(ctx, domain.Principal("other"), "pending.icp")
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

		require.NoError(t, f.svc.Cancel(ctx, buyer, "pending.icp"))
	})
}
