package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namereg/pkg/domain"
	"namereg/pkg/sentinel"
)

func TestInMemoryLockStore(t *testing.T) {
	ctx := context.Background()
	name := domain.Name("alice.icp")
	alice := domain.Principal("alice")
	bob := domain.Principal("bob")

	t.Run("acquire then conflicting acquire", func(t *testing.T) {
		store := NewInMemoryLockStore()
		require.NoError(t, store.Acquire(ctx, name, alice, time.Minute))

		err := store.Acquire(ctx, name, bob, time.Minute)
		assert.ErrorIs(t, err, sentinel.ErrConflict)

		// Even the holder cannot double-acquire; one order per name.
		err = store.Acquire(ctx, name, alice, time.Minute)
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("release requires the holder", func(t *testing.T) {
		store := NewInMemoryLockStore()
		require.NoError(t, store.Acquire(ctx, name, alice, time.Minute))

		err := store.Release(ctx, name, bob)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)

		require.NoError(t, store.Release(ctx, name, alice))
		// Released lock can be re-acquired by anyone.
		require.NoError(t, store.Acquire(ctx, name, bob, time.Minute))
	})

	t.Run("expired lock is re-acquirable", func(t *testing.T) {
		store := NewInMemoryLockStore()
		now := time.Now()
		store.now = func() time.Time { return now }

		require.NoError(t, store.Acquire(ctx, name, alice, time.Minute))

		now = now.Add(2 * time.Minute)
		require.NoError(t, store.Acquire(ctx, name, bob, time.Minute))

		// The original holder's release fails after expiry.
		err := store.Release(ctx, name, alice)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("locks on different names are independent", func(t *testing.T) {
		store := NewInMemoryLockStore()
		require.NoError(t, store.Acquire(ctx, name, alice, time.Minute))
		require.NoError(t, store.Acquire(ctx, domain.Name("bob.icp"), bob, time.Minute))
	})
}
