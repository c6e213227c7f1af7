package registry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namereg/pkg/domain"
	"namereg/pkg/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	alice := domain.Principal("alice")
	bob := domain.Principal("bob")
	name := domain.Name("example.icp")

	t.Run("OwnerOf unregistered name", func(t *testing.T) {
		store := NewInMemoryStore()
		_, err := store.OwnerOf(ctx, name)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("SetOwner requires an existing registration", func(t *testing.T) {
		store := NewInMemoryStore()
		err := store.SetOwner(ctx, name, alice)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("Create then reassign", func(t *testing.T) {
		store := NewInMemoryStore()
		require.NoError(t, store.Create(ctx, name, alice))

		owner, err := store.OwnerOf(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, alice, owner)

		require.NoError(t, store.SetOwner(ctx, name, bob))
		owner, err = store.OwnerOf(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, bob, owner)
	})

	t.Run("Create rejects a taken name", func(t *testing.T) {
		store := NewInMemoryStore()
		require.NoError(t, store.Create(ctx, name, alice))
		err := store.Create(ctx, name, bob)
		assert.ErrorIs(t, err, sentinel.ErrConflict)

		// The failed create must not clobber the existing owner.
		owner, err := store.OwnerOf(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, alice, owner)
	})

	t.Run("List is sorted", func(t *testing.T) {
		store := NewInMemoryStore()
		require.NoError(t, store.Create(ctx, domain.Name("zeta.icp"), alice))
		require.NoError(t, store.Create(ctx, domain.Name("alpha.icp"), bob))

		entries, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, domain.Name("alpha.icp"), entries[0].Name)
		assert.Equal(t, domain.Name("zeta.icp"), entries[1].Name)
	})
}

func TestInMemoryStore_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	name := domain.Name("contested.icp")

	const goroutines = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := store.Create(ctx, name, domain.Principal(string(rune('a'+i%26)))); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created, "a name has exactly one owner at a time")
}
