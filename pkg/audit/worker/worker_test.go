package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namereg/pkg/audit"
	auditmemory "namereg/pkg/audit/memory"
	"namereg/pkg/domain"
)

func TestWorkerPersistsEvents(t *testing.T) {
	store := auditmemory.NewInMemoryStore()
	inbox := make(chan audit.Event, 8)
	w := New(store, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	pub := NewChannelPublisher(inbox)
	require.NoError(t, pub.Emit(ctx, audit.Event{
		ID:      "e1",
		Action:  audit.ActionNameTransferred,
		Actor:   domain.Principal("alice"),
		Subject: "alice.icp",
	}))

	assert.Eventually(t, func() bool {
		events, err := store.ListAll(ctx)
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestChannelPublisherNeverBlocks(t *testing.T) {
	inbox := make(chan audit.Event, 1)
	pub := NewChannelPublisher(inbox)
	ctx := context.Background()

	require.NoError(t, pub.Emit(ctx, audit.Event{ID: "a"}))
	// Inbox is full; the second emit drops instead of blocking the caller.
	require.NoError(t, pub.Emit(ctx, audit.Event{ID: "b"}))
	assert.Len(t, inbox, 1)
}
