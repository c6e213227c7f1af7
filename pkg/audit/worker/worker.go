package worker

import (
	"context"

	"namereg/pkg/audit"
)

// Worker consumes audit events from a channel and persists them. It decouples
// domain operations from the durability of their audit trail.
type Worker struct {
	store audit.Store
	inbox <-chan audit.Event
}

func New(store audit.Store, inbox <-chan audit.Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}

// ChannelPublisher bridges the Publisher interface onto a worker inbox.
// Emit never blocks: if the inbox is full the event is dropped, because audit
// must not stall domain operations.
type ChannelPublisher struct {
	inbox chan<- audit.Event
}

func NewChannelPublisher(inbox chan<- audit.Event) *ChannelPublisher {
	return &ChannelPublisher{inbox: inbox}
}

func (p *ChannelPublisher) Emit(_ context.Context, event audit.Event) error {
	select {
	case p.inbox <- event:
	default:
	}
	return nil
}
