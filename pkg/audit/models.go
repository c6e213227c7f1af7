// Package audit defines the audit event model and the sinks it fans out to.
// Events are emitted from domain logic for every state-changing operation and
// stay transport-agnostic so publishers and stores can be swapped.
package audit

import (
	"context"
	"log/slog"
	"time"

	"namereg/pkg/domain"
)

// Event captures one security-relevant action against the registry.
type Event struct {
	ID        string           `json:"id"`
	Action    Action           `json:"action"`
	Timestamp time.Time        `json:"timestamp"`
	Actor     domain.Principal `json:"actor"`
	// Subject is the entity acted on: a name for ownership events, a
	// principal for quota events.
	Subject string `json:"subject"`
	// Decision records the outcome: "allowed", "denied", or an error code.
	Decision string            `json:"decision,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
}

// Action identifies what happened.
type Action string

const (
	// Ownership events
	ActionApprovalSet      Action = "approval_set"
	ActionApprovalCleared  Action = "approval_cleared"
	ActionNameTransferred  Action = "name_transferred"
	ActionRegistrationSeed Action = "registration_seeded"

	// Quota events
	ActionQuotaAdded           Action = "quota_added"
	ActionQuotaTransferred     Action = "quota_transferred"
	ActionQuotaBatchTransfer   Action = "quota_batch_transferred"
	ActionQuotaTransferredFrom Action = "quota_transferred_from"

	// Registration order events
	ActionOrderPlaced    Action = "order_placed"
	ActionOrderCommitted Action = "order_committed"
	ActionOrderCancelled Action = "order_cancelled"
)

// Publisher emits audit events for security-relevant operations.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Store persists audit events for later inspection.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Log publishes an event best-effort and logs it. Audit failures must never
// fail the domain operation that triggered them; they are logged and dropped.
func Log(ctx context.Context, logger *slog.Logger, publisher Publisher, event Event) {
	if logger != nil {
		logger.InfoContext(ctx, "audit",
			"action", string(event.Action),
			"actor", event.Actor.String(),
			"subject", event.Subject,
			"decision", event.Decision,
		)
	}
	if publisher == nil {
		return
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.ErrorContext(ctx, "audit publish failed",
			"action", string(event.Action),
			"error", err,
		)
	}
}
