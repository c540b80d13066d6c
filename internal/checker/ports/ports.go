// Package ports defines the interfaces the checker module consumes. They are
// shared between the ledger, the orchestrator and the stores to avoid
// duplication.
package ports

import (
	"context"
	"time"

	"passcheck/internal/checker/models"
	submodels "passcheck/internal/subscription/models"
	id "passcheck/pkg/domain"
)

// CheckStore persists password check records. Records are append-only: the
// only mutations are the user-deletion cascade and subscription detachment.
type CheckStore interface {
	// Insert persists a new check record.
	Insert(ctx context.Context, check *models.PasswordCheck) error

	// Get retrieves a record by id. Returns (nil, nil) when absent.
	Get(ctx context.Context, checkID id.CheckID) (*models.PasswordCheck, error)

	// CountInWindow counts records owned by the subscription with
	// created_at in [from, to).
	CountInWindow(ctx context.Context, subscriptionID id.SubscriptionID, from, to time.Time) (int, error)

	// DetachSubscription clears the subscription reference on historical
	// records, keeping the records themselves.
	DetachSubscription(ctx context.Context, subscriptionID id.SubscriptionID) (int, error)

	// DeleteByUser removes all records owned by the user (account deletion
	// cascade).
	DeleteByUser(ctx context.Context, userID id.UserID) (int, error)
}

// ConditionalRecorder is implemented by stores that can run the
// count-then-insert admission atomically on the store side. The ledger
// prefers this over its own per-subscription serialization when available.
type ConditionalRecorder interface {
	// InsertIfUnderLimit inserts the record only if the window holds fewer
	// than limit records. Returns the window count after the attempt and
	// whether the insert happened.
	InsertIfUnderLimit(ctx context.Context, check *models.PasswordCheck, limit int, from, to time.Time) (inserted bool, used int, err error)
}

// SubscriptionResolver resolves a user's current ACTIVE subscription with its
// plan joined. Returns (nil, nil) when the user has none.
type SubscriptionResolver interface {
	ActiveForUser(ctx context.Context, userID id.UserID) (*submodels.ActiveSubscription, error)
}
