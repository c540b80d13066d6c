// Package ports defines the storage interfaces of the subscription module.
package ports

import (
	"context"
	"time"

	"passcheck/internal/subscription/models"
	id "passcheck/pkg/domain"
)

// PlanStore persists plans. Stores return (nil, nil) for absent entities and
// sentinel.ErrConflict on unique-name violations.
type PlanStore interface {
	Insert(ctx context.Context, plan *models.Plan) error
	Get(ctx context.Context, planID id.PlanID) (*models.Plan, error)
	List(ctx context.Context) ([]*models.Plan, error)

	// ExistsByName reports whether another plan already uses the name.
	// excludeID carves out the plan being renamed; pass the zero value on
	// create.
	ExistsByName(ctx context.Context, name string, excludeID id.PlanID) (bool, error)

	Update(ctx context.Context, plan *models.Plan) error
	Delete(ctx context.Context, planID id.PlanID) error
}

// SubscriptionStore persists subscriptions. The one-ACTIVE-per-user rule is
// enforced here: Insert and Update return sentinel.ErrConflict when they
// would produce a second ACTIVE subscription for the same user.
type SubscriptionStore interface {
	Insert(ctx context.Context, sub *models.Subscription) error
	Get(ctx context.Context, subID id.SubscriptionID) (*models.Subscription, error)
	List(ctx context.Context) ([]*models.Subscription, error)

	// ActiveByUser returns the user's ACTIVE subscription, or (nil, nil).
	ActiveByUser(ctx context.Context, userID id.UserID) (*models.Subscription, error)

	Update(ctx context.Context, sub *models.Subscription) error

	// MarkExpired flips ACTIVE to EXPIRED when the end date lies strictly
	// before the given day. The guard is part of the update so concurrent
	// callers cannot double-apply the transition; returns whether this call
	// performed it.
	MarkExpired(ctx context.Context, subID id.SubscriptionID, today time.Time) (bool, error)

	Delete(ctx context.Context, subID id.SubscriptionID) error
	DeleteByUser(ctx context.Context, userID id.UserID) (int, error)

	// CountByPlan counts subscriptions in any status referencing the plan.
	CountByPlan(ctx context.Context, planID id.PlanID) (int, error)
}
