// Package service implements subscription and plan management. Reads go
// through the process-local cache; every mutation invalidates the typed key
// kinds it touches. The ACTIVE to EXPIRED transition is lazy: it is applied
// on read, through a conditional store update that is safe to repeat.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"passcheck/internal/cache"
	"passcheck/internal/platform/audit"
	"passcheck/internal/subscription/models"
	"passcheck/internal/subscription/ports"
	id "passcheck/pkg/domain"
	dErrors "passcheck/pkg/domain-errors"
	"passcheck/pkg/platform/sentinel"
	"passcheck/pkg/requestcontext"
)

// CheckDetacher clears the subscription reference on historical check
// records. Subscription deletion detaches checks instead of removing them.
type CheckDetacher interface {
	DetachSubscription(ctx context.Context, subscriptionID id.SubscriptionID) (int, error)
}

type Service struct {
	subs           ports.SubscriptionStore
	plans          ports.PlanStore
	cache          *cache.Cache
	checks         CheckDetacher
	logger         *slog.Logger
	auditPublisher audit.Publisher
	cacheTTL       time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithCheckDetacher(checks CheckDetacher) Option {
	return func(s *Service) {
		s.checks = checks
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheTTL = ttl
	}
}

func New(subs ports.SubscriptionStore, plans ports.PlanStore, c *cache.Cache, opts ...Option) (*Service, error) {
	if subs == nil {
		return nil, fmt.Errorf("subscription store is required")
	}
	if plans == nil {
		return nil, fmt.Errorf("plan store is required")
	}
	if c == nil {
		return nil, fmt.Errorf("cache is required")
	}

	svc := &Service{
		subs:     subs,
		plans:    plans,
		cache:    c,
		cacheTTL: cache.DefaultTTL,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// ActiveForUser resolves the user's ACTIVE subscription with its plan joined,
// or nil when the user has none. It satisfies the checker's subscription
// resolver. The result is cached per user; the expiry transition invalidates
// the entry so the next read repopulates from the store.
func (s *Service) ActiveForUser(ctx context.Context, userID id.UserID) (*models.ActiveSubscription, error) {
	key := cache.NewKey(cache.KindActiveSubscription, userID.String())
	return cache.GetOrSet(ctx, s.cache, key, s.cacheTTL, func(ctx context.Context) (*models.ActiveSubscription, error) {
		sub, err := s.subs.ActiveByUser(ctx, userID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load active subscription")
		}
		if sub == nil {
			return nil, nil
		}
		sub, err = s.expireIfDue(ctx, sub)
		if err != nil {
			return nil, err
		}
		if sub.Status != models.StatusActive {
			return nil, nil
		}

		plan, err := s.planByID(ctx, sub.PlanID)
		if err != nil {
			return nil, err
		}
		if plan == nil {
			return nil, dErrors.New(dErrors.CodeInternal, "subscription references missing plan")
		}
		return &models.ActiveSubscription{Subscription: *sub, Plan: *plan}, nil
	})
}

// Get returns one subscription with the expiry transition applied.
func (s *Service) Get(ctx context.Context, subID id.SubscriptionID) (*models.Subscription, error) {
	key := cache.NewKey(cache.KindSubscription, subID.String())
	sub, err := cache.GetOrSet(ctx, s.cache, key, s.cacheTTL, func(ctx context.Context) (*models.Subscription, error) {
		sub, err := s.subs.Get(ctx, subID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load subscription")
		}
		if sub == nil {
			return nil, nil
		}
		return s.expireIfDue(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "subscription not found")
	}
	return sub, nil
}

// List returns all subscriptions with the expiry transition applied.
func (s *Service) List(ctx context.Context) ([]*models.Subscription, error) {
	key := cache.ListKey(cache.KindSubscriptionList)
	return cache.GetOrSet(ctx, s.cache, key, s.cacheTTL, func(ctx context.Context) ([]*models.Subscription, error) {
		subs, err := s.subs.List(ctx)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list subscriptions")
		}
		for i, sub := range subs {
			expired, err := s.expireIfDue(ctx, sub)
			if err != nil {
				return nil, err
			}
			subs[i] = expired
		}
		return subs, nil
	})
}

// Create grants a plan to a user. An existing ACTIVE subscription on the same
// plan is a conflict; on a different plan it is closed as of today before the
// new one starts.
func (s *Service) Create(ctx context.Context, userID id.UserID, planID id.PlanID, startDate time.Time) (*models.Subscription, error) {
	plan, err := s.planByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "plan not found")
	}

	existing, err := s.subs.ActiveByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load active subscription")
	}
	if existing != nil {
		existing, err = s.expireIfDue(ctx, existing)
		if err != nil {
			return nil, err
		}
	}
	if existing != nil && existing.Status == models.StatusActive {
		if existing.PlanID == planID {
			return nil, dErrors.New(dErrors.CodeConflict, "you already have an active subscription for this plan")
		}
		if err := s.deactivate(ctx, existing); err != nil {
			return nil, err
		}
	}

	sub := &models.Subscription{
		ID:        id.NewSubscriptionID(),
		UserID:    userID,
		PlanID:    planID,
		StartDate: models.DateOnly(startDate),
		Status:    models.StatusActive,
	}
	if err := s.subs.Insert(ctx, sub); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "user already has an active subscription")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "insert subscription")
	}

	s.invalidateSubscription(sub)
	audit.Log(ctx, s.logger, s.auditPublisher, "subscription.created", userID.String(),
		"subscription_id", sub.ID.String(),
		"plan_id", planID.String(),
	)
	return sub, nil
}

// Update replaces the status and end date of a subscription. An update that
// leaves the subscription ACTIVE past its end date lands as EXPIRED.
func (s *Service) Update(ctx context.Context, subID id.SubscriptionID, status models.Status, endDate *time.Time) (*models.Subscription, error) {
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid subscription status")
	}

	sub, err := s.subs.Get(ctx, subID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load subscription")
	}
	if sub == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "subscription not found")
	}

	sub.Status = status
	if endDate != nil {
		end := models.DateOnly(*endDate)
		sub.EndDate = &end
	} else {
		sub.EndDate = nil
	}
	if sub.ExpiredBy(requestcontext.Now(ctx)) {
		sub.Status = models.StatusExpired
	}

	if err := s.subs.Update(ctx, sub); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "user already has an active subscription")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update subscription")
	}

	s.invalidateSubscription(sub)
	return sub, nil
}

// Deactivate closes a subscription as of today without deleting it.
func (s *Service) Deactivate(ctx context.Context, subID id.SubscriptionID) error {
	sub, err := s.subs.Get(ctx, subID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load subscription")
	}
	if sub == nil {
		return dErrors.New(dErrors.CodeNotFound, "subscription not found")
	}
	if err := s.deactivate(ctx, sub); err != nil {
		return err
	}

	audit.Log(ctx, s.logger, s.auditPublisher, "subscription.deactivated", sub.UserID.String(),
		"subscription_id", subID.String(),
	)
	return nil
}

// Delete removes a subscription. Historical check records survive with their
// subscription reference cleared.
func (s *Service) Delete(ctx context.Context, subID id.SubscriptionID) error {
	sub, err := s.subs.Get(ctx, subID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load subscription")
	}
	if sub == nil {
		return dErrors.New(dErrors.CodeNotFound, "subscription not found")
	}

	if s.checks != nil {
		detached, err := s.checks.DetachSubscription(ctx, subID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "detach check records")
		}
		if detached > 0 && s.logger != nil {
			s.logger.InfoContext(ctx, "detached check records", "subscription_id", subID.String(), "count", detached)
		}
	}

	if err := s.subs.Delete(ctx, subID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "subscription not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete subscription")
	}

	s.invalidateSubscription(sub)
	audit.Log(ctx, s.logger, s.auditPublisher, "subscription.deleted", sub.UserID.String(),
		"subscription_id", subID.String(),
	)
	return nil
}

// DeleteByUser removes every subscription of a user, as part of account
// deletion.
func (s *Service) DeleteByUser(ctx context.Context, userID id.UserID) (int, error) {
	deleted, err := s.subs.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "delete subscriptions by user")
	}
	s.cache.RemoveKind(cache.KindSubscription)
	s.cache.RemoveKind(cache.KindSubscriptionList)
	s.cache.Remove(cache.NewKey(cache.KindActiveSubscription, userID.String()))
	return deleted, nil
}

// expireIfDue applies the lazy ACTIVE to EXPIRED transition. The store update
// is conditional, so a concurrent reader applying the same transition is
// harmless; whichever call wins emits the audit event.
func (s *Service) expireIfDue(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	now := requestcontext.Now(ctx)
	if !sub.ExpiredBy(now) {
		return sub, nil
	}

	applied, err := s.subs.MarkExpired(ctx, sub.ID, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "mark subscription expired")
	}
	sub.Status = models.StatusExpired

	s.invalidateSubscription(sub)
	if applied {
		audit.Log(ctx, s.logger, s.auditPublisher, "subscription.expired", sub.UserID.String(),
			"subscription_id", sub.ID.String(),
			"end_date", sub.EndDate.Format(time.DateOnly),
		)
	}
	return sub, nil
}

func (s *Service) deactivate(ctx context.Context, sub *models.Subscription) error {
	sub.Status = models.StatusInactive
	if sub.EndDate == nil {
		today := models.DateOnly(requestcontext.Now(ctx))
		sub.EndDate = &today
	}
	if err := s.subs.Update(ctx, sub); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "deactivate subscription")
	}
	s.invalidateSubscription(sub)
	return nil
}

func (s *Service) planByID(ctx context.Context, planID id.PlanID) (*models.Plan, error) {
	key := cache.NewKey(cache.KindPlan, planID.String())
	return cache.GetOrSet(ctx, s.cache, key, s.cacheTTL, func(ctx context.Context) (*models.Plan, error) {
		plan, err := s.plans.Get(ctx, planID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load plan")
		}
		return plan, nil
	})
}

func (s *Service) invalidateSubscription(sub *models.Subscription) {
	s.cache.Remove(cache.NewKey(cache.KindSubscription, sub.ID.String()))
	s.cache.Remove(cache.ListKey(cache.KindSubscriptionList))
	s.cache.Remove(cache.NewKey(cache.KindActiveSubscription, sub.UserID.String()))
}
