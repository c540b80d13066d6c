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
)

// PlanService manages the plan catalog. Deleting a plan is refused while any
// subscription, in any status, still references it.
type PlanService struct {
	plans          ports.PlanStore
	subs           ports.SubscriptionStore
	cache          *cache.Cache
	logger         *slog.Logger
	auditPublisher audit.Publisher
	cacheTTL       time.Duration
}

type PlanOption func(*PlanService)

func WithPlanLogger(logger *slog.Logger) PlanOption {
	return func(s *PlanService) {
		s.logger = logger
	}
}

func WithPlanAuditPublisher(publisher audit.Publisher) PlanOption {
	return func(s *PlanService) {
		s.auditPublisher = publisher
	}
}

func NewPlans(plans ports.PlanStore, subs ports.SubscriptionStore, c *cache.Cache, opts ...PlanOption) (*PlanService, error) {
	if plans == nil {
		return nil, fmt.Errorf("plan store is required")
	}
	if subs == nil {
		return nil, fmt.Errorf("subscription store is required")
	}
	if c == nil {
		return nil, fmt.Errorf("cache is required")
	}

	svc := &PlanService{
		plans:    plans,
		subs:     subs,
		cache:    c,
		cacheTTL: cache.DefaultTTL,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

func (s *PlanService) List(ctx context.Context) ([]*models.Plan, error) {
	key := cache.ListKey(cache.KindPlanList)
	return cache.GetOrSet(ctx, s.cache, key, s.cacheTTL, func(ctx context.Context) ([]*models.Plan, error) {
		plans, err := s.plans.List(ctx)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list plans")
		}
		return plans, nil
	})
}

func (s *PlanService) Get(ctx context.Context, planID id.PlanID) (*models.Plan, error) {
	key := cache.NewKey(cache.KindPlan, planID.String())
	plan, err := cache.GetOrSet(ctx, s.cache, key, s.cacheTTL, func(ctx context.Context) (*models.Plan, error) {
		plan, err := s.plans.Get(ctx, planID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load plan")
		}
		return plan, nil
	})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "plan not found")
	}
	return plan, nil
}

func (s *PlanService) Create(ctx context.Context, name string, priceCents int64, maxChecksPerDay int) (*models.Plan, error) {
	if err := validatePlan(name, maxChecksPerDay); err != nil {
		return nil, err
	}

	taken, err := s.plans.ExistsByName(ctx, name, id.PlanID{})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "check plan name")
	}
	if taken {
		return nil, dErrors.Newf(dErrors.CodeConflict, "plan %q already exists", name)
	}

	plan := &models.Plan{
		ID:              id.NewPlanID(),
		Name:            name,
		PriceCents:      priceCents,
		MaxChecksPerDay: maxChecksPerDay,
		Active:          true,
	}
	if err := s.plans.Insert(ctx, plan); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "plan %q already exists", name)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "insert plan")
	}

	s.invalidatePlan(plan.ID)
	audit.Log(ctx, s.logger, s.auditPublisher, "plan.created", plan.ID.String(),
		"name", name,
	)
	return plan, nil
}

func (s *PlanService) Update(ctx context.Context, planID id.PlanID, name string, priceCents int64, maxChecksPerDay int, active bool) (*models.Plan, error) {
	if err := validatePlan(name, maxChecksPerDay); err != nil {
		return nil, err
	}

	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load plan")
	}
	if plan == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "plan not found")
	}

	taken, err := s.plans.ExistsByName(ctx, name, planID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "check plan name")
	}
	if taken {
		return nil, dErrors.Newf(dErrors.CodeConflict, "plan %q already exists", name)
	}

	plan.Name = name
	plan.PriceCents = priceCents
	plan.MaxChecksPerDay = maxChecksPerDay
	plan.Active = active

	if err := s.plans.Update(ctx, plan); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "plan not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.Newf(dErrors.CodeConflict, "plan %q already exists", name)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update plan")
	}

	s.invalidatePlan(planID)
	return plan, nil
}

func (s *PlanService) Delete(ctx context.Context, planID id.PlanID) error {
	inUse, err := s.subs.CountByPlan(ctx, planID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "count plan subscriptions")
	}
	if inUse > 0 {
		return dErrors.Newf(dErrors.CodeConflict, "plan is referenced by %d subscriptions", inUse)
	}

	if err := s.plans.Delete(ctx, planID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "plan not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete plan")
	}

	s.invalidatePlan(planID)
	audit.Log(ctx, s.logger, s.auditPublisher, "plan.deleted", planID.String())
	return nil
}

func (s *PlanService) invalidatePlan(planID id.PlanID) {
	s.cache.Remove(cache.NewKey(cache.KindPlan, planID.String()))
	s.cache.Remove(cache.ListKey(cache.KindPlanList))
	// active-subscription entries embed the plan
	s.cache.RemoveKind(cache.KindActiveSubscription)
}

func validatePlan(name string, maxChecksPerDay int) error {
	if name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "plan name is required")
	}
	if maxChecksPerDay < 1 {
		return dErrors.New(dErrors.CodeInvalidInput, "max checks per day must be at least 1")
	}
	return nil
}
