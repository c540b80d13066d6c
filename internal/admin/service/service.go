// Package service aggregates operational counters for the admin dashboard.
package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"passcheck/internal/admin/models"
	dErrors "passcheck/pkg/domain-errors"
	"passcheck/pkg/requestcontext"
)

// Counter reports how many rows a store holds.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// CheckCounter reports check records inside a half-open window.
type CheckCounter interface {
	CountAllInWindow(ctx context.Context, from, to time.Time) (int, error)
}

type Service struct {
	users         Counter
	plans         Counter
	subscriptions Counter
	checks        CheckCounter
}

func New(users, plans, subscriptions Counter, checks CheckCounter) (*Service, error) {
	if users == nil || plans == nil || subscriptions == nil || checks == nil {
		return nil, fmt.Errorf("all counters are required")
	}
	return &Service{
		users:         users,
		plans:         plans,
		subscriptions: subscriptions,
		checks:        checks,
	}, nil
}

// Overview gathers the counters concurrently. The checks figure covers the
// current UTC day, the same window the quota ledger charges against.
func (s *Service) Overview(ctx context.Context) (*models.Overview, error) {
	now := requestcontext.Now(ctx).UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	var overview models.Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.users.Count(gctx)
		overview.Users = n
		return err
	})
	g.Go(func() error {
		n, err := s.plans.Count(gctx)
		overview.Plans = n
		return err
	})
	g.Go(func() error {
		n, err := s.subscriptions.Count(gctx)
		overview.Subscriptions = n
		return err
	})
	g.Go(func() error {
		n, err := s.checks.CountAllInWindow(gctx, dayStart, dayEnd)
		overview.ChecksToday = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "gather stats")
	}

	overview.GeneratedAt = now
	return &overview, nil
}
