// Package service implements the password check orchestrator. It combines
// scoring, subscription resolution and quota accounting behind a single
// operation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"passcheck/internal/checker/ledger"
	"passcheck/internal/checker/metrics"
	"passcheck/internal/checker/models"
	"passcheck/internal/checker/ports"
	"passcheck/internal/checker/scorer"
	"passcheck/internal/platform/audit"
	id "passcheck/pkg/domain"
	dErrors "passcheck/pkg/domain-errors"
	"passcheck/pkg/platform/sentinel"
)

var tracer = otel.Tracer("passcheck/internal/checker")

const (
	modeAnonymous  = "anonymous"
	modeIdentified = "identified"
)

type Service struct {
	ledger         *ledger.Ledger
	subscriptions  ports.SubscriptionResolver
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher audit.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(ledger *ledger.Ledger, subscriptions ports.SubscriptionResolver, opts ...Option) (*Service, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if subscriptions == nil {
		return nil, fmt.Errorf("subscription resolver is required")
	}

	svc := &Service{
		ledger:        ledger,
		subscriptions: subscriptions,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Check evaluates a password and, when the caller is identified, charges one
// unit against the daily quota of the caller's active subscription. Anonymous
// callers get the evaluation only: nothing is persisted and the quota fields
// of the result stay nil.
//
// When the quota is exhausted the evaluation is discarded, nothing is
// recorded, and the returned error carries CodeLimitExceeded.
func (s *Service) Check(ctx context.Context, password string, userID *id.UserID) (models.Result, error) {
	ctx, span := tracer.Start(ctx, "checker.Check",
		trace.WithAttributes(attribute.Bool("check.identified", userID != nil)))
	defer span.End()

	result := scorer.Evaluate(password)
	span.SetAttributes(attribute.Int("check.score", result.Score))

	if s.metrics != nil {
		s.metrics.ObserveScore(result.Score)
	}

	if userID == nil {
		if s.metrics != nil {
			s.metrics.IncrementChecks(modeAnonymous)
		}
		return result, nil
	}

	sub, err := s.subscriptions.ActiveForUser(ctx, *userID)
	if err != nil {
		return models.Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "resolve active subscription")
	}
	if sub == nil {
		return models.Result{}, dErrors.New(dErrors.CodeConflict, "no active subscription")
	}

	limit := sub.Plan.MaxChecksPerDay
	check, used, err := s.ledger.ClaimSlot(ctx, *userID, sub.Subscription.ID, limit, result.Score, result.Level)
	if err != nil {
		if errors.Is(err, sentinel.ErrLimitReached) {
			s.onQuotaExceeded(ctx, *userID, sub.Subscription.ID, limit)
			return models.Result{}, dErrors.New(dErrors.CodeLimitExceeded,
				fmt.Sprintf("daily limit exceeded: all %d checks used for today", limit))
		}
		return models.Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "claim quota slot")
	}

	remaining := limit - used
	result.RemainingChecks = &remaining
	result.MaxChecksPerDay = &limit

	if s.metrics != nil {
		s.metrics.IncrementChecks(modeIdentified)
	}
	if s.logger != nil {
		s.logger.DebugContext(ctx, "password check recorded",
			"check_id", check.ID.String(),
			"user_id", userID.String(),
			"score", result.Score,
			"level", result.Level.String(),
			"remaining", remaining,
		)
	}

	return result, nil
}

func (s *Service) onQuotaExceeded(ctx context.Context, userID id.UserID, subscriptionID id.SubscriptionID, limit int) {
	if s.metrics != nil {
		s.metrics.IncrementQuotaExceeded()
	}
	audit.Log(ctx, s.logger, s.auditPublisher, "check.quota_exceeded", userID.String(),
		"subscription_id", subscriptionID.String(),
		"limit", limit,
	)
}
