// Package models defines the subscription and plan entities.
package models

import (
	"time"

	id "passcheck/pkg/domain"
)

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusExpired  Status = "EXPIRED"
)

// IsValid checks the status is one of the supported values.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusExpired:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// Plan is a named tier defining the daily check allowance. Referenced, never
// owned, by subscriptions.
type Plan struct {
	ID              id.PlanID `json:"id"`
	Name            string    `json:"name"`
	PriceCents      int64     `json:"price_cents"`
	MaxChecksPerDay int       `json:"max_checks_per_day"`
	Active          bool      `json:"active"`
}

// Subscription is a time-bounded grant of a plan's quota to a user. At most
// one ACTIVE subscription exists per user at any time.
type Subscription struct {
	ID        id.SubscriptionID `json:"id"`
	UserID    id.UserID         `json:"user_id"`
	PlanID    id.PlanID         `json:"plan_id"`
	StartDate time.Time         `json:"start_date"`
	EndDate   *time.Time        `json:"end_date,omitempty"`
	Status    Status            `json:"status"`
}

// ActiveSubscription is a subscription resolved together with its plan, as
// consumed by the quota gate.
type ActiveSubscription struct {
	Subscription
	Plan Plan `json:"plan"`
}

// DateOnly truncates t to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ExpiredBy reports whether the subscription's end date has passed as of now.
// Only ACTIVE subscriptions with an end date can expire; the EXPIRED
// transition itself is applied by the service, not here.
func (s *Subscription) ExpiredBy(now time.Time) bool {
	if s.Status != StatusActive || s.EndDate == nil {
		return false
	}
	return DateOnly(*s.EndDate).Before(DateOnly(now))
}
