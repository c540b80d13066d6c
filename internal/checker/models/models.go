// Package models defines the password-check domain types.
package models

import (
	"time"

	id "passcheck/pkg/domain"
)

// Level buckets a score into one of five ordered strength categories.
type Level string

const (
	LevelVeryWeak   Level = "VERY_WEAK"
	LevelWeak       Level = "WEAK"
	LevelMedium     Level = "MEDIUM"
	LevelStrong     Level = "STRONG"
	LevelVeryStrong Level = "VERY_STRONG"
)

// LevelFor maps a clamped score onto its strength level. The thresholds form
// an exhaustive, non-overlapping partition of [0,100].
func LevelFor(score int) Level {
	switch {
	case score >= 80:
		return LevelVeryStrong
	case score >= 60:
		return LevelStrong
	case score >= 40:
		return LevelMedium
	case score >= 20:
		return LevelWeak
	default:
		return LevelVeryWeak
	}
}

// IsValid checks the level is one of the five supported values.
func (l Level) IsValid() bool {
	switch l {
	case LevelVeryWeak, LevelWeak, LevelMedium, LevelStrong, LevelVeryStrong:
		return true
	}
	return false
}

func (l Level) String() string { return string(l) }

// Result is the outcome of one password check. RemainingChecks and
// MaxChecksPerDay stay nil for anonymous checks.
type Result struct {
	Score           int      `json:"score"`
	Level           Level    `json:"level"`
	Recommendations []string `json:"recommendations"`
	IsValid         bool     `json:"isValid"`
	RemainingChecks *int     `json:"remainingChecks"`
	MaxChecksPerDay *int     `json:"maxChecksPerDay"`
}

// PasswordCheck is the immutable record of one accounted check. It is only
// ever created and counted; the subscription reference is cleared (not the
// record deleted) when its subscription is removed.
type PasswordCheck struct {
	ID             id.CheckID         `json:"id"`
	UserID         id.UserID          `json:"user_id"`
	SubscriptionID *id.SubscriptionID `json:"subscription_id,omitempty"`
	Score          int                `json:"score"`
	Level          Level              `json:"level"`
	CreatedAt      time.Time          `json:"created_at"`
}
