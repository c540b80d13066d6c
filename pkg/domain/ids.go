// Package domain defines typed identifiers shared across modules. Wrapping
// uuid.UUID in distinct named types lets the compiler catch a SubscriptionID
// handed to a function expecting a UserID.
package domain

import (
	"github.com/google/uuid"

	derrors "passcheck/pkg/domain-errors"
)

type (
	// UserID identifies the subject on whose behalf a check is requested.
	UserID uuid.UUID
	// PlanID identifies a named quota tier.
	PlanID uuid.UUID
	// SubscriptionID identifies a time-bounded grant of a plan to a user.
	SubscriptionID uuid.UUID
	// CheckID identifies a recorded password check.
	CheckID uuid.UUID
)

// parse validates and converts a string into a UUID. IDs must be valid,
// non-nil UUIDs; anything else is rejected at the trust boundary.
func parse(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, derrors.Newf(derrors.CodeInvalidInput, "%s is required", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, derrors.Newf(derrors.CodeInvalidInput, "invalid %s", kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, derrors.Newf(derrors.CodeInvalidInput, "%s must not be nil", kind)
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parse(s, "user id")
	return UserID(u), err
}

func ParsePlanID(s string) (PlanID, error) {
	u, err := parse(s, "plan id")
	return PlanID(u), err
}

func ParseSubscriptionID(s string) (SubscriptionID, error) {
	u, err := parse(s, "subscription id")
	return SubscriptionID(u), err
}

func ParseCheckID(s string) (CheckID, error) {
	u, err := parse(s, "check id")
	return CheckID(u), err
}

func NewUserID() UserID                 { return UserID(uuid.New()) }
func NewPlanID() PlanID                 { return PlanID(uuid.New()) }
func NewSubscriptionID() SubscriptionID { return SubscriptionID(uuid.New()) }
func NewCheckID() CheckID               { return CheckID(uuid.New()) }

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id PlanID) String() string         { return uuid.UUID(id).String() }
func (id SubscriptionID) String() string { return uuid.UUID(id).String() }
func (id CheckID) String() string        { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id PlanID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id SubscriptionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CheckID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }

// IDs travel through JSON and database drivers as their canonical string
// form.

func (id UserID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id PlanID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id SubscriptionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id CheckID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(text []byte) error {
	u, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id *PlanID) UnmarshalText(text []byte) error {
	u, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*id = PlanID(u)
	return nil
}

func (id *SubscriptionID) UnmarshalText(text []byte) error {
	u, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*id = SubscriptionID(u)
	return nil
}

func (id *CheckID) UnmarshalText(text []byte) error {
	u, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*id = CheckID(u)
	return nil
}
