// Package sentinel holds sentinel errors for infrastructure facts. Stores
// return these (optionally wrapped) so services can translate them into coded
// domain errors without string matching.
//
// These represent factual states about resources, not validation failures:
//   - ErrNotFound: entity does not exist in the store
//   - ErrConflict: unique constraint violated (plan name, user email,
//     one-active-subscription-per-user)
//   - ErrLimitReached: a conditional insert was rejected because the daily
//     quota window is full
//   - ErrUnavailable: backend temporarily unreachable
package sentinel

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrLimitReached = errors.New("limit reached")
	ErrUnavailable  = errors.New("unavailable")
)
