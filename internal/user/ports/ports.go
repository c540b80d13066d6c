// Package ports defines the storage interface of the user module.
package ports

import (
	"context"

	"passcheck/internal/user/models"
	id "passcheck/pkg/domain"
)

// UserStore persists accounts. Absent users come back as (nil, nil);
// duplicate emails as sentinel.ErrConflict.
type UserStore interface {
	Insert(ctx context.Context, user *models.User) error
	Get(ctx context.Context, userID id.UserID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Delete(ctx context.Context, userID id.UserID) error

	Count(ctx context.Context) (int, error)
}
