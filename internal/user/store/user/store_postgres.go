package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"passcheck/internal/user/models"
	id "passcheck/pkg/domain"
	"passcheck/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists users in PostgreSQL. Deleting a user cascades to
// subscriptions and check records through foreign keys.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, password_hash, role, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.Exec(ctx, query,
		uuid.UUID(user.ID),
		user.Email,
		user.Name,
		user.PasswordHash,
		string(user.Role),
		string(user.Status),
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, userID id.UserID) (*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, role, status, created_at
		FROM users
		WHERE id = $1
	`
	user, err := scanUser(s.db.QueryRow(ctx, query, uuid.UUID(userID)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, role, status, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`
	user, err := scanUser(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, role, status, created_at
		FROM users
		ORDER BY created_at
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		user   models.User
		userID uuid.UUID
		role   string
		status string
	)
	err := row.Scan(&userID, &user.Email, &user.Name, &user.PasswordHash, &role, &status, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	user.ID = id.UserID(userID)
	user.Role = models.Role(role)
	user.Status = models.Status(status)
	return &user, nil
}
