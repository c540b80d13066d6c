package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"passcheck/internal/subscription/models"
	id "passcheck/pkg/domain"
	"passcheck/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists subscriptions in PostgreSQL. The one-ACTIVE-per-user
// rule rests on the ux_subscriptions_active_user partial unique index, so
// concurrent inserts cannot race past the check.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, user_id, plan_id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.Exec(ctx, query,
		uuid.UUID(sub.ID),
		uuid.UUID(sub.UserID),
		uuid.UUID(sub.PlanID),
		sub.StartDate,
		sub.EndDate,
		string(sub.Status),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, subID id.SubscriptionID) (*models.Subscription, error) {
	query := `
		SELECT id, user_id, plan_id, start_date, end_date, status
		FROM subscriptions
		WHERE id = $1
	`
	sub, err := scanSubscription(s.db.QueryRow(ctx, query, uuid.UUID(subID)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Subscription, error) {
	query := `
		SELECT id, user_id, plan_id, start_date, end_date, status
		FROM subscriptions
		ORDER BY start_date DESC
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

func (s *PostgresStore) ActiveByUser(ctx context.Context, userID id.UserID) (*models.Subscription, error) {
	query := `
		SELECT id, user_id, plan_id, start_date, end_date, status
		FROM subscriptions
		WHERE user_id = $1 AND status = 'ACTIVE'
	`
	sub, err := scanSubscription(s.db.QueryRow(ctx, query, uuid.UUID(userID)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get active subscription: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) Update(ctx context.Context, sub *models.Subscription) error {
	query := `
		UPDATE subscriptions
		SET plan_id = $2, start_date = $3, end_date = $4, status = $5
		WHERE id = $1
	`
	tag, err := s.db.Exec(ctx, query,
		uuid.UUID(sub.ID),
		uuid.UUID(sub.PlanID),
		sub.StartDate,
		sub.EndDate,
		string(sub.Status),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkExpired(ctx context.Context, subID id.SubscriptionID, today time.Time) (bool, error) {
	query := `
		UPDATE subscriptions
		SET status = 'EXPIRED'
		WHERE id = $1 AND status = 'ACTIVE' AND end_date IS NOT NULL AND end_date < $2
	`
	tag, err := s.db.Exec(ctx, query, uuid.UUID(subID), models.DateOnly(today))
	if err != nil {
		return false, fmt.Errorf("mark subscription expired: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) Delete(ctx context.Context, subID id.SubscriptionID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, uuid.UUID(subID))
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteByUser(ctx context.Context, userID id.UserID) (int, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM subscriptions WHERE user_id = $1`, uuid.UUID(userID))
	if err != nil {
		return 0, fmt.Errorf("delete subscriptions by user: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) CountByPlan(ctx context.Context, planID id.PlanID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE plan_id = $1`,
		uuid.UUID(planID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count subscriptions by plan: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return count, nil
}

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var (
		sub           models.Subscription
		subID, userID uuid.UUID
		planID        uuid.UUID
		status        string
	)
	err := row.Scan(&subID, &userID, &planID, &sub.StartDate, &sub.EndDate, &status)
	if err != nil {
		return nil, err
	}
	sub.ID = id.SubscriptionID(subID)
	sub.UserID = id.UserID(userID)
	sub.PlanID = id.PlanID(planID)
	sub.Status = models.Status(status)
	return &sub, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
