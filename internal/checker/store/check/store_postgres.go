package check

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"passcheck/internal/checker/models"
	id "passcheck/pkg/domain"
)

// PostgresStore persists check records in PostgreSQL. It implements
// ports.ConditionalRecorder: the daily-quota admission runs inside a
// transaction holding a per-subscription advisory lock, so concurrent claims
// for the last slot cannot both pass the count.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, check *models.PasswordCheck) error {
	query := `
		INSERT INTO password_checks (id, user_id, subscription_id, score, level, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.Exec(ctx, query,
		uuid.UUID(check.ID),
		uuid.UUID(check.UserID),
		subscriptionIDValue(check.SubscriptionID),
		check.Score,
		string(check.Level),
		check.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert check: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, checkID id.CheckID) (*models.PasswordCheck, error) {
	query := `
		SELECT id, user_id, subscription_id, score, level, created_at
		FROM password_checks
		WHERE id = $1
	`
	check, err := scanCheck(s.db.QueryRow(ctx, query, uuid.UUID(checkID)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get check: %w", err)
	}
	return check, nil
}

func (s *PostgresStore) CountInWindow(ctx context.Context, subscriptionID id.SubscriptionID, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM password_checks
		WHERE subscription_id = $1 AND created_at >= $2 AND created_at < $3
	`
	var count int
	if err := s.db.QueryRow(ctx, query, uuid.UUID(subscriptionID), from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("count checks: %w", err)
	}
	return count, nil
}

// InsertIfUnderLimit runs the count-then-insert admission atomically. The
// advisory lock is scoped to the transaction and keyed by subscription, so
// unrelated subscriptions never contend.
func (s *PostgresStore) CountAllInWindow(ctx context.Context, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM password_checks
		WHERE created_at >= $1 AND created_at < $2
	`
	var count int
	if err := s.db.QueryRow(ctx, query, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("count checks in window: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) InsertIfUnderLimit(ctx context.Context, check *models.PasswordCheck, limit int, from, to time.Time) (inserted bool, used int, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	subID := uuid.UUID(*check.SubscriptionID)

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, subID,
	); err != nil {
		return false, 0, fmt.Errorf("acquire claim lock: %w", err)
	}

	var count int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM password_checks
		WHERE subscription_id = $1 AND created_at >= $2 AND created_at < $3
	`, subID, from, to).Scan(&count)
	if err != nil {
		return false, 0, fmt.Errorf("count for claim: %w", err)
	}

	if count >= limit {
		return false, count, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO password_checks (id, user_id, subscription_id, score, level, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		uuid.UUID(check.ID),
		uuid.UUID(check.UserID),
		subID,
		check.Score,
		string(check.Level),
		check.CreatedAt,
	)
	if err != nil {
		return false, 0, fmt.Errorf("insert for claim: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, 0, fmt.Errorf("commit claim: %w", err)
	}
	return true, count + 1, nil
}

func (s *PostgresStore) DetachSubscription(ctx context.Context, subscriptionID id.SubscriptionID) (int, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE password_checks SET subscription_id = NULL WHERE subscription_id = $1`,
		uuid.UUID(subscriptionID),
	)
	if err != nil {
		return 0, fmt.Errorf("detach checks: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) DeleteByUser(ctx context.Context, userID id.UserID) (int, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM password_checks WHERE user_id = $1`,
		uuid.UUID(userID),
	)
	if err != nil {
		return 0, fmt.Errorf("delete checks by user: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func subscriptionIDValue(subID *id.SubscriptionID) any {
	if subID == nil {
		return nil
	}
	return uuid.UUID(*subID)
}

func scanCheck(row pgx.Row) (*models.PasswordCheck, error) {
	var (
		check   models.PasswordCheck
		checkID uuid.UUID
		userID  uuid.UUID
		subID   *uuid.UUID
		level   string
	)
	if err := row.Scan(&checkID, &userID, &subID, &check.Score, &level, &check.CreatedAt); err != nil {
		return nil, err
	}
	check.ID = id.CheckID(checkID)
	check.UserID = id.UserID(userID)
	check.Level = models.Level(level)
	if subID != nil {
		converted := id.SubscriptionID(*subID)
		check.SubscriptionID = &converted
	}
	return &check, nil
}
