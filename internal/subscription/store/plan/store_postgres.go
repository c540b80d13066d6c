package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"passcheck/internal/subscription/models"
	id "passcheck/pkg/domain"
	"passcheck/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists plans in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, plan *models.Plan) error {
	query := `
		INSERT INTO plans (id, name, price_cents, max_checks_per_day, is_active)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.Exec(ctx, query,
		uuid.UUID(plan.ID),
		plan.Name,
		plan.PriceCents,
		plan.MaxChecksPerDay,
		plan.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, planID id.PlanID) (*models.Plan, error) {
	query := `
		SELECT id, name, price_cents, max_checks_per_day, is_active
		FROM plans
		WHERE id = $1
	`
	plan, err := scanPlan(s.db.QueryRow(ctx, query, uuid.UUID(planID)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return plan, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Plan, error) {
	query := `
		SELECT id, name, price_cents, max_checks_per_day, is_active
		FROM plans
		ORDER BY name
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

func (s *PostgresStore) ExistsByName(ctx context.Context, name string, excludeID id.PlanID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM plans WHERE name = $1 AND id <> $2
		)
	`
	var exists bool
	if err := s.db.QueryRow(ctx, query, name, uuid.UUID(excludeID)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check plan name: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Update(ctx context.Context, plan *models.Plan) error {
	query := `
		UPDATE plans
		SET name = $2, price_cents = $3, max_checks_per_day = $4, is_active = $5
		WHERE id = $1
	`
	tag, err := s.db.Exec(ctx, query,
		uuid.UUID(plan.ID),
		plan.Name,
		plan.PriceCents,
		plan.MaxChecksPerDay,
		plan.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, planID id.PlanID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM plans WHERE id = $1`, uuid.UUID(planID))
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM plans`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count plans: %w", err)
	}
	return count, nil
}

func scanPlan(row pgx.Row) (*models.Plan, error) {
	var (
		plan   models.Plan
		planID uuid.UUID
	)
	err := row.Scan(&planID, &plan.Name, &plan.PriceCents, &plan.MaxChecksPerDay, &plan.Active)
	if err != nil {
		return nil, err
	}
	plan.ID = id.PlanID(planID)
	return &plan, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
