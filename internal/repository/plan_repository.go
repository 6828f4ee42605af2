package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-portal/internal/domain"
)

// PlanRepository covers service plan offerings.
type PlanRepository interface {
	GetByID(ctx context.Context, id string) (*domain.ServicePlan, error)
	List(ctx context.Context) ([]domain.ServicePlan, error)
}

// SubscriptionRepository covers customer subscription instances. Update
// enforces optimistic concurrency like the ticket repository.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.UserServicePlan) error
	GetByID(ctx context.Context, id string) (*domain.UserServicePlan, error)
	ListByUser(ctx context.Context, userID string) ([]domain.UserServicePlan, error)
	Update(ctx context.Context, sub *domain.UserServicePlan) error
}

type planRepository struct {
	pool *pgxpool.Pool
}

// NewPlanRepository instantiates repository.
func NewPlanRepository(pool *pgxpool.Pool) PlanRepository {
	return &planRepository{pool: pool}
}

func (r *planRepository) GetByID(ctx context.Context, id string) (*domain.ServicePlan, error) {
	const query = `
        SELECT id, name, description, price_cents, created_at, updated_at
        FROM service_plans WHERE id=$1`
	var plan domain.ServicePlan
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&plan.ID,
		&plan.Name,
		&plan.Description,
		&plan.PriceCents,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) List(ctx context.Context) ([]domain.ServicePlan, error) {
	const query = `
        SELECT id, name, description, price_cents, created_at, updated_at
        FROM service_plans ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ServicePlan
	for rows.Next() {
		var plan domain.ServicePlan
		if err := rows.Scan(
			&plan.ID,
			&plan.Name,
			&plan.Description,
			&plan.PriceCents,
			&plan.CreatedAt,
			&plan.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, plan)
	}
	return result, rows.Err()
}

type subscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository instantiates repository.
func NewSubscriptionRepository(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepository{pool: pool}
}

const subscriptionColumns = `id, user_id, plan_id, active, suspended, suspension_reason,
               start_date, end_date, version, created_at, updated_at`

func (r *subscriptionRepository) Create(ctx context.Context, sub *domain.UserServicePlan) error {
	const query = `
        INSERT INTO user_service_plans (user_id, plan_id, active, suspended, start_date, end_date)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		sub.UserID,
		sub.PlanID,
		sub.Active,
		sub.Suspended,
		sub.StartDate,
		sub.EndDate,
	).Scan(&sub.ID, &sub.Version, &sub.CreatedAt, &sub.UpdatedAt)
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id string) (*domain.UserServicePlan, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM user_service_plans WHERE id=$1`
	var sub domain.UserServicePlan
	if err := scanSubscription(r.pool.QueryRow(ctx, query, id), &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByUser(ctx context.Context, userID string) ([]domain.UserServicePlan, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM user_service_plans WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.UserServicePlan
	for rows.Next() {
		var sub domain.UserServicePlan
		if err := scanSubscription(rows, &sub); err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *domain.UserServicePlan) error {
	const query = `
        UPDATE user_service_plans SET active=$1, suspended=$2, suspension_reason=$3,
            end_date=$4, version=version+1, updated_at=NOW()
        WHERE id=$5 AND version=$6
        RETURNING version, updated_at`
	err := r.pool.QueryRow(ctx, query,
		sub.Active,
		sub.Suspended,
		sub.SuspensionReason,
		sub.EndDate,
		sub.ID,
		sub.Version,
	).Scan(&sub.Version, &sub.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err2 := r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM user_service_plans WHERE id=$1)`, sub.ID).Scan(&exists); err2 != nil {
			return err2
		}
		if exists {
			return ErrVersionConflict
		}
		return pgx.ErrNoRows
	}
	return err
}

func scanSubscription(row pgx.Row, sub *domain.UserServicePlan) error {
	return row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.PlanID,
		&sub.Active,
		&sub.Suspended,
		&sub.SuspensionReason,
		&sub.StartDate,
		&sub.EndDate,
		&sub.Version,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
}
