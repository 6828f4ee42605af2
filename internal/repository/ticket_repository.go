package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-portal/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	CustomerID     *string
	SupportAgentID *string
	TechnicianID   *string
	Statuses       []domain.TicketStatus
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Limit          int
	Offset         int
}

// StatusCounts aggregates ticket totals for the monthly summary report.
type StatusCounts struct {
	Total      int
	Resolved   int
	InProgress int
	Closed     int
}

// Open derives the open count from total minus the others.
func (c StatusCounts) Open() int {
	return c.Total - c.Resolved - c.InProgress - c.Closed
}

// TicketRepository encapsulates ticket persistence. Update enforces
// optimistic concurrency: a stale Version yields ErrVersionConflict.
// Soft-deleted rows are excluded from every read.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.SupportTicket) error
	Update(ctx context.Context, ticket *domain.SupportTicket) error
	GetByID(ctx context.Context, id string) (*domain.SupportTicket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.SupportTicket, error)
	SoftDelete(ctx context.Context, id, deletedBy string) error
	CountByStatusInRange(ctx context.Context, from, to time.Time) (StatusCounts, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, customer_id, plan_id, support_agent_id, technician_id,
               subject, description, status, priority, version,
               created_at, updated_at, resolved_at, deleted_at, deleted_by`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.SupportTicket) error {
	const query = `
        INSERT INTO support_tickets (customer_id, plan_id, subject, description, status, priority)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.CustomerID,
		ticket.PlanID,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.SupportTicket) error {
	const query = `
        UPDATE support_tickets SET support_agent_id=$1, technician_id=$2, status=$3,
            priority=$4, resolved_at=$5, version=version+1, updated_at=NOW()
        WHERE id=$6 AND version=$7 AND deleted_at IS NULL
        RETURNING version, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.SupportAgentID,
		ticket.TechnicianID,
		ticket.Status,
		ticket.Priority,
		ticket.ResolvedAt,
		ticket.ID,
		ticket.Version,
	).Scan(&ticket.Version, &ticket.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.classifyMiss(ctx, ticket.ID)
	}
	return err
}

// classifyMiss decides whether a zero-row update was a missing ticket or a
// stale version.
func (r *ticketRepository) classifyMiss(ctx context.Context, id string) error {
	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM support_tickets WHERE id=$1 AND deleted_at IS NULL)`
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrVersionConflict
	}
	return pgx.ErrNoRows
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.SupportTicket, error) {
	query := fmt.Sprintf(`SELECT %s FROM support_tickets WHERE id=$1 AND deleted_at IS NULL`, ticketColumns)
	var ticket domain.SupportTicket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.SupportTicket, error) {
	clauses := []string{"deleted_at IS NULL"}
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.SupportAgentID != nil {
		args = append(args, *filter.SupportAgentID)
		clauses = append(clauses, fmt.Sprintf("support_agent_id=$%d", len(args)))
	}
	if filter.TechnicianID != nil {
		args = append(args, *filter.TechnicianID)
		clauses = append(clauses, fmt.Sprintf("technician_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM support_tickets WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SupportTicket
	for rows.Next() {
		var ticket domain.SupportTicket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) SoftDelete(ctx context.Context, id, deletedBy string) error {
	const query = `
        UPDATE support_tickets SET deleted_at=NOW(), deleted_by=$1, updated_at=NOW()
        WHERE id=$2 AND deleted_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, deletedBy, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) CountByStatusInRange(ctx context.Context, from, to time.Time) (StatusCounts, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='RESOLVED'),
               COUNT(*) FILTER (WHERE status='IN_PROGRESS'),
               COUNT(*) FILTER (WHERE status='CLOSED')
        FROM support_tickets
        WHERE deleted_at IS NULL AND created_at >= $1 AND created_at <= $2`
	var counts StatusCounts
	err := r.pool.QueryRow(ctx, query, from, to).Scan(
		&counts.Total,
		&counts.Resolved,
		&counts.InProgress,
		&counts.Closed,
	)
	return counts, err
}

func scanTicket(row pgx.Row, ticket *domain.SupportTicket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.CustomerID,
		&ticket.PlanID,
		&ticket.SupportAgentID,
		&ticket.TechnicianID,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
		&ticket.DeletedAt,
		&ticket.DeletedBy,
	)
}
