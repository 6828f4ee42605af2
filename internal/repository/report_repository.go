package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-portal/internal/domain"
)

// ReportRepository persists report audit rows. Every generation inserts a new
// row; regeneration is log-style accumulation.
type ReportRepository interface {
	Create(ctx context.Context, record *domain.ReportRecord) error
}

type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository instantiates repository.
func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool}
}

func (r *reportRepository) Create(ctx context.Context, record *domain.ReportRecord) error {
	const query = `
        INSERT INTO report_records (kind, template_kind, requested_by, ticket_id, body, success, error_detail)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, generated_at`
	return r.pool.QueryRow(ctx, query,
		record.Kind,
		record.TemplateKind,
		record.RequestedBy,
		record.TicketID,
		record.Body,
		record.Success,
		record.ErrorDetail,
	).Scan(&record.ID, &record.GeneratedAt)
}
