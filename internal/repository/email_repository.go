package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-portal/internal/domain"
)

// EmailRepository persists notification audit rows.
type EmailRepository interface {
	Create(ctx context.Context, record *domain.EmailRecord) error
	ListRecent(ctx context.Context, limit int) ([]domain.EmailRecord, error)
}

type emailRepository struct {
	pool *pgxpool.Pool
}

// NewEmailRepository instantiates repository.
func NewEmailRepository(pool *pgxpool.Pool) EmailRepository {
	return &emailRepository{pool: pool}
}

func (r *emailRepository) Create(ctx context.Context, record *domain.EmailRecord) error {
	const query = `
        INSERT INTO email_records (kind, recipient, subject, body, success, error_detail)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, sent_at`
	return r.pool.QueryRow(ctx, query,
		record.Kind,
		record.Recipient,
		record.Subject,
		record.Body,
		record.Success,
		record.ErrorDetail,
	).Scan(&record.ID, &record.SentAt)
}

func (r *emailRepository) ListRecent(ctx context.Context, limit int) ([]domain.EmailRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, kind, recipient, subject, body, success, error_detail, sent_at
        FROM email_records ORDER BY sent_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EmailRecord
	for rows.Next() {
		var record domain.EmailRecord
		if err := rows.Scan(
			&record.ID,
			&record.Kind,
			&record.Recipient,
			&record.Subject,
			&record.Body,
			&record.Success,
			&record.ErrorDetail,
			&record.SentAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
