package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-portal/internal/domain"
)

// TemplateRepository encapsulates message template persistence. Templates are
// seeded by migration and updated only through the admin surface.
type TemplateRepository interface {
	GetByKind(ctx context.Context, kind domain.TemplateKind) (*domain.MessageTemplate, error)
	UpdateFormat(ctx context.Context, kind domain.TemplateKind, name, format string) (*domain.MessageTemplate, error)
}

type templateRepository struct {
	pool *pgxpool.Pool
}

// NewTemplateRepository instantiates repository.
func NewTemplateRepository(pool *pgxpool.Pool) TemplateRepository {
	return &templateRepository{pool: pool}
}

func (r *templateRepository) GetByKind(ctx context.Context, kind domain.TemplateKind) (*domain.MessageTemplate, error) {
	const query = `
        SELECT id, kind, name, format, revision, created_at, updated_at
        FROM message_templates WHERE kind=$1`
	var tmpl domain.MessageTemplate
	if err := r.pool.QueryRow(ctx, query, kind).Scan(
		&tmpl.ID,
		&tmpl.Kind,
		&tmpl.Name,
		&tmpl.Format,
		&tmpl.Revision,
		&tmpl.CreatedAt,
		&tmpl.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (r *templateRepository) UpdateFormat(ctx context.Context, kind domain.TemplateKind, name, format string) (*domain.MessageTemplate, error) {
	const query = `
        UPDATE message_templates SET name=$1, format=$2, revision=revision+1, updated_at=NOW()
        WHERE kind=$3
        RETURNING id, kind, name, format, revision, created_at, updated_at`
	var tmpl domain.MessageTemplate
	err := r.pool.QueryRow(ctx, query, name, format, kind).Scan(
		&tmpl.ID,
		&tmpl.Kind,
		&tmpl.Name,
		&tmpl.Format,
		&tmpl.Revision,
		&tmpl.CreatedAt,
		&tmpl.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, pgx.ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}
