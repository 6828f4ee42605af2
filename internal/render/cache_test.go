package render

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-portal/internal/domain"
)

type countingSource struct {
	calls     int
	templates map[domain.TemplateKind]*domain.MessageTemplate
}

func (s *countingSource) GetByKind(_ context.Context, kind domain.TemplateKind) (*domain.MessageTemplate, error) {
	s.calls++
	tmpl, ok := s.templates[kind]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return tmpl, nil
}

func TestTemplateCacheHitsProcessMap(t *testing.T) {
	source := &countingSource{templates: map[domain.TemplateKind]*domain.MessageTemplate{
		domain.TemplateTicketCreated: {Kind: domain.TemplateTicketCreated, Format: "v1"},
	}}
	cache := NewTemplateCache(source, nil, time.Minute, nil)

	for i := 0; i < 3; i++ {
		tmpl, err := cache.GetByKind(context.Background(), domain.TemplateTicketCreated)
		if err != nil {
			t.Fatalf("GetByKind: %v", err)
		}
		if tmpl.Format != "v1" {
			t.Errorf("format = %q", tmpl.Format)
		}
	}
	if source.calls != 1 {
		t.Errorf("source hit %d times, want 1", source.calls)
	}
}

func TestTemplateCacheInvalidatePicksUpNewRevision(t *testing.T) {
	source := &countingSource{templates: map[domain.TemplateKind]*domain.MessageTemplate{
		domain.TemplateTicketCreated: {Kind: domain.TemplateTicketCreated, Format: "v1", Revision: 1},
	}}
	cache := NewTemplateCache(source, nil, time.Minute, nil)

	if _, err := cache.GetByKind(context.Background(), domain.TemplateTicketCreated); err != nil {
		t.Fatalf("warm: %v", err)
	}

	source.templates[domain.TemplateTicketCreated] = &domain.MessageTemplate{
		Kind: domain.TemplateTicketCreated, Format: "v2", Revision: 2,
	}
	cache.Invalidate(context.Background(), domain.TemplateTicketCreated)

	tmpl, err := cache.GetByKind(context.Background(), domain.TemplateTicketCreated)
	if err != nil {
		t.Fatalf("GetByKind: %v", err)
	}
	if tmpl.Format != "v2" || tmpl.Revision != 2 {
		t.Errorf("tmpl = %+v, want refreshed revision", tmpl)
	}
}

func TestTemplateCacheMissPropagates(t *testing.T) {
	cache := NewTemplateCache(&countingSource{templates: map[domain.TemplateKind]*domain.MessageTemplate{}}, nil, time.Minute, nil)
	if _, err := cache.GetByKind(context.Background(), domain.TemplateConfirmation); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
