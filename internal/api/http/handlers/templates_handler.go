package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-portal/internal/api/dto"
	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/render"
	"github.com/spec-kit/support-portal/internal/repository"
	apperrors "github.com/spec-kit/support-portal/pkg/util"
)

// TemplatesHandler exposes admin template management.
type TemplatesHandler struct {
	templates repository.TemplateRepository
	cache     *render.TemplateCache
}

// NewTemplatesHandler constructs handler.
func NewTemplatesHandler(templates repository.TemplateRepository, cache *render.TemplateCache) *TemplatesHandler {
	return &TemplatesHandler{templates: templates, cache: cache}
}

// GetTemplate GET /admin/templates/:kind.
func (h *TemplatesHandler) GetTemplate(c *fiber.Ctx) error {
	kind := domain.TemplateKind(strings.ToUpper(c.Params("kind")))
	if !kind.Valid() {
		return apperrors.NewValidationError("unknown template kind", map[string]any{"kind": string(kind)})
	}
	tmpl, err := h.templates.GetByKind(c.Context(), kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("message template", map[string]any{"kind": string(kind)})
		}
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": templateResponse(tmpl)})
}

// UpdateTemplate PUT /admin/templates/:kind.
func (h *TemplatesHandler) UpdateTemplate(c *fiber.Ctx) error {
	kind := domain.TemplateKind(strings.ToUpper(c.Params("kind")))
	if !kind.Valid() {
		return apperrors.NewValidationError("unknown template kind", map[string]any{"kind": string(kind)})
	}
	var req dto.UpdateTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Format) == "" {
		return apperrors.NewValidationError("name, format required", nil)
	}

	tmpl, err := h.templates.UpdateFormat(c.Context(), kind, req.Name, req.Format)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("message template", map[string]any{"kind": string(kind)})
		}
		return apperrors.MapError(err)
	}
	h.cache.Invalidate(c.Context(), kind)
	return c.JSON(fiber.Map{"data": templateResponse(tmpl)})
}

func templateResponse(tmpl *domain.MessageTemplate) fiber.Map {
	return fiber.Map{
		"id":         tmpl.ID,
		"kind":       tmpl.Kind,
		"name":       tmpl.Name,
		"format":     tmpl.Format,
		"revision":   tmpl.Revision,
		"updated_at": tmpl.UpdatedAt,
	}
}
