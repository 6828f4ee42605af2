package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-portal/internal/api/dto"
	"github.com/spec-kit/support-portal/internal/auth"
	"github.com/spec-kit/support-portal/internal/service"
	apperrors "github.com/spec-kit/support-portal/pkg/util"
)

const reportDateLayout = "2006-01-02"

// ReportsHandler exposes on-demand report generation.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// SupportAgentReport POST /staff/tickets/:id/reports/agent.
func (h *ReportsHandler) SupportAgentReport(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	out, err := h.service.GenerateSupportAgentReport(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return sendArtifact(c, out)
}

// TechnicianReport POST /staff/tickets/:id/reports/technician.
func (h *ReportsHandler) TechnicianReport(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	out, err := h.service.GenerateTechnicianReport(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return sendArtifact(c, out)
}

// MonthlySummary POST /admin/reports/monthly.
func (h *ReportsHandler) MonthlySummary(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.MonthlySummaryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	from, err := time.Parse(reportDateLayout, req.From)
	if err != nil {
		return apperrors.NewValidationError("from must be YYYY-MM-DD", nil)
	}
	to, err := time.Parse(reportDateLayout, req.To)
	if err != nil {
		return apperrors.NewValidationError("to must be YYYY-MM-DD", nil)
	}

	out, err := h.service.GenerateMonthlySummary(c.Context(), principal.User, from, to)
	if err != nil {
		return err
	}
	return sendArtifact(c, out)
}

func sendArtifact(c *fiber.Ctx, out *service.ReportOutput) error {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", out.Filename))
	return c.Send(out.Artifact)
}
