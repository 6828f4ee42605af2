package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-portal/internal/api/dto"
	"github.com/spec-kit/support-portal/internal/auth"
	"github.com/spec-kit/support-portal/internal/service"
	apperrors "github.com/spec-kit/support-portal/pkg/util"
)

// PlansHandler manages plan catalogue and subscription endpoints.
type PlansHandler struct {
	service *service.PlanService
}

// NewPlansHandler constructs handler.
func NewPlansHandler(planService *service.PlanService) *PlansHandler {
	return &PlansHandler{service: planService}
}

// ListPlans GET /plans.
func (h *PlansHandler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.service.ListPlans(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.ServicePlanResponse, 0, len(plans))
	for i := range plans {
		items = append(items, dto.NewServicePlanResponse(&plans[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Subscribe POST /subscriptions.
func (h *PlansHandler) Subscribe(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.PlanID == "" {
		return apperrors.NewValidationError("plan_id required", nil)
	}

	sub, err := h.service.Subscribe(c.Context(), principal.User, req.PlanID, req.Months)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewSubscriptionResponse(sub)})
}

// ListSubscriptions GET /subscriptions.
func (h *PlansHandler) ListSubscriptions(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	subs, err := h.service.ListForUser(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	items := make([]dto.SubscriptionResponse, 0, len(subs))
	for i := range subs {
		items = append(items, dto.NewSubscriptionResponse(&subs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Suspend POST /subscriptions/:id/suspend.
func (h *PlansHandler) Suspend(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.SuspendRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return apperrors.NewValidationError("reason required", nil)
	}

	sub, err := h.service.Suspend(c.Context(), principal.User, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSubscriptionResponse(sub)})
}

// Reactivate POST /subscriptions/:id/reactivate.
func (h *PlansHandler) Reactivate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	sub, err := h.service.Reactivate(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSubscriptionResponse(sub)})
}

// Cancel POST /subscriptions/:id/cancel.
func (h *PlansHandler) Cancel(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	sub, err := h.service.Cancel(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSubscriptionResponse(sub)})
}
