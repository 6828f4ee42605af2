package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-portal/internal/api/dto"
	"github.com/spec-kit/support-portal/internal/auth"
	"github.com/spec-kit/support-portal/internal/service"
	apperrors "github.com/spec-kit/support-portal/pkg/util"
)

// EmailsHandler exposes the notification delivery audit log.
type EmailsHandler struct {
	notifications *service.NotificationService
}

// NewEmailsHandler constructs handler.
func NewEmailsHandler(notificationService *service.NotificationService) *EmailsHandler {
	return &EmailsHandler{notifications: notificationService}
}

// ListRecent GET /admin/emails.
func (h *EmailsHandler) ListRecent(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	limit := parsePositiveQuery(c, "limit", 50)

	records, err := h.notifications.RecentDeliveries(c.Context(), principal.User, limit)
	if err != nil {
		return err
	}
	items := make([]dto.EmailRecordResponse, 0, len(records))
	for i := range records {
		items = append(items, dto.NewEmailRecordResponse(&records[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
