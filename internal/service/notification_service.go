package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/mailer"
	"github.com/spec-kit/support-portal/internal/observability"
	"github.com/spec-kit/support-portal/internal/render"
	"github.com/spec-kit/support-portal/internal/repository"
	apperrors "github.com/spec-kit/support-portal/pkg/util"
)

// NotificationService translates lifecycle events into rendered, logged
// email attempts. It is strictly best-effort: render and delivery failures
// are logged and persisted as failed email records, never surfaced to the
// operation that raised the event.
type NotificationService struct {
	users           repository.UserRepository
	emails          repository.EmailRepository
	templates       render.TemplateSource
	engine          *render.Engine
	sender          mailer.Sender
	logger          *zap.Logger
	metrics         *observability.Metrics
	deliveryTimeout time.Duration
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	UserRepo        repository.UserRepository
	EmailRepo       repository.EmailRepository
	Templates       render.TemplateSource
	Engine          *render.Engine
	Sender          mailer.Sender
	Logger          *zap.Logger
	Metrics         *observability.Metrics
	DeliveryTimeout time.Duration
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := deps.DeliveryTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &NotificationService{
		users:           deps.UserRepo,
		emails:          deps.EmailRepo,
		templates:       deps.Templates,
		engine:          deps.Engine,
		sender:          deps.Sender,
		logger:          logger,
		metrics:         deps.Metrics,
		deliveryTimeout: timeout,
	}
}

// RegisterHandlers subscribes to the lifecycle events.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	dispatcher.Subscribe(events.EventTicketPriorityChanged, n.handleTicketPriorityChanged)
	dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	dispatcher.Subscribe(events.EventPlanUpdated, n.handlePlanUpdated)
	dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
}

// RecentDeliveries exposes the email audit trail, newest first. Admin-only:
// records carry recipient addresses and full bodies.
func (n *NotificationService) RecentDeliveries(ctx context.Context, actor *domain.AppUser, limit int) ([]domain.EmailRecord, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin required")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	records, err := n.emails.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return records, nil
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := decodePayload[events.TicketCreatedPayload](event)
	if !ok {
		return nil
	}
	customer := n.lookupUser(ctx, payload.CustomerID)
	n.notify(ctx, domain.TemplateTicketCreated, customer,
		fmt.Sprintf("Support ticket created: %s", payload.Subject),
		map[string]any{
			"CustomerName": domain.DisplayName(customer),
			"TicketID":     payload.TicketID,
			"Subject":      payload.Subject,
			"Description":  payload.Description,
		})
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := decodePayload[events.TicketStatusChangedPayload](event)
	if !ok {
		return nil
	}
	n.notifyTicketUpdate(ctx, payload.CustomerID, payload.TicketID,
		"Status", string(payload.OldStatus), string(payload.NewStatus))
	return nil
}

func (n *NotificationService) handleTicketPriorityChanged(ctx context.Context, event events.Event) error {
	payload, ok := decodePayload[events.TicketPriorityChangedPayload](event)
	if !ok {
		return nil
	}
	n.notifyTicketUpdate(ctx, payload.CustomerID, payload.TicketID,
		"Priority", payload.OldPriority.Display(), payload.NewPriority.Display())
	return nil
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := decodePayload[events.TicketAssignedPayload](event)
	if !ok {
		return nil
	}
	change, assignee := "Support agent", payload.SupportAgentID
	if payload.TechnicianID != nil {
		change, assignee = "Technician", payload.TechnicianID
	}
	newValue := "unassigned"
	if assignee != nil {
		newValue = domain.DisplayName(n.lookupUser(ctx, *assignee))
	}
	n.notifyTicketUpdate(ctx, payload.CustomerID, payload.TicketID, change, "unassigned", newValue)
	return nil
}

func (n *NotificationService) handlePlanUpdated(ctx context.Context, event events.Event) error {
	payload, ok := decodePayload[events.PlanUpdatedPayload](event)
	if !ok {
		return nil
	}
	action, detail := planAction(payload)
	customer := n.lookupUser(ctx, payload.UserID)
	n.notify(ctx, domain.TemplateConfirmation, customer,
		fmt.Sprintf("Your %s subscription was %s", payload.PlanName, action),
		map[string]any{
			"CustomerName": domain.DisplayName(customer),
			"PlanName":     payload.PlanName,
			"Action":       action,
			"Detail":       detail,
		})
	return nil
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	payload, ok := decodePayload[events.UserRegisteredPayload](event)
	if !ok {
		return nil
	}
	user := &domain.AppUser{ID: payload.UserID, Name: payload.Name, Email: payload.Email}
	n.notify(ctx, domain.TemplateCustomerRegistration, user,
		"Welcome to the support portal",
		map[string]any{
			"CustomerName": domain.DisplayName(user),
			"Email":        payload.Email,
		})
	return nil
}

func (n *NotificationService) notifyTicketUpdate(ctx context.Context, customerID, ticketID, changeType, oldValue, newValue string) {
	customer := n.lookupUser(ctx, customerID)
	n.notify(ctx, domain.TemplateTicketUpdated, customer,
		fmt.Sprintf("Support ticket updated: %s", ticketID),
		map[string]any{
			"CustomerName": domain.DisplayName(customer),
			"TicketID":     ticketID,
			"ChangeType":   changeType,
			"OldValue":     oldValue,
			"NewValue":     newValue,
		})
}

// notify renders, attempts delivery and records the outcome. Every attempt
// leaves an email record, failed or not.
func (n *NotificationService) notify(ctx context.Context, kind domain.TemplateKind, recipient *domain.AppUser, subject string, data map[string]any) {
	record := &domain.EmailRecord{
		Kind:    kind,
		Subject: subject,
	}
	if recipient != nil {
		record.Recipient = recipient.Email
	}

	body, err := n.renderBody(ctx, kind, data)
	record.Body = body
	if err == nil && record.Recipient == "" {
		err = fmt.Errorf("no recipient address resolved")
	}
	if err == nil {
		sendCtx, cancel := context.WithTimeout(ctx, n.deliveryTimeout)
		err = n.sender.Send(sendCtx, mailer.Message{
			To:      record.Recipient,
			Subject: subject,
			Body:    body,
		})
		cancel()
	}

	record.Success = err == nil
	if err != nil {
		detail := err.Error()
		record.ErrorDetail = &detail
		n.logger.Warn("notification failed",
			zap.String("template_kind", string(kind)),
			zap.String("recipient", record.Recipient),
			zap.Error(err))
	}
	n.metrics.RecordNotification(string(kind), record.Success)

	if persistErr := n.emails.Create(ctx, record); persistErr != nil {
		n.logger.Error("failed to persist email record",
			zap.String("template_kind", string(kind)),
			zap.Error(persistErr))
	}
}

func (n *NotificationService) renderBody(ctx context.Context, kind domain.TemplateKind, data map[string]any) (string, error) {
	tmpl, err := n.templates.GetByKind(ctx, kind)
	if err != nil {
		return "", fmt.Errorf("load template %s: %w", kind, err)
	}
	return n.engine.Render(tmpl, data)
}

func (n *NotificationService) lookupUser(ctx context.Context, id string) *domain.AppUser {
	user, err := n.users.GetByID(ctx, id)
	if err != nil {
		n.logger.Warn("recipient lookup failed", zap.String("user_id", id), zap.Error(err))
		return nil
	}
	return user
}

// planAction derives the human-readable action and detail from the
// before/after subscription flags.
func planAction(p events.PlanUpdatedPayload) (action, detail string) {
	switch {
	case p.WasActive && p.NowSuspended:
		action = "suspended"
		if p.SuspensionReason != nil {
			detail = "Reason: " + *p.SuspensionReason
		} else {
			detail = "Suspended by support staff"
		}
	case p.WasActive && !p.NowActive:
		action = "cancelled"
		detail = "The subscription has ended"
	case !p.WasActive && p.NowActive && p.WasSuspended:
		action = "reactivated"
		detail = "Service has been restored"
	case !p.WasActive && p.NowActive:
		action = "activated"
		detail = "The subscription is now active"
	default:
		action = "updated"
		detail = "Subscription details changed"
	}
	return action, detail
}

// decodePayload tolerates payloads arriving either as concrete structs
// (in-process dispatch) or as raw JSON.
func decodePayload[T any](event events.Event) (T, bool) {
	var zero T
	switch v := event.Payload.(type) {
	case T:
		return v, true
	case []byte:
		if err := json.Unmarshal(v, &zero); err != nil {
			return zero, false
		}
		return zero, true
	default:
		return zero, false
	}
}
