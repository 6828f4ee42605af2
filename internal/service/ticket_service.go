package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/repository"
	apperrors "github.com/spec-kit/support-portal/pkg/util"
)

// TicketService owns the ticket lifecycle: creation, the status state
// machine, comments and soft deletion. Every successful mutation publishes a
// lifecycle event after the persistence commit.
type TicketService struct {
	tickets       repository.TicketRepository
	comments      repository.CommentRepository
	subscriptions repository.SubscriptionRepository
	dispatcher    events.Dispatcher
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo       repository.TicketRepository
	CommentRepo      repository.CommentRepository
	SubscriptionRepo repository.SubscriptionRepository
	Dispatcher       events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	PlanSubscriptionID string
	Subject            string
	Description        string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:       deps.TicketRepo,
		comments:      deps.CommentRepo,
		subscriptions: deps.SubscriptionRepo,
		dispatcher:    deps.Dispatcher,
	}
}

// CreateTicket files a ticket for a customer against one of their
// subscriptions. Status is forced to Open and priority stays unset until a
// support agent is assigned.
func (s *TicketService) CreateTicket(ctx context.Context, customer *domain.AppUser, input TicketCreateInput) (*domain.SupportTicket, error) {
	if customer == nil || customer.Role != domain.RoleCustomer {
		return nil, apperrors.NewForbidden("customer required")
	}
	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)
	if subject == "" || description == "" {
		return nil, apperrors.NewValidationError("subject and description required", nil)
	}

	sub, err := s.subscriptions.GetByID(ctx, input.PlanSubscriptionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("service plan subscription", map[string]any{"plan_id": input.PlanSubscriptionID})
		}
		return nil, apperrors.MapError(err)
	}
	if sub.UserID != customer.ID {
		return nil, apperrors.NewForbidden("subscription belongs to another customer")
	}
	if !sub.Active {
		return nil, apperrors.NewValidationError("subscription is not active", map[string]any{"plan_id": sub.ID})
	}

	ticket := &domain.SupportTicket{
		CustomerID:  customer.ID,
		PlanID:      sub.ID,
		Subject:     subject,
		Description: description,
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityUnset,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventTicketCreated,
		ActorID: customer.ID,
		Payload: events.TicketCreatedPayload{
			TicketID:    ticket.ID,
			CustomerID:  ticket.CustomerID,
			Subject:     ticket.Subject,
			Description: ticket.Description,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket the actor is allowed to see.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.AppUser, ticketID string) (*domain.SupportTicket, []domain.TicketComment, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if !canViewTicket(actor, ticket) {
		return nil, nil, apperrors.NewForbidden("access denied")
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, comments, nil
}

// ListTickets returns tickets scoped to the actor's role: customers see their
// own, agents and technicians see their assignments, admins see everything.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.AppUser, limit, offset int) ([]domain.SupportTicket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	filter := repository.TicketFilter{Limit: limit, Offset: offset}
	switch actor.Role {
	case domain.RoleCustomer:
		filter.CustomerID = &actor.ID
	case domain.RoleSupportAgent:
		filter.SupportAgentID = &actor.ID
	case domain.RoleTechnician:
		filter.TechnicianID = &actor.ID
	case domain.RoleAdmin:
	default:
		return nil, apperrors.NewForbidden("unknown role")
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// UpdateStatus moves a ticket through the state machine. Only an assigned
// support agent or technician (or an admin) may change status. Entering
// Resolved or Closed for the first time stamps the resolved timestamp; later
// moves between them leave it untouched.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.AppUser, ticketID string, newStatus domain.TicketStatus) (*domain.SupportTicket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !canMutateTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("only assigned staff may change status")
	}
	if !domain.CanTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(newStatus))
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	if ticket.ResolvedAt == nil &&
		(newStatus == domain.TicketStatusResolved || newStatus == domain.TicketStatusClosed) {
		now := time.Now()
		ticket.ResolvedAt = &now
	}
	if err := s.persistTicket(ctx, ticket); err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventTicketStatusChanged,
		ActorID: actor.ID,
		Payload: events.TicketStatusChangedPayload{
			TicketID:   ticket.ID,
			CustomerID: ticket.CustomerID,
			OldStatus:  oldStatus,
			NewStatus:  newStatus,
		},
	})
	return ticket, nil
}

// AddComment appends a comment to the ticket thread. Comments stay possible
// on closed tickets for record-keeping.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.AppUser, ticketID, body string) (*domain.TicketComment, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body required", nil)
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !canViewTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}

	comment := &domain.TicketComment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Body:     body,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return comment, nil
}

// RemoveComment deletes a comment. Only the author or an admin may remove
// one, and never once the ticket is closed.
func (s *TicketService) RemoveComment(ctx context.Context, actor *domain.AppUser, commentID string) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("comment", map[string]any{"comment_id": commentID})
		}
		return apperrors.MapError(err)
	}
	ticket, err := s.loadTicket(ctx, comment.TicketID)
	if err != nil {
		return err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return apperrors.NewConflict("comments on closed tickets are read-only", nil)
	}
	if comment.AuthorID != actor.ID && actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("only the author or an admin may remove a comment")
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// SoftDelete marks a ticket deleted while retaining it for audit.
func (s *TicketService) SoftDelete(ctx context.Context, actor *domain.AppUser, ticketID string) error {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin required")
	}
	if err := s.tickets.SoftDelete(ctx, ticketID, actor.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.SupportTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) persistTicket(ctx context.Context, ticket *domain.SupportTicket) error {
	err := s.tickets.Update(ctx, ticket)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.NewConcurrencyConflict("ticket", map[string]any{"ticket_id": ticket.ID})
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
	default:
		return apperrors.MapError(err)
	}
}

func canViewTicket(actor *domain.AppUser, ticket *domain.SupportTicket) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleCustomer:
		return ticket.CustomerID == actor.ID
	case domain.RoleSupportAgent:
		return true
	case domain.RoleTechnician:
		return ticket.TechnicianID != nil && *ticket.TechnicianID == actor.ID
	}
	return false
}

func canMutateTicket(actor *domain.AppUser, ticket *domain.SupportTicket) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleSupportAgent:
		return ticket.SupportAgentID != nil && *ticket.SupportAgentID == actor.ID
	case domain.RoleTechnician:
		return ticket.TechnicianID != nil && *ticket.TechnicianID == actor.ID
	}
	return false
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}
