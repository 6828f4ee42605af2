package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/repository"
	apperrors "github.com/spec-kit/support-portal/pkg/util"
)

// AssignmentService enforces who may be attached to a ticket and when, and
// gates priority changes behind assignment.
type AssignmentService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// AssignSupportAgent attaches the requesting support agent to an unassigned
// ticket. Re-assigning by the same agent is an idempotent no-op; a ticket
// already held by another agent fails with ALREADY_ASSIGNED.
func (s *AssignmentService) AssignSupportAgent(ctx context.Context, agent *domain.AppUser, ticketID string) (*domain.SupportTicket, error) {
	if agent == nil || agent.Role != domain.RoleSupportAgent {
		return nil, apperrors.NewForbidden("support agent required")
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.SupportAgentID != nil {
		if *ticket.SupportAgentID == agent.ID {
			return ticket, nil
		}
		return nil, apperrors.NewAlreadyAssigned("ticket already has a support agent",
			map[string]any{"ticket_id": ticket.ID})
	}

	ticket.SupportAgentID = &agent.ID
	if err := s.persist(ctx, ticket); err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventTicketAssigned,
		ActorID: agent.ID,
		Payload: events.TicketAssignedPayload{
			TicketID:       ticket.ID,
			CustomerID:     ticket.CustomerID,
			SupportAgentID: ticket.SupportAgentID,
		},
	})
	return ticket, nil
}

// AssignTechnician attaches a technician to a ticket that already has a
// support agent. The workflow is agent-driven: only the assigned agent or an
// admin may pick the technician.
func (s *AssignmentService) AssignTechnician(ctx context.Context, actor *domain.AppUser, ticketID, technicianID string) (*domain.SupportTicket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.SupportAgentID == nil {
		return nil, apperrors.NewNotAssigned("ticket needs a support agent before a technician")
	}
	if actor.Role != domain.RoleAdmin &&
		(actor.Role != domain.RoleSupportAgent || *ticket.SupportAgentID != actor.ID) {
		return nil, apperrors.NewForbidden("only the assigned support agent may pick a technician")
	}

	technician, err := s.users.GetByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": technicianID})
		}
		return nil, apperrors.MapError(err)
	}
	if technician.Role != domain.RoleTechnician {
		return nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": technicianID})
	}

	ticket.TechnicianID = &technician.ID
	if err := s.persist(ctx, ticket); err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventTicketAssigned,
		ActorID: actor.ID,
		Payload: events.TicketAssignedPayload{
			TicketID:     ticket.ID,
			CustomerID:   ticket.CustomerID,
			TechnicianID: ticket.TechnicianID,
		},
	})
	return ticket, nil
}

// UpdatePriority sets the priority. Only the support agent already assigned
// to the ticket may do so; an unassigned ticket fails with NOT_ASSIGNED and
// keeps its priority.
func (s *AssignmentService) UpdatePriority(ctx context.Context, agent *domain.AppUser, ticketID string, priority domain.TicketPriority) (*domain.SupportTicket, error) {
	if agent == nil || agent.Role != domain.RoleSupportAgent {
		return nil, apperrors.NewForbidden("support agent required")
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": string(priority)})
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.SupportAgentID == nil || *ticket.SupportAgentID != agent.ID {
		return nil, apperrors.NewNotAssigned("priority requires the assigned support agent")
	}

	oldPriority := ticket.Priority
	ticket.Priority = priority
	if err := s.persist(ctx, ticket); err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventTicketPriorityChanged,
		ActorID: agent.ID,
		Payload: events.TicketPriorityChangedPayload{
			TicketID:    ticket.ID,
			CustomerID:  ticket.CustomerID,
			OldPriority: oldPriority,
			NewPriority: priority,
		},
	})
	return ticket, nil
}

// ListTechnicians returns technician accounts for assignment pickers.
// Customers have no business browsing staff.
func (s *AssignmentService) ListTechnicians(ctx context.Context, actor *domain.AppUser, limit, offset int) ([]domain.AppUser, error) {
	if actor == nil || actor.Role == domain.RoleCustomer {
		return nil, apperrors.NewForbidden("staff role required")
	}
	technicians, err := s.users.ListByRole(ctx, domain.RoleTechnician, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return technicians, nil
}

func (s *AssignmentService) loadTicket(ctx context.Context, ticketID string) (*domain.SupportTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *AssignmentService) persist(ctx context.Context, ticket *domain.SupportTicket) error {
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
