package events

import (
	"time"

	"github.com/spec-kit/support-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventPlanUpdated           EventType = "plan_updated"
	EventUserRegistered        EventType = "user_registered"
)

// Event represents a domain event emitted after a successful commit.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID    string `json:"ticket_id"`
	CustomerID  string `json:"customer_id"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	TicketID   string              `json:"ticket_id"`
	CustomerID string              `json:"customer_id"`
	OldStatus  domain.TicketStatus `json:"old_status"`
	NewStatus  domain.TicketStatus `json:"new_status"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	TicketID    string                `json:"ticket_id"`
	CustomerID  string                `json:"customer_id"`
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
}

// TicketAssignedPayload payload. Either the agent or the technician field is
// set depending on which assignment changed.
type TicketAssignedPayload struct {
	TicketID       string  `json:"ticket_id"`
	CustomerID     string  `json:"customer_id"`
	SupportAgentID *string `json:"support_agent_id,omitempty"`
	TechnicianID   *string `json:"technician_id,omitempty"`
}

// PlanUpdatedPayload carries before/after subscription flags; the notifier
// derives the human-readable action from them.
type PlanUpdatedPayload struct {
	PlanSubscriptionID string  `json:"plan_subscription_id"`
	UserID             string  `json:"user_id"`
	PlanName           string  `json:"plan_name"`
	WasActive          bool    `json:"was_active"`
	WasSuspended       bool    `json:"was_suspended"`
	NowActive          bool    `json:"now_active"`
	NowSuspended       bool    `json:"now_suspended"`
	SuspensionReason   *string `json:"suspension_reason,omitempty"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}
