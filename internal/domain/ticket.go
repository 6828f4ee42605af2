package domain

import "time"

// TicketStatus enumerates lifecycle states for support tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority enumerates urgency. The empty string is the unset sentinel:
// priority stays unset until a support agent has been assigned.
type TicketPriority string

const (
	TicketPriorityUnset    TicketPriority = ""
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// Display renders the priority for API/email output, making the unset
// sentinel explicit rather than an empty field.
func (p TicketPriority) Display() string {
	if p == TicketPriorityUnset {
		return "UNSET"
	}
	return string(p)
}

// Valid reports whether the priority is an assignable value. Unset is not
// assignable; it only exists as the initial state.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// SupportTicket is the aggregate for customer support requests. Customer and
// plan references are immutable after creation. Version backs optimistic
// concurrency on every update.
type SupportTicket struct {
	ID             string
	CustomerID     string
	PlanID         string
	SupportAgentID *string
	TechnicianID   *string
	Subject        string
	Description    string
	Status         TicketStatus
	Priority       TicketPriority
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ResolvedAt     *time.Time
	DeletedAt      *time.Time
	DeletedBy      *string
}

// Deleted reports whether the ticket has been soft-deleted.
func (t *SupportTicket) Deleted() bool {
	return t.DeletedAt != nil
}

// CanTransition reports whether the status move is allowed by the state
// machine: Open->InProgress->Resolved->Closed, with InProgress->Open the only
// backward edge. Closed is terminal.
func CanTransition(from, to TicketStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress},
	TicketStatusInProgress: {TicketStatusResolved, TicketStatusOpen},
	TicketStatusResolved:   {TicketStatusClosed},
	TicketStatusClosed:     {},
}
