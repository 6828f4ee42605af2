package dto

import (
	"time"

	"github.com/spec-kit/support-portal/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	PlanSubscriptionID string `json:"plan_subscription_id"`
	Subject            string `json:"subject"`
	Description        string `json:"description"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// AssignTechnicianRequest payload.
type AssignTechnicianRequest struct {
	TechnicianID string `json:"technician_id"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// TicketSummary response.
type TicketSummary struct {
	ID             string              `json:"id"`
	CustomerID     string              `json:"customer_id"`
	PlanID         string              `json:"plan_id"`
	SupportAgentID *string             `json:"support_agent_id"`
	TechnicianID   *string             `json:"technician_id"`
	Subject        string              `json:"subject"`
	Status         domain.TicketStatus `json:"status"`
	Priority       string              `json:"priority"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID             string              `json:"id"`
	CustomerID     string              `json:"customer_id"`
	PlanID         string              `json:"plan_id"`
	SupportAgentID *string             `json:"support_agent_id"`
	TechnicianID   *string             `json:"technician_id"`
	Subject        string              `json:"subject"`
	Description    string              `json:"description"`
	Status         domain.TicketStatus `json:"status"`
	Priority       string              `json:"priority"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	ResolvedAt     *time.Time          `json:"resolved_at"`
	Comments       []CommentResponse   `json:"comments"`
}

// CommentResponse represents a ticket comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTicketSummary maps a ticket to its list representation.
func NewTicketSummary(ticket *domain.SupportTicket) TicketSummary {
	return TicketSummary{
		ID:             ticket.ID,
		CustomerID:     ticket.CustomerID,
		PlanID:         ticket.PlanID,
		SupportAgentID: ticket.SupportAgentID,
		TechnicianID:   ticket.TechnicianID,
		Subject:        ticket.Subject,
		Status:         ticket.Status,
		Priority:       ticket.Priority.Display(),
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
	}
}

// NewTicketDetail maps a ticket and its comment thread.
func NewTicketDetail(ticket *domain.SupportTicket, comments []domain.TicketComment) TicketDetailResponse {
	out := TicketDetailResponse{
		ID:             ticket.ID,
		CustomerID:     ticket.CustomerID,
		PlanID:         ticket.PlanID,
		SupportAgentID: ticket.SupportAgentID,
		TechnicianID:   ticket.TechnicianID,
		Subject:        ticket.Subject,
		Description:    ticket.Description,
		Status:         ticket.Status,
		Priority:       ticket.Priority.Display(),
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
		ResolvedAt:     ticket.ResolvedAt,
		Comments:       make([]CommentResponse, 0, len(comments)),
	}
	for _, comment := range comments {
		out.Comments = append(out.Comments, NewCommentResponse(&comment))
	}
	return out
}

// NewCommentResponse maps a comment.
func NewCommentResponse(comment *domain.TicketComment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		AuthorID:  comment.AuthorID,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}
}
