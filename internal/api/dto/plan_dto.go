package dto

import (
	"time"

	"github.com/spec-kit/support-portal/internal/domain"
)

// SubscribeRequest payload.
type SubscribeRequest struct {
	PlanID string `json:"plan_id"`
	Months int    `json:"months"`
}

// SuspendRequest payload.
type SuspendRequest struct {
	Reason string `json:"reason"`
}

// ServicePlanResponse describes an available plan.
type ServicePlanResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
}

// SubscriptionResponse describes a user's plan subscription.
type SubscriptionResponse struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	PlanID           string    `json:"plan_id"`
	Active           bool      `json:"active"`
	Suspended        bool      `json:"suspended"`
	SuspensionReason *string   `json:"suspension_reason"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
}

// NewServicePlanResponse maps a plan.
func NewServicePlanResponse(plan *domain.ServicePlan) ServicePlanResponse {
	return ServicePlanResponse{
		ID:          plan.ID,
		Name:        plan.Name,
		Description: plan.Description,
		PriceCents:  plan.PriceCents,
	}
}

// NewSubscriptionResponse maps a subscription.
func NewSubscriptionResponse(sub *domain.UserServicePlan) SubscriptionResponse {
	return SubscriptionResponse{
		ID:               sub.ID,
		UserID:           sub.UserID,
		PlanID:           sub.PlanID,
		Active:           sub.Active,
		Suspended:        sub.Suspended,
		SuspensionReason: sub.SuspensionReason,
		StartDate:        sub.StartDate,
		EndDate:          sub.EndDate,
	}
}
