package domain

import "time"

// ServicePlan is a subscribable offering that tickets are filed against.
type ServicePlan struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserServicePlan is a customer's subscription instance to a ServicePlan.
// Version backs optimistic concurrency, same as tickets.
type UserServicePlan struct {
	ID               string
	UserID           string
	PlanID           string
	Active           bool
	Suspended        bool
	SuspensionReason *string
	StartDate        time.Time
	EndDate          time.Time
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Ended reports whether the subscription period has lapsed.
func (p *UserServicePlan) Ended(now time.Time) bool {
	return p.EndDate.Before(now)
}
