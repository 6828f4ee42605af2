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

// PlanService manages customer subscriptions to service plans: only an
// active plan may be suspended or cancelled, only a suspended or lapsed one
// reactivated, and suspension always carries a reason.
type PlanService struct {
	plans         repository.PlanRepository
	subscriptions repository.SubscriptionRepository
	dispatcher    events.Dispatcher
	now           func() time.Time
}

// PlanDependencies bundles repositories.
type PlanDependencies struct {
	PlanRepo         repository.PlanRepository
	SubscriptionRepo repository.SubscriptionRepository
	Dispatcher       events.Dispatcher
	Now              func() time.Time
}

// NewPlanService creates the service.
func NewPlanService(deps PlanDependencies) *PlanService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &PlanService{
		plans:         deps.PlanRepo,
		subscriptions: deps.SubscriptionRepo,
		dispatcher:    deps.Dispatcher,
		now:           now,
	}
}

// Subscribe creates an active subscription for the customer running for the
// given number of months (minimum one).
func (s *PlanService) Subscribe(ctx context.Context, customer *domain.AppUser, planID string, months int) (*domain.UserServicePlan, error) {
	if customer == nil || customer.Role != domain.RoleCustomer {
		return nil, apperrors.NewForbidden("customer required")
	}
	if months <= 0 {
		months = 1
	}
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("service plan", map[string]any{"plan_id": planID})
		}
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	sub := &domain.UserServicePlan{
		UserID:    customer.ID,
		PlanID:    plan.ID,
		Active:    true,
		StartDate: now,
		EndDate:   now.AddDate(0, months, 0),
	}
	if err := s.subscriptions.Create(ctx, sub); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishPlanUpdate(ctx, customer.ID, plan.Name, sub, false, false)
	return sub, nil
}

// Suspend deactivates an active subscription with a mandatory reason.
func (s *PlanService) Suspend(ctx context.Context, actor *domain.AppUser, subscriptionID, reason string) (*domain.UserServicePlan, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("suspension reason required", nil)
	}
	sub, plan, err := s.loadSubscription(ctx, actor, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !sub.Active || sub.Suspended {
		return nil, apperrors.NewConflict("only an active plan may be suspended",
			map[string]any{"plan_id": sub.ID})
	}

	wasActive, wasSuspended := sub.Active, sub.Suspended
	sub.Active = false
	sub.Suspended = true
	sub.SuspensionReason = &reason
	if err := s.persist(ctx, sub); err != nil {
		return nil, err
	}

	s.publishPlanUpdate(ctx, actorID(actor), plan.Name, sub, wasActive, wasSuspended)
	return sub, nil
}

// Reactivate restores a suspended or lapsed subscription. When the end date
// has already passed it is pushed out to at least one month from now.
func (s *PlanService) Reactivate(ctx context.Context, actor *domain.AppUser, subscriptionID string) (*domain.UserServicePlan, error) {
	sub, plan, err := s.loadSubscription(ctx, actor, subscriptionID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if sub.Active && !sub.Ended(now) {
		return nil, apperrors.NewConflict("plan is already active", map[string]any{"plan_id": sub.ID})
	}

	wasActive, wasSuspended := sub.Active, sub.Suspended
	sub.Active = true
	sub.Suspended = false
	sub.SuspensionReason = nil
	if sub.Ended(now) {
		sub.EndDate = now.AddDate(0, 1, 0)
	}
	if err := s.persist(ctx, sub); err != nil {
		return nil, err
	}

	s.publishPlanUpdate(ctx, actorID(actor), plan.Name, sub, wasActive, wasSuspended)
	return sub, nil
}

// Cancel permanently deactivates an active subscription.
func (s *PlanService) Cancel(ctx context.Context, actor *domain.AppUser, subscriptionID string) (*domain.UserServicePlan, error) {
	sub, plan, err := s.loadSubscription(ctx, actor, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !sub.Active {
		return nil, apperrors.NewConflict("only an active plan may be cancelled",
			map[string]any{"plan_id": sub.ID})
	}

	wasActive, wasSuspended := sub.Active, sub.Suspended
	sub.Active = false
	sub.Suspended = false
	sub.SuspensionReason = nil
	sub.EndDate = s.now()
	if err := s.persist(ctx, sub); err != nil {
		return nil, err
	}

	s.publishPlanUpdate(ctx, actorID(actor), plan.Name, sub, wasActive, wasSuspended)
	return sub, nil
}

// ListPlans returns the plan catalogue.
func (s *PlanService) ListPlans(ctx context.Context) ([]domain.ServicePlan, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return plans, nil
}

// ListForUser returns a customer's subscriptions.
func (s *PlanService) ListForUser(ctx context.Context, userID string) ([]domain.UserServicePlan, error) {
	subs, err := s.subscriptions.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return subs, nil
}

func (s *PlanService) loadSubscription(ctx context.Context, actor *domain.AppUser, id string) (*domain.UserServicePlan, *domain.ServicePlan, error) {
	if actor == nil {
		return nil, nil, apperrors.NewUnauthorized("authentication required")
	}
	sub, err := s.subscriptions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("service plan subscription", map[string]any{"plan_id": id})
		}
		return nil, nil, apperrors.MapError(err)
	}
	if actor.Role != domain.RoleAdmin && sub.UserID != actor.ID {
		return nil, nil, apperrors.NewForbidden("access denied")
	}
	plan, err := s.plans.GetByID(ctx, sub.PlanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("service plan", map[string]any{"plan_id": sub.PlanID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	return sub, plan, nil
}

func (s *PlanService) persist(ctx context.Context, sub *domain.UserServicePlan) error {
	err := s.subscriptions.Update(ctx, sub)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.NewConcurrencyConflict("subscription", map[string]any{"plan_id": sub.ID})
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("service plan subscription", map[string]any{"plan_id": sub.ID})
	default:
		return apperrors.MapError(err)
	}
}

func (s *PlanService) publishPlanUpdate(ctx context.Context, actorID, planName string, sub *domain.UserServicePlan, wasActive, wasSuspended bool) {
	publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventPlanUpdated,
		ActorID: actorID,
		Payload: events.PlanUpdatedPayload{
			PlanSubscriptionID: sub.ID,
			UserID:             sub.UserID,
			PlanName:           planName,
			WasActive:          wasActive,
			WasSuspended:       wasSuspended,
			NowActive:          sub.Active,
			NowSuspended:       sub.Suspended,
			SuspensionReason:   sub.SuspensionReason,
		},
	})
}

func actorID(actor *domain.AppUser) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}
