package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/events"
	apperrors "github.com/spec-kit/support-portal/pkg/util"
)

var planFixtureNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func newPlanFixture() (*PlanService, *memSubscriptionRepo, *captureDispatcher) {
	subs := newMemSubscriptionRepo()
	dispatcher := &captureDispatcher{}
	svc := NewPlanService(PlanDependencies{
		PlanRepo:         newMemPlanRepo(&domain.ServicePlan{ID: "plan-1", Name: "Fiber 100", PriceCents: 4900}),
		SubscriptionRepo: subs,
		Dispatcher:       dispatcher,
		Now:              func() time.Time { return planFixtureNow },
	})
	return svc, subs, dispatcher
}

func TestSubscribeCreatesActivePlanForMonths(t *testing.T) {
	svc, _, dispatcher := newPlanFixture()
	cust := customer("cust-1")

	sub, err := svc.Subscribe(context.Background(), cust, "plan-1", 3)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if !sub.Active || sub.Suspended {
		t.Errorf("flags = active:%v suspended:%v, want active", sub.Active, sub.Suspended)
	}
	if want := planFixtureNow.AddDate(0, 3, 0); !sub.EndDate.Equal(want) {
		t.Errorf("EndDate = %v, want %v", sub.EndDate, want)
	}

	published := dispatcher.published()
	if len(published) != 1 || published[0].Type != events.EventPlanUpdated {
		t.Fatalf("published = %+v, want one plan_updated event", published)
	}
}

func TestSubscribeUnknownPlanNotFound(t *testing.T) {
	svc, _, _ := newPlanFixture()
	_, err := svc.Subscribe(context.Background(), customer("cust-1"), "plan-404", 1)
	if !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestSuspendRequiresReasonAndActivePlan(t *testing.T) {
	svc, _, _ := newPlanFixture()
	cust := customer("cust-1")
	sub, err := svc.Subscribe(context.Background(), cust, "plan-1", 1)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if _, err := svc.Suspend(context.Background(), cust, sub.ID, "   "); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("err = %v, want VALIDATION_FAILED for blank reason", err)
	}

	suspended, err := svc.Suspend(context.Background(), cust, sub.ID, "payment overdue")
	if err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	if suspended.Active || !suspended.Suspended {
		t.Errorf("flags = active:%v suspended:%v, want suspended", suspended.Active, suspended.Suspended)
	}
	if suspended.SuspensionReason == nil || *suspended.SuspensionReason != "payment overdue" {
		t.Errorf("reason = %v", suspended.SuspensionReason)
	}

	// A suspended plan cannot be suspended again.
	if _, err := svc.Suspend(context.Background(), cust, sub.ID, "again"); !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("err = %v, want CONFLICT on double suspend", err)
	}
}

func TestReactivateClearsSuspensionAndExtendsLapsedEndDate(t *testing.T) {
	svc, subs, _ := newPlanFixture()
	cust := customer("cust-1")
	sub, _ := svc.Subscribe(context.Background(), cust, "plan-1", 1)
	if _, err := svc.Suspend(context.Background(), cust, sub.ID, "testing"); err != nil {
		t.Fatalf("Suspend: %v", err)
	}

	// Lapse the subscription before reactivating.
	stored, _ := subs.GetByID(context.Background(), sub.ID)
	stored.EndDate = planFixtureNow.AddDate(0, 0, -10)
	subs.put(stored)

	restored, err := svc.Reactivate(context.Background(), cust, sub.ID)
	if err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	if !restored.Active || restored.Suspended || restored.SuspensionReason != nil {
		t.Errorf("flags = %+v, want active with cleared suspension", restored)
	}
	if want := planFixtureNow.AddDate(0, 1, 0); !restored.EndDate.Equal(want) {
		t.Errorf("EndDate = %v, want pushed to %v", restored.EndDate, want)
	}
}

func TestReactivateRejectsAlreadyActivePlan(t *testing.T) {
	svc, _, _ := newPlanFixture()
	cust := customer("cust-1")
	sub, _ := svc.Subscribe(context.Background(), cust, "plan-1", 1)

	_, err := svc.Reactivate(context.Background(), cust, sub.ID)
	if !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
}

func TestCancelEndsActivePlanOnly(t *testing.T) {
	svc, _, _ := newPlanFixture()
	cust := customer("cust-1")
	sub, _ := svc.Subscribe(context.Background(), cust, "plan-1", 6)

	cancelled, err := svc.Cancel(context.Background(), cust, sub.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Active {
		t.Error("cancelled plan still active")
	}
	if !cancelled.EndDate.Equal(planFixtureNow) {
		t.Errorf("EndDate = %v, want now", cancelled.EndDate)
	}

	if _, err := svc.Cancel(context.Background(), cust, sub.ID); !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("err = %v, want CONFLICT on double cancel", err)
	}
}

func TestSubscriptionAccessOwnerOrAdmin(t *testing.T) {
	svc, _, _ := newPlanFixture()
	owner := customer("cust-1")
	sub, _ := svc.Subscribe(context.Background(), owner, "plan-1", 1)

	other := customer("cust-2")
	if _, err := svc.Suspend(context.Background(), other, sub.ID, "nope"); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("err = %v, want FORBIDDEN for other customer", err)
	}
	if _, err := svc.Suspend(context.Background(), admin("admin-1"), sub.ID, "maintenance"); err != nil {
		t.Fatalf("admin suspend: %v", err)
	}
}

func TestPlanUpdatedPayloadCarriesBeforeAfterFlags(t *testing.T) {
	svc, _, dispatcher := newPlanFixture()
	cust := customer("cust-1")
	sub, _ := svc.Subscribe(context.Background(), cust, "plan-1", 1)
	if _, err := svc.Suspend(context.Background(), cust, sub.ID, "billing hold"); err != nil {
		t.Fatalf("Suspend: %v", err)
	}

	published := dispatcher.published()
	last := published[len(published)-1]
	payload, ok := last.Payload.(events.PlanUpdatedPayload)
	if !ok {
		t.Fatalf("payload type %T", last.Payload)
	}
	if !payload.WasActive || payload.WasSuspended || payload.NowActive || !payload.NowSuspended {
		t.Errorf("payload flags = %+v", payload)
	}
	if payload.SuspensionReason == nil || *payload.SuspensionReason != "billing hold" {
		t.Errorf("reason = %v", payload.SuspensionReason)
	}
}
