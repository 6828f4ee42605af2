package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/observability"
	"github.com/spec-kit/support-portal/internal/render"
	apperrors "github.com/spec-kit/support-portal/pkg/util"
)

func newNotificationFixture(sender *fakeSender, users ...*domain.AppUser) (*NotificationService, *memEmailRepo, *memTemplates) {
	emails := &memEmailRepo{}
	templates := newMemTemplates()
	svc := NewNotificationService(NotificationDependencies{
		UserRepo:  newMemUserRepo(users...),
		EmailRepo: emails,
		Templates: templates,
		Engine:    render.NewEngine(),
		Sender:    sender,
		Logger:    zap.NewNop(),
		Metrics:   observability.NewMetrics(),
	})
	return svc, emails, templates
}

func TestTicketCreatedNotificationRendersAndRecords(t *testing.T) {
	cust := customer("cust-1")
	sender := &fakeSender{}
	svc, emails, templates := newNotificationFixture(sender, cust)
	templates.add(domain.TemplateTicketCreated,
		"Hello {{ CustomerName }}, ticket {{ TicketID }} about {{ Subject }} was filed.")

	err := svc.handleTicketCreated(context.Background(), events.Event{
		Type: events.EventTicketCreated,
		Payload: events.TicketCreatedPayload{
			TicketID:    "ticket-1",
			CustomerID:  cust.ID,
			Subject:     "Router down",
			Description: "No uplink",
		},
	})
	if err != nil {
		t.Fatalf("handler returned %v, handlers must not propagate errors", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != cust.Email {
		t.Errorf("to = %s, want %s", msg.To, cust.Email)
	}
	if !strings.Contains(msg.Body, "Casey Customer") || !strings.Contains(msg.Body, "ticket-1") {
		t.Errorf("body = %q, tokens not substituted", msg.Body)
	}

	if len(emails.records) != 1 || !emails.records[0].Success {
		t.Fatalf("records = %+v, want one successful record", emails.records)
	}
}

func TestDeliveryFailureRecordedNotPropagated(t *testing.T) {
	cust := customer("cust-1")
	sender := &fakeSender{failWith: errors.New("connection refused")}
	svc, emails, templates := newNotificationFixture(sender, cust)
	templates.add(domain.TemplateTicketCreated, "Ticket {{ TicketID }}")

	err := svc.handleTicketCreated(context.Background(), events.Event{
		Type: events.EventTicketCreated,
		Payload: events.TicketCreatedPayload{
			TicketID:   "ticket-1",
			CustomerID: cust.ID,
			Subject:    "s",
		},
	})
	if err != nil {
		t.Fatalf("handler returned %v, want nil", err)
	}

	if len(emails.records) != 1 {
		t.Fatalf("records = %d, want 1", len(emails.records))
	}
	rec := emails.records[0]
	if rec.Success {
		t.Error("record marked successful despite delivery failure")
	}
	if rec.ErrorDetail == nil || !strings.Contains(*rec.ErrorDetail, "connection refused") {
		t.Errorf("error detail = %v", rec.ErrorDetail)
	}
}

func TestMissingTemplateTokenFailsRender(t *testing.T) {
	cust := customer("cust-1")
	sender := &fakeSender{}
	svc, emails, templates := newNotificationFixture(sender, cust)
	templates.add(domain.TemplateTicketCreated, "Ticket {{ TicketID }} severity {{ Severity }}")

	err := svc.handleTicketCreated(context.Background(), events.Event{
		Type: events.EventTicketCreated,
		Payload: events.TicketCreatedPayload{
			TicketID:   "ticket-1",
			CustomerID: cust.ID,
		},
	})
	if err != nil {
		t.Fatalf("handler returned %v, want nil", err)
	}
	if len(sender.sent) != 0 {
		t.Error("message sent despite render failure")
	}
	if len(emails.records) != 1 || emails.records[0].Success {
		t.Fatalf("records = %+v, want one failed record", emails.records)
	}
}

func TestStatusChangeNotificationDescribesTransition(t *testing.T) {
	cust := customer("cust-1")
	sender := &fakeSender{}
	svc, _, templates := newNotificationFixture(sender, cust)
	templates.add(domain.TemplateTicketUpdated,
		"{{ ChangeType }} changed from {{ OldValue }} to {{ NewValue }} on {{ TicketID }} for {{ CustomerName }}")

	err := svc.handleTicketStatusChanged(context.Background(), events.Event{
		Type: events.EventTicketStatusChanged,
		Payload: events.TicketStatusChangedPayload{
			TicketID:   "ticket-1",
			CustomerID: cust.ID,
			OldStatus:  domain.TicketStatusOpen,
			NewStatus:  domain.TicketStatusInProgress,
		},
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	body := sender.sent[0].Body
	if !strings.Contains(body, "Status changed from OPEN to IN_PROGRESS") {
		t.Errorf("body = %q", body)
	}
}

func TestPlanSuspendedNotificationCarriesReason(t *testing.T) {
	cust := customer("cust-1")
	sender := &fakeSender{}
	svc, _, templates := newNotificationFixture(sender, cust)
	templates.add(domain.TemplateConfirmation,
		"{{ CustomerName }}: plan {{ PlanName }} {{ Action }}. {{ Detail }}")

	err := svc.handlePlanUpdated(context.Background(), events.Event{
		Type: events.EventPlanUpdated,
		Payload: events.PlanUpdatedPayload{
			PlanSubscriptionID: "sub-1",
			UserID:             cust.ID,
			PlanName:           "Fiber 100",
			WasActive:          true,
			NowSuspended:       true,
			SuspensionReason:   strPtr("payment overdue"),
		},
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	body := sender.sent[0].Body
	if !strings.Contains(body, "suspended") || !strings.Contains(body, "payment overdue") {
		t.Errorf("body = %q", body)
	}
}

func TestUserRegisteredNotificationUsesPayloadAddress(t *testing.T) {
	sender := &fakeSender{}
	svc, emails, templates := newNotificationFixture(sender)
	templates.add(domain.TemplateCustomerRegistration, "Welcome {{ CustomerName }} ({{ Email }})")

	err := svc.handleUserRegistered(context.Background(), events.Event{
		Type: events.EventUserRegistered,
		Payload: events.UserRegisteredPayload{
			UserID: "user-1",
			Name:   "New Person",
			Email:  "new@example.com",
		},
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "new@example.com" {
		t.Fatalf("sent = %+v", sender.sent)
	}
	if len(emails.records) != 1 || emails.records[0].Kind != domain.TemplateCustomerRegistration {
		t.Fatalf("records = %+v", emails.records)
	}
}

func TestDecodePayloadAcceptsJSONBytes(t *testing.T) {
	payload, ok := decodePayload[events.TicketCreatedPayload](events.Event{
		Payload: []byte(`{"ticket_id":"ticket-9","customer_id":"cust-9","subject":"s","description":"d"}`),
	})
	if !ok {
		t.Fatal("decodePayload rejected JSON bytes")
	}
	if payload.TicketID != "ticket-9" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestRecentDeliveriesReturnsAuditRowsForAdmins(t *testing.T) {
	svc, emails, _ := newNotificationFixture(&fakeSender{})
	for _, kind := range []domain.TemplateKind{domain.TemplateTicketCreated, domain.TemplateTicketUpdated} {
		_ = emails.Create(context.Background(), &domain.EmailRecord{
			Kind: kind, Recipient: "casey@example.com", Subject: "s", Success: true,
		})
	}

	got, err := svc.RecentDeliveries(context.Background(), admin("admin-1"), 50)
	if err != nil {
		t.Fatalf("RecentDeliveries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
}

func TestRecentDeliveriesRejectsNonAdmins(t *testing.T) {
	svc, _, _ := newNotificationFixture(&fakeSender{})
	for _, actor := range []*domain.AppUser{nil, customer("cust-1"), agent("agent-1")} {
		if _, err := svc.RecentDeliveries(context.Background(), actor, 50); !apperrors.IsCode(err, "FORBIDDEN") {
			t.Fatalf("actor %+v read the audit log: %v", actor, err)
		}
	}
}
