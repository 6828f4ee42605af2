package domain

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to TicketStatus }{
		{TicketStatusOpen, TicketStatusInProgress},
		{TicketStatusInProgress, TicketStatusResolved},
		{TicketStatusInProgress, TicketStatusOpen},
		{TicketStatusResolved, TicketStatusClosed},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("CanTransition(%s, %s) = false, want true", tc.from, tc.to)
		}
	}

	statuses := []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed}
	allowedSet := map[[2]TicketStatus]bool{}
	for _, tc := range allowed {
		allowedSet[[2]TicketStatus{tc.from, tc.to}] = true
	}
	for _, from := range statuses {
		for _, to := range statuses {
			if allowedSet[[2]TicketStatus{from, to}] {
				continue
			}
			if CanTransition(from, to) {
				t.Errorf("CanTransition(%s, %s) = true, want false", from, to)
			}
		}
	}
}

func TestPriorityDisplayAndValidity(t *testing.T) {
	if TicketPriorityUnset.Display() != "UNSET" {
		t.Errorf("unset display = %q", TicketPriorityUnset.Display())
	}
	if TicketPriorityHigh.Display() != "HIGH" {
		t.Errorf("high display = %q", TicketPriorityHigh.Display())
	}
	if TicketPriorityUnset.Valid() {
		t.Error("unset priority must not be assignable")
	}
	for _, p := range []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical} {
		if !p.Valid() {
			t.Errorf("%s not valid", p)
		}
	}
	if TicketPriority("URGENT").Valid() {
		t.Error("arbitrary priority accepted")
	}
}

func TestDisplayNameFallback(t *testing.T) {
	if got := DisplayName(nil); got != "Unknown" {
		t.Errorf("DisplayName(nil) = %q", got)
	}
	if got := DisplayName(&AppUser{}); got != "Unknown" {
		t.Errorf("DisplayName(empty) = %q", got)
	}
	if got := DisplayName(&AppUser{Name: "Casey"}); got != "Casey" {
		t.Errorf("DisplayName = %q", got)
	}
}
