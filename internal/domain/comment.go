package domain

import "time"

// TicketComment is an append-only note on a ticket thread. Removal is
// restricted to the author or an admin, and refused once the ticket is
// closed.
type TicketComment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}
