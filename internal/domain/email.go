package domain

import "time"

// EmailRecord is the audit row for a rendered and attempted notification.
// Written whether or not delivery succeeded; used for traceability, never
// for replay.
type EmailRecord struct {
	ID          string
	Kind        TemplateKind
	Recipient   string
	Subject     string
	Body        string
	Success     bool
	ErrorDetail *string
	SentAt      time.Time
}
