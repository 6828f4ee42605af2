package domain

import "time"

// ReportKind identifies one of the on-demand report variants.
type ReportKind string

const (
	ReportKindTechnician   ReportKind = "TECHNICIAN"
	ReportKindSupportAgent ReportKind = "SUPPORT_AGENT"
	ReportKindMonthly      ReportKind = "MONTHLY_SUMMARY"
)

// ReportRecord is the audit row for a generated report. Each generation
// inserts a new row; there is no idempotency key.
type ReportRecord struct {
	ID           string
	Kind         ReportKind
	TemplateKind TemplateKind
	RequestedBy  *string
	TicketID     *string
	Body         string
	Success      bool
	ErrorDetail  *string
	GeneratedAt  time.Time
}
