package domain

import "time"

// TemplateKind identifies the semantic purpose of a message template.
type TemplateKind string

// Email template kinds.
const (
	TemplateTicketCreated        TemplateKind = "TICKET_CREATED"
	TemplateTicketUpdated        TemplateKind = "TICKET_UPDATED"
	TemplateCustomerRegistration TemplateKind = "CUSTOMER_REGISTRATION"
	TemplateConfirmation         TemplateKind = "CONFIRMATION"
)

// Report template kinds.
const (
	TemplateTechnicianReport             TemplateKind = "TECHNICIAN_REPORT"
	TemplateSupportAgentTicketReport     TemplateKind = "SUPPORT_AGENT_TICKET_REPORT"
	TemplateSupportAgentTechnicianReport TemplateKind = "SUPPORT_AGENT_WITH_TECHNICIAN_REPORT"
	TemplateMonthlySummaryReport         TemplateKind = "MONTHLY_SUMMARY_REPORT"
)

// Valid reports whether the kind is one of the known template kinds.
func (k TemplateKind) Valid() bool {
	switch k {
	case TemplateTicketCreated, TemplateTicketUpdated, TemplateCustomerRegistration, TemplateConfirmation,
		TemplateTechnicianReport, TemplateSupportAgentTicketReport, TemplateSupportAgentTechnicianReport, TemplateMonthlySummaryReport:
		return true
	}
	return false
}

// MessageTemplate maps a kind to a named, versioned format string with
// {{ token }} placeholders. Seeded once, read-mostly afterwards.
type MessageTemplate struct {
	ID        string
	Kind      TemplateKind
	Name      string
	Format    string
	Revision  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
