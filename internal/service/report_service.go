package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/observability"
	"github.com/spec-kit/support-portal/internal/render"
	"github.com/spec-kit/support-portal/internal/repository"
	apperrors "github.com/spec-kit/support-portal/pkg/util"
)

// ArtifactWriter turns rendered report text into a downloadable binary.
type ArtifactWriter interface {
	Render(title, body string) ([]byte, error)
}

// ReportOutput is the result of an on-demand report generation.
type ReportOutput struct {
	Record   *domain.ReportRecord
	Artifact []byte
	Filename string
}

// ReportService renders the four report variants on demand. Missing tickets
// or templates fail fast before any rendering; render failures are persisted
// as failed report records and returned to the caller, since report
// generation is synchronous.
type ReportService struct {
	tickets   repository.TicketRepository
	users     repository.UserRepository
	reports   repository.ReportRepository
	templates render.TemplateSource
	engine    *render.Engine
	artifacts ArtifactWriter
	logger    *zap.Logger
	metrics   *observability.Metrics
	timeout   time.Duration
}

// ReportDependencies bundles collaborators.
type ReportDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	ReportRepo repository.ReportRepository
	Templates  render.TemplateSource
	Engine     *render.Engine
	Artifacts  ArtifactWriter
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Timeout    time.Duration
}

// NewReportService creates the service.
func NewReportService(deps ReportDependencies) *ReportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ReportService{
		tickets:   deps.TicketRepo,
		users:     deps.UserRepo,
		reports:   deps.ReportRepo,
		templates: deps.Templates,
		engine:    deps.Engine,
		artifacts: deps.Artifacts,
		logger:    logger,
		metrics:   deps.Metrics,
		timeout:   timeout,
	}
}

// GenerateSupportAgentReport renders a ticket report from the support-agent
// perspective. When a technician is attached the richer technician variant
// of the template is selected.
func (s *ReportService) GenerateSupportAgentReport(ctx context.Context, agent *domain.AppUser, ticketID string) (*ReportOutput, error) {
	if agent == nil || (agent.Role != domain.RoleSupportAgent && agent.Role != domain.RoleAdmin) {
		return nil, apperrors.NewForbidden("support agent required")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ticket, customer, err := s.loadTicketAndCustomer(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"TicketID":         ticket.ID,
		"CustomerName":     domain.DisplayName(customer),
		"SupportAgentName": s.resolveName(ctx, ticket.SupportAgentID),
		"Subject":          ticket.Subject,
		"Status":           string(ticket.Status),
		"Priority":         ticket.Priority.Display(),
	}
	kind := domain.TemplateSupportAgentTicketReport
	if ticket.TechnicianID != nil {
		kind = domain.TemplateSupportAgentTechnicianReport
		data["TechnicianName"] = s.resolveName(ctx, ticket.TechnicianID)
	}

	return s.generate(ctx, domain.ReportKindSupportAgent, kind, &agent.ID, &ticket.ID,
		fmt.Sprintf("Ticket report %s", ticket.ID), data)
}

// GenerateTechnicianReport renders a ticket report from the technician
// perspective.
func (s *ReportService) GenerateTechnicianReport(ctx context.Context, technician *domain.AppUser, ticketID string) (*ReportOutput, error) {
	if technician == nil || (technician.Role != domain.RoleTechnician && technician.Role != domain.RoleAdmin) {
		return nil, apperrors.NewForbidden("technician required")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ticket, customer, err := s.loadTicketAndCustomer(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"TicketID":       ticket.ID,
		"TechnicianName": s.resolveName(ctx, ticket.TechnicianID),
		"CustomerName":   domain.DisplayName(customer),
		"Subject":        ticket.Subject,
		"Status":         string(ticket.Status),
	}
	return s.generate(ctx, domain.ReportKindTechnician, domain.TemplateTechnicianReport,
		&technician.ID, &ticket.ID, fmt.Sprintf("Technician report %s", ticket.ID), data)
}

// GenerateMonthlySummary aggregates ticket counts by status within the date
// range. Resolved, InProgress and Closed are counted independently; Open is
// the remainder.
func (s *ReportService) GenerateMonthlySummary(ctx context.Context, actor *domain.AppUser, from, to time.Time) (*ReportOutput, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin required")
	}
	if !to.After(from) {
		return nil, apperrors.NewValidationError("end date must follow start date", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	counts, err := s.tickets.CountByStatusInRange(ctx, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	data := map[string]any{
		"PeriodStart":       from.Format("2006-01-02"),
		"PeriodEnd":         to.Format("2006-01-02"),
		"TotalTickets":      counts.Total,
		"ResolvedTickets":   counts.Resolved,
		"InProgressTickets": counts.InProgress,
		"ClosedTickets":     counts.Closed,
		"OpenTickets":       counts.Open(),
	}
	title := fmt.Sprintf("Monthly summary %s - %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	return s.generate(ctx, domain.ReportKindMonthly, domain.TemplateMonthlySummaryReport,
		&actor.ID, nil, title, data)
}

func (s *ReportService) generate(ctx context.Context, kind domain.ReportKind, templateKind domain.TemplateKind, requestedBy, ticketID *string, title string, data map[string]any) (*ReportOutput, error) {
	tmpl, err := s.templates.GetByKind(ctx, templateKind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("report template", map[string]any{"template_kind": string(templateKind)})
		}
		return nil, apperrors.MapError(err)
	}

	record := &domain.ReportRecord{
		Kind:         kind,
		TemplateKind: templateKind,
		RequestedBy:  requestedBy,
		TicketID:     ticketID,
	}

	body, renderErr := s.engine.Render(tmpl, data)
	record.Body = body
	record.Success = renderErr == nil
	if renderErr != nil {
		detail := renderErr.Error()
		record.ErrorDetail = &detail
		s.logger.Error("report render failed",
			zap.String("report_kind", string(kind)),
			zap.String("template_kind", string(templateKind)),
			zap.Error(renderErr))
	}
	s.metrics.RecordReport(string(kind), record.Success)

	if err := s.reports.Create(ctx, record); err != nil {
		return nil, apperrors.MapError(err)
	}
	if renderErr != nil {
		return nil, renderErr
	}

	artifact, err := s.artifacts.Render(title, body)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &ReportOutput{
		Record:   record,
		Artifact: artifact,
		Filename: fmt.Sprintf("%s-%s.pdf", kind, record.ID),
	}, nil
}

func (s *ReportService) loadTicketAndCustomer(ctx context.Context, ticketID string) (*domain.SupportTicket, *domain.AppUser, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	customer, err := s.users.GetByID(ctx, ticket.CustomerID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, customer, nil
}

func (s *ReportService) resolveName(ctx context.Context, userID *string) string {
	if userID == nil {
		return "Unknown"
	}
	user, err := s.users.GetByID(ctx, *userID)
	if err != nil {
		return "Unknown"
	}
	return domain.DisplayName(user)
}
