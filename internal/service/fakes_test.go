package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/mailer"
	"github.com/spec-kit/support-portal/internal/repository"
)

type memTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.SupportTicket
	counts  repository.StatusCounts
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: map[string]*domain.SupportTicket{}}
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.SupportTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.Version = 1
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *memTicketRepo) put(ticket *domain.SupportTicket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *ticket
	r.tickets[ticket.ID] = &clone
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.SupportTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok || stored.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	if stored.Version != ticket.Version {
		return repository.ErrVersionConflict
	}
	ticket.Version++
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok || stored.DeletedAt != nil {
		return nil, pgx.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (r *memTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SupportTicket
	for _, ticket := range r.tickets {
		if ticket.DeletedAt != nil {
			continue
		}
		if filter.CustomerID != nil && ticket.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.SupportAgentID != nil &&
			(ticket.SupportAgentID == nil || *ticket.SupportAgentID != *filter.SupportAgentID) {
			continue
		}
		if filter.TechnicianID != nil &&
			(ticket.TechnicianID == nil || *ticket.TechnicianID != *filter.TechnicianID) {
			continue
		}
		out = append(out, *ticket)
	}
	return out, nil
}

func (r *memTicketRepo) SoftDelete(_ context.Context, id, deletedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok || stored.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	now := time.Now()
	stored.DeletedAt = &now
	stored.DeletedBy = &deletedBy
	return nil
}

func (r *memTicketRepo) CountByStatusInRange(_ context.Context, _, _ time.Time) (repository.StatusCounts, error) {
	return r.counts, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.AppUser
}

func newMemUserRepo(users ...*domain.AppUser) *memUserRepo {
	r := &memUserRepo{users: map[string]*domain.AppUser{}}
	for _, user := range users {
		r.users[user.ID] = user
	}
	return r
}

func (r *memUserRepo) Create(_ context.Context, user *domain.AppUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return fmt.Errorf("duplicate key value violates unique constraint")
		}
	}
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.AppUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.AppUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) ListByRole(_ context.Context, role domain.Role, _, _ int) ([]domain.AppUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AppUser
	for _, user := range r.users {
		if user.Role == role {
			out = append(out, *user)
		}
	}
	return out, nil
}

type memCommentRepo struct {
	mu       sync.Mutex
	seq      int
	comments map[string]*domain.TicketComment
}

func newMemCommentRepo() *memCommentRepo {
	return &memCommentRepo{comments: map[string]*domain.TicketComment{}}
}

func (r *memCommentRepo) Create(_ context.Context, comment *domain.TicketComment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	comment.ID = fmt.Sprintf("comment-%d", r.seq)
	comment.CreatedAt = time.Now()
	clone := *comment
	r.comments[comment.ID] = &clone
	return nil
}

func (r *memCommentRepo) GetByID(_ context.Context, id string) (*domain.TicketComment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment, ok := r.comments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *comment
	return &clone, nil
}

func (r *memCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketComment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TicketComment
	for _, comment := range r.comments {
		if comment.TicketID == ticketID {
			out = append(out, *comment)
		}
	}
	return out, nil
}

func (r *memCommentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.comments, id)
	return nil
}

type memPlanRepo struct {
	plans map[string]*domain.ServicePlan
}

func newMemPlanRepo(plans ...*domain.ServicePlan) *memPlanRepo {
	r := &memPlanRepo{plans: map[string]*domain.ServicePlan{}}
	for _, plan := range plans {
		r.plans[plan.ID] = plan
	}
	return r
}

func (r *memPlanRepo) GetByID(_ context.Context, id string) (*domain.ServicePlan, error) {
	plan, ok := r.plans[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *plan
	return &clone, nil
}

func (r *memPlanRepo) List(_ context.Context) ([]domain.ServicePlan, error) {
	var out []domain.ServicePlan
	for _, plan := range r.plans {
		out = append(out, *plan)
	}
	return out, nil
}

type memSubscriptionRepo struct {
	mu   sync.Mutex
	seq  int
	subs map[string]*domain.UserServicePlan
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{subs: map[string]*domain.UserServicePlan{}}
}

func (r *memSubscriptionRepo) put(sub *domain.UserServicePlan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *sub
	r.subs[sub.ID] = &clone
}

func (r *memSubscriptionRepo) Create(_ context.Context, sub *domain.UserServicePlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	sub.ID = fmt.Sprintf("sub-%d", r.seq)
	sub.Version = 1
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = sub.CreatedAt
	clone := *sub
	r.subs[sub.ID] = &clone
	return nil
}

func (r *memSubscriptionRepo) GetByID(_ context.Context, id string) (*domain.UserServicePlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *sub
	return &clone, nil
}

func (r *memSubscriptionRepo) ListByUser(_ context.Context, userID string) ([]domain.UserServicePlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.UserServicePlan
	for _, sub := range r.subs {
		if sub.UserID == userID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (r *memSubscriptionRepo) Update(_ context.Context, sub *domain.UserServicePlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.subs[sub.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != sub.Version {
		return repository.ErrVersionConflict
	}
	sub.Version++
	sub.UpdatedAt = time.Now()
	clone := *sub
	r.subs[sub.ID] = &clone
	return nil
}

type memEmailRepo struct {
	mu      sync.Mutex
	seq     int
	records []domain.EmailRecord
}

func (r *memEmailRepo) Create(_ context.Context, record *domain.EmailRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	record.ID = fmt.Sprintf("email-%d", r.seq)
	record.SentAt = time.Now()
	r.records = append(r.records, *record)
	return nil
}

func (r *memEmailRepo) ListRecent(_ context.Context, limit int) ([]domain.EmailRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > len(r.records) {
		limit = len(r.records)
	}
	return append([]domain.EmailRecord(nil), r.records[len(r.records)-limit:]...), nil
}

type memReportRepo struct {
	mu      sync.Mutex
	seq     int
	records []domain.ReportRecord
}

func (r *memReportRepo) Create(_ context.Context, record *domain.ReportRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	record.ID = fmt.Sprintf("report-%d", r.seq)
	record.GeneratedAt = time.Now()
	r.records = append(r.records, *record)
	return nil
}

// memTemplates implements render.TemplateSource from a static kind map.
type memTemplates struct {
	templates map[domain.TemplateKind]*domain.MessageTemplate
}

func newMemTemplates() *memTemplates {
	return &memTemplates{templates: map[domain.TemplateKind]*domain.MessageTemplate{}}
}

func (m *memTemplates) add(kind domain.TemplateKind, format string) {
	m.templates[kind] = &domain.MessageTemplate{
		ID:     "tmpl-" + string(kind),
		Kind:   kind,
		Name:   string(kind),
		Format: format,
	}
}

func (m *memTemplates) GetByKind(_ context.Context, kind domain.TemplateKind) (*domain.MessageTemplate, error) {
	tmpl, ok := m.templates[kind]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return tmpl, nil
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []mailer.Message
	failWith error
}

func (s *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.sent = append(s.sent, msg)
	return nil
}

// captureDispatcher records published events for assertions.
type captureDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *captureDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event(nil), d.events...)
}

type fakeArtifacts struct{}

func (fakeArtifacts) Render(_, body string) ([]byte, error) {
	return []byte(body), nil
}

func strPtr(s string) *string { return &s }
