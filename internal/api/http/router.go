package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-portal/internal/api/http/handlers"
	"github.com/spec-kit/support-portal/internal/auth"
	"github.com/spec-kit/support-portal/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Assignments    *handlers.AssignmentsHandler
	Plans          *handlers.PlansHandler
	Reports        *handlers.ReportsHandler
	Templates      *handlers.TemplatesHandler
	Emails         *handlers.EmailsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/stats", cfg.Health.Stats)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	// Ticket lifecycle. Role checks beyond authentication live in the
	// services, which scope reads and mutations per actor.
	tickets := protected.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.DeleteTicket)
	protected.Delete("/comments/:id", cfg.Tickets.RemoveComment)

	// Plan catalogue and subscriptions.
	protected.Get("/plans", cfg.Plans.ListPlans)
	subscriptions := protected.Group("/subscriptions")
	subscriptions.Post("", auth.RequireRole(domain.RoleCustomer), cfg.Plans.Subscribe)
	subscriptions.Get("", cfg.Plans.ListSubscriptions)
	subscriptions.Post("/:id/suspend", cfg.Plans.Suspend)
	subscriptions.Post("/:id/reactivate", cfg.Plans.Reactivate)
	subscriptions.Post("/:id/cancel", cfg.Plans.Cancel)

	// Staff operations.
	staff := protected.Group("/staff", auth.RequireRole(domain.RoleSupportAgent, domain.RoleTechnician, domain.RoleAdmin))
	staff.Get("/technicians", cfg.Assignments.ListTechnicians)
	staff.Post("/tickets/:id/claim", auth.RequireRole(domain.RoleSupportAgent), cfg.Assignments.ClaimTicket)
	staff.Post("/tickets/:id/technician", cfg.Assignments.AssignTechnician)
	staff.Patch("/tickets/:id/priority", auth.RequireRole(domain.RoleSupportAgent), cfg.Assignments.UpdatePriority)
	staff.Post("/tickets/:id/reports/agent", cfg.Reports.SupportAgentReport)
	staff.Post("/tickets/:id/reports/technician", auth.RequireRole(domain.RoleTechnician), cfg.Reports.TechnicianReport)

	// Admin operations.
	admin := protected.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Post("/staff", cfg.Users.CreateStaff)
	admin.Post("/reports/monthly", cfg.Reports.MonthlySummary)
	admin.Get("/emails", cfg.Emails.ListRecent)
	admin.Get("/templates/:kind", cfg.Templates.GetTemplate)
	admin.Put("/templates/:kind", cfg.Templates.UpdateTemplate)
}
