package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Escalations    *handlers.EscalationsHandler
	Audit          *handlers.AuditHandler
	Chat           *handlers.ChatHandler
	Dashboard      *handlers.DashboardHandler
	Exports        *handlers.ExportsHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())

	tickets := api.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)

	tickets.Post("/:id/escalations", cfg.Escalations.Escalate)
	tickets.Get("/:id/escalations", cfg.Escalations.ListEscalations)

	tickets.Get("/:id/audit", cfg.Audit.TicketAudit)
	tickets.Get("/:id/messages", cfg.Chat.ListMessages)
	tickets.Post("/:id/messages", cfg.Chat.PostMessage)

	api.Get("/audit", cfg.Audit.AllAudit)
	api.Get("/dashboard", cfg.Dashboard.Summary)
	api.Get("/analytics/sla", auth.RequireOwner(), cfg.Dashboard.SLAReport)

	exports := api.Group("/exports")
	exports.Get("/tickets", cfg.Exports.Download)
	exports.Post("/tickets/archive", cfg.Exports.Archive)

	admin := api.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/metrics", cfg.Metrics.Snapshot)
}
