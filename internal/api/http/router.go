package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Auth              *handlers.AuthHandler
	Sessions          *handlers.SessionsHandler
	Tickets           *handlers.TicketsHandler
	Admin             *handlers.AdminHandler
	SessionMiddleware *auth.SessionMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)

	protected := app.Group("", cfg.SessionMiddleware.Handle)
	protected.Post("/auth/logout", cfg.Auth.Logout)

	sessions := protected.Group("/sessions")
	sessions.Get("", cfg.Sessions.List)
	sessions.Get("/remaining", cfg.Sessions.Remaining)
	sessions.Delete("/:id", cfg.Sessions.Revoke)

	tickets := protected.Group("/tickets")
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Get("/:id/history", cfg.Tickets.History)

	staffOnly := auth.RequireRole(domain.RoleTechnician, domain.RoleAdminHelpdesk)
	tickets.Post("/:id/assign", staffOnly, cfg.Tickets.Assign)
	tickets.Post("/:id/first-response", staffOnly, cfg.Tickets.FirstResponse)
	tickets.Post("/:id/resolve", staffOnly, cfg.Tickets.Resolve)

	protected.Get("/notifications", cfg.Tickets.Notifications)

	adminOnly := auth.RequireRole(domain.RoleAdminHelpdesk)
	admin := protected.Group("/admin", adminOnly)
	admin.Get("/sweeps", cfg.Admin.ListSweeps)
	admin.Post("/sweeps/:name", cfg.Admin.TriggerSweep)
}
