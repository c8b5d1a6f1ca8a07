package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-ticket-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Tickets    *handlers.TicketsHandler
	Operations *handlers.OperationsHandler
	Catalog    *handlers.CatalogHandler
}

// RegisterRoutes wires HTTP routes. Static ticket paths are registered ahead of /:id.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api")

	ops := api.Group("/tickets/operations")
	ops.Post("/auto-close", cfg.Operations.AutoClose)
	ops.Post("/bulk-update-category", cfg.Operations.BulkUpdateCategory)
	ops.Get("/agents/:agentId/stats", cfg.Operations.AgentStats)
	ops.Post("/:id/auto-assign", cfg.Operations.AutoAssign)
	ops.Post("/:id/escalate", cfg.Operations.Escalate)

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/overdue", cfg.Tickets.ListOverdue)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Put("/:id/assign", cfg.Tickets.AssignTicket)
	tickets.Put("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Put("/:id/close", cfg.Tickets.CloseTicket)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Get("/:id/escalations", cfg.Tickets.Escalations)

	agents := api.Group("/agents")
	agents.Post("/", cfg.Catalog.CreateAgent)
	agents.Get("/", cfg.Catalog.ListAgents)
	agents.Get("/active", cfg.Catalog.ListActiveAgents)
	agents.Get("/:id", cfg.Catalog.GetAgent)
	agents.Put("/:id/active", cfg.Catalog.SetAgentActive)

	categories := api.Group("/categories")
	categories.Post("/", cfg.Catalog.CreateCategory)
	categories.Get("/", cfg.Catalog.ListCategories)
	categories.Get("/:id", cfg.Catalog.GetCategory)

	slas := api.Group("/slas")
	slas.Post("/", cfg.Catalog.CreateSLA)
	slas.Get("/", cfg.Catalog.ListSLAs)
	slas.Get("/:id", cfg.Catalog.GetSLA)

	users := api.Group("/users")
	users.Post("/", cfg.Catalog.CreateUser)
	users.Get("/", cfg.Catalog.ListUsers)
	users.Get("/:id", cfg.Catalog.GetUser)
}
