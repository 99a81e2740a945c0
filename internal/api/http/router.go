package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/trouble-tickets/internal/api/http/handlers"
	"github.com/spec-kit/trouble-tickets/internal/auth"
	"github.com/spec-kit/trouble-tickets/internal/domain"
)

// Handlers bundles the HTTP handlers the router mounts.
type Handlers struct {
	Health     *handlers.HealthHandler
	Users      *handlers.UsersHandler
	Tickets    *handlers.TicketsHandler
	MasterData *handlers.MasterDataHandler
	Stats      *handlers.StatsHandler
}

// RegisterRoutes mounts all routes. Everything except health probes and auth
// requires a bearer token; master-data writes additionally require an
// elevated role.
func RegisterRoutes(app *fiber.App, h Handlers, authMw *auth.Middleware) {
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", h.Users.Register)
	authGroup.Post("/login", h.Users.Login)

	api := app.Group("/api/v1", authMw.Handle)

	tickets := api.Group("/tickets")
	tickets.Post("/", h.Tickets.Create)
	tickets.Get("/", h.Tickets.List)
	tickets.Get("/:id", h.Tickets.Get)
	tickets.Get("/:id/history", h.Tickets.History)
	tickets.Post("/:id/pending", h.Tickets.SetPending)
	tickets.Post("/:id/resume", h.Tickets.Resume)
	tickets.Post("/:id/resolve", h.Tickets.Resolve)
	tickets.Post("/:id/close", h.Tickets.Close)
	tickets.Post("/:id/schedule", h.Tickets.Schedule)
	tickets.Post("/:id/assign", h.Tickets.Assign)

	elevated := auth.RequireRole(domain.UserRoleAdmin, domain.UserRoleManager)

	customers := api.Group("/customers")
	customers.Post("/", elevated, h.MasterData.CreateCustomer)
	customers.Get("/", h.MasterData.ListCustomers)

	cases := api.Group("/cases")
	cases.Post("/", elevated, h.MasterData.CreateCase)
	cases.Get("/", h.MasterData.ListCases)

	pendingReasons := api.Group("/pending-reasons")
	pendingReasons.Post("/", elevated, h.MasterData.CreatePendingReason)
	pendingReasons.Get("/", h.MasterData.ListPendingReasons)

	closingReasons := api.Group("/closing-reasons")
	closingReasons.Post("/", elevated, h.MasterData.CreateClosingReason)
	closingReasons.Get("/", h.MasterData.ListClosingReasons)

	groups := api.Group("/groups")
	groups.Post("/", auth.RequireRole(domain.UserRoleAdmin), h.MasterData.CreateGroup)
	groups.Get("/", h.MasterData.ListGroups)

	api.Get("/stats/dashboard", h.Stats.Dashboard)
}
