package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront/internal/api/http/handlers"
	"github.com/spec-kit/storefront/internal/auth"
	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/ratelimit"
)

// RateLimits holds the per-class limiter middlewares.
type RateLimits struct {
	API      fiber.Handler
	Login    fiber.Handler
	Strict   fiber.Handler
	Tracking fiber.Handler
}

// NewRateLimits builds middlewares for every class from one limiter.
func NewRateLimits(limiter *ratelimit.Limiter, api, login, strict, tracking ratelimit.Policy) RateLimits {
	return RateLimits{
		API:      limiter.Middleware(api),
		Login:    limiter.Middleware(login),
		Strict:   limiter.Middleware(strict),
		Tracking: limiter.Middleware(tracking),
	}
}

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Customers      *handlers.CustomersHandler
	Staff          *handlers.StaffHandler
	Messages       *handlers.MessagesHandler
	Metrics        fiber.Handler
	AuthMiddleware *auth.AuthMiddleware
	Permissions    *auth.PermissionEngine
	Limits         RateLimits
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	requireAuth := cfg.AuthMiddleware.RequireAuth()
	requireAdmin := cfg.AuthMiddleware.RequireAdmin()
	requireStaff := cfg.AuthMiddleware.RequireAdminOrTeam()
	can := func(c domain.Capability) fiber.Handler {
		return cfg.Permissions.RequireCapability(string(c))
	}

	authGroup := app.Group("/auth", cfg.Limits.API)
	authGroup.Post("/customers/register", cfg.Auth.RegisterCustomer)
	authGroup.Post("/customers/login", cfg.Limits.Login, cfg.Auth.LoginCustomer)
	authGroup.Post("/staff/login", cfg.Limits.Login, cfg.Auth.LoginStaff)
	authGroup.Post("/forgot-password", cfg.Limits.Strict, cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password", cfg.Limits.Strict, cfg.Auth.ResetPassword)
	authGroup.Get("/password/reset/:token", cfg.Limits.Strict, cfg.Auth.ValidateResetToken)
	authGroup.Get("/me", requireAuth, cfg.Auth.Me)
	authGroup.Post("/password/change", requireAuth, cfg.Auth.ChangePassword)

	customers := app.Group("/customers", cfg.Limits.API, requireAuth)
	customers.Get("/:id", cfg.Customers.Get)
	customers.Put("/:id", cfg.Customers.Update)

	messages := app.Group("/messages", cfg.Limits.API)
	messages.Post("", cfg.Limits.Strict, cfg.Messages.Submit)
	messages.Get("/:id/status", cfg.Limits.Tracking, cfg.Messages.Status)

	admin := app.Group("/admin", cfg.Limits.API)
	admin.Get("/capabilities", requireStaff, cfg.Staff.Capabilities)
	admin.Get("/messages", requireStaff, can(domain.CapabilityMessagesView), cfg.Messages.List)
	admin.Get("/messages/:id", requireStaff, can(domain.CapabilityMessagesView), cfg.Messages.Get)
	admin.Post("/messages/:id/reply", requireStaff, can(domain.CapabilityMessagesReply), cfg.Messages.Reply)

	staff := admin.Group("/staff", requireAdmin)
	staff.Post("", cfg.Staff.CreateStaff)
	staff.Get("", cfg.Staff.ListStaff)
	staff.Get("/:id", cfg.Staff.GetStaff)
	staff.Put("/:id/permissions", cfg.Staff.UpdatePermissions)
	staff.Post("/:id/deactivate", cfg.Staff.Deactivate)
	staff.Post("/:id/activate", cfg.Staff.Activate)
}
