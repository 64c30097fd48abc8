package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agrisupport/internal/api/http/handlers"
	"github.com/spec-kit/agrisupport/internal/auth"
	"github.com/spec-kit/agrisupport/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Identities     *handlers.IdentitiesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/confirm-email", cfg.Auth.ConfirmEmail)
	authGroup.Post("/resend-confirmation", cfg.Auth.ResendConfirmation)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)
	authGroup.Post("/change-password", cfg.AuthMiddleware.Handle, auth.RequireRole(), cfg.Auth.ChangePassword)

	api.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireRole(), cfg.Auth.Me)

	admin := api.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/", cfg.Identities.List)
	admin.Put("/:id", cfg.Identities.Update)
	admin.Delete("/:id", cfg.Identities.Delete)
}
