package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-gateway/internal/api/http/handlers"
	"github.com/spec-kit/portal-gateway/internal/auth"
)

// RouteConfig bundles dependencies for session API route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Auth   *handlers.AuthHandler
}

// RegisterRoutes wires the session API routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/validate-session", cfg.Auth.ValidateSession)
	authGroup.Post("/logout", cfg.Auth.Logout)
}

// GatewayRouteConfig bundles dependencies for the portal gateway.
type GatewayRouteConfig struct {
	Health  *handlers.HealthHandler
	Gateway *handlers.GatewayHandler
	Guard   *auth.PortalGuard
}

// RegisterGatewayRoutes wires the gateway's own endpoints ahead of the
// portal guard, then forwards every other request upstream.
func RegisterGatewayRoutes(app *fiber.App, cfg GatewayRouteConfig) {
	internal := app.Group("/_gateway")
	internal.Get("/health/live", cfg.Health.Live)
	internal.Get("/health/ready", cfg.Health.Ready)
	internal.Get("/metrics", cfg.Gateway.Metrics)

	app.Use(cfg.Guard.Handle)
	app.All("/*", cfg.Gateway.Forward)
}
