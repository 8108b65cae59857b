package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jdevops/portal-login/internal/api/http/handlers"
	"github.com/jdevops/portal-login/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Redirect       *handlers.RedirectHandler
	Courses        *handlers.CoursesHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
	LoginLimiter   *LoginLimiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	if cfg.LoginLimiter != nil {
		authGroup.Post("/login/basic", cfg.LoginLimiter.Handle, cfg.Auth.Login)
	} else {
		authGroup.Post("/login/basic", cfg.Auth.Login)
	}
	authGroup.Get("/token", cfg.Auth.Token)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)

	api.Get("/redirect", cfg.Redirect.Redirect)

	courses := api.Group("/courses", cfg.AuthMiddleware.Handle)
	courses.Post("/:courseId/join", cfg.Courses.Join)
	courses.Delete("/:courseId/leave", cfg.Courses.Leave)
	courses.Get("/code/:courseCode/members", cfg.Courses.Members)

	users := api.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/", cfg.Users.List)
	users.Get("/me", cfg.Users.Me)
	users.Get("/me/courses", cfg.Users.Courses)
	users.Delete("/me", cfg.Users.Delete)
	users.Get("/:email", cfg.Users.Get)
}
