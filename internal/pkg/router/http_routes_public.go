package router

import (
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/replybot-ai/replybot/app/controllers"
	"github.com/replybot-ai/replybot/internal/pkg/middleware"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Flash helpers
	app.Get("/flash/connect-rate-limit", loggedInMiddleware, controllers.HandleFlashConnectRateLimit)

	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Social OAuth sign-in
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
}
