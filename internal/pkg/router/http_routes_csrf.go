package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/replybot-ai/replybot/app/controllers"
	"github.com/replybot-ai/replybot/internal/pkg/constants"
	"github.com/replybot-ai/replybot/internal/pkg/env"
	"github.com/replybot-ai/replybot/internal/pkg/middleware"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			// API requests authenticate via key, the provider callback and
			// connect start are GET requests carrying their own state proof.
			return strings.HasPrefix(c.Path(), constants.APIPrefix) || strings.HasPrefix(c.Path(), constants.ConnectRoute)
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get("/", loggedInMiddleware, controllers.RenderHome)
	group.Get("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Post("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Get("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Post("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Get("/activate", loggedInMiddleware, controllers.HandleUserActivate)

	// Account connection (PKCE flow against X)
	connectLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return controllers.HandleFlashConnectRateLimit(c)
		},
	})
	group.Get(constants.ConnectRoute, middleware.RequireAuth, connectLimiter, controllers.HandleConnectStart)
	group.Get(constants.ConnectCallbackRoute, controllers.HandleConnectCallback)
	group.Post(constants.DisconnectRoute, middleware.RequireAuth, controllers.HandleDisconnect)

	// Auto-reply settings
	group.Get("/settings", middleware.RequireAuth, controllers.HandleSettings)
	group.Post("/settings", middleware.RequireAuth, controllers.HandleSettingsUpdate)
	group.Post("/settings/api-key", middleware.RequireAuth, controllers.HandleAPIKeyGenerate)
	group.Post("/settings/api-key/revoke", middleware.RequireAuth, controllers.HandleAPIKeyRevoke)

	// Dashboard data pages
	group.Get("/replies", middleware.RequireAuth, controllers.HandleReplyLog)
	group.Get("/analytics", middleware.RequireAuth, controllers.HandleAnalytics)
}
