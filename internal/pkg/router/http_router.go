package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/replybot-ai/replybot/internal/pkg/middleware"
	"github.com/replybot-ai/replybot/internal/pkg/oauth"
	"github.com/replybot-ai/replybot/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func loggedInMiddleware(c *fiber.Ctx) error {
	// UserContextMiddleware already set all user context; user information is
	// available via usercontext.GetUserContext(c)
	return c.Next()
}
