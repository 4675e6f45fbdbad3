package controllers

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/replybot-ai/replybot/internal/pkg/cache"
	"github.com/replybot-ai/replybot/internal/pkg/connectstore"
	"github.com/replybot-ai/replybot/internal/pkg/database"
	"github.com/replybot-ai/replybot/internal/pkg/twitterauth"
)

var (
	connectFlow     *twitterauth.Flow
	connectFlowOnce sync.Once
)

// getConnectFlow wires the PKCE flow against Redis plus MySQL on first use.
func getConnectFlow() *twitterauth.Flow {
	connectFlowOnce.Do(func() {
		store := connectstore.New(cache.GetClient(), database.GetDB(), twitterauth.SessionTTL)
		client := twitterauth.NewClient(twitterauth.ConfigFromEnv())
		connectFlow = twitterauth.NewFlow(client, store, store)
	})
	return connectFlow
}

// SetConnectFlow replaces the flow instance, used by tests.
func SetConnectFlow(flow *twitterauth.Flow) {
	connectFlowOnce.Do(func() {})
	connectFlow = flow
}

// HandleConnectStart begins the account connection and redirects the browser
// to the provider's consent page.
func HandleConnectStart(c *fiber.Ctx) error {
	return handleConnectStartAs(c, sessionUserID(c))
}

func handleConnectStartAs(c *fiber.Ctx, userID uint) error {
	authURL, err := getConnectFlow().Begin(c.Context(), userID)
	if err != nil {
		return redirectConnectError(c, err)
	}

	return c.Redirect(authURL, fiber.StatusSeeOther)
}

// HandleConnectCallback completes the connection after the provider redirects
// back. The browser always ends up on the dashboard with the OAuth query
// parameters stripped.
func HandleConnectCallback(c *fiber.Ctx) error {
	return handleConnectCallbackAs(c, sessionUserID(c))
}

func handleConnectCallbackAs(c *fiber.Ctx, userID uint) error {
	params := twitterauth.CallbackParams{
		Code:             c.Query("code"),
		State:            c.Query("state"),
		ErrorCode:        c.Query("error"),
		ErrorDescription: c.Query("error_description"),
	}

	result, err := getConnectFlow().HandleCallback(c.Context(), userID, params)
	if err != nil {
		return redirectConnectError(c, err)
	}

	switch result.Status {
	case twitterauth.StatusConnected:
		fm := fiber.Map{
			"type":    "success",
			"message": "X account @" + result.AccountHandle + " connected.",
		}
		return flash.WithSuccess(c, fm).Redirect("/")
	case twitterauth.StatusAlreadyProcessed:
		return c.Redirect("/", fiber.StatusSeeOther)
	case twitterauth.StatusDenied:
		fm := fiber.Map{
			"type":    "info",
			"message": "Connection cancelled. Your account was not linked.",
		}
		return flash.WithInfo(c, fm).Redirect("/")
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

// HandleDisconnect removes the stored connection for the signed-in user.
func HandleDisconnect(c *fiber.Ctx) error {
	return handleDisconnectAs(c, sessionUserID(c))
}

func handleDisconnectAs(c *fiber.Ctx, userID uint) error {
	if userID == 0 {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	if err := getConnectFlow().Disconnect(c.Context(), userID); err != nil {
		return redirectConnectError(c, err)
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "X account disconnected.",
	}
	return flash.WithSuccess(c, fm).Redirect("/")
}

// redirectConnectError maps flow errors onto user-facing flash messages. The
// exact provider detail stays in the logs.
func redirectConnectError(c *fiber.Ctx, err error) error {
	log.Errorf("[Connect] %v", err)

	message := "Connecting your X account failed. Please try again."
	target := "/"

	switch twitterauth.KindOf(err) {
	case twitterauth.KindAuthenticationRequired:
		message = "Please sign in first."
		target = "/login"
	case twitterauth.KindCredentialsNotConfigured:
		message = "X integration is not configured on this server."
	case twitterauth.KindSessionNotFound:
		message = "Your connection attempt expired. Please try again."
	case twitterauth.KindStateMismatch:
		message = "The connection attempt could not be verified. Please try again."
	case twitterauth.KindMissingOAuthParameters:
		message = "The provider response was incomplete. Please try again."
	case twitterauth.KindProviderUnreachable:
		message = "X could not be reached. Please try again later."
	}

	fm := fiber.Map{
		"type":    "error",
		"message": message,
	}
	return flash.WithError(c, fm).Redirect(target)
}
