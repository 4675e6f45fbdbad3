package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/replybot-ai/replybot/internal/pkg/session"
)

func isLoggedIn(c *fiber.Ctx) bool {
	var fromProtected bool
	if protectedValue := c.Locals(FROM_PROTECTED); protectedValue != nil {
		fromProtected = protectedValue.(bool)
	}

	return fromProtected
}

// ExtractUsername gets the username from Locals (set by middleware)
func ExtractUsername(c *fiber.Ctx) string {
	if userNameValue := c.Locals(USER_NAME); userNameValue != nil {
		if userName, ok := userNameValue.(string); ok {
			return userName
		}
	}

	return ""
}

// sessionUserID reads the signed-in user's id from the session store.
// Returns 0 when no session exists.
func sessionUserID(c *fiber.Ctx) uint {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return 0
	}
	if id, ok := sess.Get(USER_ID).(uint); ok {
		return id
	}
	return 0
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
