package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
)

// HandleFlashConnectRateLimit sets a flash error and redirects to home
func HandleFlashConnectRateLimit(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type":    "error",
		"message": "Too many connection attempts. Please wait a moment and try again.",
	}
	flash.WithError(c, fm)
	return c.Redirect("/", fiber.StatusSeeOther)
}
