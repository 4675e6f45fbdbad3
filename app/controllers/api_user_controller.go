package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/replybot-ai/replybot/app/models"
	"github.com/replybot-ai/replybot/app/repository"
	"github.com/replybot-ai/replybot/internal/pkg/database"
	"github.com/replybot-ai/replybot/internal/pkg/usercontext"
	"github.com/replybot-ai/replybot/internal/pkg/utils"
)

// HandleGetUserAccount returns account information for the authenticated user (API key or session).
func HandleGetUserAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	repos := repository.GetGlobalRepositories()
	account, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user"})
	}

	db := database.GetDB()
	if db == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Database unavailable"})
	}
	settings, err := models.GetOrCreateUserSettings(db, userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user settings"})
	}

	replyCount, err := repos.ReplyLog.CountByUserID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load statistics"})
	}
	sentCount, _ := repos.ReplyLog.CountByStatus(userCtx.UserID, models.REPLY_STATUS_POSTED)

	avatarURL := account.AvatarURL
	if avatarURL == "" {
		avatarURL = utils.GravatarURL(account.Email, 200)
	}

	connected := false
	accountHandle := ""
	if cred, err := getConnectFlow().Connected(c.Context(), userCtx.UserID); err == nil && cred != nil {
		connected = true
		accountHandle = cred.AccountHandle
	}

	response := fiber.Map{
		"id":                   account.ID,
		"username":             account.Name,
		"email":                account.Email,
		"avatar_url":           avatarURL,
		"status":               account.Status,
		"is_admin":             account.Role == models.ROLE_ADMIN,
		"created_at":           account.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at":        formatTimePtr(account.LastLoginAt),
		"api_key_last_used_at": formatTimePtr(settings.APIKeyLastUsedAt),
		"connection": fiber.Map{
			"connected":      connected,
			"account_handle": accountHandle,
		},
		"stats": fiber.Map{
			"replies": fiber.Map{
				"count": replyCount,
				"sent":  sentCount,
			},
		},
		"settings": fiber.Map{
			"auto_reply_enabled":   settings.AutoReplyEnabled,
			"personality_type":     settings.PersonalityType,
			"max_replies_per_hour": settings.MaxRepliesPerHour,
		},
	}

	return c.JSON(response)
}
