package controllers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/replybot-ai/replybot/app/models"
	"github.com/replybot-ai/replybot/app/repository"
)

// HandleSettings shows the auto-reply settings form.
func HandleSettings(c *fiber.Ctx) error {
	userID := sessionUserID(c)
	if userID == 0 {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	settings, err := repository.GetGlobalFactory().GetUserSettingsRepository().GetOrCreate(userID)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Failed to load settings.",
		}
		return flash.WithError(c, fm).Redirect("/")
	}

	return c.Render("settings", fiber.Map{
		"Title":         "Settings",
		"FromProtected": true,
		"Username":      ExtractUsername(c),
		"Flash":         flash.Get(c),
		"Settings":      settings,
		"Keywords":      strings.Join(settings.KeywordList(), ", "),
		"Personalities": []string{
			models.PersonalityFriendlyProfessional,
			models.PersonalitySupportive,
			models.PersonalityThoughtful,
			models.PersonalityDiplomatic,
			models.PersonalityHelpful,
		},
		"CsrfToken": c.Locals("csrf"),
	}, "layouts/main")
}

// HandleSettingsUpdate persists the posted auto-reply settings.
func HandleSettingsUpdate(c *fiber.Ctx) error {
	userID := sessionUserID(c)
	if userID == 0 {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	repo := repository.GetGlobalFactory().GetUserSettingsRepository()
	settings, err := repo.GetOrCreate(userID)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Failed to load settings.",
		}
		return flash.WithError(c, fm).Redirect("/settings")
	}

	settings.AutoReplyEnabled = c.FormValue("auto_reply_enabled") == "on"
	settings.OnlyQuestions = c.FormValue("only_questions") == "on"
	settings.PositiveOnly = c.FormValue("positive_only") == "on"
	settings.PersonalityPrompt = strings.TrimSpace(c.FormValue("personality_prompt"))

	personality := c.FormValue("personality_type")
	switch personality {
	case models.PersonalityFriendlyProfessional, models.PersonalitySupportive,
		models.PersonalityThoughtful, models.PersonalityDiplomatic, models.PersonalityHelpful:
		settings.PersonalityType = personality
	default:
		fm := fiber.Map{
			"type":    "error",
			"message": "Unknown personality type.",
		}
		return flash.WithError(c, fm).Redirect("/settings")
	}

	if v := c.FormValue("max_replies_per_hour"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			fm := fiber.Map{
				"type":    "error",
				"message": "Replies per hour must be between 1 and 100.",
			}
			return flash.WithError(c, fm).Redirect("/settings")
		}
		settings.MaxRepliesPerHour = n
	}

	if v := c.FormValue("response_delay_seconds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 3600 {
			fm := fiber.Map{
				"type":    "error",
				"message": "Response delay must be between 0 and 3600 seconds.",
			}
			return flash.WithError(c, fm).Redirect("/settings")
		}
		settings.ResponseDelaySeconds = n
	}

	settings.SetKeywordList(strings.Split(c.FormValue("keywords"), ","))

	if err := repo.Update(settings); err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}
		return flash.WithError(c, fm).Redirect("/settings")
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Settings saved.",
	}
	return flash.WithSuccess(c, fm).Redirect("/settings")
}

// HandleAPIKeyGenerate issues a fresh API key and shows it once.
func HandleAPIKeyGenerate(c *fiber.Ctx) error {
	userID := sessionUserID(c)
	if userID == 0 {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	repo := repository.GetGlobalFactory().GetUserSettingsRepository()
	settings, err := repo.GetOrCreate(userID)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Failed to load settings.",
		}
		return flash.WithError(c, fm).Redirect("/settings")
	}

	rawKey, err := settings.IssueAPIKey()
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "API key generation failed.",
		}
		return flash.WithError(c, fm).Redirect("/settings")
	}

	if err := repo.Update(settings); err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}
		return flash.WithError(c, fm).Redirect("/settings")
	}

	// The raw key is only shown on this response; we store the hash.
	fm := fiber.Map{
		"type":    "success",
		"message": "Your new API key: " + rawKey + " (store it now, it will not be shown again)",
	}
	return flash.WithSuccess(c, fm).Redirect("/settings")
}

// HandleAPIKeyRevoke disables the current API key.
func HandleAPIKeyRevoke(c *fiber.Ctx) error {
	userID := sessionUserID(c)
	if userID == 0 {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	repo := repository.GetGlobalFactory().GetUserSettingsRepository()
	settings, err := repo.GetOrCreate(userID)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Failed to load settings.",
		}
		return flash.WithError(c, fm).Redirect("/settings")
	}

	settings.RevokeAPIKey()
	if err := repo.Update(settings); err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}
		return flash.WithError(c, fm).Redirect("/settings")
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "API key revoked.",
	}
	return flash.WithSuccess(c, fm).Redirect("/settings")
}
