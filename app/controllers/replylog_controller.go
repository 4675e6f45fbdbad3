package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/replybot-ai/replybot/app/repository"
)

const replyLogPageSize = 25

// HandleReplyLog lists the user's sent and pending replies, newest first.
func HandleReplyLog(c *fiber.Ctx) error {
	userID := sessionUserID(c)
	if userID == 0 {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * replyLogPageSize

	repo := repository.GetGlobalFactory().GetReplyLogRepository()
	logs, err := repo.GetByUserID(userID, offset, replyLogPageSize)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Failed to load reply log.",
		}
		return flash.WithError(c, fm).Redirect("/")
	}

	total, _ := repo.CountByUserID(userID)
	totalPages := int((total + replyLogPageSize - 1) / replyLogPageSize)

	return c.Render("replylog", fiber.Map{
		"Title":         "Reply Log",
		"FromProtected": true,
		"Username":      ExtractUsername(c),
		"Flash":         flash.Get(c),
		"Logs":          logs,
		"Page":          page,
		"PrevPage":      page - 1,
		"NextPage":      page + 1,
		"TotalPages":    totalPages,
		"Total":         total,
	}, "layouts/main")
}
