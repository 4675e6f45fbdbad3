package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/replybot-ai/replybot/app/models"
	"github.com/replybot-ai/replybot/app/repository"
)

// HandleAnalytics shows reply volume and engagement for the last 30 days.
func HandleAnalytics(c *fiber.Ctx) error {
	userID := sessionUserID(c)
	if userID == 0 {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	now := time.Now()
	endDate := now.Format("2006-01-02")
	startDate := now.AddDate(0, 0, -29).Format("2006-01-02")

	stats, err := repository.GetGlobalFactory().GetAnalyticsRepository().GetRange(userID, startDate, endDate)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Failed to load analytics.",
		}
		return flash.WithError(c, fm).Redirect("/")
	}

	totalReplies := 0
	var engagementSum float64
	daysWithData := 0
	for _, s := range stats {
		totalReplies += s.RepliesSent
		if s.RepliesSent > 0 {
			engagementSum += s.EngagementRate
			daysWithData++
		}
	}
	avgEngagement := 0.0
	if daysWithData > 0 {
		avgEngagement = engagementSum / float64(daysWithData)
	}

	replyRepo := repository.GetGlobalFactory().GetReplyLogRepository()
	sent, _ := replyRepo.CountByStatus(userID, models.REPLY_STATUS_POSTED)
	failed, _ := replyRepo.CountByStatus(userID, models.REPLY_STATUS_FAILED)

	return c.Render("analytics", fiber.Map{
		"Title":         "Analytics",
		"FromProtected": true,
		"Username":      ExtractUsername(c),
		"Flash":         flash.Get(c),
		"Stats":         stats,
		"StartDate":     startDate,
		"EndDate":       endDate,
		"TotalReplies":  totalReplies,
		"AvgEngagement": avgEngagement,
		"SentCount":     sent,
		"FailedCount":   failed,
	}, "layouts/main")
}
