package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/replybot-ai/replybot/app/repository"
	"github.com/replybot-ai/replybot/internal/pkg/env"
	"github.com/replybot-ai/replybot/internal/pkg/statistics"
)

// RenderHome shows the landing page for visitors and the dashboard for
// signed-in users.
func RenderHome(c *fiber.Ctx) error {
	if !isLoggedIn(c) {
		statistics.UpdateCacheIfNeeded()
		stats := statistics.GetStatistics()

		return c.Render("index", fiber.Map{
			"Title":         "ReplyBot AI",
			"FromProtected": false,
			"Flash":         flash.Get(c),
			"IsDev":         env.IsDev(),
			"TotalUsers":    stats.TotalUsers,
			"TotalReplies":  stats.TotalReplies,
			"TodayReplies":  stats.TodayReplies,
		}, "layouts/main")
	}

	userID := sessionUserID(c)
	repos := repository.GetGlobalRepositories()

	cred, _ := getConnectFlow().Connected(c.Context(), userID)

	logs, err := repos.ReplyLog.GetByUserID(userID, 0, 10)
	if err != nil {
		logs = nil
	}

	today := time.Now().Format("2006-01-02")
	stats, err := repos.Analytics.GetByUserAndDate(userID, today)
	repliesToday := 0
	if err == nil && stats != nil {
		repliesToday = stats.RepliesSent
	}

	settings, _ := repos.UserSettings.GetOrCreate(userID)

	data := fiber.Map{
		"Title":         "Dashboard",
		"FromProtected": true,
		"Username":      ExtractUsername(c),
		"Flash":         flash.Get(c),
		"Connected":     cred != nil,
		"RecentReplies": logs,
		"RepliesToday":  repliesToday,
		"Settings":      settings,
		"CsrfToken":     c.Locals("csrf"),
		"IsDev":         env.IsDev(),
	}
	if cred != nil {
		data["AccountHandle"] = cred.AccountHandle
	}

	return c.Render("dashboard", data, "layouts/main")
}
