package apiv1

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/replybot-ai/replybot/app/controllers"
	"github.com/replybot-ai/replybot/app/repository"
	"github.com/replybot-ai/replybot/internal/pkg/jobqueue"
	"github.com/replybot-ai/replybot/internal/pkg/metrics/counter"
	"github.com/replybot-ai/replybot/internal/pkg/usercontext"
)

// Pong is the response of the ping endpoint
type Pong struct {
	Ping string `json:"ping"`
}

// APIServer implements the public v1 API
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// RegisterHandlers attaches the v1 routes to the given router group.
// Authentication is enforced via the API key middleware attached in the router.
func RegisterHandlers(router fiber.Router, s *APIServer) {
	router.Get("/ping", s.GetPing)
	router.Get("/user/profile", s.GetUserProfile)
	router.Get("/replies", s.GetReplies)
	router.Post("/replies/:id/engagement", s.PostReplyEngagement)
	router.Post("/mentions", s.PostMention)
	router.Get("/analytics", s.GetAnalytics)
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetUserProfile returns account information for the authenticated user (API key).
func (s *APIServer) GetUserProfile(c *fiber.Ctx) error {
	return controllers.HandleGetUserAccount(c)
}

// GetReplies returns a page of the user's reply log entries
func (s *APIServer) GetReplies(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "25"))
	if limit < 1 || limit > 100 {
		limit = 25
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	repo := repository.GetGlobalFactory().GetReplyLogRepository()
	logs, err := repo.GetByUserID(userCtx.UserID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load replies"})
	}
	total, err := repo.CountByUserID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count replies"})
	}

	return c.JSON(fiber.Map{
		"replies": logs,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// PostMention feeds a monitored tweet into the reply pipeline. The queue
// worker applies the user's auto-reply settings, generates the reply, and
// schedules the post.
func (s *APIServer) PostMention(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var body struct {
		TweetID      string `json:"tweet_id"`
		AuthorHandle string `json:"author_handle"`
		TweetText    string `json:"tweet_text"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if body.TweetID == "" || body.TweetText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "tweet_id and tweet_text are required"})
	}

	payload := jobqueue.GenerateReplyJobPayload{
		UserID:       userCtx.UserID,
		TweetID:      body.TweetID,
		AuthorHandle: body.AuthorHandle,
		TweetText:    body.TweetText,
	}
	job, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeGenerateReply, payload.ToMap())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to enqueue mention"})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted", "job_id": job.ID})
}

// PostReplyEngagement records engagement observed on a posted reply. The
// counters are buffered in Redis and rolled into the reply log periodically.
func (s *APIServer) PostReplyEngagement(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid reply id"})
	}

	entry, err := repository.GetGlobalFactory().GetReplyLogRepository().GetByID(uint(id))
	if err != nil || entry == nil || entry.UserID != userCtx.UserID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Reply not found"})
	}

	var body struct {
		Likes   int `json:"likes"`
		Replies int `json:"replies"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if body.Likes < 0 || body.Replies < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Counts must not be negative"})
	}

	if err := counter.AddReplyLikes(entry.ID, int64(body.Likes)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to record engagement"})
	}
	if err := counter.AddReplyResponses(entry.ID, int64(body.Replies)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to record engagement"})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}

// GetAnalytics returns the user's daily stats for a date range. Defaults to
// the last 30 days.
func (s *APIServer) GetAnalytics(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	now := time.Now()
	endDate := c.Query("end", now.Format("2006-01-02"))
	startDate := c.Query("start", now.AddDate(0, 0, -29).Format("2006-01-02"))
	for _, d := range []string{startDate, endDate} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Dates must be formatted YYYY-MM-DD"})
		}
	}

	stats, err := repository.GetGlobalFactory().GetAnalyticsRepository().GetRange(userCtx.UserID, startDate, endDate)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load analytics"})
	}

	return c.JSON(fiber.Map{
		"start": startDate,
		"end":   endDate,
		"days":  stats,
	})
}
