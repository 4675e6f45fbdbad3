package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/replybot-ai/replybot/app/models"
	"github.com/replybot-ai/replybot/app/repository"
	"github.com/replybot-ai/replybot/internal/pkg/aireply"
	"github.com/replybot-ai/replybot/internal/pkg/cache"
	"github.com/replybot-ai/replybot/internal/pkg/connectstore"
	"github.com/replybot-ai/replybot/internal/pkg/database"
	"github.com/replybot-ai/replybot/internal/pkg/env"
	"github.com/replybot-ai/replybot/internal/pkg/twitterauth"
	"github.com/replybot-ai/replybot/internal/pkg/twitterpost"
)

// processGenerateReplyJob generates an AI reply for a monitored tweet and
// schedules the posting job. Skipped tweets complete the job without error so
// they are not retried.
func (q *Queue) processGenerateReplyJob(ctx context.Context, job *Job) error {
	payload, err := GenerateReplyJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	repos := repository.GetGlobalRepositories()

	settings, err := repos.UserSettings.GetByUserID(payload.UserID)
	if err != nil {
		return fmt.Errorf("failed to load settings for user %d: %w", payload.UserID, err)
	}
	if !settings.AutoReplyEnabled {
		log.Debugf("[JobQueue] Auto reply disabled for user %d, skipping tweet %s", payload.UserID, payload.TweetID)
		return nil
	}

	// Never reply to the same tweet twice.
	if existing, err := repos.ReplyLog.GetByTweetID(payload.UserID, payload.TweetID); err == nil && existing != nil {
		log.Debugf("[JobQueue] Tweet %s already handled for user %d", payload.TweetID, payload.UserID)
		return nil
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	// Hourly rate limit.
	count, err := repos.ReplyLog.CountByUserIDSince(payload.UserID, time.Now().Add(-time.Hour))
	if err != nil {
		return err
	}
	if count >= int64(settings.MaxRepliesPerHour) {
		log.Infof("[JobQueue] Rate limit reached for user %d (%d replies/hour), skipping tweet %s",
			payload.UserID, settings.MaxRepliesPerHour, payload.TweetID)
		return nil
	}

	generator := aireply.NewGenerator()
	reply, err := generator.Generate(ctx, payload.TweetText, payload.AuthorHandle, settings.PersonalityType)
	if err != nil {
		return fmt.Errorf("reply generation failed: %w", err)
	}

	if settings.OnlyQuestions && reply.Sentiment != models.SENTIMENT_QUESTION {
		log.Debugf("[JobQueue] Tweet %s is not a question, skipping for user %d", payload.TweetID, payload.UserID)
		return nil
	}
	if settings.PositiveOnly && reply.Sentiment == models.SENTIMENT_NEGATIVE {
		log.Debugf("[JobQueue] Tweet %s is negative, skipping for user %d", payload.TweetID, payload.UserID)
		return nil
	}

	entry := &models.ReplyLog{
		UserID:            payload.UserID,
		OriginalTweetID:   payload.TweetID,
		OriginalAuthor:    payload.AuthorHandle,
		OriginalTweetText: payload.TweetText,
		AIReplyText:       reply.Text,
		Sentiment:         reply.Sentiment,
		Status:            models.REPLY_STATUS_PENDING,
	}
	if err := repos.ReplyLog.Create(entry); err != nil {
		return fmt.Errorf("failed to create reply log entry: %w", err)
	}

	delay := time.Duration(settings.ResponseDelaySeconds) * time.Second
	q.EnqueueJobAfter(delay, JobTypePostReply, PostReplyJobPayload{
		ReplyLogID: entry.ID,
		UserID:     payload.UserID,
	}.ToMap())

	return nil
}

// processPostReplyJob publishes a previously generated reply. The user must
// still have a connected X account at posting time.
func (q *Queue) processPostReplyJob(ctx context.Context, job *Job) error {
	payload, err := PostReplyJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	repos := repository.GetGlobalRepositories()

	entry, err := repos.ReplyLog.GetByID(payload.ReplyLogID)
	if err != nil {
		return fmt.Errorf("failed to load reply log entry %d: %w", payload.ReplyLogID, err)
	}
	if entry.Status != models.REPLY_STATUS_PENDING {
		log.Debugf("[JobQueue] Reply %d already in status %s, skipping", entry.ID, entry.Status)
		return nil
	}

	store := connectstore.New(cache.GetClient(), database.GetDB(), twitterauth.SessionTTL)
	cred, err := store.LoadCredential(ctx, payload.UserID)
	if err != nil {
		return err
	}
	if cred == nil {
		entry.Status = models.REPLY_STATUS_FAILED
		_ = repos.ReplyLog.Update(entry)
		log.Warnf("[JobQueue] User %d has no connected account, reply %d marked failed", payload.UserID, entry.ID)
		return nil
	}

	poster := twitterpost.NewPoster(
		env.GetEnv("TWITTER_ACCESS_TOKEN", ""),
		env.GetEnv("TWITTER_ACCESS_SECRET", ""),
	)

	if _, err := poster.PostReply(ctx, entry.OriginalTweetID, entry.AIReplyText); err != nil {
		if !job.IsRetryableAfterNextFailure() {
			entry.Status = models.REPLY_STATUS_FAILED
			_ = repos.ReplyLog.Update(entry)
		}
		return fmt.Errorf("posting reply %d failed: %w", entry.ID, err)
	}

	now := time.Now()
	entry.Status = models.REPLY_STATUS_POSTED
	entry.PostedAt = &now
	if err := repos.ReplyLog.Update(entry); err != nil {
		return err
	}

	if err := repos.Analytics.IncrementRepliesSent(payload.UserID, now.Format("2006-01-02")); err != nil {
		log.Errorf("[JobQueue] Failed to update daily stats for user %d: %v", payload.UserID, err)
	}

	log.Infof("[JobQueue] Posted reply %d for user %d (to tweet %s by @%s)",
		entry.ID, payload.UserID, entry.OriginalTweetID, strings.TrimPrefix(entry.OriginalAuthor, "@"))
	return nil
}
