package repository

import (
	"time"

	"github.com/replybot-ai/replybot/app/models"
	"gorm.io/gorm"
)

// replyLogRepository implements the ReplyLogRepository interface
type replyLogRepository struct {
	db *gorm.DB
}

// NewReplyLogRepository creates a new reply log repository instance
func NewReplyLogRepository(db *gorm.DB) ReplyLogRepository {
	return &replyLogRepository{db: db}
}

// Create creates a new reply log entry
func (r *replyLogRepository) Create(log *models.ReplyLog) error {
	return r.db.Create(log).Error
}

// GetByID retrieves a reply log entry by its ID
func (r *replyLogRepository) GetByID(id uint) (*models.ReplyLog, error) {
	var log models.ReplyLog
	err := r.db.First(&log, id).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// GetByUserID retrieves a paginated list of a user's reply log entries,
// newest first
func (r *replyLogRepository) GetByUserID(userID uint, offset, limit int) ([]models.ReplyLog, error) {
	var logs []models.ReplyLog
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error
	return logs, err
}

// GetByTweetID finds the log entry for a specific original tweet, used to
// avoid replying to the same tweet twice
func (r *replyLogRepository) GetByTweetID(userID uint, tweetID string) (*models.ReplyLog, error) {
	var log models.ReplyLog
	err := r.db.Where("user_id = ? AND original_tweet_id = ?", userID, tweetID).First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// Update persists a changed reply log entry
func (r *replyLogRepository) Update(log *models.ReplyLog) error {
	return r.db.Save(log).Error
}

// Delete soft deletes a reply log entry
func (r *replyLogRepository) Delete(id uint) error {
	return r.db.Delete(&models.ReplyLog{}, id).Error
}

// CountByUserID returns the total number of a user's reply log entries
func (r *replyLogRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ReplyLog{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CountByUserIDSince counts entries created after the given time, used for
// the hourly rate limit check
func (r *replyLogRepository) CountByUserIDSince(userID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.ReplyLog{}).Where("user_id = ? AND created_at >= ?", userID, since).Count(&count).Error
	return count, err
}

// CountByStatus counts a user's entries in the given status
func (r *replyLogRepository) CountByStatus(userID uint, status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.ReplyLog{}).Where("user_id = ? AND status = ?", userID, status).Count(&count).Error
	return count, err
}
