package repository

import (
	"time"

	"github.com/replybot-ai/replybot/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
}

// UserSettingsRepository defines the interface for per-user reply settings
type UserSettingsRepository interface {
	GetByUserID(userID uint) (*models.UserSettings, error)
	GetOrCreate(userID uint) (*models.UserSettings, error)
	Update(settings *models.UserSettings) error
	ListAutoReplyEnabled() ([]models.UserSettings, error)
}

// ReplyLogRepository defines the interface for reply log operations
type ReplyLogRepository interface {
	Create(log *models.ReplyLog) error
	GetByID(id uint) (*models.ReplyLog, error)
	GetByUserID(userID uint, offset, limit int) ([]models.ReplyLog, error)
	GetByTweetID(userID uint, tweetID string) (*models.ReplyLog, error)
	Update(log *models.ReplyLog) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
	CountByUserIDSince(userID uint, since time.Time) (int64, error)
	CountByStatus(userID uint, status string) (int64, error)
}

// AnalyticsRepository defines the interface for daily statistics
type AnalyticsRepository interface {
	Upsert(stats *models.DailyStats) error
	GetByUserAndDate(userID uint, date string) (*models.DailyStats, error)
	GetRange(userID uint, startDate, endDate string) ([]models.DailyStats, error)
	IncrementRepliesSent(userID uint, date string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	UserSettings UserSettingsRepository
	ReplyLog     ReplyLogRepository
	Analytics    AnalyticsRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		UserSettings: NewUserSettingsRepository(db),
		ReplyLog:     NewReplyLogRepository(db),
		Analytics:    NewAnalyticsRepository(db),
	}
}
