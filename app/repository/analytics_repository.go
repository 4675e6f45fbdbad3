package repository

import (
	"errors"

	"github.com/replybot-ai/replybot/app/models"
	"gorm.io/gorm"
)

// analyticsRepository implements the AnalyticsRepository interface
type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository instance
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

// Upsert writes the stats row for the user and date, replacing any existing one
func (r *analyticsRepository) Upsert(stats *models.DailyStats) error {
	var existing models.DailyStats
	err := r.db.Where("user_id = ? AND date = ?", stats.UserID, stats.Date).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(stats).Error
	}
	if err != nil {
		return err
	}
	stats.ID = existing.ID
	stats.CreatedAt = existing.CreatedAt
	return r.db.Save(stats).Error
}

// GetByUserAndDate retrieves a single day's stats for a user
func (r *analyticsRepository) GetByUserAndDate(userID uint, date string) (*models.DailyStats, error) {
	var stats models.DailyStats
	err := r.db.Where("user_id = ? AND date = ?", userID, date).First(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetRange retrieves a user's stats between two dates inclusive, oldest first
func (r *analyticsRepository) GetRange(userID uint, startDate, endDate string) ([]models.DailyStats, error) {
	var stats []models.DailyStats
	err := r.db.Where("user_id = ? AND date >= ? AND date <= ?", userID, startDate, endDate).Order("date ASC").Find(&stats).Error
	return stats, err
}

// IncrementRepliesSent bumps the reply counter for the user's day, creating
// the row when this is the first reply of the day
func (r *analyticsRepository) IncrementRepliesSent(userID uint, date string) error {
	var existing models.DailyStats
	err := r.db.Where("user_id = ? AND date = ?", userID, date).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(&models.DailyStats{UserID: userID, Date: date, RepliesSent: 1}).Error
	}
	if err != nil {
		return err
	}
	return r.db.Model(&existing).UpdateColumn("replies_sent", gorm.Expr("replies_sent + 1")).Error
}
