package repository

import (
	"github.com/replybot-ai/replybot/app/models"
	"gorm.io/gorm"
)

// userSettingsRepository implements the UserSettingsRepository interface
type userSettingsRepository struct {
	db *gorm.DB
}

// NewUserSettingsRepository creates a new user settings repository instance
func NewUserSettingsRepository(db *gorm.DB) UserSettingsRepository {
	return &userSettingsRepository{db: db}
}

// GetByUserID retrieves the settings row for a user
func (r *userSettingsRepository) GetByUserID(userID uint) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := r.db.Where("user_id = ?", userID).First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// GetOrCreate returns the settings row for a user, creating defaults when absent
func (r *userSettingsRepository) GetOrCreate(userID uint) (*models.UserSettings, error) {
	return models.GetOrCreateUserSettings(r.db, userID)
}

// Update persists changed settings
func (r *userSettingsRepository) Update(settings *models.UserSettings) error {
	return r.db.Save(settings).Error
}

// ListAutoReplyEnabled returns the settings of every user with auto reply on
func (r *userSettingsRepository) ListAutoReplyEnabled() ([]models.UserSettings, error) {
	var settings []models.UserSettings
	err := r.db.Where("auto_reply_enabled = ?", true).Find(&settings).Error
	return settings, err
}
