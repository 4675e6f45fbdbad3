package models

import "time"

// ConnectedAccount stores the X (Twitter) credential obtained through the
// PKCE connection flow. A row must never be created without the callback
// having validated state against the session of the same attempt.
type ConnectedAccount struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"uniqueIndex" json:"user_id"`
	AccountHandle string    `gorm:"type:varchar(100)" json:"account_handle"`
	AccessToken   string    `gorm:"type:text" json:"-"`
	RefreshToken  string    `gorm:"type:text" json:"-"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
