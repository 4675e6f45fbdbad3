package models

import "time"

// OAuthSession is the durable tier of the in-flight PKCE attempt. It exists
// only between authorization initiation and callback processing; one row per
// user, overwritten by each new attempt.
type OAuthSession struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex" json:"user_id"`
	State        string    `gorm:"type:varchar(100)" json:"-"`
	CodeVerifier string    `gorm:"type:varchar(200)" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
