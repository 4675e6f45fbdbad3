package models

import "time"

// DailyStats aggregates reply activity per user and day
type DailyStats struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"index:user_date,unique" json:"user_id"`
	Date            string    `gorm:"index:user_date,unique;type:varchar(10)" json:"date"` // YYYY-MM-DD
	RepliesSent     int       `gorm:"default:0" json:"replies_sent"`
	EngagementRate  float64   `gorm:"default:0" json:"engagement_rate"`
	ResponseTimeAvg float64   `gorm:"default:0" json:"response_time_avg"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}
