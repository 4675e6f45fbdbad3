package models

import "time"

const (
	REPLY_STATUS_PENDING = "pending"
	REPLY_STATUS_POSTED  = "posted"
	REPLY_STATUS_FAILED  = "failed"

	SENTIMENT_POSITIVE = "positive"
	SENTIMENT_NEGATIVE = "negative"
	SENTIMENT_NEUTRAL  = "neutral"
	SENTIMENT_QUESTION = "question"
)

// ReplyLog records one AI-generated reply and its posting outcome
type ReplyLog struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"index" json:"user_id"`
	OriginalTweetID   string     `gorm:"type:varchar(50)" json:"original_tweet_id"`
	OriginalAuthor    string     `gorm:"type:varchar(100)" json:"original_author"`
	OriginalTweetText string     `gorm:"type:text" json:"original_tweet_text"`
	AIReplyText       string     `gorm:"type:text" json:"ai_reply_text"`
	Sentiment         string     `gorm:"type:varchar(20);default:'neutral'" json:"sentiment"`
	Status            string     `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	EngagementLikes   int        `gorm:"default:0" json:"engagement_likes"`
	EngagementReplies int        `gorm:"default:0" json:"engagement_replies"`
	PostedAt          *time.Time `gorm:"type:timestamp;default:null" json:"posted_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
