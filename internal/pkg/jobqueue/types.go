package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeGenerateReply JobType = "generate_reply"
	JobTypePostReply     JobType = "post_reply"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// GenerateReplyJobPayload contains the payload for reply generation jobs
type GenerateReplyJobPayload struct {
	UserID       uint   `json:"user_id"`
	TweetID      string `json:"tweet_id"`
	AuthorHandle string `json:"author_handle"`
	TweetText    string `json:"tweet_text"`
}

// ToMap converts the payload to a map for storage
func (p GenerateReplyJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"user_id":       p.UserID,
		"tweet_id":      p.TweetID,
		"author_handle": p.AuthorHandle,
		"tweet_text":    p.TweetText,
	}
}

// FromMap creates a payload from a map
func GenerateReplyJobPayloadFromMap(data map[string]interface{}) (*GenerateReplyJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload GenerateReplyJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// PostReplyJobPayload contains the payload for reply posting jobs
type PostReplyJobPayload struct {
	ReplyLogID uint `json:"reply_log_id"`
	UserID     uint `json:"user_id"`
}

// ToMap converts the payload to a map for storage
func (p PostReplyJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"reply_log_id": p.ReplyLogID,
		"user_id":      p.UserID,
	}
}

// FromMap creates a payload from a map
func PostReplyJobPayloadFromMap(data map[string]interface{}) (*PostReplyJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload PostReplyJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// IsRetryableAfterNextFailure reports whether the job would still be retried
// if the current attempt fails.
func (j *Job) IsRetryableAfterNextFailure() bool {
	return j.RetryCount+1 < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
