package jobqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLifecycle(t *testing.T) {
	job := &Job{
		ID:         "test-job",
		Type:       JobTypePostReply,
		Status:     JobStatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
		MaxRetries: DefaultMaxRetries,
	}

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	require.NotNil(t, job.ProcessedAt)

	job.MarkAsFailed("boom")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "boom", job.ErrorMsg)
	assert.Equal(t, 1, job.RetryCount)
	assert.True(t, job.IsRetryable())

	job.MarkAsRetrying()
	assert.Equal(t, JobStatusRetrying, job.Status)

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Empty(t, job.ErrorMsg)
	require.NotNil(t, job.CompletedAt)
}

func TestJobRetryExhaustion(t *testing.T) {
	job := &Job{Status: JobStatusPending, MaxRetries: 2}

	job.MarkAsFailed("first")
	assert.True(t, job.IsRetryable())
	assert.True(t, job.IsRetryableAfterNextFailure())

	job.MarkAsFailed("second")
	assert.False(t, job.IsRetryable())
	assert.False(t, job.IsRetryableAfterNextFailure())
}

func TestGenerateReplyJobPayloadRoundTrip(t *testing.T) {
	payload := GenerateReplyJobPayload{
		UserID:       7,
		TweetID:      "12345",
		AuthorHandle: "alice",
		TweetText:    "How does this work?",
	}

	restored, err := GenerateReplyJobPayloadFromMap(payload.ToMap())
	require.NoError(t, err)
	assert.Equal(t, payload, *restored)
}

func TestPostReplyJobPayloadRoundTrip(t *testing.T) {
	payload := PostReplyJobPayload{ReplyLogID: 42, UserID: 7}

	restored, err := PostReplyJobPayloadFromMap(payload.ToMap())
	require.NoError(t, err)
	assert.Equal(t, payload, *restored)
}
