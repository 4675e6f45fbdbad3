package jobqueue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueAndGetJob(t *testing.T) {
	host, port, password := resolveTestRedis(t)
	configureTestCache(host, port, password)
	resetJobQueueRedis(t)
	t.Cleanup(func() { resetJobQueueRedis(t) })

	q := NewQueue(1)
	ctx := context.Background()

	payload := PostReplyJobPayload{ReplyLogID: 1, UserID: 7}
	job, err := q.EnqueueJob(JobTypePostReply, payload.ToMap())
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)
	assert.Equal(t, JobStatusPending, job.Status)

	size, err := q.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)

	stored, err := q.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobTypePostReply, stored.Type)

	restored, err := PostReplyJobPayloadFromMap(stored.Payload)
	require.NoError(t, err)
	assert.Equal(t, uint(1), restored.ReplyLogID)
	assert.Equal(t, uint(7), restored.UserID)
}

func TestDequeueMovesJobToProcessing(t *testing.T) {
	host, port, password := resolveTestRedis(t)
	configureTestCache(host, port, password)
	resetJobQueueRedis(t)
	t.Cleanup(func() { resetJobQueueRedis(t) })

	q := NewQueue(1)
	ctx := context.Background()

	enqueued, err := q.EnqueueJob(JobTypeGenerateReply, GenerateReplyJobPayload{UserID: 7, TweetID: "1"}.ToMap())
	require.NoError(t, err)

	job, err := q.dequeueJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, enqueued.ID, job.ID)

	pending, err := q.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending)

	processing, err := q.GetProcessingSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), processing)
}
