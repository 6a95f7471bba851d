package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewQueue(client, nil), mr
}

func TestEnqueueDequeueRoundtrip(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	payload := VideoEmailPayload{Event: "video.asset.ready", AssetID: "as_1"}
	require.NoError(t, q.EnqueueVideoEmail(ctx, payload))

	job, key, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, QueueEmails, key)
	assert.Equal(t, JobTypeVideoEmail, job.Type)
	assert.Equal(t, 0, job.Attempt)
	assert.NotEmpty(t, job.ID)

	var got VideoEmailPayload
	require.NoError(t, json.Unmarshal(job.Payload, &got))
	assert.Equal(t, payload, got)
}

func TestRetryRequeues(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.EnqueueVideoEmail(ctx, VideoEmailPayload{Event: "video.asset.errored", AssetID: "as_2"}))
	job, _, err := q.Dequeue(ctx)
	require.NoError(t, err)

	require.NoError(t, q.Retry(ctx, job))
	assert.Equal(t, 1, job.Attempt)

	requeued, _, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, requeued)
	assert.Equal(t, job.ID, requeued.ID)
	assert.Equal(t, 1, requeued.Attempt)
	assert.False(t, mr.Exists(QueueDLQ))
}

func TestRetryMovesToDLQAfterMaxAttempts(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.EnqueueVideoEmail(ctx, VideoEmailPayload{Event: "video.asset.errored", AssetID: "as_3"}))
	job, _, err := q.Dequeue(ctx)
	require.NoError(t, err)

	job.Attempt = MaxRetries - 1
	require.NoError(t, q.Retry(ctx, job))

	assert.False(t, mr.Exists(QueueEmails))
	dead, err := mr.List(QueueDLQ)
	require.NoError(t, err)
	require.Len(t, dead, 1)

	var deadJob Job
	require.NoError(t, json.Unmarshal([]byte(dead[0]), &deadJob))
	assert.Equal(t, job.ID, deadJob.ID)
	assert.Equal(t, MaxRetries, deadJob.Attempt)
}
