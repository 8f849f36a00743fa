package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinRatio/pkg/logger"
)

type pingPayload struct {
	Source string `json:"source"`
}

type recordingJob struct {
	mu   sync.Mutex
	got  []pingPayload
	fail bool
}

func (j *recordingJob) Name() string { return "recording" }
func (j *recordingJob) Type() string { return "ping" }

func (j *recordingJob) Handle(_ context.Context, payload interface{}) error {
	p, err := ParsePayload[pingPayload](payload)
	if err != nil {
		return err
	}
	j.mu.Lock()
	j.got = append(j.got, *p)
	j.mu.Unlock()
	if j.fail {
		return errors.New("boom")
	}
	return nil
}

func (j *recordingJob) count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.got)
}

func newTestQueue(t *testing.T, cfg Config) *RedisQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cfg.PollWait = 50 * time.Millisecond
	return NewRedisQueue(logger.Nop(), cfg, client, WithKeyPrefix("test:queue"))
}

func TestRedisQueueDeliversToJob(t *testing.T) {
	q := newTestQueue(t, Config{Workers: 1})
	job := &recordingJob{}
	q.RegisterJob(job)
	require.NoError(t, q.Start())
	t.Cleanup(func() { _ = q.Stop(context.Background()) })

	require.NoError(t, q.PublishMessage(context.Background(), "ping", pingPayload{Source: "api"}))

	require.Eventually(t, func() bool { return job.count() == 1 }, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, "api", job.got[0].Source)
}

func TestRedisQueueDeadLettersAfterRetries(t *testing.T) {
	q := newTestQueue(t, Config{Workers: 1, RetryLimit: 0})
	q.RegisterJob(&recordingJob{fail: true})
	require.NoError(t, q.Start())
	t.Cleanup(func() { _ = q.Stop(context.Background()) })

	require.NoError(t, q.PublishMessage(context.Background(), "ping", pingPayload{Source: "cron"}))

	require.Eventually(t, func() bool {
		n, err := q.DeadLetters(context.Background())
		return err == nil && n == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRedisQueuePublishRequiresStart(t *testing.T) {
	q := newTestQueue(t, Config{})
	err := q.PublishMessage(context.Background(), "ping", pingPayload{})
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestRedisQueuePublishOnly(t *testing.T) {
	q := newTestQueue(t, Config{})
	require.NoError(t, q.Start())
	t.Cleanup(func() { _ = q.Stop(context.Background()) })

	require.NoError(t, q.PublishMessage(context.Background(), "anything", pingPayload{Source: "x"}))
	n, err := q.Pending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload[pingPayload](map[string]interface{}{"source": "map"})
	require.NoError(t, err)
	assert.Equal(t, "map", p.Source)

	_, err = ParsePayload[pingPayload](42)
	assert.Error(t, err)
}
