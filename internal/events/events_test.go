package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEncode(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	orig := now
	now = func() time.Time { return at }
	defer func() { now = orig }()

	b, err := Encode(JobCreated, "req-1", map[string]string{"id": "j1"})
	require.NoError(t, err)

	var e Event
	require.NoError(t, json.Unmarshal(b, &e))
	assert.Equal(t, JobCreated, e.Type)
	assert.Equal(t, Version, e.Version)
	assert.True(t, e.At.Equal(at))
	assert.Equal(t, "req-1", e.RequestID)
	assert.JSONEq(t, `{"id":"j1"}`, string(e.Data))

	b, err = Encode(JobDeleted, "", nil)
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"data"`)
	assert.NotContains(t, string(b), `"request_id"`)
}

func TestRedisPublisherChannel(t *testing.T) {
	p := NewRedisPublisher(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), " jobs. ", nil)
	defer p.Close()
	assert.Equal(t, "jobs.job.updated", p.Channel(JobUpdated))

	p = NewRedisPublisher(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "", nil)
	defer p.Close()
	assert.Equal(t, "skillsync.profile.upserted", p.Channel(ProfileUpserted))
}

func TestRedisPublisherFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	p := NewRedisPublisher(rdb, "test", zap.New(core))
	defer p.Close()

	p.Publish(context.Background(), JobCreated, "req-9", map[string]string{"id": "x"})

	entries := logs.FilterMessage("publish event failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "test.job.created", entries[0].ContextMap()["channel"])
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	p.Publish(context.Background(), JobCreated, "", nil)
}
