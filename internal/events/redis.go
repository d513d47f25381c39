package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultChannelPrefix = "skillsync"

// RedisPublisher sends events with PUBLISH on "<prefix>.<type>".
type RedisPublisher struct {
	rdb     *redis.Client
	prefix  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewRedisClient parses redisURL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

func NewRedisPublisher(rdb *redis.Client, prefix string, logger *zap.Logger) *RedisPublisher {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = defaultChannelPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{rdb: rdb, prefix: prefix, timeout: 2 * time.Second, logger: logger}
}

func (p *RedisPublisher) Channel(typ string) string {
	return p.prefix + "." + typ
}

func (p *RedisPublisher) Publish(ctx context.Context, typ, requestID string, data any) {
	payload, err := Encode(typ, requestID, data)
	if err != nil {
		p.logger.Warn("encode event failed", zap.String("type", typ), zap.Error(err))
		return
	}

	// The request may already be finished; publishing outlives it briefly.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	channel := p.Channel(typ)
	if err := p.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		p.logger.Warn("publish event failed",
			zap.String("channel", channel),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return
	}
	p.logger.Debug("event published", zap.String("channel", channel))
}

func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
