package relay

import (
	"context"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
)

var _ Publisher = (*RedisPublisher)(nil)

// RedisPublisher appends messages to a Redis stream.
type RedisPublisher struct {
	client goredis.UniversalClient
	stream string
	maxLen int64
}

// RedisOption configures a RedisPublisher.
type RedisOption func(*RedisPublisher)

// WithMaxLen caps the stream at approximately n entries.
func WithMaxLen(n int64) RedisOption {
	return func(p *RedisPublisher) { p.maxLen = n }
}

// NewRedisPublisher creates a publisher writing to stream. The caller owns
// the client lifecycle.
func NewRedisPublisher(client goredis.UniversalClient, stream string, opts ...RedisOption) *RedisPublisher {
	p := &RedisPublisher{client: client, stream: stream}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stream returns the stream key messages are appended to.
func (p *RedisPublisher) Stream() string { return p.stream }

// Publish XADDs msg to the stream.
func (p *RedisPublisher) Publish(ctx context.Context, msg *Message) error {
	args := &goredis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"event_id":  msg.EventID.String(),
			"kind":      string(msg.Kind),
			"source":    string(msg.Source),
			"created":   strconv.FormatBool(msg.Created),
			"raised_at": msg.RaisedAt.UnixMilli(),
			"payload":   string(msg.Payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("signals/relay: xadd %s: %w", p.stream, err)
	}
	return nil
}
