package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/fortuna/scaha-mcp/internal/events"
)

const (
	// QueryStream receives one entry per query lifecycle event
	QueryStream = "scaha.queries"

	// streamMaxLen caps the stream; trimming is approximate
	streamMaxLen = 10000

	publishTimeout = 2 * time.Second
)

// RedisStreamPublisher appends query events to a Redis stream
type RedisStreamPublisher struct {
	client redis.Cmdable
	stream string
	closer func() error
}

// NewRedisStreamPublisher creates a publisher from an existing client
func NewRedisStreamPublisher(client redis.Cmdable, stream string) *RedisStreamPublisher {
	if stream == "" {
		stream = QueryStream
	}
	return &RedisStreamPublisher{client: client, stream: stream}
}

// NewRedisPublisher connects to redisURL and verifies the connection
func NewRedisPublisher(redisURL string) (*RedisStreamPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	p := NewRedisStreamPublisher(client, QueryStream)
	p.closer = client.Close
	return p, nil
}

// Close closes the Redis connection when the publisher owns it
func (p *RedisStreamPublisher) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

// PublishQueryEvent appends ev to the stream
func (p *RedisStreamPublisher) PublishQueryEvent(ctx context.Context, ev events.QueryEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"id":        ev.ID,
			"tool":      ev.Tool,
			"phase":     string(ev.Phase),
			"data":      string(data),
			"timestamp": ev.At.Unix(),
		},
	}).Err()
}

// Observe publishes ev, logging instead of failing the query when Redis is unavailable
func (p *RedisStreamPublisher) Observe(ctx context.Context, ev events.QueryEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.PublishQueryEvent(ctx, ev); err != nil {
		log.Warn().
			Str("component", "publisher").
			Str("stream", p.stream).
			Str("query_id", ev.ID).
			Err(err).
			Msg("failed to publish query event")
	}
}
