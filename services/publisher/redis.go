package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"garimpeiro/ofertaworker/internal/extract"
	"garimpeiro/ofertaworker/pkg/errors"
)

// StreamMirror copies every extracted deal of a cycle onto a Redis stream
// for downstream consumers (statistics, alternative announcers). It is
// best-effort and independent of the webhook announcement.
type StreamMirror struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStreamMirror creates a mirror writing to the given stream.
func NewStreamMirror(addr string, db int, stream string, maxLen int) *StreamMirror {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &StreamMirror{
		client: client,
		stream: stream,
		maxLen: int64(maxLen),
	}
}

// PublishBatch appends every deal to the stream, base64-encoded JSON, and
// trims the stream to its configured maximum length.
func (m *StreamMirror) PublishBatch(ctx context.Context, deals []extract.Deal) error {
	for _, deal := range deals {
		data, err := json.Marshal(deal)
		if err != nil {
			return errors.NewPublisher("stream_mirror", "marshal deal", err)
		}
		encoded := base64.StdEncoding.EncodeToString(data)

		if err := m.client.XAdd(ctx, &redis.XAddArgs{
			Stream: m.stream,
			Values: map[string]interface{}{"b64_deal": encoded},
		}).Err(); err != nil {
			return errors.NewPublisher("stream_mirror", "xadd deal", err)
		}
	}

	if m.maxLen > 0 {
		if err := m.client.XTrimMaxLen(ctx, m.stream, m.maxLen).Err(); err != nil {
			return errors.NewPublisher("stream_mirror", "trim stream", err)
		}
	}
	return nil
}

// Close closes the Redis connection.
func (m *StreamMirror) Close() error {
	return m.client.Close()
}
