package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultStream = "chess:notifications"
	payloadField  = "payload"
)

// RedisSink appends events to a Redis stream. XADD success is the ack.
type RedisSink struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

func NewRedisSink(client redis.Cmdable, stream string, maxLen int64) *RedisSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisSink{client: client, stream: stream, maxLen: maxLen}
}

func (s *RedisSink) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			payloadField: payload,
			"game":       ev.Game,
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("enqueue event %s: %w", ev.ID, err)
	}
	return nil
}

func decodeEvent(msg redis.XMessage) (Event, error) {
	var ev Event
	raw, ok := msg.Values[payloadField]
	if !ok {
		return ev, fmt.Errorf("message %s has no payload", msg.ID)
	}

	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return ev, fmt.Errorf("message %s payload has type %T", msg.ID, raw)
	}

	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("decode message %s: %w", msg.ID, err)
	}
	return ev, nil
}
