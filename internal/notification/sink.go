package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultStream is the Redis stream account events are appended to
const DefaultStream = "account.events"

// LogSink writes each event as a structured log line
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink that logs through logger
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(ctx context.Context, event Event) error {
	attrs := []any{
		"type", event.Type,
		"occurred_at", event.OccurredAt,
	}
	if event.AccountNumber != "" {
		attrs = append(attrs, "account_id", event.AccountID, "account_number", event.AccountNumber)
	}
	if event.OperatorID != uuid.Nil {
		attrs = append(attrs, "operator_id", event.OperatorID)
	}
	if event.Amount != nil {
		attrs = append(attrs, "amount", event.Amount.StringFixed(2))
	}
	if event.Balance != nil {
		attrs = append(attrs, "balance", event.Balance.StringFixed(2))
	}
	s.logger.InfoContext(ctx, "notification", attrs...)
	return nil
}

// StreamAdder is the subset of redis.Cmdable the stream sink needs
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamSink appends events to a Redis stream as a JSON "event" field
type RedisStreamSink struct {
	client StreamAdder
	stream string
	maxLen int64
}

// NewRedisStreamSink creates a sink writing to stream. maxLen > 0 caps the
// stream length approximately.
func NewRedisStreamSink(client StreamAdder, stream string, maxLen int64) *RedisStreamSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStreamSink{client: client, stream: stream, maxLen: maxLen}
}

func (s *RedisStreamSink) Deliver(ctx context.Context, event Event) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"type":  string(event.Type),
			"event": eventJSON,
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if _, err := s.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
