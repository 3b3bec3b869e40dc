package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	historyTTL        = 24 * time.Hour
	historyMaxEntries = 100
)

// RedisHistoryStore keeps role-tagged conversation history per lead in a
// redis list, trimmed to the most recent entries and expiring a day after
// the last write.
type RedisHistoryStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

func NewRedisHistoryStore(client *redis.Client, tracer trace.Tracer) *RedisHistoryStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("dealership/history-store")
	}
	return &RedisHistoryStore{
		redis:  client,
		tracer: tracer,
	}
}

// Append adds one message to the lead's history and refreshes the TTL.
func (s *RedisHistoryStore) Append(ctx context.Context, leadID string, msg ChatMessage) error {
	ctx, span := s.tracer.Start(ctx, "conversation.append_history")
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal message: %w", err)
	}

	key := leadHistoryKey(leadID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -historyMaxEntries, -1)
	pipe.Expire(ctx, key, historyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist message: %w", err)
	}
	return nil
}

// History returns up to limit most recent messages, oldest first. A missing
// key is an empty history, not an error.
func (s *RedisHistoryStore) History(ctx context.Context, leadID string, limit int64) ([]ChatMessage, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_history")
	defer span.End()

	if limit <= 0 || limit > historyMaxEntries {
		limit = historyMaxEntries
	}

	raw, err := s.redis.LRange(ctx, leadHistoryKey(leadID), -limit, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrHistoryUnavailable, err)
	}

	history := make([]ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("%w: bad entry: %w", ErrHistoryUnavailable, err)
		}
		history = append(history, msg)
	}
	return history, nil
}

// Clear drops the lead's history, used when a lead opts out.
func (s *RedisHistoryStore) Clear(ctx context.Context, leadID string) error {
	ctx, span := s.tracer.Start(ctx, "conversation.clear_history")
	defer span.End()

	if err := s.redis.Del(ctx, leadHistoryKey(leadID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to clear history: %w", err)
	}
	return nil
}

func leadHistoryKey(leadID string) string {
	return fmt.Sprintf("lead_history:%s", leadID)
}
