package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/autovista-ai/dealership-ai-platform/pkg/logging"
)

const outboundRepliesKey = "outbound_replies"

// outboundReply is the payload handed to the delivery layer.
type outboundReply struct {
	LeadID      string    `json:"lead_id"`
	Message     string    `json:"message"`
	Strategy    string    `json:"strategy"`
	Confidence  float64   `json:"confidence"`
	GeneratedAt time.Time `json:"generated_at"`
}

// RedisOutboundDispatcher hands generated replies to the delivery service
// through a redis list. Delivery workers pop from the same key.
type RedisOutboundDispatcher struct {
	redis *redis.Client
}

func NewRedisOutboundDispatcher(client *redis.Client) *RedisOutboundDispatcher {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	return &RedisOutboundDispatcher{redis: client}
}

func (d *RedisOutboundDispatcher) Dispatch(ctx context.Context, leadID string, resp *UnifiedResponse) error {
	if resp == nil {
		return nil
	}

	data, err := json.Marshal(outboundReply{
		LeadID:      leadID,
		Message:     resp.Message,
		Strategy:    resp.ResponseStrategy,
		Confidence:  resp.Confidence,
		GeneratedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("conversation: failed to marshal outbound reply: %w", err)
	}

	if err := d.redis.RPush(ctx, outboundRepliesKey, data).Err(); err != nil {
		return fmt.Errorf("conversation: failed to enqueue outbound reply: %w", err)
	}
	return nil
}

// LogDispatcher writes replies to the log instead of delivering them, used
// in local development when no delivery backend is configured.
type LogDispatcher struct {
	logger *logging.Logger
}

func NewLogDispatcher(logger *logging.Logger) *LogDispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, leadID string, resp *UnifiedResponse) error {
	if resp == nil {
		return nil
	}
	d.logger.Info("outbound reply",
		"lead_id", leadID,
		"strategy", resp.ResponseStrategy,
		"message", resp.Message,
	)
	return nil
}
