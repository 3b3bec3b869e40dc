package conversation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/autovista-ai/dealership-ai-platform/pkg/logging"
)

// QueueClient abstracts the inbound job queue so workers can run against
// SQS in production and MemoryQueue locally.
type QueueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]QueueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// QueueMessage is one received queue entry.
type QueueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

type jobType string

const (
	jobTypeInboundMessage jobType = "inbound_message"
)

type queuePayload struct {
	ID      string         `json:"id"`
	Kind    jobType        `json:"kind"`
	Message MessageContext `json:"message"`
}

// Publisher enqueues inbound customer messages for asynchronous reply
// generation.
type Publisher struct {
	queue  QueueClient
	logger *logging.Logger
}

func NewPublisher(queue QueueClient, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("conversation: queue client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger}
}

// PublishInbound enqueues one inbound message job and returns its job id.
func (p *Publisher) PublishInbound(ctx context.Context, mctx MessageContext) (string, error) {
	payload := queuePayload{
		ID:      uuid.NewString(),
		Kind:    jobTypeInboundMessage,
		Message: mctx,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("conversation: failed to encode payload: %w", err)
	}
	if err := p.queue.Send(ctx, string(body)); err != nil {
		return "", err
	}
	p.logger.Debug("inbound message job published",
		"job_id", payload.ID,
		"lead_id", mctx.LeadID,
	)
	return payload.ID, nil
}
