package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/autovista-ai/dealership-ai-platform/pkg/logging"
)

// OutboundDispatcher delivers a generated reply to the messaging layer. The
// dispatcher decides whether and how the reply actually reaches the customer.
type OutboundDispatcher interface {
	Dispatch(ctx context.Context, leadID string, resp *UnifiedResponse) error
}

// Worker consumes inbound message jobs from the queue and runs the reply
// pipeline for each.
type Worker struct {
	engine     *Engine
	queue      QueueClient
	dispatcher OutboundDispatcher
	history    *RedisHistoryStore
	logger     *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup

	// Replies generated but not yet delivered, keyed by job ID. A
	// redelivered job dispatches its stored reply instead of re-running
	// the pipeline, which the guard cooldown would deny.
	mu      sync.Mutex
	pending map[string]*UnifiedResponse
}

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

const (
	defaultWorkerCount   = 2
	defaultWaitSeconds   = 2
	defaultBatchSize     = 5
	maxWaitSeconds       = 20
	maxReceiveBatchSize  = 10
	deleteTimeoutSeconds = 5

	dispatchAttempts   = 3
	dispatchRetryDelay = 200 * time.Millisecond
)

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets how many consumer goroutines run.
func WithWorkerCount(n int) WorkerOption {
	return func(c *workerConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithReceiveWait sets the long-poll wait in seconds.
func WithReceiveWait(seconds int) WorkerOption {
	return func(c *workerConfig) {
		if seconds > 0 && seconds <= maxWaitSeconds {
			c.receiveWaitSecs = seconds
		}
	}
}

// WithReceiveBatchSize sets the max messages fetched per receive.
func WithReceiveBatchSize(n int) WorkerOption {
	return func(c *workerConfig) {
		if n > 0 && n <= maxReceiveBatchSize {
			c.receiveBatchSize = n
		}
	}
}

// NewWorker creates a queue consumer. History is optional; when wired, the
// worker records both sides of the exchange.
func NewWorker(engine *Engine, queue QueueClient, dispatcher OutboundDispatcher, history *RedisHistoryStore, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if engine == nil {
		panic("conversation: engine cannot be nil")
	}
	if queue == nil {
		panic("conversation: queue client cannot be nil")
	}
	if dispatcher == nil {
		panic("conversation: outbound dispatcher cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := workerConfig{
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Worker{
		engine:     engine,
		queue:      queue,
		dispatcher: dispatcher,
		history:    history,
		logger:     logger,
		cfg:        cfg,
		pending:    make(map[string]*UnifiedResponse),
	}
}

// Start launches the consumer goroutines. They exit when ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("conversation worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("conversation worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive reply jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg QueueMessage) {
	var payload queuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		w.logger.Error("failed to decode reply job", "error", err, "msg_id", msg.ID)
		w.deleteMessage(msg.ReceiptHandle)
		return
	}
	if payload.Kind != jobTypeInboundMessage {
		w.logger.Warn("unknown job kind, dropping", "kind", string(payload.Kind), "job_id", payload.ID)
		w.deleteMessage(msg.ReceiptHandle)
		return
	}

	mctx := payload.Message
	w.logger.Info("processing reply job",
		"job_id", payload.ID,
		"lead_id", mctx.LeadID,
	)

	resp := w.takePending(payload.ID)
	if resp == nil {
		if w.history != nil && mctx.LatestMessage != "" {
			if err := w.history.Append(ctx, mctx.LeadID, ChatMessage{Role: ChatRoleCustomer, Content: mctx.LatestMessage}); err != nil {
				w.logger.Warn("failed to record inbound message", "error", err, "lead_id", mctx.LeadID)
			}
		}

		var err error
		resp, err = w.engine.Respond(ctx, mctx)
		if err != nil {
			w.logger.Error("reply pipeline failed", "error", err, "lead_id", mctx.LeadID, "job_id", payload.ID)
			w.deleteMessage(msg.ReceiptHandle)
			return
		}
		if resp == nil {
			// Guard denial or unusable lead: skip this cycle.
			w.logger.Info("no reply generated", "lead_id", mctx.LeadID, "job_id", payload.ID)
			w.deleteMessage(msg.ReceiptHandle)
			return
		}
	}

	if err := w.dispatchWithRetry(ctx, mctx.LeadID, resp); err != nil {
		w.logger.Error("failed to dispatch reply", "error", err, "lead_id", mctx.LeadID, "job_id", payload.ID)
		// Hold the reply and leave the message on the queue: redelivery
		// picks the reply back up rather than regenerating it.
		w.storePending(payload.ID, resp)
		return
	}

	if w.history != nil {
		if err := w.history.Append(ctx, mctx.LeadID, ChatMessage{Role: ChatRoleAssistant, Content: resp.Message}); err != nil {
			w.logger.Warn("failed to record outbound reply", "error", err, "lead_id", mctx.LeadID)
		}
	}

	w.deleteMessage(msg.ReceiptHandle)
}

// dispatchWithRetry makes a few delivery attempts with a short backoff so a
// momentary outbound blip does not push the job into redelivery.
func (w *Worker) dispatchWithRetry(ctx context.Context, leadID string, resp *UnifiedResponse) error {
	var err error
	for attempt := 1; attempt <= dispatchAttempts; attempt++ {
		if err = w.dispatcher.Dispatch(ctx, leadID, resp); err == nil {
			return nil
		}
		if attempt == dispatchAttempts {
			break
		}
		w.logger.Warn("dispatch attempt failed, retrying",
			"error", err,
			"lead_id", leadID,
			"attempt", attempt,
		)
		select {
		case <-ctx.Done():
			return err
		case <-time.After(dispatchRetryDelay * time.Duration(attempt)):
		}
	}
	return err
}

func (w *Worker) takePending(jobID string) *UnifiedResponse {
	w.mu.Lock()
	defer w.mu.Unlock()
	resp := w.pending[jobID]
	delete(w.pending, jobID)
	return resp
}

func (w *Worker) storePending(jobID string, resp *UnifiedResponse) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[jobID] = resp
}

func (w *Worker) deleteMessage(receiptHandle string) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeoutSeconds*time.Second)
	defer cancel()
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Error("failed to delete queue message", "error", err)
	}
}
