package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autovista-ai/dealership-ai-platform/pkg/logging"
)

type captureDispatcher struct {
	ch chan *UnifiedResponse
}

func newCaptureDispatcher() *captureDispatcher {
	return &captureDispatcher{ch: make(chan *UnifiedResponse, 16)}
}

func (d *captureDispatcher) Dispatch(ctx context.Context, leadID string, resp *UnifiedResponse) error {
	d.ch <- resp
	return nil
}

func (d *captureDispatcher) wait(t *testing.T) *UnifiedResponse {
	t.Helper()
	select {
	case resp := <-d.ch:
		return resp
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for dispatch")
		return nil
	}
}

// flakyDispatcher fails its first n Dispatch calls, then delivers.
type flakyDispatcher struct {
	mu       sync.Mutex
	failures int
	calls    int
	ch       chan *UnifiedResponse
}

func newFlakyDispatcher(failures int) *flakyDispatcher {
	return &flakyDispatcher{failures: failures, ch: make(chan *UnifiedResponse, 16)}
}

func (d *flakyDispatcher) Dispatch(ctx context.Context, leadID string, resp *UnifiedResponse) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.calls <= d.failures {
		return errors.New("outbound channel unavailable")
	}
	d.ch <- resp
	return nil
}

func (d *flakyDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func TestWorker_ProcessesInboundJob(t *testing.T) {
	logger := logging.New("error")
	queue := NewMemoryQueue(16)
	dispatcher := newCaptureDispatcher()
	worker := NewWorker(newTestEngine(), queue, dispatcher, nil, logger,
		WithWorkerCount(1), WithReceiveWait(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	pub := NewPublisher(queue, logger)
	jobID, err := pub.PublishInbound(ctx, MessageContext{
		LeadID:        "lead-w1",
		LeadName:      "Jordan Smith",
		LatestMessage: "can we schedule a test drive Saturday morning",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, jobID)

	resp := dispatcher.wait(t)
	require.NotNil(t, resp)
	assert.Equal(t, StrategyScheduling, resp.ResponseStrategy)
	assert.NotEmpty(t, resp.Message)

	cancel()
	worker.Wait()
}

func TestWorker_SkipsMalformedJob(t *testing.T) {
	logger := logging.New("error")
	queue := NewMemoryQueue(16)
	dispatcher := newCaptureDispatcher()
	worker := NewWorker(newTestEngine(), queue, dispatcher, nil, logger,
		WithWorkerCount(1), WithReceiveWait(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	require.NoError(t, queue.Send(ctx, "{not json"))

	// A valid job behind the malformed one still gets processed.
	pub := NewPublisher(queue, logger)
	_, err := pub.PublishInbound(ctx, MessageContext{
		LeadID:        "lead-w2",
		LeadName:      "Sam",
		LatestMessage: "hello there",
	})
	require.NoError(t, err)

	resp := dispatcher.wait(t)
	require.NotNil(t, resp)

	cancel()
	worker.Wait()
}

func TestWorker_RetriesTransientDispatchFailure(t *testing.T) {
	logger := logging.New("error")
	queue := NewMemoryQueue(16)
	dispatcher := newFlakyDispatcher(2)
	worker := NewWorker(newTestEngine(), queue, dispatcher, nil, logger,
		WithWorkerCount(1), WithReceiveWait(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	pub := NewPublisher(queue, logger)
	_, err := pub.PublishInbound(ctx, MessageContext{
		LeadID:        "lead-w4",
		LeadName:      "Jordan Smith",
		LatestMessage: "is the civic still available?",
	})
	require.NoError(t, err)

	// Two failed attempts, then delivery on the third.
	select {
	case resp := <-dispatcher.ch:
		require.NotNil(t, resp)
		assert.NotEmpty(t, resp.Message)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for dispatch")
	}
	assert.Equal(t, 3, dispatcher.callCount())

	cancel()
	worker.Wait()
}

func TestWorker_RedeliveryDispatchesHeldReply(t *testing.T) {
	logger := logging.New("error")
	queue := NewMemoryQueue(16)
	dispatcher := newFlakyDispatcher(dispatchAttempts)
	worker := NewWorker(newTestEngine(), queue, dispatcher, nil, logger,
		WithWorkerCount(1), WithReceiveWait(1))

	ctx := context.Background()
	pub := NewPublisher(queue, logger)
	_, err := pub.PublishInbound(ctx, MessageContext{
		LeadID:        "lead-w5",
		LeadName:      "Sam",
		LatestMessage: "hello there",
	})
	require.NoError(t, err)

	msgs, err := queue.Receive(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	// Every attempt fails: the reply is generated but held for redelivery.
	worker.handleMessage(ctx, msgs[0])
	assert.Equal(t, dispatchAttempts, dispatcher.callCount())

	// The redelivered job lands inside the guard cooldown, so a rerun of
	// the pipeline would be denied. The held reply must still go out.
	worker.handleMessage(ctx, msgs[0])

	select {
	case resp := <-dispatcher.ch:
		require.NotNil(t, resp)
		assert.NotEmpty(t, resp.Message)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for redelivered dispatch")
	}
}

func TestWorker_GuardDenialDropsJobQuietly(t *testing.T) {
	logger := logging.New("error")
	queue := NewMemoryQueue(16)
	dispatcher := newCaptureDispatcher()
	worker := NewWorker(newTestEngine(), queue, dispatcher, nil, logger,
		WithWorkerCount(1), WithReceiveWait(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	pub := NewPublisher(queue, logger)
	mctx := MessageContext{LeadID: "lead-w3", LeadName: "Sam", LatestMessage: "hi again"}
	_, err := pub.PublishInbound(ctx, mctx)
	require.NoError(t, err)
	dispatcher.wait(t)

	// Second job for the same lead lands inside the cooldown window and is
	// skipped without a dispatch.
	_, err = pub.PublishInbound(ctx, mctx)
	require.NoError(t, err)

	select {
	case resp := <-dispatcher.ch:
		t.Fatalf("expected no dispatch during cooldown, got %q", resp.Message)
	case <-time.After(500 * time.Millisecond):
	}

	cancel()
	worker.Wait()
}
