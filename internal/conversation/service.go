package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/autovista-ai/dealership-ai-platform/internal/observability/metrics"
	"github.com/autovista-ai/dealership-ai-platform/pkg/logging"
)

var engineTracer = otel.Tracer("dealership/engine")

const (
	defaultRemoteTimeout = 8 * time.Second
	historyLimit         = 50
)

// HistoryStore reads role-tagged conversation history for a lead. The engine
// falls back to the plain strings in MessageContext when no store is wired.
type HistoryStore interface {
	History(ctx context.Context, leadID string, limit int64) ([]ChatMessage, error)
}

// Engine is the reply pipeline entry point: guard admission, signal
// extraction, intent classification, strategy resolution, and synthesis with
// a remote-generation fallback chain.
type Engine struct {
	guard    *ReplyGuard
	detector *ObjectionDetector
	flow     *FlowAnalyzer
	synth    *ResponseSynthesizer
	logger   *logging.Logger

	llm           LLMClient
	remoteModel   string
	remoteTimeout time.Duration

	history   HistoryStore
	metrics   *metrics.PipelineMetrics
	serviceID string
}

// EngineOption configures optional collaborators.
type EngineOption func(*Engine)

// WithLLMFallback wires the remote-generation client used when template
// synthesis fails. Timeout bounds each remote call.
func WithLLMFallback(client LLMClient, model string, timeout time.Duration) EngineOption {
	return func(e *Engine) {
		e.llm = client
		e.remoteModel = model
		if timeout > 0 {
			e.remoteTimeout = timeout
		}
	}
}

// WithHistoryStore wires a role-tagged conversation store.
func WithHistoryStore(store HistoryStore) EngineOption {
	return func(e *Engine) { e.history = store }
}

// WithMetrics wires pipeline metrics. A nil metrics value is safe.
func WithMetrics(m *metrics.PipelineMetrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithServiceID sets the identity used for guard ownership.
func WithServiceID(id string) EngineOption {
	return func(e *Engine) {
		if id != "" {
			e.serviceID = id
		}
	}
}

// NewEngine creates the reply pipeline.
func NewEngine(logger *logging.Logger, guard *ReplyGuard, detector *ObjectionDetector, flow *FlowAnalyzer, synth *ResponseSynthesizer, opts ...EngineOption) *Engine {
	if guard == nil {
		panic("conversation: reply guard cannot be nil")
	}
	if detector == nil {
		panic("conversation: objection detector cannot be nil")
	}
	if flow == nil {
		panic("conversation: flow analyzer cannot be nil")
	}
	if synth == nil {
		panic("conversation: synthesizer cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	e := &Engine{
		guard:         guard,
		detector:      detector,
		flow:          flow,
		synth:         synth,
		logger:        logger,
		remoteTimeout: defaultRemoteTimeout,
		serviceID:     "conversation-engine",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Respond runs the full pipeline for one inbound message. A nil response
// with a nil error means the guard declined this cycle or the lead data was
// unusable; callers skip the lead and move on. Respond never panics.
func (e *Engine) Respond(ctx context.Context, mctx MessageContext) (resp *UnifiedResponse, err error) {
	start := time.Now()
	ctx, span := engineTracer.Start(ctx, "engine.respond")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("pipeline panic recovered",
				"lead_id", mctx.LeadID,
				"panic", fmt.Sprintf("%v", r),
			)
			e.metrics.ObserveReply(StrategyFallback, "panic")
			resp = e.staticFallback(mctx)
			err = nil
		}
	}()

	if strings.TrimSpace(mctx.LeadID) == "" {
		e.logger.Warn("respond called without lead id")
		return nil, nil
	}

	if !e.guard.TryAcquire(mctx.LeadID, e.serviceID) {
		reason := e.guard.DenialReason(mctx.LeadID, e.serviceID)
		e.logger.Info("reply guard denied generation",
			"lead_id", mctx.LeadID,
			"reason", reason,
		)
		e.metrics.ObserveGuardDenied(reason)
		span.SetAttributes(attribute.String("engine.guard_denied", reason))
		return nil, nil
	}
	defer e.guard.Complete(mctx.LeadID, e.serviceID)

	history := e.loadHistory(ctx, mctx)

	sig := Signals{
		Vehicle:    ExtractVehicle(mctx.LatestMessage),
		Scheduling: AnalyzeScheduling(mctx.LatestMessage),
		Pricing:    e.detector.DetectPricingSignals(ctx, mctx.LatestMessage),
		Objections: e.detector.DetectObjections(ctx, mctx.LatestMessage),
	}
	sig.Intent, sig.IntentConfidence = ClassifyIntent(mctx.LatestMessage)
	sig.Flow = e.flow.Analyze(ctx, history, mctx.Metadata)

	decision := ResolveStrategy(sig)
	span.SetAttributes(
		attribute.String("engine.route", decision.Route),
		attribute.String("engine.strategy", decision.Strategy),
		attribute.String("engine.intent", sig.Intent.Primary),
	)

	in := SynthesisInput{
		Context:  mctx,
		Signals:  sig,
		Decision: decision,
	}
	if decision.Route == RoutePricing || decision.Route == RouteObjection {
		in.ObjectionMessage, _ = e.detector.GenerateResponse(
			mctx.LeadName, vehicleText(sig.Vehicle, mctx.VehicleInterest), sig.Pricing, sig.Objections)
	}

	resp, err = e.synth.Synthesize(ctx, in)
	if err != nil {
		resp = e.runFallbackChain(ctx, mctx, in)
		err = nil
	}

	resp.Reasoning = append(resp.Reasoning,
		fmt.Sprintf("flow %s/%s, next action %s", sig.Flow.Stage, sig.Flow.Momentum, sig.Flow.NextBestAction))

	e.metrics.ObserveReply(resp.ResponseStrategy, "generated")
	e.metrics.ObserveLatency(resp.ResponseStrategy, time.Since(start).Seconds())
	e.logger.Info("reply generated",
		"lead_id", mctx.LeadID,
		"strategy", resp.ResponseStrategy,
		"response_type", resp.ResponseType,
		"confidence", resp.Confidence,
	)
	return resp, nil
}

// loadHistory prefers the role-tagged store; without one, the plain history
// strings are treated as customer turns.
func (e *Engine) loadHistory(ctx context.Context, mctx MessageContext) []ChatMessage {
	if e.history != nil {
		msgs, err := e.history.History(ctx, mctx.LeadID, historyLimit)
		if err == nil && len(msgs) > 0 {
			return msgs
		}
		if err != nil {
			e.logger.Warn("history store unavailable, using inline history",
				"lead_id", mctx.LeadID,
				"error", err.Error(),
			)
		}
	}

	msgs := make([]ChatMessage, 0, len(mctx.ConversationHistory)+1)
	for _, content := range mctx.ConversationHistory {
		msgs = append(msgs, ChatMessage{Role: ChatRoleCustomer, Content: content})
	}
	if strings.TrimSpace(mctx.LatestMessage) != "" {
		msgs = append(msgs, ChatMessage{Role: ChatRoleCustomer, Content: mctx.LatestMessage})
	}
	return msgs
}

// runFallbackChain walks: retry with the general template pool, then the
// remote LLM, then the static personalized message. It always returns a
// valid response.
func (e *Engine) runFallbackChain(ctx context.Context, mctx MessageContext, in SynthesisInput) *UnifiedResponse {
	e.metrics.ObserveFallback("template_retry")
	retry := in
	retry.Decision = StrategyDecision{
		Route:        RouteIntent,
		Strategy:     StrategyConsultative,
		ResponseType: "intent_response",
		Reasoning:    append(append([]string{}, in.Decision.Reasoning...), "template retry after synthesis failure"),
	}
	retry.Signals.Intent.Primary = "general_inquiry"
	if resp, err := e.synth.Synthesize(ctx, retry); err == nil {
		return resp
	}

	if e.llm != nil {
		e.metrics.ObserveFallback("remote_llm")
		resp, err := e.remoteGenerate(ctx, mctx, in.Signals)
		if err == nil {
			return resp
		}
		e.logger.Warn("remote generation failed",
			"lead_id", mctx.LeadID,
			"error", err.Error(),
		)
	}

	e.metrics.ObserveFallback("static")
	return e.staticFallback(mctx)
}

// remoteGenerate asks the wired LLM for a reply. Failures and invalid output
// come back wrapped in ErrRemoteGeneration so callers can branch on it.
func (e *Engine) remoteGenerate(ctx context.Context, mctx MessageContext, sig Signals) (*UnifiedResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, e.remoteTimeout)
	defer cancel()

	messages := e.loadHistory(ctx, mctx)
	out, err := e.llm.Complete(ctx, LLMRequest{
		Model: e.remoteModel,
		System: []string{
			"You are a helpful dealership sales assistant replying to a customer lead by text message.",
			fmt.Sprintf("The customer's name is %s. Their vehicle of interest: %s.",
				firstName(mctx.LeadName), vehicleText(sig.Vehicle, mctx.VehicleInterest)),
			"Reply in one short, friendly paragraph under 400 characters. Never invent pricing.",
		},
		Messages:    messages,
		MaxTokens:   300,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteGeneration, err)
	}
	if !validMessage(out.Text) {
		return nil, fmt.Errorf("%w: message length %d out of bounds", ErrRemoteGeneration, len(out.Text))
	}

	return &UnifiedResponse{
		Message:          out.Text,
		Confidence:       0.6,
		ResponseType:     "fallback_response",
		Intent:           sig.Intent,
		ResponseStrategy: "remote_fallback",
		Reasoning:        []string{"template synthesis failed, remote generation succeeded"},
		VehicleContext:   sig.Vehicle.Primary,
	}, nil
}

// staticFallback is the last line: always valid, always personalized with
// whatever we have.
func (e *Engine) staticFallback(mctx MessageContext) *UnifiedResponse {
	first := firstName(mctx.LeadName)
	return &UnifiedResponse{
		Message: fmt.Sprintf(
			"Thanks for your message, %s! I want to make sure I get you exactly what you need - one of our team members will follow up with you shortly.", first),
		Confidence:       0.5,
		ResponseType:     "fallback_response",
		Intent:           IntentResult{Primary: "general_inquiry"},
		ResponseStrategy: StrategyFallback,
		Reasoning:        []string{"static fallback response"},
	}
}
