package conversation

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/autovista-ai/dealership-ai-platform/pkg/logging"
)

var flowTracer = otel.Tracer("dealership/flow-analyzer")

var delayPhrases = []string{
	"think about it", "get back to you", "let me sleep on it", "not ready",
	"need some time", "talk to my wife", "talk to my husband", "check with",
}

var positiveInterestWords = []string{
	"love", "perfect", "excited", "awesome", "exactly what", "looks great",
	"interested",
}

var enthusiasmWords = []string{
	"love", "excited", "can't wait", "cant wait", "awesome", "amazing", "!",
}

// FlowAnalyzer derives conversation stage, momentum, engagement, and reply
// timing from message history. Business hours and the clock are injectable
// for tests.
type FlowAnalyzer struct {
	logger    *logging.Logger
	now       func() time.Time
	openHour  int
	closeHour int
}

// FlowOption customizes a FlowAnalyzer.
type FlowOption func(*FlowAnalyzer)

// WithFlowClock overrides the time source.
func WithFlowClock(now func() time.Time) FlowOption {
	return func(a *FlowAnalyzer) { a.now = now }
}

// WithBusinessHours sets the open and close hours (24h clock, close exclusive).
func WithBusinessHours(open, close int) FlowOption {
	return func(a *FlowAnalyzer) {
		a.openHour = open
		a.closeHour = close
	}
}

// NewFlowAnalyzer creates an analyzer with a 9am-8pm business window.
func NewFlowAnalyzer(logger *logging.Logger, opts ...FlowOption) *FlowAnalyzer {
	if logger == nil {
		logger = logging.Default()
	}
	a := &FlowAnalyzer{
		logger:    logger,
		now:       time.Now,
		openHour:  9,
		closeHour: 20,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze computes the FlowState for a conversation. History is chronological;
// metadata may be nil.
func (a *FlowAnalyzer) Analyze(ctx context.Context, history []ChatMessage, meta *LeadMetadata) FlowState {
	_, span := flowTracer.Start(ctx, "flow.analyze")
	defer span.End()

	state := FlowState{
		Stage:           a.detectStage(history),
		Momentum:        a.detectMomentum(history),
		EngagementLevel: a.scoreEngagement(history),
	}
	state.TimingRecommendation = a.recommendTiming(state.Stage, meta)
	state.NextBestAction = nextBestAction(state)

	span.SetAttributes(
		attribute.String("flow.stage", state.Stage),
		attribute.String("flow.momentum", state.Momentum),
		attribute.Float64("flow.engagement", state.EngagementLevel),
	)
	return state
}

func (a *FlowAnalyzer) detectMomentum(history []ChatMessage) string {
	if len(history) < 4 {
		return MomentumStable
	}
	recent := history[len(history)-4:]

	var sawDelay, sawScheduling, sawQuestion, sawShort bool
	for _, msg := range recent {
		lower := strings.ToLower(msg.Content)
		for _, phrase := range delayPhrases {
			if strings.Contains(lower, phrase) {
				sawDelay = true
			}
		}
		if msg.Role != ChatRoleCustomer {
			continue
		}
		if hasSchedulingLanguage(lower) {
			sawScheduling = true
		}
		if strings.Contains(msg.Content, "?") {
			sawQuestion = true
		}
		if len(strings.TrimSpace(msg.Content)) < 30 {
			sawShort = true
		}
	}

	switch {
	case sawDelay:
		return MomentumDecreasing
	case sawScheduling || sawQuestion:
		return MomentumIncreasing
	case sawShort:
		return MomentumDecreasing
	default:
		return MomentumStable
	}
}

func (a *FlowAnalyzer) detectStage(history []ChatMessage) string {
	var b strings.Builder
	for _, msg := range history {
		b.WriteString(strings.ToLower(msg.Content))
		b.WriteByte(' ')
	}
	text := b.String()

	priceWords := strings.Contains(text, "price") || strings.Contains(text, "cost") ||
		strings.Contains(text, "payment")

	switch {
	case priceWords && strings.Contains(text, "when can"):
		return StageClosing
	case strings.Contains(text, "but ") || strings.Contains(text, "however") ||
		strings.Contains(text, "concern"):
		return StageObjection
	case containsAny(text, positiveInterestWords):
		return StageInterest
	case len(history) > 10:
		return StageNurture
	case len(history) > 3:
		return StageDiscovery
	default:
		return StageInitial
	}
}

func (a *FlowAnalyzer) scoreEngagement(history []ChatMessage) float64 {
	score := 0.5

	var customerChars, customerCount, questions int
	var enthusiasm, visitLanguage bool
	for _, msg := range history {
		if msg.Role != ChatRoleCustomer {
			continue
		}
		customerChars += len(msg.Content)
		customerCount++
		questions += strings.Count(msg.Content, "?")

		lower := strings.ToLower(msg.Content)
		if containsAny(lower, enthusiasmWords) {
			enthusiasm = true
		}
		if hasSchedulingLanguage(lower) {
			visitLanguage = true
		}
	}

	if customerCount > 0 {
		avg := customerChars / customerCount
		switch {
		case avg > 100:
			score += 0.2
		case avg > 50:
			score += 0.1
		case avg < 20:
			// One-word replies signal a drifting customer.
			score -= 0.2
		}
	}

	questionBonus := 0.05 * float64(questions)
	if questionBonus > 0.2 {
		questionBonus = 0.2
	}
	score += questionBonus

	if enthusiasm {
		score += 0.2
	}
	if visitLanguage {
		score += 0.15
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0.1 {
		score = 0.1
	}
	return score
}

func (a *FlowAnalyzer) recommendTiming(stage string, meta *LeadMetadata) string {
	hour := a.now().Hour()
	if hour < a.openHour || hour >= a.closeHour {
		return TimingScheduled
	}

	switch stage {
	case StageClosing, StageInterest:
		return TimingImmediate
	case StageObjection:
		return TimingDelayed
	}

	if meta != nil && meta.BestResponseHour != nil {
		diff := hour - *meta.BestResponseHour
		if diff < 0 {
			diff = -diff
		}
		if diff <= 1 {
			return TimingImmediate
		}
		return TimingScheduled
	}
	return TimingImmediate
}

func nextBestAction(state FlowState) string {
	if state.Momentum == MomentumDecreasing && state.EngagementLevel < 0.4 {
		return "engagement_recovery"
	}
	switch state.Stage {
	case StageInitial:
		return "build_rapport"
	case StageDiscovery:
		return "identify_needs"
	case StageInterest:
		if state.Momentum == MomentumIncreasing {
			return "schedule_appointment"
		}
		return "provide_more_info"
	case StageObjection:
		return "address_concerns"
	case StageClosing:
		return "confirm_next_steps"
	case StageNurture:
		return "maintain_relationship"
	default:
		return "build_rapport"
	}
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
