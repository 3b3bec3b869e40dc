package conversation

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/autovista-ai/dealership-ai-platform/pkg/logging"
)

var synthTracer = otel.Tracer("dealership/synthesizer")

const (
	minMessageLen = 10
	maxMessageLen = 500

	recentBufferSize = 5
)

// Personas flavor the template wording.
const (
	PersonaCasual       = "casual"
	PersonaProfessional = "professional"
	PersonaEnthusiastic = "enthusiastic"
)

// SynthesisInput is everything the synthesizer needs for one reply.
// ObjectionMessage carries the pre-rendered text for the pricing and
// objection routes.
type SynthesisInput struct {
	Context          MessageContext
	Signals          Signals
	Decision         StrategyDecision
	ObjectionMessage string
}

// ResponseSynthesizer turns a resolved strategy into final message text. It
// owns the per-lead anti-repetition buffer and the only randomness in the
// pipeline, which is seedable for deterministic tests.
type ResponseSynthesizer struct {
	logger *logging.Logger

	mu     sync.Mutex
	rng    *rand.Rand
	recent map[string][]string
}

// NewResponseSynthesizer creates a synthesizer. The seed drives template and
// persona selection only; extraction stays deterministic regardless.
func NewResponseSynthesizer(logger *logging.Logger, seed int64) *ResponseSynthesizer {
	if logger == nil {
		logger = logging.Default()
	}
	return &ResponseSynthesizer{
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
		recent: make(map[string][]string),
	}
}

// Synthesize renders the reply for the resolved strategy. Returns
// ErrSynthesisFailed when no template yields a valid message; callers then
// walk the fallback chain.
func (s *ResponseSynthesizer) Synthesize(ctx context.Context, in SynthesisInput) (*UnifiedResponse, error) {
	_, span := synthTracer.Start(ctx, "synthesizer.synthesize")
	defer span.End()

	first := firstName(in.Context.LeadName)
	vehicle := vehicleText(in.Signals.Vehicle, in.Context.VehicleInterest)
	persona := s.pickPersona(in)

	reasoning := append([]string{}, in.Decision.Reasoning...)
	reasoning = append(reasoning, "persona "+persona)

	var message string
	switch in.Decision.Route {
	case RoutePricing, RouteObjection:
		message = in.ObjectionMessage
	case RouteScheduling:
		message = fmt.Sprintf("%s, %s", first, lowerFirst(in.Signals.Scheduling.SuggestedResponse))
	case RouteComposite:
		message = s.composeCompound(in.Signals.Intent, first, vehicle, persona)
		reasoning = append(reasoning, "compound sentence from primary and secondary intents")
	default:
		var picked string
		message, picked = s.fromPool(in.Context.LeadID, in.Signals.Intent.Primary, first, vehicle)
		if picked != "" {
			reasoning = append(reasoning, "template pool "+picked)
		}
	}

	if !validMessage(message) {
		s.logger.Warn("synthesis produced invalid message",
			"lead_id", in.Context.LeadID,
			"route", in.Decision.Route,
			"length", len(message),
		)
		span.SetAttributes(attribute.Bool("synthesizer.valid", false))
		return nil, ErrSynthesisFailed
	}
	s.remember(in.Context.LeadID, message)

	resp := &UnifiedResponse{
		Message:          message,
		Confidence:       s.confidenceFor(in),
		ResponseType:     in.Decision.ResponseType,
		Intent:           in.Signals.Intent,
		ResponseStrategy: in.Decision.Strategy,
		Reasoning:        reasoning,
		VehicleContext:   in.Signals.Vehicle.Primary,
	}
	if in.Signals.Scheduling.HasSchedulingRequest {
		sched := in.Signals.Scheduling
		resp.SchedulingContext = &sched
	}

	span.SetAttributes(
		attribute.String("synthesizer.route", in.Decision.Route),
		attribute.String("synthesizer.persona", persona),
	)
	return resp, nil
}

// pickPersona chooses a voice for this reply. High urgency forces the
// professional voice; long conversations earn a warmer one.
func (s *ResponseSynthesizer) pickPersona(in SynthesisInput) string {
	if pref := in.Signals.Scheduling.TimePreference; pref != nil && pref.Urgency == "asap" {
		return PersonaProfessional
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(in.Context.ConversationHistory) > 10 {
		if s.rng.Intn(2) == 0 {
			return PersonaCasual
		}
		return PersonaEnthusiastic
	}
	switch s.rng.Intn(3) {
	case 0:
		return PersonaCasual
	case 1:
		return PersonaProfessional
	default:
		return PersonaEnthusiastic
	}
}

// fromPool picks a template for the primary intent, skipping renderings the
// lead has seen recently. Returns the rendered message and the pool name.
func (s *ResponseSynthesizer) fromPool(leadID, primary, first, vehicle string) (string, string) {
	pool, name := templatePool(primary)

	candidates := make([]string, 0, len(pool))
	for _, tpl := range pool {
		if msg := tpl(first, vehicle); validMessage(msg) {
			candidates = append(candidates, msg)
		}
	}
	if len(candidates) == 0 {
		return "", name
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !s.seenRecentlyLocked(leadID, c) {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		fresh = candidates
	}
	return fresh[s.rng.Intn(len(fresh))], name
}

func (s *ResponseSynthesizer) composeCompound(intent IntentResult, first, vehicle, persona string) string {
	var b strings.Builder
	b.WriteString(introClause(intent.Primary, first))
	b.WriteByte(' ')
	b.WriteString(actionClause(intent.Secondary, vehicle))
	if clause := tertiaryClause(intent.Tertiary); clause != "" {
		b.WriteByte(' ')
		b.WriteString(clause)
	}
	b.WriteByte(' ')
	b.WriteString(openQuestion(persona))
	return b.String()
}

func (s *ResponseSynthesizer) seenRecentlyLocked(leadID, msg string) bool {
	for _, prev := range s.recent[leadID] {
		if prev == msg {
			return true
		}
	}
	return false
}

func (s *ResponseSynthesizer) remember(leadID, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := append(s.recent[leadID], msg)
	if len(buf) > recentBufferSize {
		buf = buf[len(buf)-recentBufferSize:]
	}
	s.recent[leadID] = buf
}

func (s *ResponseSynthesizer) confidenceFor(in SynthesisInput) float64 {
	switch in.Decision.Route {
	case RoutePricing, RouteObjection:
		if in.Decision.Governing != nil {
			return in.Decision.Governing.Confidence
		}
		return 0.7
	case RouteScheduling:
		return in.Signals.Scheduling.Confidence
	default:
		return in.Signals.IntentConfidence
	}
}

func vehicleText(extraction VehicleExtraction, vehicleInterest string) string {
	if extraction.ExtractedText != "" {
		return extraction.ExtractedText
	}
	if strings.TrimSpace(vehicleInterest) != "" {
		return strings.TrimSpace(vehicleInterest)
	}
	return "the right vehicle"
}

func validMessage(msg string) bool {
	n := len(strings.TrimSpace(msg))
	return n >= minMessageLen && n <= maxMessageLen
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

type messageTemplate func(first, vehicle string) string

// templatePool returns the template set for a primary intent, falling back
// to the general pool for intents without a dedicated one.
func templatePool(primary string) ([]messageTemplate, string) {
	switch primary {
	case "greeting":
		return greetingPool, "greeting"
	case "question":
		return questionPool, "question"
	case "price_inquiry":
		return pricePool, "price_inquiry"
	case "availability_inquiry":
		return availabilityPool, "availability_inquiry"
	case "photo_request":
		return photoPool, "photo_request"
	case "browsing_stage":
		return browsingPool, "browsing_stage"
	case "identity_question":
		return identityPool, "identity_question"
	case "consideration_pause":
		return considerationPool, "consideration_pause"
	case "timing_objection":
		return timingPool, "timing_objection"
	case "budget_objection":
		return budgetPool, "budget_objection"
	case "appointment_request":
		return appointmentPool, "appointment_request"
	default:
		return generalPool, "general_inquiry"
	}
}

var greetingPool = []messageTemplate{
	func(first, vehicle string) string {
		return fmt.Sprintf("Hi %s! Thanks for reaching out. Are you still interested in %s, or is there something else I can help you find?", first, vehicle)
	},
	func(first, vehicle string) string {
		return fmt.Sprintf("Hey %s, great to hear from you! What questions can I answer about %s today?", first, vehicle)
	},
	func(first, vehicle string) string {
		return fmt.Sprintf("Hello %s, glad you got in touch. I'd love to help you with %s - where would you like to start?", first, vehicle)
	},
}

var questionPool = []messageTemplate{
	func(first, vehicle string) string {
		return fmt.Sprintf("Good question, %s! Let me get you a solid answer on that. While I pull the details on %s, is there anything else you'd like to know?", first, vehicle)
	},
	func(first, vehicle string) string {
		return fmt.Sprintf("%s, happy to answer that. I'll confirm the specifics on %s and get right back to you - anything else on your list?", first, vehicle)
	},
	func(first, vehicle string) string {
		return fmt.Sprintf("Great question, %s. I want to give you an accurate answer, so let me verify the details on %s first. What else can I help with?", first, vehicle)
	},
}

var pricePool = []messageTemplate{
	func(first, vehicle string) string {
		return fmt.Sprintf("%s, happy to talk numbers. I can put together an out-the-door price on %s with no surprises - want me to send it over?", first, vehicle)
	},
	func(first, vehicle string) string {
		return fmt.Sprintf("Great timing, %s - we have some strong pricing on %s right now. Would you like the full breakdown including fees?", first, vehicle)
	},
	func(first, vehicle string) string {
		return fmt.Sprintf("%s, I'll get you real pricing on %s, not a teaser number. Are you thinking cash, finance, or lease?", first, vehicle)
	},
}

var availabilityPool = []messageTemplate{
	func(first, vehicle string) string {
		return fmt.Sprintf("%s, let me check our live inventory on %s right now. If it's moved, I can usually locate a match nearby - want me to look?", first, vehicle)
	},
	func(first, vehicle string) string {
		return fmt.Sprintf("Good news, %s - I can confirm availability on %s today. Would you like me to hold it for a visit?", first, vehicle)
	},
}

var photoPool = []messageTemplate{
	func(first, vehicle string) string {
		return fmt.Sprintf("Absolutely, %s! I'll grab fresh photos of %s from the lot today, including the interior. Any angle you care about most?", first, vehicle)
	},
	func(first, vehicle string) string {
		return fmt.Sprintf("%s, I'll send over current pictures of %s shortly. Want a quick walkaround video too?", first, vehicle)
	},
}

var browsingPool = []messageTemplate{
	func(first, vehicle string) string {
		return fmt.Sprintf("No pressure at all, %s - browsing is the right way to start. If %s stays on your list, I'm happy to flag price drops for you. Sound good?", first, vehicle)
	},
	func(first, vehicle string) string {
		return fmt.Sprintf("Totally fine, %s, take your time. Want me to send anything useful while you look around, like a comparison on %s?", first, vehicle)
	},
}

var identityPool = []messageTemplate{
	func(first, vehicle string) string {
		return fmt.Sprintf("Fair question, %s! You're chatting with the sales team here at the dealership - a real person reads every message. How can I help with %s?", first, vehicle)
	},
	func(first, vehicle string) string {
		return fmt.Sprintf("%s, you've reached the dealership's sales desk - happy to introduce myself properly by phone too. What would you like to know about %s?", first, vehicle)
	},
}

var considerationPool = []messageTemplate{
	func(first, vehicle string) string {
		return fmt.Sprintf("Of course, %s - it's a big decision. While you're thinking it over, is there any missing info about %s I can get you?", first, vehicle)
	},
	func(first, vehicle string) string {
		return fmt.Sprintf("%s, take the time you need. If it helps, I can send the full history and spec sheet for %s so you're deciding with everything in hand.", first, vehicle)
	},
}

var timingPool = []messageTemplate{
	func(first, vehicle string) string {
		return fmt.Sprintf("Understood, %s - no rush on my end. Want me to keep an eye on %s and let you know if anything changes with price or availability?", first, vehicle)
	},
	func(first, vehicle string) string {
		return fmt.Sprintf("%s, that works. I'll check back closer to your timeline. If %s sells first, should I watch for a similar one?", first, vehicle)
	},
}

var budgetPool = []messageTemplate{
	func(first, vehicle string) string {
		return fmt.Sprintf("%s, I hear you on budget. There may be more room than you think between incentives and financing on %s - want me to run the numbers?", first, vehicle)
	},
	func(first, vehicle string) string {
		return fmt.Sprintf("Totally fair, %s. If %s is over the line, I can show you a couple of close alternatives that land where you want. Interested?", first, vehicle)
	},
}

var appointmentPool = []messageTemplate{
	func(first, vehicle string) string {
		return fmt.Sprintf("%s, I'd love to get you in. We have openings most days this week to see %s - what day works best for you?", first, vehicle)
	},
	func(first, vehicle string) string {
		return fmt.Sprintf("Let's make it happen, %s. I'll have %s pulled up front and ready - morning or afternoon better for you?", first, vehicle)
	},
}

var generalPool = []messageTemplate{
	func(first, vehicle string) string {
		return fmt.Sprintf("Thanks for the message, %s! I'm here to help with anything about %s - what would be most useful right now?", first, vehicle)
	},
	func(first, vehicle string) string {
		return fmt.Sprintf("%s, got it - thanks for reaching out. Tell me a bit more about what you're looking for and I'll point you the right way on %s.", first, vehicle)
	},
	func(first, vehicle string) string {
		return fmt.Sprintf("Appreciate you reaching out, %s. Whether it's %s or something else on the lot, I can get you answers fast - what's top of mind?", first, vehicle)
	},
}

func introClause(primary, first string) string {
	switch primary {
	case "identity_question":
		return fmt.Sprintf("Great question, %s - you're chatting with the sales team here at the dealership, and a real person reads every message.", first)
	case "greeting":
		return fmt.Sprintf("Hi %s, thanks for reaching out!", first)
	case "browsing_stage":
		return fmt.Sprintf("No pressure at all, %s - glad you're looking around.", first)
	default:
		return fmt.Sprintf("Thanks for the message, %s!", first)
	}
}

func actionClause(secondary, vehicle string) string {
	switch secondary {
	case "price_inquiry":
		return fmt.Sprintf("On pricing, I can put together a full out-the-door number for %s with no surprises.", vehicle)
	case "trade_in_inquiry":
		return fmt.Sprintf("And yes, we take trades - I can get you a real number for yours against %s.", vehicle)
	case "financing_inquiry":
		return fmt.Sprintf("On financing, we work with a wide lender network and I can get you pre-qualified for %s without a hard pull.", vehicle)
	case "availability_inquiry":
		return fmt.Sprintf("Let me confirm %s is still on the lot right now.", vehicle)
	case "appointment_request":
		return fmt.Sprintf("I can also get %s pulled up front for a visit this week.", vehicle)
	case "feature_inquiry":
		return fmt.Sprintf("I'll send the full spec sheet for %s so you can see exactly what it comes with.", vehicle)
	case "color_preference":
		return fmt.Sprintf("I'll check which colors we have in stock for %s.", vehicle)
	case "service_inquiry":
		return fmt.Sprintf("Our service team can answer the maintenance side for %s, and I'll loop them in.", vehicle)
	default:
		return fmt.Sprintf("I can get you everything you need on %s.", vehicle)
	}
}

func tertiaryClause(tertiary string) string {
	switch tertiary {
	case "timing_inquiry":
		return "Timing-wise, most of this can happen same day."
	case "comparison_request":
		return "I can also put together a side-by-side comparison if that helps."
	case "test_drive_request":
		return "And a test drive is easy to set up whenever you're ready."
	case "lease_inquiry":
		return "Lease options are on the table too if you'd rather go that route."
	default:
		return ""
	}
}

func openQuestion(persona string) string {
	switch persona {
	case PersonaCasual:
		return "What works best for you?"
	case PersonaEnthusiastic:
		return "What would you like to tackle first?"
	default:
		return "How would you like to proceed?"
	}
}
