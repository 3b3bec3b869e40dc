package conversation

import "fmt"

// Routes name the subsystem that governs the final message.
const (
	RoutePricing    = "pricing"
	RouteObjection  = "objection"
	RouteScheduling = "scheduling"
	RouteComposite  = "composite"
	RouteIntent     = "intent"
)

// Strategy labels attached to the outgoing response.
const (
	StrategyEmpathetic   = "empathetic_understanding"
	StrategyValueFocused = "value_focused"
	StrategyScheduling   = "scheduling_focused"
	StrategyIntroduction = "professional_introduction"
	StrategyConsultative = "consultative"
	StrategyFallback     = "fallback"
)

// Signals bundles every extractor output for one message. The resolver and
// synthesizer read it; nothing mutates it.
type Signals struct {
	Vehicle          VehicleExtraction
	Scheduling       SchedulingIntent
	Pricing          []ObjectionSignal
	Objections       []ObjectionSignal
	Intent           IntentResult
	IntentConfidence float64
	Flow             FlowState
}

// StrategyDecision records which route won and why.
type StrategyDecision struct {
	Route        string
	Strategy     string
	ResponseType string
	Governing    *ObjectionSignal
	Reasoning    []string
}

// ResolveStrategy applies the fixed priority order: pricing discrepancies
// beat generic objections, objections beat scheduling, scheduling beats
// intent-driven templates. Pure function.
func ResolveStrategy(sig Signals) StrategyDecision {
	if len(sig.Pricing) > 0 {
		best := strongestSignal(sig.Pricing)
		return StrategyDecision{
			Route:        RoutePricing,
			Strategy:     StrategyEmpathetic,
			ResponseType: "pricing_response",
			Governing:    best,
			Reasoning: []string{fmt.Sprintf(
				"pricing signal %s (%.2f) takes priority over all other routes", best.Type, best.Confidence)},
		}
	}

	if len(sig.Objections) > 0 {
		best := strongestSignal(sig.Objections)
		strategy := StrategyEmpathetic
		if best.Type == ObjectionPriceConcern {
			strategy = StrategyValueFocused
		}
		return StrategyDecision{
			Route:        RouteObjection,
			Strategy:     strategy,
			ResponseType: "objection_response",
			Governing:    best,
			Reasoning: []string{fmt.Sprintf(
				"objection %s (%.2f) selected, no pricing signal present", best.Type, best.Confidence)},
		}
	}

	if sig.Scheduling.HasSchedulingRequest {
		return StrategyDecision{
			Route:        RouteScheduling,
			Strategy:     StrategyScheduling,
			ResponseType: "scheduling_response",
			Reasoning: []string{fmt.Sprintf(
				"scheduling request for %s (%.2f)", sig.Scheduling.AppointmentType.Type, sig.Scheduling.Confidence)},
		}
	}

	if sig.Intent.Primary != "" && sig.Intent.Secondary != "" {
		strategy := StrategyConsultative
		if sig.Intent.Primary == "identity_question" {
			strategy = StrategyIntroduction
		}
		return StrategyDecision{
			Route:        RouteComposite,
			Strategy:     strategy,
			ResponseType: "composite_response",
			Reasoning: []string{fmt.Sprintf(
				"composite intent %s+%s", sig.Intent.Primary, sig.Intent.Secondary)},
		}
	}

	return StrategyDecision{
		Route:        RouteIntent,
		Strategy:     singleIntentStrategy(sig.Intent.Primary),
		ResponseType: "intent_response",
		Reasoning:    []string{fmt.Sprintf("single intent %s", sig.Intent.Primary)},
	}
}

func strongestSignal(signals []ObjectionSignal) *ObjectionSignal {
	best := &signals[0]
	for i := range signals[1:] {
		if signals[i+1].Confidence > best.Confidence {
			best = &signals[i+1]
		}
	}
	return best
}

func singleIntentStrategy(primary string) string {
	switch primary {
	case "identity_question":
		return StrategyIntroduction
	case "price_inquiry", "budget_objection":
		return StrategyValueFocused
	case "appointment_request":
		return StrategyScheduling
	default:
		return StrategyConsultative
	}
}
