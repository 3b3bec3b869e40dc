package conversation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/autovista-ai/dealership-ai-platform/pkg/logging"
)

var objectionTracer = otel.Tracer("dealership/objection-detector")

// Suggested response kinds, consumed by the synthesizer.
const (
	RespondPricingDiscrepancy = "address_pricing_discrepancy"
	RespondPricingBreakdown   = "explain_pricing_breakdown"
	RespondEmpatheticPricing  = "empathetic_pricing_response"
	RespondProbeDeeper        = "probe_deeper"
	RespondAddressPrice       = "address_price"
	RespondCreateUrgency      = "create_urgency"
	RespondFeatureBenefits    = "feature_benefits"
	RespondCompetitorCompare  = "competitor_comparison"
)

var dollarAmountRE = regexp.MustCompile(`\$\s?(\d{1,3}(?:,\d{3})*(?:\.\d{2})?|\d+(?:\.\d{2})?)`)

type objectionPattern struct {
	regex   *regexp.Regexp
	weight  float64
	keyword string
}

// ObjectionDetector finds hesitation, pricing pushback, and competitor
// mentions in customer messages. The pricing-discrepancy tier is evaluated
// first and always outranks the generic tier on equal confidence.
type ObjectionDetector struct {
	logger   *logging.Logger
	generic  map[ObjectionType][]*objectionPattern
	kinds    map[ObjectionType]string
	nickname []nicknameEntry
}

type nicknameEntry struct {
	phrase  string
	vehicle string
}

// NewObjectionDetector creates a detector with the built-in pattern tables.
func NewObjectionDetector(logger *logging.Logger) *ObjectionDetector {
	if logger == nil {
		logger = logging.Default()
	}

	d := &ObjectionDetector{
		logger:  logger,
		generic: make(map[ObjectionType][]*objectionPattern),
		kinds: map[ObjectionType]string{
			ObjectionHesitation:        RespondProbeDeeper,
			ObjectionPriceConcern:      RespondAddressPrice,
			ObjectionTimingDelay:       RespondCreateUrgency,
			ObjectionFeatureConcern:    RespondFeatureBenefits,
			ObjectionCompetitorMention: RespondCompetitorCompare,
			ObjectionVagueResponse:     RespondProbeDeeper,
		},
		nickname: []nicknameEntry{
			{"type r", "Civic Type R"},
			{"hellcat", "Challenger Hellcat"},
			{"scat pack", "Charger Scat Pack"},
			{"raptor", "F-150 Raptor"},
			{"trackhawk", "Grand Cherokee Trackhawk"},
			{"trd pro", "TRD Pro"},
			{"rubicon", "Wrangler Rubicon"},
			{"denali", "Sierra Denali"},
			{"king ranch", "F-150 King Ranch"},
			{"plaid", "Model S Plaid"},
		},
	}

	d.generic[ObjectionHesitation] = []*objectionPattern{
		{regexp.MustCompile(`(?i)\bnot\s+(quite\s+)?sure\b`), 0.8, "not sure"},
		{regexp.MustCompile(`(?i)\bneed\s+(some\s+|more\s+)?time\b`), 0.75, "need time"},
		{regexp.MustCompile(`(?i)\b(hesitant|on\s+the\s+fence|torn)\b`), 0.9, "hesitant"},
		{regexp.MustCompile(`(?i)\bi\s+don'?t\s+know\b`), 0.7, "don't know"},
		{regexp.MustCompile(`(?i)\bmaybe\b`), 0.6, "maybe"},
	}
	d.generic[ObjectionPriceConcern] = []*objectionPattern{
		{regexp.MustCompile(`(?i)\btoo\s+(expensive|pricey|much\s+money)\b`), 0.9, "too expensive"},
		{regexp.MustCompile(`(?i)\b(out\s+of|over|above)\s+(my\s+)?budget\b`), 0.9, "over budget"},
		{regexp.MustCompile(`(?i)\bprice\s+is\s+(high|steep|a\s+lot)\b`), 0.8, "price is high"},
		{regexp.MustCompile(`(?i)\b(cheaper|better\s+deal|lower\s+price)\b`), 0.75, "wants cheaper"},
		{regexp.MustCompile(`(?i)\bcan'?t\s+afford\b`), 0.85, "can't afford"},
		{regexp.MustCompile(`(?i)\bcost\s+too\s+much\b`), 0.7, "costs too much"},
	}
	d.generic[ObjectionTimingDelay] = []*objectionPattern{
		{regexp.MustCompile(`(?i)\b(next|in\s+a\s+few)\s+(month|year)s?\b`), 0.8, "months away"},
		{regexp.MustCompile(`(?i)\bnot\s+ready\b`), 0.85, "not ready"},
		{regexp.MustCompile(`(?i)\bget\s+back\s+to\s+you\b`), 0.75, "get back to you"},
		{regexp.MustCompile(`(?i)\blater\s+this\s+year\b`), 0.7, "later this year"},
		{regexp.MustCompile(`(?i)\bwait\s+(until|till|for)\b`), 0.7, "waiting"},
		{regexp.MustCompile(`(?i)\bno\s+rush\b`), 0.9, "no rush"},
	}
	d.generic[ObjectionFeatureConcern] = []*objectionPattern{
		{regexp.MustCompile(`(?i)\bdoes\s+it\s+(have|come\s+with)\b`), 0.5, "feature question"},
		{regexp.MustCompile(`(?i)\bwish\s+it\s+(had|came\s+with)\b`), 0.8, "wish it had"},
		{regexp.MustCompile(`(?i)\b(missing|lacks|without)\s+\w+`), 0.6, "missing feature"},
		{regexp.MustCompile(`(?i)\bno\s+(sunroof|leather|awd|third\s+row|navigation|carplay)\b`), 0.8, "missing specific feature"},
	}
	d.generic[ObjectionCompetitorMention] = []*objectionPattern{
		{regexp.MustCompile(`(?i)\b(another|other|different)\s+dealer(ship)?\b`), 0.85, "other dealer"},
		{regexp.MustCompile(`(?i)\b(carmax|carvana|autonation|vroom)\b`), 0.9, "competitor name"},
		{regexp.MustCompile(`(?i)\b(another|better|competing)\s+(quote|offer)\b`), 0.85, "competing quote"},
		{regexp.MustCompile(`(?i)\bshopping\s+around\b`), 0.7, "shopping around"},
	}

	return d
}

// DetectPricingSignals runs the high-priority pricing-discrepancy tier.
func (d *ObjectionDetector) DetectPricingSignals(ctx context.Context, message string) []ObjectionSignal {
	_, span := objectionTracer.Start(ctx, "objection.detect_pricing")
	defer span.End()

	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return nil
	}

	var signals []ObjectionSignal
	amounts := extractDollarAmounts(lower)
	mentionsOnline := strings.Contains(lower, "online") || strings.Contains(lower, "website") || strings.Contains(lower, "listed")
	mentionsCall := strings.Contains(lower, "phone") || strings.Contains(lower, "call") || strings.Contains(lower, "quoted") || strings.Contains(lower, "told me")

	if strings.Contains(lower, "different price") && (mentionsOnline || mentionsCall) {
		signals = append(signals, ObjectionSignal{
			Type:                  ObjectionPricingDiscrepancy,
			Confidence:            0.95,
			Indicators:            []string{"different price"},
			SuggestedResponseKind: RespondPricingDiscrepancy,
			PriceContext:          priceContextFromAmounts(amounts, mentionsOnline, mentionsCall),
		})
	}

	if len(amounts) >= 2 && mentionsOnline && mentionsCall {
		pc := priceContextFromAmounts(amounts, true, true)
		signals = append(signals, ObjectionSignal{
			Type:                  ObjectionPricingDiscrepancy,
			Confidence:            0.90,
			Indicators:            []string{"online vs phone amounts"},
			SuggestedResponseKind: RespondPricingBreakdown,
			PriceContext:          pc,
		})
	}

	if len(amounts) >= 1 {
		for _, word := range []string{"upgrade", "package", "option", "add-on", "addon", "accessor"} {
			if strings.Contains(lower, word) {
				signals = append(signals, ObjectionSignal{
					Type:                  ObjectionUpgradeCost,
					Confidence:            0.85,
					Indicators:            []string{word + " cost"},
					SuggestedResponseKind: RespondPricingBreakdown,
					PriceContext:          &PriceContext{UpgradesConcern: true, PriceDifference: amounts[0]},
				})
				break
			}
		}
	}

	for _, phrase := range []string{"sticker shock", "can't believe the price", "cannot believe the price", "way more than", "so expensive", "jumped to"} {
		if strings.Contains(lower, phrase) {
			signals = append(signals, ObjectionSignal{
				Type:                  ObjectionPriceShock,
				Confidence:            0.80,
				Indicators:            []string{phrase},
				SuggestedResponseKind: RespondEmpatheticPricing,
			})
			break
		}
	}

	span.SetAttributes(attribute.Int("objection.pricing_signals", len(signals)))
	return signals
}

// DetectObjections runs the generic objection tier. Pricing phrases already
// claimed by the discrepancy tier are not re-reported here.
func (d *ObjectionDetector) DetectObjections(ctx context.Context, message string) []ObjectionSignal {
	_, span := objectionTracer.Start(ctx, "objection.detect_generic")
	defer span.End()

	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return nil
	}

	var signals []ObjectionSignal
	for _, objType := range []ObjectionType{
		ObjectionHesitation,
		ObjectionPriceConcern,
		ObjectionTimingDelay,
		ObjectionFeatureConcern,
		ObjectionCompetitorMention,
	} {
		var best *ObjectionSignal
		for _, p := range d.generic[objType] {
			if !p.regex.MatchString(trimmed) {
				continue
			}
			if best == nil || p.weight > best.Confidence {
				best = &ObjectionSignal{
					Type:                  objType,
					Confidence:            p.weight,
					Indicators:            []string{p.keyword},
					SuggestedResponseKind: d.kinds[objType],
				}
			}
		}
		if best != nil {
			signals = append(signals, *best)
		}
	}

	if sig := detectVagueReply(trimmed); sig != nil {
		signals = append(signals, *sig)
	}

	if len(signals) > 0 {
		if nick := d.detectNickname(strings.ToLower(trimmed)); nick != "" {
			signals[0].VehicleNickname = nick
		}
		d.logger.Debug("objections detected",
			"count", len(signals),
			"first_type", signals[0].Type,
		)
	}

	span.SetAttributes(attribute.Int("objection.generic_signals", len(signals)))
	return signals
}

// detectVagueReply flags short, low-content acknowledgements that usually
// mean the customer is drifting.
func detectVagueReply(message string) *ObjectionSignal {
	lower := strings.ToLower(strings.Trim(message, " .,!?"))
	if len(lower) > 25 {
		return nil
	}
	vague := map[string]float64{
		"ok": 0.8, "okay": 0.8, "sure": 0.7, "i guess": 0.8,
		"sounds good": 0.6, "cool": 0.7, "fine": 0.7, "alright": 0.7,
		"if you say so": 0.8, "whatever": 0.8,
	}
	if weight, hit := vague[lower]; hit {
		return &ObjectionSignal{
			Type:                  ObjectionVagueResponse,
			Confidence:            weight,
			Indicators:            []string{lower},
			SuggestedResponseKind: RespondProbeDeeper,
		}
	}
	return nil
}

func (d *ObjectionDetector) detectNickname(lower string) string {
	for _, n := range d.nickname {
		if strings.Contains(lower, n.phrase) {
			return n.vehicle
		}
	}
	return ""
}

// GenerateResponse renders an empathetic reply for the highest-confidence
// signal. Ties break toward the pricing tier, which the caller passes first.
func (d *ObjectionDetector) GenerateResponse(leadName, vehicleText string, pricing, generic []ObjectionSignal) (string, *ObjectionSignal) {
	var best *ObjectionSignal
	for i := range pricing {
		if best == nil || pricing[i].Confidence > best.Confidence {
			best = &pricing[i]
		}
	}
	// A generic signal must strictly beat every pricing signal.
	for i := range generic {
		if best == nil || generic[i].Confidence > best.Confidence {
			best = &generic[i]
		}
	}
	if best == nil {
		return "", nil
	}

	first := firstName(leadName)
	vehicle := vehicleText
	if best.VehicleNickname != "" {
		vehicle = best.VehicleNickname
	}
	if vehicle == "" {
		vehicle = "the vehicle"
	}

	var msg string
	switch best.SuggestedResponseKind {
	case RespondPricingDiscrepancy:
		msg = fmt.Sprintf("%s, you're right to flag that - the price you saw should match what you were quoted. Let me pull the exact listing for %s and walk you through every line item so there are no surprises.", first, vehicle)
		if pc := best.PriceContext; pc != nil && pc.PriceDifference > 0 {
			msg += fmt.Sprintf(" I'll account for the $%.0f gap specifically.", pc.PriceDifference)
		}
	case RespondPricingBreakdown:
		msg = fmt.Sprintf("%s, that difference usually comes down to options and fees, and I'd rather show you the math than talk around it. Want me to send a full out-the-door breakdown for %s?", first, vehicle)
	case RespondEmpatheticPricing:
		msg = fmt.Sprintf("I hear you, %s - nobody likes a number that lands higher than expected. Let's look at what's driving the price on %s and see where we have room.", first, vehicle)
	case RespondAddressPrice:
		msg = fmt.Sprintf("%s, budget matters and I want to respect yours. There are a few ways to get %s into a comfortable monthly range - can I share some options?", first, vehicle)
	case RespondCreateUrgency:
		msg = fmt.Sprintf("Totally fair, %s. One thing worth knowing: %s has been getting a lot of attention, so if it's the right fit I'd hate for timing to cost you the car. What's holding the timeline back?", first, vehicle)
	case RespondFeatureBenefits:
		msg = fmt.Sprintf("Good question, %s - let me get you the full spec sheet for %s. If it's missing something you need, I can check sister stores for a build that has it.", first, vehicle)
	case RespondCompetitorCompare:
		msg = fmt.Sprintf("%s, comparing is smart - I'd do the same. Bring me any quote you've got on %s and I'll tell you straight whether we can beat it or why theirs is the better deal.", first, vehicle)
	default:
		msg = fmt.Sprintf("%s, it sounds like something's giving you pause about %s. What's the main thing on your mind?", first, vehicle)
	}
	return msg, best
}

func extractDollarAmounts(lower string) []float64 {
	var amounts []float64
	for _, m := range dollarAmountRE.FindAllStringSubmatch(lower, -1) {
		cleaned := strings.ReplaceAll(m[1], ",", "")
		if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
			amounts = append(amounts, v)
		}
	}
	return amounts
}

func priceContextFromAmounts(amounts []float64, online, call bool) *PriceContext {
	pc := &PriceContext{}
	if len(amounts) >= 2 {
		pc.MentionedOnlinePrice = amounts[0]
		pc.MentionedCallPrice = amounts[1]
		diff := amounts[1] - amounts[0]
		if diff < 0 {
			diff = -diff
		}
		pc.PriceDifference = diff
	} else if len(amounts) == 1 {
		if online {
			pc.MentionedOnlinePrice = amounts[0]
		} else if call {
			pc.MentionedCallPrice = amounts[0]
		}
	}
	return pc
}

func firstName(leadName string) string {
	fields := strings.Fields(strings.TrimSpace(leadName))
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}
