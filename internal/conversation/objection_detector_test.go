package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autovista-ai/dealership-ai-platform/pkg/logging"
)

func newTestObjectionDetector() *ObjectionDetector {
	return NewObjectionDetector(logging.New("error"))
}

func TestDetectPricingSignals_OnlineVsPhone(t *testing.T) {
	d := newTestObjectionDetector()

	signals := d.DetectPricingSignals(context.Background(),
		"the website said $24,500 but on the phone you told me $27,000")

	require.NotEmpty(t, signals)
	sig := signals[0]
	assert.Equal(t, ObjectionPricingDiscrepancy, sig.Type)
	assert.InDelta(t, 0.90, sig.Confidence, 0.001)
	assert.Equal(t, RespondPricingBreakdown, sig.SuggestedResponseKind)
	require.NotNil(t, sig.PriceContext)
	assert.InDelta(t, 24500, sig.PriceContext.MentionedOnlinePrice, 0.01)
	assert.InDelta(t, 27000, sig.PriceContext.MentionedCallPrice, 0.01)
	assert.InDelta(t, 2500, sig.PriceContext.PriceDifference, 0.01)
}

func TestDetectPricingSignals_DifferentPricePhrase(t *testing.T) {
	d := newTestObjectionDetector()

	signals := d.DetectPricingSignals(context.Background(),
		"you quoted me a different price online than in the showroom")

	require.NotEmpty(t, signals)
	assert.Equal(t, ObjectionPricingDiscrepancy, signals[0].Type)
	assert.InDelta(t, 0.95, signals[0].Confidence, 0.001)
	assert.Equal(t, RespondPricingDiscrepancy, signals[0].SuggestedResponseKind)
}

func TestDetectPricingSignals_UpgradeCost(t *testing.T) {
	d := newTestObjectionDetector()

	signals := d.DetectPricingSignals(context.Background(),
		"why is it $2,000 more for the premium package?")

	require.NotEmpty(t, signals)
	sig := signals[0]
	assert.Equal(t, ObjectionUpgradeCost, sig.Type)
	assert.InDelta(t, 0.85, sig.Confidence, 0.001)
	require.NotNil(t, sig.PriceContext)
	assert.True(t, sig.PriceContext.UpgradesConcern)
}

func TestDetectPricingSignals_PriceShock(t *testing.T) {
	d := newTestObjectionDetector()

	signals := d.DetectPricingSignals(context.Background(),
		"honestly I had sticker shock when I saw the total")

	require.NotEmpty(t, signals)
	assert.Equal(t, ObjectionPriceShock, signals[0].Type)
	assert.InDelta(t, 0.80, signals[0].Confidence, 0.001)
	assert.Equal(t, RespondEmpatheticPricing, signals[0].SuggestedResponseKind)
}

func TestDetectPricingSignals_NoSignal(t *testing.T) {
	d := newTestObjectionDetector()
	assert.Empty(t, d.DetectPricingSignals(context.Background(), "love the color, when can I see it"))
	assert.Empty(t, d.DetectPricingSignals(context.Background(), ""))
}

func TestDetectObjections_Types(t *testing.T) {
	d := newTestObjectionDetector()

	tests := []struct {
		name     string
		message  string
		wantType ObjectionType
		wantKind string
	}{
		{"hesitation", "I'm not sure yet, still thinking it over", ObjectionHesitation, RespondProbeDeeper},
		{"price concern", "it's just too expensive for me", ObjectionPriceConcern, RespondAddressPrice},
		{"timing delay", "we're not ready to buy until next year", ObjectionTimingDelay, RespondCreateUrgency},
		{"feature concern", "does it have a sunroof?", ObjectionFeatureConcern, RespondFeatureBenefits},
		{"competitor", "carmax offered me a better number", ObjectionCompetitorMention, RespondCompetitorCompare},
		{"vague", "ok", ObjectionVagueResponse, RespondProbeDeeper},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals := d.DetectObjections(context.Background(), tt.message)
			require.NotEmpty(t, signals)

			found := false
			for _, s := range signals {
				if s.Type == tt.wantType {
					found = true
					assert.Equal(t, tt.wantKind, s.SuggestedResponseKind)
					assert.Greater(t, s.Confidence, 0.0)
					assert.LessOrEqual(t, s.Confidence, 1.0)
				}
			}
			assert.True(t, found, "expected %s in %v", tt.wantType, signals)
		})
	}
}

func TestDetectObjections_BestPatternPerType(t *testing.T) {
	d := newTestObjectionDetector()

	// "hesitant" (0.9) and "maybe" (0.6) both match; the stronger wins and
	// only one hesitation signal is emitted.
	signals := d.DetectObjections(context.Background(), "maybe, I'm still hesitant about it")

	var hesitation []ObjectionSignal
	for _, s := range signals {
		if s.Type == ObjectionHesitation {
			hesitation = append(hesitation, s)
		}
	}
	require.Len(t, hesitation, 1)
	assert.InDelta(t, 0.9, hesitation[0].Confidence, 0.001)
}

func TestDetectObjections_VehicleNickname(t *testing.T) {
	d := newTestObjectionDetector()

	signals := d.DetectObjections(context.Background(), "the hellcat is too expensive for me")

	require.NotEmpty(t, signals)
	assert.Equal(t, "Challenger Hellcat", signals[0].VehicleNickname)
}

func TestDetectObjections_CleanMessage(t *testing.T) {
	d := newTestObjectionDetector()
	assert.Empty(t, d.DetectObjections(context.Background(), "perfect, see you Saturday at noon for the test drive"))
}

func TestGenerateResponse_PricingWinsTies(t *testing.T) {
	d := newTestObjectionDetector()

	pricing := []ObjectionSignal{{
		Type:                  ObjectionPricingDiscrepancy,
		Confidence:            0.9,
		SuggestedResponseKind: RespondPricingDiscrepancy,
	}}
	generic := []ObjectionSignal{{
		Type:                  ObjectionPriceConcern,
		Confidence:            0.9,
		SuggestedResponseKind: RespondAddressPrice,
	}}

	msg, best := d.GenerateResponse("Jordan Smith", "2024 Honda Civic", pricing, generic)

	require.NotNil(t, best)
	assert.Equal(t, ObjectionPricingDiscrepancy, best.Type)
	assert.Contains(t, msg, "Jordan")
	assert.Contains(t, msg, "2024 Honda Civic")
}

func TestGenerateResponse_NicknameOverridesVehicleText(t *testing.T) {
	d := newTestObjectionDetector()

	generic := []ObjectionSignal{{
		Type:                  ObjectionPriceConcern,
		Confidence:            0.85,
		SuggestedResponseKind: RespondAddressPrice,
		VehicleNickname:       "F-150 Raptor",
	}}

	msg, best := d.GenerateResponse("Sam", "a truck", nil, generic)

	require.NotNil(t, best)
	assert.Contains(t, msg, "F-150 Raptor")
	assert.NotContains(t, msg, "a truck")
}

func TestGenerateResponse_NoSignals(t *testing.T) {
	d := newTestObjectionDetector()
	msg, best := d.GenerateResponse("Sam", "", nil, nil)
	assert.Empty(t, msg)
	assert.Nil(t, best)
}

func TestGenerateResponse_MissingNameAndVehicle(t *testing.T) {
	d := newTestObjectionDetector()

	generic := []ObjectionSignal{{
		Type:                  ObjectionHesitation,
		Confidence:            0.8,
		SuggestedResponseKind: RespondProbeDeeper,
	}}

	msg, best := d.GenerateResponse("", "", nil, generic)

	require.NotNil(t, best)
	assert.Contains(t, msg, "there")
	assert.Contains(t, msg, "the vehicle")
}
