package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntent_Primary(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"browsing", "just looking for now, thanks", "browsing_stage"},
		{"identity", "who am i talking to?", "identity_question"},
		{"timing objection", "we're not ready until next year", "timing_objection"},
		{"budget objection", "that's out of my budget honestly", "budget_objection"},
		{"consideration pause", "let me think about it", "consideration_pause"},
		{"photo request", "can you send me some pics of the interior", "photo_request"},
		{"price inquiry", "how much is the silverado", "price_inquiry"},
		{"availability", "is the blue one still for sale", "availability_inquiry"},
		{"appointment", "can I come in tomorrow", "appointment_request"},
		{"bare question", "does it snow there much?", "question"},
		{"greeting", "hey there", "greeting"},
		{"general fallback", "my cousin bought from you last summer", "general_inquiry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, conf := ClassifyIntent(tt.message)
			assert.Equal(t, tt.want, got.Primary)
			assert.GreaterOrEqual(t, conf, 0.0)
			assert.LessOrEqual(t, conf, 1.0)
		})
	}
}

func TestClassifyIntent_CompositeFixture(t *testing.T) {
	got, conf := ClassifyIntent("Who is you and what's the price")

	assert.Equal(t, "identity_question", got.Primary)
	assert.Equal(t, "price_inquiry", got.Secondary)
	assert.InDelta(t, 0.9, conf, 0.001)
}

func TestClassifyIntent_CascadePriority(t *testing.T) {
	// Identity outranks price even when both patterns are present, and
	// browsing outranks everything.
	got, _ := ClassifyIntent("just browsing, how much is the camry?")
	assert.Equal(t, "browsing_stage", got.Primary)
	assert.Equal(t, "price_inquiry", got.Secondary)

	got, _ = ClassifyIntent("are you a bot? what's the price?")
	assert.Equal(t, "identity_question", got.Primary)
}

func TestClassifyIntent_NoDuplicateLabels(t *testing.T) {
	// Price fires the primary cascade; the secondary cascade must skip it
	// and pick the next topic instead of repeating.
	got, _ := ClassifyIntent("what's the price and do you take trades?")

	assert.Equal(t, "price_inquiry", got.Primary)
	assert.Equal(t, "trade_in_inquiry", got.Secondary)
	assert.NotEqual(t, got.Primary, got.Secondary)
	if got.Tertiary != "" {
		assert.NotEqual(t, got.Primary, got.Tertiary)
		assert.NotEqual(t, got.Secondary, got.Tertiary)
	}
}

func TestClassifyIntent_Tertiary(t *testing.T) {
	got, _ := ClassifyIntent("how much is it, can I come in for a test drive, and how soon could I pick it up?")

	assert.Equal(t, "price_inquiry", got.Primary)
	assert.Equal(t, "appointment_request", got.Secondary)
	assert.Equal(t, "timing_inquiry", got.Tertiary)
}

func TestClassifyIntent_EmptyMessage(t *testing.T) {
	got, conf := ClassifyIntent("")
	assert.Equal(t, "general_inquiry", got.Primary)
	assert.Empty(t, got.Secondary)
	assert.InDelta(t, 0.5, conf, 0.001)
}

func TestClassifyIntent_Idempotent(t *testing.T) {
	msg := "who is this? how much is the 2024 civic and can I test drive it saturday?"
	first, firstConf := ClassifyIntent(msg)
	for i := 0; i < 10; i++ {
		got, conf := ClassifyIntent(msg)
		assert.Equal(t, first, got)
		assert.Equal(t, firstConf, conf)
	}
}
