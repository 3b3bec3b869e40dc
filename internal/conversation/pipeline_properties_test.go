package conversation

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autovista-ai/dealership-ai-platform/pkg/logging"
)

var fuzzWords = []string{
	"honda", "civic", "price", "2024", "tomorrow", "schedule", "test",
	"drive", "financing", "online", "phone", "$24,500", "expensive",
	"maybe", "ok", "red", "truck", "when", "can", "i", "come", "in",
	"too", "thinking", "about", "it", "carmax", "quote", "different",
	"upgrade", "package", "hello", "?", "availability", "photos",
}

func randomMessage(rng *rand.Rand) string {
	n := rng.Intn(12) + 1
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fuzzWords[rng.Intn(len(fuzzWords))]
	}
	return strings.Join(parts, " ")
}

func TestExtractorConfidenceBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	detector := NewObjectionDetector(logging.New("error"))
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		msg := randomMessage(rng)
		label := fmt.Sprintf("msg %d: %q", i, msg)

		vehicle := ExtractVehicle(msg)
		if vehicle.Primary != nil {
			assert.GreaterOrEqual(t, vehicle.Primary.Confidence, 0.0, label)
			assert.LessOrEqual(t, vehicle.Primary.Confidence, 1.0, label)
		}
		for _, sec := range vehicle.Secondary {
			assert.GreaterOrEqual(t, sec.Confidence, 0.0, label)
			assert.LessOrEqual(t, sec.Confidence, 1.0, label)
		}

		scheduling := AnalyzeScheduling(msg)
		assert.GreaterOrEqual(t, scheduling.Confidence, 0.0, label)
		assert.LessOrEqual(t, scheduling.Confidence, 1.0, label)

		_, conf := ClassifyIntent(msg)
		assert.GreaterOrEqual(t, conf, 0.0, label)
		assert.LessOrEqual(t, conf, 1.0, label)

		for _, sig := range detector.DetectPricingSignals(ctx, msg) {
			assert.GreaterOrEqual(t, sig.Confidence, 0.0, label)
			assert.LessOrEqual(t, sig.Confidence, 1.0, label)
		}
		for _, sig := range detector.DetectObjections(ctx, msg) {
			assert.GreaterOrEqual(t, sig.Confidence, 0.0, label)
			assert.LessOrEqual(t, sig.Confidence, 1.0, label)
		}
	}
}

func TestExtractorsAreDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 50; i++ {
		msg := randomMessage(rng)
		label := fmt.Sprintf("msg %d: %q", i, msg)

		assert.Equal(t, ExtractVehicle(msg), ExtractVehicle(msg), label)
		assert.Equal(t, AnalyzeScheduling(msg), AnalyzeScheduling(msg), label)

		intentA, confA := ClassifyIntent(msg)
		intentB, confB := ClassifyIntent(msg)
		assert.Equal(t, intentA, intentB, label)
		assert.Equal(t, confA, confB, label)
	}
}
