package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/autovista-ai/dealership-ai-platform/pkg/logging"
)

func newTestFlowAnalyzer(opts ...FlowOption) *FlowAnalyzer {
	base := []FlowOption{WithFlowClock(func() time.Time {
		return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	})}
	return NewFlowAnalyzer(logging.New("error"), append(base, opts...)...)
}

func customerSays(contents ...string) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(contents))
	for _, c := range contents {
		msgs = append(msgs, ChatMessage{Role: ChatRoleCustomer, Content: c})
	}
	return msgs
}

func TestFlowAnalyzer_MomentumShortHistory(t *testing.T) {
	a := newTestFlowAnalyzer()
	got := a.Analyze(context.Background(), customerSays("hi", "is the civic available"), nil)
	assert.Equal(t, MomentumStable, got.Momentum)
}

func TestFlowAnalyzer_MomentumIncreasing(t *testing.T) {
	a := newTestFlowAnalyzer()
	history := customerSays(
		"I saw the listing for the silver Accord yesterday evening online",
		"it looks really close to what we have been searching for this month",
		"what kind of warranty coverage comes with a certified pre-owned one?",
		"when can I come in and see it in person this week?",
	)
	got := a.Analyze(context.Background(), history, nil)
	assert.Equal(t, MomentumIncreasing, got.Momentum)
}

func TestFlowAnalyzer_MomentumDecreasingDelayPhrase(t *testing.T) {
	a := newTestFlowAnalyzer()
	history := customerSays(
		"thanks for sending those photos over, the interior looks clean",
		"the mileage is a little higher than I was hoping to find though",
		"my commute is long so that matters quite a bit for resale value",
		"let me think about it and get back to you sometime next week",
	)
	got := a.Analyze(context.Background(), history, nil)
	assert.Equal(t, MomentumDecreasing, got.Momentum)
}

func TestFlowAnalyzer_MomentumDecreasingShortReplies(t *testing.T) {
	a := newTestFlowAnalyzer()
	got := a.Analyze(context.Background(), customerSays("ok", "sure", "sounds fine", "yep"), nil)
	assert.Equal(t, MomentumDecreasing, got.Momentum)
}

func TestFlowAnalyzer_Stage(t *testing.T) {
	a := newTestFlowAnalyzer()

	tests := []struct {
		name    string
		history []ChatMessage
		want    string
	}{
		{
			"closing on price plus timing",
			customerSays("what's the best price you can do, and when can I pick it up?"),
			StageClosing,
		},
		{
			"objection on contrastive words",
			customerSays("the car is nice but the payment is a concern for us"),
			StageObjection,
		},
		{
			"interest on positive words",
			customerSays("this looks perfect for my family"),
			StageInterest,
		},
		{
			"initial on a single neutral message",
			customerSays("hi, saw your ad"),
			StageInitial,
		},
		{
			"discovery past three messages",
			customerSays("hi", "still there?", "checking on inventory", "any updates"),
			StageDiscovery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(context.Background(), tt.history, nil)
			assert.Equal(t, tt.want, got.Stage)
		})
	}
}

func TestFlowAnalyzer_StageNurtureOnLongHistory(t *testing.T) {
	a := newTestFlowAnalyzer()
	var history []ChatMessage
	for i := 0; i < 11; i++ {
		history = append(history, ChatMessage{Role: ChatRoleCustomer, Content: "checking in again on the inventory situation"})
	}
	got := a.Analyze(context.Background(), history, nil)
	assert.Equal(t, StageNurture, got.Stage)
}

func TestFlowAnalyzer_EngagementBounds(t *testing.T) {
	a := newTestFlowAnalyzer()

	long := "I have been comparing trims all week and I would love to understand the difference between the packages, can you help? What about financing? And do you have the blue one? When can I visit?"
	high := a.Analyze(context.Background(), customerSays(long, long), nil)
	assert.LessOrEqual(t, high.EngagementLevel, 1.0)
	assert.Greater(t, high.EngagementLevel, 0.8)

	low := a.Analyze(context.Background(), customerSays("ok", "sure", "yep", "fine"), nil)
	assert.GreaterOrEqual(t, low.EngagementLevel, 0.1)
	assert.Less(t, low.EngagementLevel, 0.4)
}

func TestFlowAnalyzer_EngagementQuestionBonusCapped(t *testing.T) {
	a := newTestFlowAnalyzer()

	// Seven question marks only ever add 0.2, and avg length stays in the
	// 50-100 band, so the ceiling here is 0.5 + 0.1 + 0.2.
	msg := "why? how? when? where? which one? what year? really though, can you explain?"
	got := a.Analyze(context.Background(), customerSays(msg), nil)
	assert.InDelta(t, 0.8, got.EngagementLevel, 0.001)
}

func TestFlowAnalyzer_TimingRecommendation(t *testing.T) {
	afterHours := newTestFlowAnalyzer(WithFlowClock(func() time.Time {
		return time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	}))
	got := afterHours.Analyze(context.Background(), customerSays("this looks perfect"), nil)
	assert.Equal(t, TimingScheduled, got.TimingRecommendation)

	daytime := newTestFlowAnalyzer()
	interest := daytime.Analyze(context.Background(), customerSays("this looks perfect"), nil)
	assert.Equal(t, TimingImmediate, interest.TimingRecommendation)

	objection := daytime.Analyze(context.Background(), customerSays("nice but the payment is a concern"), nil)
	assert.Equal(t, TimingDelayed, objection.TimingRecommendation)
}

func TestFlowAnalyzer_TimingUsesBestResponseHour(t *testing.T) {
	a := newTestFlowAnalyzer() // clock fixed at noon

	near := 13
	meta := &LeadMetadata{BestResponseHour: &near}
	got := a.Analyze(context.Background(), customerSays("hi, saw your ad"), meta)
	assert.Equal(t, TimingImmediate, got.TimingRecommendation)

	far := 18
	meta = &LeadMetadata{BestResponseHour: &far}
	got = a.Analyze(context.Background(), customerSays("hi, saw your ad"), meta)
	assert.Equal(t, TimingScheduled, got.TimingRecommendation)

	got = a.Analyze(context.Background(), customerSays("hi, saw your ad"), nil)
	assert.Equal(t, TimingImmediate, got.TimingRecommendation)
}

func TestFlowAnalyzer_NextBestAction(t *testing.T) {
	a := newTestFlowAnalyzer()

	recovery := a.Analyze(context.Background(), customerSays("ok", "sure", "yep", "fine"), nil)
	assert.Equal(t, "engagement_recovery", recovery.NextBestAction)

	closing := a.Analyze(context.Background(), customerSays("what's the price and when can I pick it up?"), nil)
	assert.Equal(t, "confirm_next_steps", closing.NextBestAction)

	initial := a.Analyze(context.Background(), customerSays("hi, saw your ad"), nil)
	assert.Equal(t, "build_rapport", initial.NextBestAction)
}
