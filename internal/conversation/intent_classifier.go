package conversation

import "strings"

// intentRule is one row of an ordered cascade. Order encodes priority; the
// first matching rule wins.
type intentRule struct {
	label      string
	confidence float64
	match      func(lower string) bool
}

func anyPhrase(phrases ...string) func(string) bool {
	return func(lower string) bool {
		for _, p := range phrases {
			if strings.Contains(lower, p) {
				return true
			}
		}
		return false
	}
}

func anyTerm(terms ...string) func(string) bool {
	return func(lower string) bool {
		for _, t := range terms {
			if containsTerm(lower, t) {
				return true
			}
		}
		return false
	}
}

// primaryCascade decides the primary intent. Customer-experience-sensitive
// intents sit above generic ones so a hesitant or confused customer is never
// answered with a canned price pitch.
var primaryCascade = []intentRule{
	{"browsing_stage", 0.85, anyPhrase("just looking", "just browsing", "window shopping", "not looking to buy", "early in my search")},
	{"identity_question", 0.9, anyPhrase("who is you", "who are you", "who am i talking", "who is this", "who's this", "are you a bot", "is this a real person", "real person or")},
	{"timing_objection", 0.8, anyPhrase("not ready", "in a few months", "next month", "next year", "later this year", "get back to you")},
	{"budget_objection", 0.85, anyPhrase("too expensive", "out of my budget", "over my budget", "can't afford", "cant afford", "too much money")},
	{"consideration_pause", 0.8, anyPhrase("think about it", "think it over", "sleep on it", "need some time", "talk to my")},
	{"photo_request", 0.85, anyPhrase("photo", "picture", "pics", "images", "what does it look like")},
	{"price_inquiry", 0.8, anyPhrase("price", "cost", "how much", "payment", "$", "otd", "out the door")},
	{"availability_inquiry", 0.8, anyPhrase("available", "in stock", "still have", "on the lot", "still for sale")},
	{"appointment_request", 0.8, func(lower string) bool { return hasSchedulingLanguage(lower) }},
	{"question", 0.6, func(lower string) bool { return strings.Contains(lower, "?") }},
	{"greeting", 0.7, anyTerm("hi", "hello", "hey", "good morning", "good afternoon", "good evening")},
}

// secondaryCascade looks for an additional topic riding along with the
// primary intent.
var secondaryCascade = []intentRule{
	{"price_inquiry", 0.7, anyPhrase("price", "cost", "how much", "payment", "$")},
	{"trade_in_inquiry", 0.7, anyPhrase("trade", "trade-in", "my current car", "my old car")},
	{"financing_inquiry", 0.7, anyPhrase("financ", "loan", "credit", "apr", "monthly")},
	{"availability_inquiry", 0.7, anyPhrase("available", "in stock", "still have", "on the lot")},
	{"appointment_request", 0.7, func(lower string) bool { return hasSchedulingLanguage(lower) }},
	{"feature_inquiry", 0.6, anyPhrase("feature", "does it have", "come with", "equipped", "towing", "mpg")},
	{"color_preference", 0.6, func(lower string) bool { return firstVocabularyHit(lower, colorVocabulary) != "" }},
	{"service_inquiry", 0.6, anyPhrase("service", "oil change", "maintenance", "warranty", "repair")},
}

var tertiaryCascade = []intentRule{
	{"timing_inquiry", 0.6, anyPhrase("how soon", "how long", "when will", "when can")},
	{"comparison_request", 0.6, anyPhrase("compare", "versus", " vs ", "difference between", "or the")},
	{"test_drive_request", 0.7, anyPhrase("test drive", "test-drive", "drive it")},
	{"lease_inquiry", 0.6, anyPhrase("lease", "leasing")},
}

// ClassifyIntent runs the three cascades over one message. It is a pure
// function. A label is never repeated across the three slots.
func ClassifyIntent(message string) (IntentResult, float64) {
	lower := strings.ToLower(message)

	result := IntentResult{Primary: "general_inquiry"}
	confidence := 0.5

	for _, rule := range primaryCascade {
		if rule.match(lower) {
			result.Primary = rule.label
			confidence = rule.confidence
			break
		}
	}

	for _, rule := range secondaryCascade {
		if rule.label == result.Primary {
			continue
		}
		if rule.match(lower) {
			result.Secondary = rule.label
			break
		}
	}

	for _, rule := range tertiaryCascade {
		if rule.label == result.Primary || rule.label == result.Secondary {
			continue
		}
		if rule.match(lower) {
			result.Tertiary = rule.label
			break
		}
	}

	return result, confidence
}
