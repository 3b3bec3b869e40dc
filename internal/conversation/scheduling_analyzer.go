package conversation

import (
	"fmt"
	"regexp"
	"strings"
)

// schedulingKeywords qualify a message as a scheduling request. Any hit is
// enough; absence short-circuits the analyzer.
var schedulingKeywords = []string{
	"schedule", "appointment", "meet", "visit", "come in", "come by",
	"stop by", "swing by", "see", "when are you", "what time", "available",
	"open",
}

var periodVocabulary = []struct {
	phrase string
	period string
}{
	{"morning", "morning"},
	{"afternoon", "afternoon"},
	{"evening", "evening"},
	{"after work", "evening"},
	{"tonight", "evening"},
}

var dayVocabulary = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
	"sunday", "today", "tomorrow", "this weekend", "next week", "this week",
}

var asapPhrases = []string{
	"asap", "as soon as possible", "right away", "immediately", "urgent",
	"right now",
}

var clockTimeRE = regexp.MustCompile(`(?i)\b(?:at\s+)?\d{1,2}(?::\d{2})?\s*(?:am|pm)\b`)

// appointmentTable is the ordered appointment-type classification: the first
// pattern hit wins, so test drives outrank financing, financing outranks
// service, and so on.
var appointmentTable = []struct {
	patterns []string
	appt     AppointmentType
}{
	{
		patterns: []string{"test drive", "test-drive", "drive it", "take it for a spin", "behind the wheel"},
		appt: AppointmentType{
			Type:            "test_drive",
			DurationMinutes: 30,
			Requirements:    []string{"driver's license", "proof of insurance"},
		},
	},
	{
		patterns: []string{"financ", "loan", "credit", "payment plan", "apr", "pre-approv", "preapprov"},
		appt: AppointmentType{
			Type:            "financing",
			DurationMinutes: 90,
			Requirements:    []string{"credit application", "income verification", "trade-in information"},
		},
	},
	{
		patterns: []string{"service", "oil change", "repair", "maintenance", "recall", "tire"},
		appt: AppointmentType{
			Type:            "service",
			DurationMinutes: 60,
			Requirements:    []string{"vehicle information", "service history"},
		},
	},
	{
		patterns: []string{"delivery", "pick up the car", "pick up my", "take delivery", "pickup"},
		appt: AppointmentType{
			Type:            "delivery",
			DurationMinutes: 120,
			Requirements:    []string{"financing completion", "proof of insurance", "registration"},
		},
	},
}

var generalVisit = AppointmentType{Type: "general_visit", DurationMinutes: 60}

// AnalyzeScheduling detects appointment requests and the customer's time,
// day, and urgency preferences. Pure function of the message text.
func AnalyzeScheduling(message string) SchedulingIntent {
	lower := strings.ToLower(message)

	if !hasSchedulingLanguage(lower) {
		return SchedulingIntent{
			HasSchedulingRequest: false,
			AppointmentType:      generalVisit,
		}
	}

	intent := SchedulingIntent{
		HasSchedulingRequest: true,
		AppointmentType:      classifyAppointment(lower),
		Confidence:           0.6,
	}

	if pref := extractTimePreference(lower); pref != nil {
		intent.TimePreference = pref
		if pref.DayOfWeek != "" {
			intent.Confidence += 0.1
		}
		if pref.Period != "" {
			intent.Confidence += 0.1
		}
	}
	if intent.AppointmentType.Type != generalVisit.Type {
		intent.Confidence += 0.1
	}
	if intent.Confidence > 1.0 {
		intent.Confidence = 1.0
	}

	intent.SuggestedResponse = suggestSchedulingReply(intent)
	return intent
}

func hasSchedulingLanguage(lower string) bool {
	for _, kw := range schedulingKeywords {
		if containsTerm(lower, kw) {
			return true
		}
	}
	return false
}

func classifyAppointment(lower string) AppointmentType {
	for _, row := range appointmentTable {
		for _, pat := range row.patterns {
			if strings.Contains(lower, pat) {
				return row.appt
			}
		}
	}
	return generalVisit
}

func extractTimePreference(lower string) *TimePreference {
	pref := &TimePreference{Urgency: "flexible"}
	matched := false

	for _, p := range periodVocabulary {
		if strings.Contains(lower, p.phrase) {
			pref.Period = p.period
			pref.ExtractedText = p.phrase
			matched = true
			break
		}
	}
	for _, day := range dayVocabulary {
		if strings.Contains(lower, day) {
			pref.DayOfWeek = day
			if pref.ExtractedText == "" {
				pref.ExtractedText = day
			} else {
				pref.ExtractedText += " " + day
			}
			matched = true
			break
		}
	}

	for _, phrase := range asapPhrases {
		if strings.Contains(lower, phrase) {
			pref.Urgency = "asap"
			matched = true
			break
		}
	}
	if pref.Urgency == "flexible" && clockTimeRE.MatchString(lower) {
		pref.Urgency = "specific"
		matched = true
	}

	if !matched {
		return nil
	}
	return pref
}

func suggestSchedulingReply(intent SchedulingIntent) string {
	var b strings.Builder

	day, period := "", ""
	if intent.TimePreference != nil {
		day = intent.TimePreference.DayOfWeek
		period = intent.TimePreference.Period
	}

	switch {
	case day != "" && period != "":
		fmt.Fprintf(&b, "Great, %s %s works well on our end.", titleCase(day), period)
	case day != "":
		fmt.Fprintf(&b, "Great, we have openings on %s.", titleCase(day))
	case period != "":
		fmt.Fprintf(&b, "We have %s openings most days this week.", period)
	default:
		b.WriteString("Happy to get you on the calendar - what day works best for you?")
	}

	if len(intent.AppointmentType.Requirements) > 0 {
		fmt.Fprintf(&b, " For a %s, please bring: %s.",
			strings.ReplaceAll(intent.AppointmentType.Type, "_", " "),
			strings.Join(intent.AppointmentType.Requirements, ", "))
	}
	return b.String()
}
