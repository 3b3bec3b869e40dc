package conversation

import "time"

const (
	ChatRoleSystem    = "system"
	ChatRoleCustomer  = "customer"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is a role-tagged conversation turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LeadMetadata carries optional attributes the CRM layer knows about a lead.
type LeadMetadata struct {
	TotalMessages    int       `json:"total_messages,omitempty"`
	LastResponseTime time.Time `json:"last_response_time,omitempty"`
	LeadSource       string    `json:"lead_source,omitempty"`
	LeadStatus       string    `json:"lead_status,omitempty"`
	// BestResponseHour is the hour of day (0-23) the lead historically
	// responds fastest, when the CRM has enough data to know.
	BestResponseHour *int `json:"best_response_hour,omitempty"`
}

// MessageContext is the engine's input: one inbound customer message plus
// the conversation state needed to understand it. Created fresh per message.
type MessageContext struct {
	LeadID              string        `json:"lead_id"`
	LeadName            string        `json:"lead_name"`
	LatestMessage       string        `json:"latest_message"`
	ConversationHistory []string      `json:"conversation_history"` // chronological
	VehicleInterest     string        `json:"vehicle_interest"`
	Metadata            *LeadMetadata `json:"metadata,omitempty"`
}

// VehicleDetails describes a vehicle mentioned in free text.
type VehicleDetails struct {
	Make       string  `json:"make,omitempty"`
	Model      string  `json:"model,omitempty"`
	Year       int     `json:"year,omitempty"`
	Trim       string  `json:"trim,omitempty"`
	Color      string  `json:"color,omitempty"`
	VIN        string  `json:"vin,omitempty"`
	BodyStyle  string  `json:"body_style,omitempty"`
	Confidence float64 `json:"confidence"`
}

// VehicleExtraction is the vehicle extractor's full output for one message.
type VehicleExtraction struct {
	Primary            *VehicleDetails  `json:"primary,omitempty"`
	Secondary          []VehicleDetails `json:"secondary,omitempty"`
	HasSpecificVehicle bool             `json:"has_specific_vehicle"`
	ExtractedText      string           `json:"extracted_text,omitempty"`
}

// TimePreference captures when the customer wants to come in.
type TimePreference struct {
	Period        string `json:"period,omitempty"`      // morning|afternoon|evening
	DayOfWeek     string `json:"day_of_week,omitempty"` // monday..sunday or relative (today, tomorrow, ...)
	Urgency       string `json:"urgency"`               // asap|flexible|specific
	ExtractedText string `json:"extracted_text,omitempty"`
}

// AppointmentType classifies what kind of visit the customer is asking for.
type AppointmentType struct {
	Type            string   `json:"type"`
	DurationMinutes int      `json:"duration_minutes"`
	Requirements    []string `json:"requirements,omitempty"`
}

// SchedulingIntent is the scheduling analyzer's output.
type SchedulingIntent struct {
	HasSchedulingRequest bool            `json:"has_scheduling_request"`
	TimePreference       *TimePreference `json:"time_preference,omitempty"`
	AppointmentType      AppointmentType `json:"appointment_type"`
	Confidence           float64         `json:"confidence"`
	SuggestedResponse    string          `json:"suggested_response,omitempty"`
}

// ObjectionType identifies the kind of hesitation or pushback detected.
type ObjectionType string

const (
	ObjectionHesitation         ObjectionType = "hesitation"
	ObjectionPriceConcern       ObjectionType = "price_concern"
	ObjectionTimingDelay        ObjectionType = "timing_delay"
	ObjectionFeatureConcern     ObjectionType = "feature_concern"
	ObjectionCompetitorMention  ObjectionType = "competitor_mention"
	ObjectionVagueResponse      ObjectionType = "vague_response"
	ObjectionPricingDiscrepancy ObjectionType = "pricing_discrepancy"
	ObjectionUpgradeCost        ObjectionType = "upgrade_cost"
	ObjectionPriceShock         ObjectionType = "price_shock"
)

// PriceContext holds dollar amounts recovered from a pricing objection.
type PriceContext struct {
	MentionedOnlinePrice float64 `json:"mentioned_online_price,omitempty"`
	MentionedCallPrice   float64 `json:"mentioned_call_price,omitempty"`
	PriceDifference      float64 `json:"price_difference,omitempty"`
	UpgradesConcern      bool    `json:"upgrades_concern,omitempty"`
}

// ObjectionSignal is one detected objection with the text that triggered it.
type ObjectionSignal struct {
	Type                  ObjectionType `json:"type"`
	Confidence            float64       `json:"confidence"`
	Indicators            []string      `json:"indicators"`
	SuggestedResponseKind string        `json:"suggested_response_kind"`
	VehicleNickname       string        `json:"vehicle_nickname,omitempty"`
	PriceContext          *PriceContext `json:"price_context,omitempty"`
}

// Conversation stage labels.
const (
	StageInitial   = "initial"
	StageDiscovery = "discovery"
	StageInterest  = "interest"
	StageObjection = "objection"
	StageClosing   = "closing"
	StageNurture   = "nurture"
)

// Momentum labels.
const (
	MomentumIncreasing = "increasing"
	MomentumStable     = "stable"
	MomentumDecreasing = "decreasing"
)

// Timing recommendation labels.
const (
	TimingImmediate = "immediate"
	TimingDelayed   = "delayed"
	TimingScheduled = "scheduled"
)

// FlowState is the flow analyzer's read on where the conversation stands.
type FlowState struct {
	Stage                string  `json:"stage"`
	Momentum             string  `json:"momentum"`
	EngagementLevel      float64 `json:"engagement_level"`
	NextBestAction       string  `json:"next_best_action"`
	TimingRecommendation string  `json:"timing_recommendation"`
}

// IntentResult holds up to three intent labels. A label appears at most once
// across the three slots.
type IntentResult struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary,omitempty"`
	Tertiary  string `json:"tertiary,omitempty"`
}

// UnifiedResponse is the engine's output contract, consumed by the
// messaging-dispatch layer.
type UnifiedResponse struct {
	Message           string            `json:"message"`
	Confidence        float64           `json:"confidence"`
	ResponseType      string            `json:"response_type"`
	Intent            IntentResult      `json:"intent"`
	ResponseStrategy  string            `json:"response_strategy"`
	Reasoning         []string          `json:"reasoning"`
	VehicleContext    *VehicleDetails   `json:"vehicle_context,omitempty"`
	SchedulingContext *SchedulingIntent `json:"scheduling_context,omitempty"`
}
