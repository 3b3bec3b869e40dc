package conversation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Extraction confidence tiers. A brand match alone is strong; a brand plus
// one of its known models is near-certain; a bare body style is a weak hint.
// A VIN identifies one exact vehicle even when no brand word appears.
const (
	brandConfidence      = 0.8
	brandModelConfidence = 0.9
	bodyStyleConfidence  = 0.5
	vinConfidence        = 0.9
	specificThreshold    = 0.7
)

var (
	yearRE = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	// 17 characters, alphanumeric excluding I, O and Q.
	vinRE = regexp.MustCompile(`\b[A-HJ-NPR-Za-hj-npr-z0-9]{17}\b`)
)

// brandEntry pairs a make with its aliases, known models, and trim names.
// Order matters: the first brand matched becomes the primary candidate.
type brandEntry struct {
	name    string
	aliases []string
	models  []string
	trims   []string
}

var brandVocabulary = []brandEntry{
	{
		name:    "Toyota",
		aliases: []string{"toyota"},
		models:  []string{"camry", "corolla", "rav4", "tacoma", "tundra", "highlander", "4runner", "prius", "sienna"},
		trims:   []string{"trd pro", "trd", "xse", "xle", "le", "sr5", "limited"},
	},
	{
		name:    "Honda",
		aliases: []string{"honda"},
		models:  []string{"civic", "accord", "cr-v", "crv", "pilot", "odyssey", "hr-v", "hrv", "ridgeline"},
		trims:   []string{"type r", "touring", "sport", "ex-l", "ex", "lx"},
	},
	{
		name:    "Ford",
		aliases: []string{"ford"},
		models:  []string{"f-150", "f150", "mustang", "explorer", "escape", "bronco", "ranger", "edge", "maverick"},
		trims:   []string{"raptor", "lariat", "platinum", "king ranch", "st", "xlt"},
	},
	{
		name:    "Chevrolet",
		aliases: []string{"chevrolet", "chevy"},
		models:  []string{"silverado", "equinox", "tahoe", "malibu", "traverse", "colorado", "camaro", "suburban", "blazer"},
		trims:   []string{"z71", "high country", "rst", "ltz", "ss"},
	},
	{
		name:    "Nissan",
		aliases: []string{"nissan"},
		models:  []string{"altima", "rogue", "sentra", "pathfinder", "frontier", "murano", "titan"},
		trims:   []string{"platinum", "pro-4x", "sv", "sl"},
	},
	{
		name:    "Jeep",
		aliases: []string{"jeep"},
		models:  []string{"wrangler", "grand cherokee", "cherokee", "gladiator", "compass", "renegade"},
		trims:   []string{"rubicon", "trailhawk", "sahara", "trackhawk", "overland"},
	},
	{
		name:    "Hyundai",
		aliases: []string{"hyundai"},
		models:  []string{"elantra", "tucson", "santa fe", "sonata", "palisade", "kona"},
		trims:   []string{"n line", "calligraphy", "limited", "sel"},
	},
	{
		name:    "Kia",
		aliases: []string{"kia"},
		models:  []string{"telluride", "sportage", "sorento", "forte", "k5", "soul", "seltos"},
		trims:   []string{"gt-line", "sx prestige", "sx", "ex", "lx"},
	},
	{
		name:    "Subaru",
		aliases: []string{"subaru"},
		models:  []string{"outback", "forester", "crosstrek", "impreza", "wrx", "ascent", "legacy"},
		trims:   []string{"wilderness", "touring", "premium", "sti"},
	},
	{
		name:    "Dodge",
		aliases: []string{"dodge"},
		models:  []string{"charger", "challenger", "durango", "hornet"},
		trims:   []string{"hellcat", "scat pack", "srt", "gt", "r/t"},
	},
	{
		name:    "Ram",
		aliases: []string{"ram"},
		models:  []string{"1500", "2500", "3500", "promaster"},
		trims:   []string{"rebel", "laramie", "trx", "big horn"},
	},
	{
		name:    "GMC",
		aliases: []string{"gmc"},
		models:  []string{"sierra", "yukon", "acadia", "terrain", "canyon"},
		trims:   []string{"denali", "at4"},
	},
	{
		name:    "BMW",
		aliases: []string{"bmw"},
		models:  []string{"3 series", "5 series", "x3", "x5", "x1", "m3", "m5"},
		trims:   []string{"m sport", "xdrive"},
	},
	{
		name:    "Mercedes-Benz",
		aliases: []string{"mercedes-benz", "mercedes", "benz"},
		models:  []string{"c-class", "e-class", "glc", "gle", "s-class", "gla"},
		trims:   []string{"amg", "4matic"},
	},
	{
		name:    "Audi",
		aliases: []string{"audi"},
		models:  []string{"a4", "a6", "q5", "q7", "q3", "e-tron"},
		trims:   []string{"s line", "quattro", "prestige"},
	},
	{
		name:    "Volkswagen",
		aliases: []string{"volkswagen", "vw"},
		models:  []string{"jetta", "tiguan", "atlas", "taos", "golf", "passat"},
		trims:   []string{"gti", "sel", "se"},
	},
	{
		name:    "Lexus",
		aliases: []string{"lexus"},
		models:  []string{"rx", "nx", "es", "gx", "is", "tx"},
		trims:   []string{"f sport", "luxury"},
	},
	{
		name:    "Mazda",
		aliases: []string{"mazda"},
		models:  []string{"cx-5", "cx-50", "cx-90", "mazda3", "cx-30", "mx-5", "miata"},
		trims:   []string{"turbo", "carbon edition", "signature"},
	},
	{
		name:    "Tesla",
		aliases: []string{"tesla"},
		models:  []string{"model 3", "model y", "model s", "model x", "cybertruck"},
		trims:   []string{"performance", "plaid", "long range"},
	},
}

var colorVocabulary = []string{
	"black", "white", "silver", "gray", "grey", "red", "blue", "green",
	"brown", "beige", "tan", "gold", "orange", "yellow", "burgundy", "maroon",
}

var bodyStyleVocabulary = []string{
	"truck", "pickup", "suv", "crossover", "sedan", "coupe", "convertible",
	"hatchback", "minivan", "van", "wagon",
}

// ExtractVehicle scans free text for vehicle mentions. It is a pure function:
// the same input always yields the same output.
func ExtractVehicle(message string) VehicleExtraction {
	lower := strings.ToLower(message)

	year := extractYear(lower)
	vin := extractVIN(message)
	color := firstVocabularyHit(lower, colorVocabulary)

	var candidates []VehicleDetails
	for _, brand := range brandVocabulary {
		alias := firstVocabularyHit(lower, brand.aliases)
		if alias == "" {
			continue
		}
		detail := VehicleDetails{
			Make:       brand.name,
			Year:       year,
			Color:      titleCase(color),
			VIN:        vin,
			Confidence: brandConfidence,
		}
		if model := firstVocabularyHit(lower, brand.models); model != "" {
			detail.Model = titleCase(model)
			detail.Confidence = brandModelConfidence
		}
		if trim := firstVocabularyHit(lower, brand.trims); trim != "" {
			detail.Trim = titleCase(trim)
		}
		candidates = append(candidates, detail)
	}

	if len(candidates) == 0 {
		if style := firstVocabularyHit(lower, bodyStyleVocabulary); style != "" {
			candidates = append(candidates, VehicleDetails{
				BodyStyle:  style,
				Year:       year,
				Color:      titleCase(color),
				VIN:        vin,
				Confidence: bodyStyleConfidence,
			})
		}
	}

	// A VIN with no surrounding brand or body-style words still names a
	// concrete vehicle, common in trade-in messages.
	if len(candidates) == 0 && vin != "" {
		candidates = append(candidates, VehicleDetails{
			Year:       year,
			Color:      titleCase(color),
			VIN:        vin,
			Confidence: vinConfidence,
		})
	}

	if len(candidates) == 0 {
		return VehicleExtraction{}
	}

	primary := candidates[0]
	result := VehicleExtraction{
		Primary:            &primary,
		HasSpecificVehicle: primary.Confidence > specificThreshold,
		ExtractedText:      describeVehicle(primary),
	}
	if len(candidates) > 1 {
		result.Secondary = candidates[1:]
	}
	return result
}

func extractYear(lower string) int {
	maxYear := time.Now().Year() + 2
	for _, token := range yearRE.FindAllString(lower, -1) {
		year, err := strconv.Atoi(token)
		if err != nil {
			continue
		}
		if year >= 1990 && year <= maxYear {
			return year
		}
	}
	return 0
}

func extractVIN(message string) string {
	match := vinRE.FindString(message)
	if match == "" {
		return ""
	}
	// Require at least one letter so a 17-digit number is not mistaken
	// for a VIN.
	if !strings.ContainsFunc(match, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}) {
		return ""
	}
	return strings.ToUpper(match)
}

func firstVocabularyHit(lower string, vocab []string) string {
	for _, term := range vocab {
		if containsTerm(lower, term) {
			return term
		}
	}
	return ""
}

// containsTerm matches term at word boundaries so "red" does not fire inside
// "interested" or "ram" inside "program".
func containsTerm(lower, term string) bool {
	for start := 0; ; {
		idx := strings.Index(lower[start:], term)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(term)
		if boundaryAt(lower, idx-1) && boundaryAt(lower, end) {
			return true
		}
		start = idx + 1
	}
}

func boundaryAt(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9')
}

// describeVehicle renders a human-readable summary, skipping absent fields.
func describeVehicle(v VehicleDetails) string {
	parts := make([]string, 0, 5)
	if v.Year > 0 {
		parts = append(parts, fmt.Sprintf("%d", v.Year))
	}
	if v.Color != "" {
		parts = append(parts, v.Color)
	}
	if v.Make != "" {
		parts = append(parts, v.Make)
	}
	if v.Model != "" {
		parts = append(parts, v.Model)
	}
	if v.Trim != "" {
		parts = append(parts, v.Trim)
	}
	if len(parts) == 0 && v.BodyStyle != "" {
		parts = append(parts, v.BodyStyle)
	}
	if len(parts) == 0 && v.VIN != "" {
		parts = append(parts, "VIN "+v.VIN)
	}
	return strings.Join(parts, " ")
}

func titleCase(s string) string {
	if s == "" {
		return ""
	}
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
