// internal/ai/intent/analyzer.go
package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// Intent is the classified purpose of a single guest message.
type Intent string

const (
	IntentAvailability Intent = "availability"
	IntentPricing      Intent = "pricing"
	IntentBookingInfo  Intent = "booking_info"
	IntentCheckIn      Intent = "check_in"
	IntentAmenities    Intent = "amenities"
	IntentLocalInfo    Intent = "local_info"
	IntentCancellation Intent = "cancellation"
	IntentComplaint    Intent = "complaint"
	IntentOther        Intent = "other"
)

// Sentiment of a guest message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Urgency of a guest message.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Entities extracted from a message. Every field is sparse: it is populated
// only when a pattern matched, never with sentinel values.
type Entities struct {
	Dates     []string  `json:"dates,omitempty"`
	Prices    []float64 `json:"prices,omitempty"`
	Guests    *int      `json:"guests,omitempty"`
	Amenities []string  `json:"amenities,omitempty"`
	Locations []string  `json:"locations,omitempty"`
}

// Empty reports whether no entity pattern matched at all.
func (e Entities) Empty() bool {
	return len(e.Dates) == 0 && len(e.Prices) == 0 && e.Guests == nil &&
		len(e.Amenities) == 0 && len(e.Locations) == 0
}

// Analysis is the full result of analyzing one inbound guest message.
type Analysis struct {
	Intent         Intent    `json:"intent"`
	Confidence     float64   `json:"confidence"`
	Entities       Entities  `json:"entities"`
	Sentiment      Sentiment `json:"sentiment"`
	Urgency        Urgency   `json:"urgency"`
	RequiresAction bool      `json:"requiresAction"`
}

// intentKeywords maps each intent to its trigger phrases. Declaration order
// matters: when two intents tie on match count, the earlier entry wins.
// Cancellation and complaint come first so that messages mixing them with
// booking vocabulary ("cancel my reservation") resolve to the intent that
// needs human attention.
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentCancellation, []string{"cancel", "cancellation", "refund", "cancelling", "call off"}},
	{IntentComplaint, []string{"complaint", "broken", "dirty", "not working", "disappointed", "unacceptable", "terrible", "awful", "noise", "problem with"}},
	{IntentAvailability, []string{"available", "availability", "vacancy", "vacant", "open dates", "book for", "stay from"}},
	{IntentPricing, []string{"price", "cost", "rate", "how much", "fee", "discount", "total for"}},
	{IntentBookingInfo, []string{"booking", "reservation", "confirm", "confirmation", "booked", "my stay", "modify", "change dates"}},
	{IntentCheckIn, []string{"check in", "check-in", "checkin", "check out", "check-out", "checkout", "arrival", "key", "access code", "early arrival", "late arrival"}},
	{IntentAmenities, []string{"wifi", "wi-fi", "parking", "pool", "kitchen", "washer", "dryer", "air conditioning", "amenities", "towels", "linen", "pet friendly", "pets allowed"}},
	{IntentLocalInfo, []string{"restaurant", "nearby", "attraction", "beach", "transport", "supermarket", "things to do", "recommend"}},
}

var positiveKeywords = []string{"thank", "thanks", "great", "perfect", "love", "wonderful", "excellent", "appreciate", "happy"}

var negativeKeywords = []string{"bad", "terrible", "awful", "disappointed", "angry", "unacceptable", "worst", "horrible", "upset", "frustrated"}

var urgencyKeywords = []string{"urgent", "asap", "immediately", "emergency", "right now", "as soon as possible"}

var (
	numericDateRe = regexp.MustCompile(`\b\d{1,2}[-/]\d{1,2}[-/]\d{2,4}\b`)
	monthDateRe   = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}\b`)
	priceRe       = regexp.MustCompile(`(?i)[€$£]\s?[\d,]+(?:\.\d+)?|[\d,]+(?:\.\d+)?\s?(?:euros?|dollars?)`)
	guestCountRe  = regexp.MustCompile(`(?i)\b(\d+)\s+(?:guests?|people|persons?)\b`)
)

// AnalyzeMessage classifies a raw guest message and extracts structured
// entities. Pure and deterministic; an empty message yields intent "other"
// with confidence 0.5.
func AnalyzeMessage(message string) Analysis {
	lower := strings.ToLower(message)

	detected := IntentOther
	bestCount := 0
	for _, entry := range intentKeywords {
		count := 0
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			detected = entry.intent
		}
	}

	confidence := 0.5
	if bestCount > 0 {
		confidence = 0.5 + 0.1*float64(bestCount)
		if confidence > 0.9 {
			confidence = 0.9
		}
	}

	sentiment := detectSentiment(lower)
	urgency := detectUrgency(lower, sentiment)

	requiresAction := detected == IntentCancellation ||
		detected == IntentComplaint ||
		detected == IntentBookingInfo ||
		sentiment == SentimentNegative

	return Analysis{
		Intent:         detected,
		Confidence:     confidence,
		Entities:       ExtractEntities(message),
		Sentiment:      sentiment,
		Urgency:        urgency,
		RequiresAction: requiresAction,
	}
}

// ExtractEntities runs all entity pattern families over the message,
// independent of intent classification.
func ExtractEntities(message string) Entities {
	var entities Entities

	entities.Dates = append(entities.Dates, numericDateRe.FindAllString(message, -1)...)
	entities.Dates = append(entities.Dates, monthDateRe.FindAllString(message, -1)...)

	for _, match := range priceRe.FindAllString(message, -1) {
		entities.Prices = append(entities.Prices, parsePrice(match))
	}

	if m := guestCountRe.FindStringSubmatch(message); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			entities.Guests = &n
		}
	}

	return entities
}

// parsePrice strips currency symbols, separators and unit words and parses
// the remainder. Unparseable matches yield 0 rather than an error.
func parsePrice(raw string) float64 {
	cleaned := strings.NewReplacer("€", "", "$", "", "£", "", ",", "", " ", "").Replace(raw)
	lower := strings.ToLower(cleaned)
	for _, unit := range []string{"euros", "euro", "dollars", "dollar"} {
		lower = strings.TrimSuffix(lower, unit)
	}
	value, err := strconv.ParseFloat(lower, 64)
	if err != nil {
		return 0
	}
	return value
}

// detectSentiment applies the fixed keyword lists. Positive-only messages
// are positive, negative-only negative; both or neither present is neutral.
func detectSentiment(lower string) Sentiment {
	hasPositive := containsAny(lower, positiveKeywords)
	hasNegative := containsAny(lower, negativeKeywords)

	switch {
	case hasPositive && !hasNegative:
		return SentimentPositive
	case hasNegative && !hasPositive:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func detectUrgency(lower string, sentiment Sentiment) Urgency {
	if containsAny(lower, urgencyKeywords) {
		return UrgencyHigh
	}
	if sentiment == SentimentNegative {
		return UrgencyMedium
	}
	return UrgencyLow
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
