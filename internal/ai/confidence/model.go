// internal/ai/confidence/model.go
package confidence

import (
	"strings"
	"unicode"

	"stayflow-workers/internal/models"
)

// Factor weights. They sum to 1.0; when a factor is absent its weight is
// excluded from both numerator and denominator rather than counted as zero.
const (
	weightMessageClarity      = 0.15
	weightContextAvailability = 0.25
	weightIntentConfidence    = 0.25
	weightEntityExtraction    = 0.10
	weightSafetyScore         = 0.15
	weightModelConfidence     = 0.10
)

// Factors holds the independent signal scores feeding the confidence model.
// Every field is optional; nil means the signal was not observed.
type Factors struct {
	MessageClarity      *float64
	ContextAvailability *float64
	IntentConfidence    *float64
	EntityExtraction    *float64
	SafetyScore         *float64
	ModelConfidence     *float64
}

// Score is a convenience constructor for optional factor values.
func Score(v float64) *float64 {
	return &v
}

// Calculate combines the present factors into one normalized confidence
// value in [0,1] via a weighted average over the weights actually used.
// No factors present yields the neutral default 0.5.
func Calculate(f Factors) float64 {
	type weighted struct {
		value  *float64
		weight float64
	}

	all := []weighted{
		{f.MessageClarity, weightMessageClarity},
		{f.ContextAvailability, weightContextAvailability},
		{f.IntentConfidence, weightIntentConfidence},
		{f.EntityExtraction, weightEntityExtraction},
		{f.SafetyScore, weightSafetyScore},
		{f.ModelConfidence, weightModelConfidence},
	}

	sum := 0.0
	totalWeight := 0.0
	for _, w := range all {
		if w.value == nil {
			continue
		}
		sum += *w.value * w.weight
		totalWeight += w.weight
	}

	if totalWeight == 0 {
		return 0.5
	}

	return Clamp(sum / totalWeight)
}

// AssessMessageClarity scores how answerable a raw guest message looks.
// Each bonus is independent so adding one never lowers the score.
func AssessMessageClarity(message string) float64 {
	score := 0.5

	length := len(message)
	switch {
	case length >= 10 && length <= 200:
		score += 0.2
	case length > 200 && length <= 500:
		score += 0.1
	}

	if strings.Contains(message, "?") {
		score += 0.1
	}

	if startsWithUpper(message) {
		score += 0.1
	}

	if message != strings.ToUpper(message) {
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// AssessContextAvailability scores how much structured context is on hand.
// All four contributions present saturate at exactly 1.0.
func AssessContextAvailability(ctx *models.ContextData) float64 {
	if ctx == nil {
		return 0
	}

	score := 0.0
	if len(ctx.ConversationHistory) > 0 {
		score += 0.2
	}
	if ctx.Property != nil {
		score += 0.3
	}
	if ctx.Lot != nil {
		score += 0.2
	}
	if ctx.Reservation != nil {
		score += 0.3
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Clamp bounds a confidence value to [0,1].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func startsWithUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
