package confidence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"stayflow-workers/internal/models"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name    string
		factors Factors
		want    float64
	}{
		{
			name:    "no factors returns neutral default",
			factors: Factors{},
			want:    0.5,
		},
		{
			name: "all factors at one",
			factors: Factors{
				MessageClarity:      Score(1),
				ContextAvailability: Score(1),
				IntentConfidence:    Score(1),
				EntityExtraction:    Score(1),
				SafetyScore:         Score(1),
				ModelConfidence:     Score(1),
			},
			want: 1.0,
		},
		{
			name: "missing model confidence renormalizes",
			// All present factors at 0.8: renormalized average must stay 0.8,
			// not be dragged down by the absent factor.
			factors: Factors{
				MessageClarity:      Score(0.8),
				ContextAvailability: Score(0.8),
				IntentConfidence:    Score(0.8),
				EntityExtraction:    Score(0.8),
				SafetyScore:         Score(0.8),
			},
			want: 0.8,
		},
		{
			name: "single factor dominates",
			factors: Factors{
				IntentConfidence: Score(0.6),
			},
			want: 0.6,
		},
		{
			name: "weighted mix",
			// (0.9*0.25 + 0.5*0.25) / 0.5 = 0.7
			factors: Factors{
				ContextAvailability: Score(0.9),
				IntentConfidence:    Score(0.5),
			},
			want: 0.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Calculate(tt.factors), 1e-9)
		})
	}
}

func TestCalculate_AlwaysInRange(t *testing.T) {
	values := []float64{-2, -0.1, 0, 0.3, 0.99, 1, 5}
	for _, a := range values {
		for _, b := range values {
			got := Calculate(Factors{
				MessageClarity:   Score(a),
				ContextAvailability: Score(b),
			})
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
	}
}

func TestAssessMessageClarity(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    float64
	}{
		{
			name:    "well formed question",
			message: "Is the pool heated in winter?",
			// base 0.5 + length 0.2 + question 0.1 + uppercase start 0.1 + not shouting 0.1
			want: 1.0,
		},
		{
			name:    "short lowercase fragment",
			message: "hi",
			// base 0.5 + not shouting 0.1
			want: 0.6,
		},
		{
			name:    "long rambling message",
			message: "I was wondering " + strings.Repeat("and also ", 30) + "that is all.",
			// 286 chars: base 0.5 + long-length 0.1 + uppercase 0.1 + not shouting 0.1
			want: 0.8,
		},
		{
			name:    "all caps shouting",
			message: "WHERE IS MY REFUND",
			// base 0.5 + length 0.2 + uppercase start 0.1, no lowercase bonus
			want: 0.8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AssessMessageClarity(tt.message), 1e-9)
		})
	}
}

func TestAssessMessageClarity_BonusesAreMonotonic(t *testing.T) {
	base := "is the kitchen stocked"
	withQuestion := base + "?"

	assert.GreaterOrEqual(t, AssessMessageClarity(withQuestion), AssessMessageClarity(base))
	assert.GreaterOrEqual(t, AssessMessageClarity("Is the kitchen stocked"), AssessMessageClarity(base))
}

func TestAssessContextAvailability(t *testing.T) {
	history := []models.ConversationMessage{{Role: "user", Content: "hi"}}
	property := &models.PropertyContext{Name: "Casa del Sol"}
	lot := &models.LotContext{Title: "Unit 2B"}
	reservation := &models.ReservationContext{ID: "res-1"}

	tests := []struct {
		name string
		ctx  *models.ContextData
		want float64
	}{
		{"nil context", nil, 0},
		{"empty context", &models.ContextData{}, 0},
		{"history only", &models.ContextData{ConversationHistory: history}, 0.2},
		{"property only", &models.ContextData{Property: property}, 0.3},
		{"lot only", &models.ContextData{Lot: lot}, 0.2},
		{"reservation only", &models.ContextData{Reservation: reservation}, 0.3},
		{
			"everything saturates at one",
			&models.ContextData{
				ConversationHistory: history,
				Property:            property,
				Lot:                 lot,
				Reservation:         reservation,
			},
			1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AssessContextAvailability(tt.ctx), 1e-9)
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-0.5))
	assert.Equal(t, 1.0, Clamp(1.5))
	assert.Equal(t, 0.42, Clamp(0.42))
}
