package escalation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"stayflow-workers/internal/ai/intent"
	"stayflow-workers/internal/models"
)

func fullContext() *models.ContextData {
	return &models.ContextData{
		ThreadID: "thread-1",
		Property: &models.PropertyContext{Name: "Casa del Sol"},
		Lot:      &models.LotContext{Title: "Unit 2B"},
	}
}

func TestDecide_RuleOrder(t *testing.T) {
	policy := NewPolicy(DefaultConfig())

	tests := []struct {
		name       string
		confidence float64
		intent     intent.Intent
		message    string
		ctx        *models.ContextData
		wantReason string
	}{
		{
			name:       "complaint beats low confidence",
			confidence: 0.99,
			intent:     intent.IntentComplaint,
			message:    "the heating is broken",
			ctx:        fullContext(),
			wantReason: "Guest complaint requires personal attention",
		},
		{
			name:       "cancellation always escalates",
			confidence: 0.95,
			intent:     intent.IntentCancellation,
			message:    "I need to cancel",
			ctx:        fullContext(),
			wantReason: "Cancellation request requires owner approval",
		},
		{
			name:       "payment keyword escalates at full confidence",
			confidence: 1.0,
			intent:     intent.IntentOther,
			message:    "Why was my Payment declined?",
			ctx:        fullContext(),
			wantReason: "Payment issue requires manual verification",
		},
		{
			name:       "charge keyword escalates",
			confidence: 1.0,
			intent:     intent.IntentOther,
			message:    "There is an extra CHARGE on my card",
			ctx:        fullContext(),
			wantReason: "Payment issue requires manual verification",
		},
		{
			name:       "low confidence includes rounded percentage",
			confidence: 0.553,
			intent:     intent.IntentAmenities,
			message:    "Is there a pool?",
			ctx:        fullContext(),
			wantReason: "Response confidence below threshold (55%)",
		},
		{
			name:       "complaint beats payment",
			confidence: 0.9,
			intent:     intent.IntentComplaint,
			message:    "the payment terminal in the lobby is broken",
			ctx:        fullContext(),
			wantReason: "Guest complaint requires personal attention",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Decide(tt.confidence, tt.intent, tt.message, tt.ctx, false)
			assert.True(t, got.ShouldEscalate)
			assert.Equal(t, tt.wantReason, got.Reason)
			assert.Equal(t, tt.confidence, got.Confidence)
		})
	}
}

func TestDecide_ComplexQuery(t *testing.T) {
	policy := NewPolicy(DefaultConfig())

	long := strings.Repeat("a", 501)
	got := policy.Decide(0.9, intent.IntentOther, long, fullContext(), false)
	assert.True(t, got.ShouldEscalate)
	assert.Equal(t, "Complex multi-part query", got.Reason)

	manyQuestions := "one? two? three? four?"
	got = policy.Decide(0.9, intent.IntentOther, manyQuestions, fullContext(), false)
	assert.True(t, got.ShouldEscalate)
	assert.Equal(t, "Complex multi-part query", got.Reason)

	// Exactly at the thresholds no rule fires.
	atLimit := strings.Repeat("b", 500)
	got = policy.Decide(0.9, intent.IntentOther, atLimit, fullContext(), false)
	assert.False(t, got.ShouldEscalate)

	threeQuestions := "one? two? three?"
	got = policy.Decide(0.9, intent.IntentOther, threeQuestions, fullContext(), false)
	assert.False(t, got.ShouldEscalate)
}

func TestDecide_MissingCriticalContext(t *testing.T) {
	policy := NewPolicy(DefaultConfig())

	// Context object present but without property and lot fires rule 6.
	empty := &models.ContextData{ThreadID: "thread-1"}
	got := policy.Decide(0.9, intent.IntentOther, "hello, quick question", empty, false)
	assert.True(t, got.ShouldEscalate)
	assert.Equal(t, "Insufficient booking context", got.Reason)

	// Entirely absent context does NOT fire rule 6.
	got = policy.Decide(0.9, intent.IntentOther, "hello, quick question", nil, false)
	assert.False(t, got.ShouldEscalate)

	// Lot alone satisfies the rule.
	lotOnly := &models.ContextData{Lot: &models.LotContext{Title: "Unit 2B"}}
	got = policy.Decide(0.9, intent.IntentOther, "hello, quick question", lotOnly, false)
	assert.False(t, got.ShouldEscalate)
}

func TestDecide_NoEscalation(t *testing.T) {
	policy := NewPolicy(DefaultConfig())

	got := policy.Decide(0.85, intent.IntentAmenities, "Is there wifi?", fullContext(), false)

	assert.False(t, got.ShouldEscalate)
	assert.Empty(t, got.Reason)
	assert.Equal(t, 0.85, got.Confidence)
}

func TestDecide_AllFactorsAlwaysReported(t *testing.T) {
	policy := NewPolicy(DefaultConfig())

	// A complaint with low confidence, payment wording and many question
	// marks: rule 1 decides, but every factor must still be reported.
	message := "My payment failed? And the room is filthy? Why? How? When?"
	got := policy.Decide(0.2, intent.IntentComplaint, message, nil, true)

	assert.True(t, got.ShouldEscalate)
	assert.Equal(t, "Guest complaint requires personal attention", got.Reason)
	assert.Equal(t, Factors{
		LowConfidence:       true,
		ComplaintDetected:   true,
		PaymentIssue:        true,
		CancellationRequest: false,
		UnsafeContent:       true,
		ComplexQuery:        true,
	}, got.Factors)
}

func TestDecide_ConfigurableThresholds(t *testing.T) {
	policy := NewPolicy(Config{
		ConfidenceThreshold: 0.5,
		MaxMessageLength:    50,
		MaxQuestionMarks:    1,
	})

	// 0.6 clears the lowered threshold.
	got := policy.Decide(0.6, intent.IntentOther, "short note", fullContext(), false)
	assert.False(t, got.ShouldEscalate)

	// Two question marks exceed the lowered cap.
	got = policy.Decide(0.6, intent.IntentOther, "why? how?", fullContext(), false)
	assert.True(t, got.ShouldEscalate)
	assert.Equal(t, "Complex multi-part query", got.Reason)
}
