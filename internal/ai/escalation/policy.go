// internal/ai/escalation/policy.go
package escalation

import (
	"fmt"
	"math"
	"strings"

	"stayflow-workers/internal/ai/intent"
	"stayflow-workers/internal/models"
)

// Config holds the tunable policy thresholds. Control flow never changes
// with these values, only where the lines are drawn.
type Config struct {
	ConfidenceThreshold float64
	MaxMessageLength    int
	MaxQuestionMarks    int
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.7,
		MaxMessageLength:    500,
		MaxQuestionMarks:    3,
	}
}

// Factors reports the boolean outcome of every individual escalation check,
// regardless of which one (if any) fired.
type Factors struct {
	LowConfidence       bool `json:"lowConfidence"`
	ComplaintDetected   bool `json:"complaintDetected"`
	PaymentIssue        bool `json:"paymentIssue"`
	CancellationRequest bool `json:"cancellationRequest"`
	UnsafeContent       bool `json:"unsafeContent"`
	ComplexQuery        bool `json:"complexQuery"`
}

// Decision is the outcome of the escalation policy for one guest turn.
type Decision struct {
	ShouldEscalate bool    `json:"shouldEscalate"`
	Reason         string  `json:"reason,omitempty"`
	Confidence     float64 `json:"confidence"`
	Factors        Factors `json:"factors"`
}

// Policy decides whether a human must take over a conversation turn.
type Policy struct {
	config Config
}

func NewPolicy(config Config) *Policy {
	return &Policy{config: config}
}

// Decide inspects intent, confidence and message content and returns the
// first matching escalation reason. The rules form an ordered list and the
// order is part of the contract: a complaint escalates with the complaint
// reason even when confidence is also below threshold.
func (p *Policy) Decide(conf float64, messageIntent intent.Intent, message string, ctx *models.ContextData, unsafe bool) Decision {
	lower := strings.ToLower(message)

	factors := Factors{
		LowConfidence:       conf < p.config.ConfidenceThreshold,
		ComplaintDetected:   messageIntent == intent.IntentComplaint,
		PaymentIssue:        strings.Contains(lower, "payment") || strings.Contains(lower, "charge"),
		CancellationRequest: messageIntent == intent.IntentCancellation,
		UnsafeContent:       unsafe,
		ComplexQuery:        p.isComplexQuery(message),
	}

	// Rule 6 fires only when a context object exists but carries neither
	// property nor lot. A fully absent context does not trigger it.
	missingCriticalContext := ctx != nil && ctx.Property == nil && ctx.Lot == nil

	rules := []struct {
		matched bool
		reason  string
	}{
		{factors.ComplaintDetected, "Guest complaint requires personal attention"},
		{factors.CancellationRequest, "Cancellation request requires owner approval"},
		{factors.PaymentIssue, "Payment issue requires manual verification"},
		{factors.LowConfidence, fmt.Sprintf("Response confidence below threshold (%d%%)", int(math.Round(conf*100)))},
		{factors.ComplexQuery, "Complex multi-part query"},
		{missingCriticalContext, "Insufficient booking context"},
	}

	for _, rule := range rules {
		if rule.matched {
			return Decision{
				ShouldEscalate: true,
				Reason:         rule.reason,
				Confidence:     conf,
				Factors:        factors,
			}
		}
	}

	return Decision{
		ShouldEscalate: false,
		Confidence:     conf,
		Factors:        factors,
	}
}

func (p *Policy) isComplexQuery(message string) bool {
	return len(message) > p.config.MaxMessageLength ||
		strings.Count(message, "?") > p.config.MaxQuestionMarks
}
