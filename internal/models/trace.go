// internal/models/trace.go
package models

import "time"

// SafetyFlags mirrors the granular safety categories reported by backends
// that provide them. Backends without safety signals report all-clear.
type SafetyFlags struct {
	Harassment       bool `json:"harassment"`
	HateSpeech       bool `json:"hateSpeech"`
	SexuallyExplicit bool `json:"sexuallyExplicit"`
	DangerousContent bool `json:"dangerousContent"`
}

// Any reports whether at least one safety category fired.
func (f SafetyFlags) Any() bool {
	return f.Harassment || f.HateSpeech || f.SexuallyExplicit || f.DangerousContent
}

// ResponseTrace is the observability record persisted for one generation
// call. Persistence is best-effort; losing a trace never fails a response.
type ResponseTrace struct {
	ID               string      `json:"id"`
	ThreadID         string      `json:"threadId"`
	Provider         string      `json:"provider"`
	Model            string      `json:"model"`
	PromptTokens     int         `json:"promptTokens"`
	CompletionTokens int         `json:"completionTokens"`
	TotalTokens      int         `json:"totalTokens"`
	LatencyMS        int64       `json:"latencyMs"`
	Confidence       float64     `json:"confidence"`
	SafetyFlags      SafetyFlags `json:"safetyFlags"`
	CreatedAt        time.Time   `json:"createdAt"`
}

// HostContact holds the notification targets for the host responsible for a
// thread's property.
type HostContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// NotificationRecord is the audit row written after an escalation
// notification attempt, whatever its outcome.
type NotificationRecord struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	Status    string    `json:"status"`
	EmailSent bool      `json:"emailSent"`
	SMSSent   bool      `json:"smsSent"`
	SentAt    time.Time `json:"sentAt"`
}
