// internal/ai/provider/provider.go
package provider

import (
	"context"
	"fmt"

	"stayflow-workers/internal/models"
)

// GenerateParams is the provider-agnostic request for one completion.
type GenerateParams struct {
	SystemPrompt  string
	UserPrompt    string
	History       []models.ConversationMessage
	Temperature   float64
	MaxTokens     int
	StopSequences []string
}

// Usage reports token consumption for one call.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// AIResponse is the uniform result shape every backend maps into.
type AIResponse struct {
	Content      string             `json:"content"`
	Confidence   float64            `json:"confidence"`
	Model        string             `json:"model"`
	Usage        Usage              `json:"usage"`
	LatencyMS    int64              `json:"latencyMs"`
	SafetyFlags  models.SafetyFlags `json:"safetyFlags"`
	FinishReason string             `json:"finishReason"`
	Provider     string             `json:"provider"`
}

// Error is the typed failure a provider returns. Recoverable errors are
// worth handing to the fallback provider; non-recoverable ones usually mean
// the request itself is bad.
type Error struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Provider    string `json:"provider"`
	Recoverable bool   `json:"recoverable"`
	Details     string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s[%s]: %s", e.Provider, e.Code, e.Message)
}

// Provider is the uniform contract over interchangeable text-generation
// backends. Implementations encapsulate all backend-specific parsing.
type Provider interface {
	Name() string
	Generate(ctx context.Context, params GenerateParams) (*AIResponse, error)
}

// httpStatusError maps a non-2xx backend status to a typed provider error.
// Rate limits and server-side failures are worth a fallback attempt; other
// client errors are not.
func httpStatusError(providerName string, status int) *Error {
	recoverable := status == 429 || status >= 500
	return &Error{
		Code:        fmt.Sprintf("HTTP_%d", status),
		Message:     fmt.Sprintf("backend returned status %d", status),
		Provider:    providerName,
		Recoverable: recoverable,
	}
}

// localConfidence derives a backend-independent confidence heuristic for a
// completion: start at 0.85, penalize unsafe content or abnormal stop
// reasons, penalize very short completions, never go below 0.
func localConfidence(content string, unsafe bool, normalStop bool) float64 {
	score := 0.85
	if unsafe || !normalStop {
		score -= 0.2
	}
	if len(content) < 20 {
		score -= 0.1
	}
	if score < 0 {
		score = 0
	}
	return score
}
