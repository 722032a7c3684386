// internal/ai/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"stayflow-workers/internal/ai/confidence"
	"stayflow-workers/internal/ai/conversation"
	"stayflow-workers/internal/ai/escalation"
	"stayflow-workers/internal/ai/intent"
	"stayflow-workers/internal/ai/prompt"
	"stayflow-workers/internal/ai/provider"
	"stayflow-workers/internal/common/logger"
	"stayflow-workers/internal/common/metrics"
	"stayflow-workers/internal/models"
)

// cannedApology is the only text a guest ever sees when the pipeline fails.
// Internal errors must never leak into guest-facing content.
const cannedApology = "I'm sorry, I'm not able to answer that right now. " +
	"A member of our team has been notified and will get back to you shortly."

// ContextStore loads everything known about a conversation thread.
type ContextStore interface {
	LoadThreadContext(ctx context.Context, threadID string) (*models.ContextData, error)
}

// TraceStore persists per-generation observability records. Writes are
// best-effort; callers swallow failures.
type TraceStore interface {
	InsertTrace(ctx context.Context, trace *models.ResponseTrace) (string, error)
}

// Config holds the orchestration tunables.
type Config struct {
	// ProviderTimeout bounds each individual provider call. A timeout is
	// treated like any other provider error and triggers the fallback.
	ProviderTimeout time.Duration
	Escalation      escalation.Config
}

// DefaultConfig returns production defaults. The 20s provider timeout keeps
// a slow backend from stalling a guest turn while leaving headroom for long
// completions.
func DefaultConfig() Config {
	return Config{
		ProviderTimeout: 20 * time.Second,
		Escalation:      escalation.DefaultConfig(),
	}
}

// Result is the orchestrator's final output for one guest turn.
type Result struct {
	Content          string        `json:"content"`
	Confidence       float64       `json:"confidence"`
	ShouldEscalate   bool          `json:"shouldEscalate"`
	EscalationReason string        `json:"escalationReason,omitempty"`
	Intent           intent.Intent `json:"intent"`
	TraceID          string        `json:"traceId,omitempty"`
	Provider         string        `json:"provider,omitempty"`
	Error            string        `json:"error,omitempty"`
}

// Orchestrator sequences intent analysis, context assembly, prompt building,
// provider calls with fallback, confidence scoring and the escalation
// decision for one guest message.
type Orchestrator struct {
	providers []provider.Provider // ordered: primary first, then fallbacks
	contexts  ContextStore
	traces    TraceStore
	policy    *escalation.Policy
	config    Config
	logger    logger.Logger
}

func New(providers []provider.Provider, contexts ContextStore, traces TraceStore, config Config, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		providers: providers,
		contexts:  contexts,
		traces:    traces,
		policy:    escalation.NewPolicy(config.Escalation),
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"component": "ai-orchestrator"}),
	}
}

// GenerateResponse runs the full pipeline for one inbound guest message.
// It never returns an error: every failure is converted into the canned
// apology shape with escalation forced on.
func (o *Orchestrator) GenerateResponse(ctx context.Context, threadID, userMessage string) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("pipeline panic recovered", map[string]interface{}{
				"threadId": threadID,
				"panic":    fmt.Sprintf("%v", r),
			})
			result = o.failureResult(intent.IntentOther, "Automatic response failed", fmt.Sprintf("internal error: %v", r))
		}
	}()

	analysis := intent.AnalyzeMessage(userMessage)

	contextData, err := o.contexts.LoadThreadContext(ctx, threadID)
	if err != nil {
		o.logger.Error("context load failed", map[string]interface{}{
			"threadId": threadID,
			"error":    err.Error(),
		})
		metrics.ContextLoadFailures.Inc()
		return o.failureResult(analysis.Intent, "Could not load conversation context", err.Error())
	}

	contextText := conversation.RenderContext(contextData)
	built := prompt.Build(analysis.Intent, userMessage, contextText)

	params := provider.GenerateParams{
		SystemPrompt: built.System,
		UserPrompt:   built.User,
		Temperature:  built.Temperature,
		MaxTokens:    built.MaxTokens,
	}
	if contextData != nil {
		params.History = contextData.ConversationHistory
	}

	aiResp, primaryErr := o.generateWithFallback(ctx, params)
	if aiResp == nil {
		o.logger.Error("all providers failed", map[string]interface{}{
			"threadId": threadID,
			"error":    primaryErr.Error(),
		})
		return o.failureResult(analysis.Intent, "AI providers unavailable", primaryErr.Error())
	}

	// Unsafe content pushes the safety factor well below the escalation
	// threshold's reach; a clean response contributes full marks.
	safetyScore := 1.0
	if aiResp.SafetyFlags.Any() {
		safetyScore = 0.3
	}

	entityScore := 0.5
	if !analysis.Entities.Empty() {
		entityScore = 0.8
	}

	factors := confidence.Factors{
		MessageClarity:      confidence.Score(confidence.AssessMessageClarity(userMessage)),
		ContextAvailability: confidence.Score(confidence.AssessContextAvailability(contextData)),
		IntentConfidence:    confidence.Score(analysis.Confidence),
		EntityExtraction:    confidence.Score(entityScore),
		SafetyScore:         confidence.Score(safetyScore),
	}
	if aiResp.Confidence > 0 {
		factors.ModelConfidence = confidence.Score(aiResp.Confidence)
	}

	overall := confidence.Calculate(factors)

	decision := o.policy.Decide(overall, analysis.Intent, userMessage, contextData, aiResp.SafetyFlags.Any())
	if decision.ShouldEscalate {
		metrics.EscalationsTotal.WithLabelValues(decision.Reason).Inc()
	}

	traceID := o.persistTrace(ctx, threadID, aiResp, overall)

	o.logger.Info("response generated", map[string]interface{}{
		"threadId":       threadID,
		"intent":         analysis.Intent,
		"provider":       aiResp.Provider,
		"confidence":     overall,
		"shouldEscalate": decision.ShouldEscalate,
	})

	return &Result{
		Content:          aiResp.Content,
		Confidence:       overall,
		ShouldEscalate:   decision.ShouldEscalate,
		EscalationReason: decision.Reason,
		Intent:           analysis.Intent,
		TraceID:          traceID,
		Provider:         aiResp.Provider,
	}
}

// generateWithFallback tries each provider in order with identical params.
// It returns the first success, or nil and the primary's error when every
// provider failed. No retries beyond the ordered substitution.
func (o *Orchestrator) generateWithFallback(ctx context.Context, params provider.GenerateParams) (*provider.AIResponse, error) {
	var primaryErr error

	for i, p := range o.providers {
		callCtx, cancel := context.WithTimeout(ctx, o.config.ProviderTimeout)
		start := time.Now()
		resp, err := p.Generate(callCtx, params)
		cancel()

		metrics.GenerationDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

		if err == nil {
			metrics.GenerationRequests.WithLabelValues(p.Name(), "success").Inc()
			metrics.TokensConsumed.WithLabelValues(p.Name(), "prompt").Add(float64(resp.Usage.PromptTokens))
			metrics.TokensConsumed.WithLabelValues(p.Name(), "completion").Add(float64(resp.Usage.CompletionTokens))
			if i > 0 {
				metrics.ProviderFallbacks.Inc()
			}
			return resp, nil
		}

		metrics.GenerationRequests.WithLabelValues(p.Name(), "error").Inc()
		o.logger.Warn("provider call failed", map[string]interface{}{
			"provider": p.Name(),
			"error":    err.Error(),
		})
		if primaryErr == nil {
			primaryErr = err
		}
	}

	if primaryErr == nil {
		primaryErr = fmt.Errorf("no providers configured")
	}
	return nil, primaryErr
}

// persistTrace writes the observability record. Best-effort: a failed write
// is logged and the response proceeds without a trace id.
func (o *Orchestrator) persistTrace(ctx context.Context, threadID string, aiResp *provider.AIResponse, overall float64) string {
	if o.traces == nil {
		return ""
	}

	trace := &models.ResponseTrace{
		ThreadID:         threadID,
		Provider:         aiResp.Provider,
		Model:            aiResp.Model,
		PromptTokens:     aiResp.Usage.PromptTokens,
		CompletionTokens: aiResp.Usage.CompletionTokens,
		TotalTokens:      aiResp.Usage.TotalTokens,
		LatencyMS:        aiResp.LatencyMS,
		Confidence:       overall,
		SafetyFlags:      aiResp.SafetyFlags,
		CreatedAt:        time.Now().UTC(),
	}

	traceID, err := o.traces.InsertTrace(ctx, trace)
	if err != nil {
		o.logger.Warn("trace write failed", map[string]interface{}{
			"threadId": threadID,
			"error":    err.Error(),
		})
		return ""
	}
	return traceID
}

func (o *Orchestrator) failureResult(messageIntent intent.Intent, reason, errDetail string) *Result {
	metrics.EscalationsTotal.WithLabelValues(reason).Inc()
	return &Result{
		Content:          cannedApology,
		Confidence:       0,
		ShouldEscalate:   true,
		EscalationReason: reason,
		Intent:           messageIntent,
		Error:            errDetail,
	}
}
