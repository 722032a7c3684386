package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayflow-workers/internal/models"
)

func geminiTestServer(t *testing.T, handler http.HandlerFunc) (*GeminiProvider, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGeminiProvider(GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-1.5-flash",
		BaseURL: server.URL,
	}), server
}

func openAITestServer(t *testing.T, handler http.HandlerFunc) (*OpenAIProvider, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOpenAIProvider(OpenAIConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: server.URL,
	}), server
}

func sampleParams() GenerateParams {
	return GenerateParams{
		SystemPrompt: "You are a helpful host assistant.",
		UserPrompt:   "Guest asks: is there parking?",
		History: []models.ConversationMessage{
			{Role: "user", Content: "Hi there"},
			{Role: "assistant", Content: "Hello! How can I help?"},
		},
		Temperature: 0.5,
		MaxTokens:   300,
	}
}

func TestGeminiProvider_Generate(t *testing.T) {
	var captured geminiRequest
	p, _ := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-1.5-flash:generateContent")
		assert.Contains(t, r.URL.RawQuery, "key=test-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]string{{"text": "Yes, there is free parking on site."}},
				},
				"finishReason": "STOP",
				"safetyRatings": []map[string]string{
					{"category": "HARM_CATEGORY_HARASSMENT", "probability": "NEGLIGIBLE"},
				},
			}},
			"usageMetadata": map[string]int{
				"promptTokenCount":     42,
				"candidatesTokenCount": 9,
				"totalTokenCount":      51,
			},
		})
	})

	resp, err := p.Generate(context.Background(), sampleParams())
	require.NoError(t, err)

	assert.Equal(t, "Yes, there is free parking on site.", resp.Content)
	assert.Equal(t, "gemini", resp.Provider)
	assert.Equal(t, "gemini-1.5-flash", resp.Model)
	assert.Equal(t, "STOP", resp.FinishReason)
	assert.Equal(t, 42, resp.Usage.PromptTokens)
	assert.Equal(t, 9, resp.Usage.CompletionTokens)
	assert.Equal(t, 51, resp.Usage.TotalTokens)
	assert.False(t, resp.SafetyFlags.Any())
	assert.InDelta(t, 0.85, resp.Confidence, 1e-9)

	// History maps assistant turns to the "model" role and the new prompt
	// comes last.
	require.Len(t, captured.Contents, 3)
	assert.Equal(t, "user", captured.Contents[0].Role)
	assert.Equal(t, "model", captured.Contents[1].Role)
	assert.Equal(t, "user", captured.Contents[2].Role)
	assert.Equal(t, "Guest asks: is there parking?", captured.Contents[2].Parts[0].Text)
	require.NotNil(t, captured.SystemInstruction)
	assert.Equal(t, "You are a helpful host assistant.", captured.SystemInstruction.Parts[0].Text)
}

func TestGeminiProvider_SafetyFlagsLowerConfidence(t *testing.T) {
	p, _ := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{{
				"content": map[string]interface{}{
					"parts": []map[string]string{{"text": "This response tripped the safety filter somehow."}},
				},
				"finishReason": "STOP",
				"safetyRatings": []map[string]string{
					{"category": "HARM_CATEGORY_HATE_SPEECH", "probability": "HIGH"},
				},
			}},
		})
	})

	resp, err := p.Generate(context.Background(), sampleParams())
	require.NoError(t, err)

	assert.True(t, resp.SafetyFlags.HateSpeech)
	assert.True(t, resp.SafetyFlags.Any())
	assert.InDelta(t, 0.65, resp.Confidence, 1e-9)
}

func TestGeminiProvider_AbnormalFinishAndShortContent(t *testing.T) {
	p, _ := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{{
				"content":      map[string]interface{}{"parts": []map[string]string{{"text": "Sorry."}}},
				"finishReason": "MAX_TOKENS",
			}},
		})
	})

	resp, err := p.Generate(context.Background(), sampleParams())
	require.NoError(t, err)

	// 0.85 - 0.2 (abnormal stop) - 0.1 (short completion)
	assert.InDelta(t, 0.55, resp.Confidence, 1e-9)
}

func TestGeminiProvider_ServerErrorIsRecoverable(t *testing.T) {
	p, _ := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := p.Generate(context.Background(), sampleParams())
	require.Error(t, err)

	var provErr *Error
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "gemini", provErr.Provider)
	assert.True(t, provErr.Recoverable)
	assert.Equal(t, "HTTP_503", provErr.Code)
}

func TestGeminiProvider_EmptyCandidates(t *testing.T) {
	p, _ := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	})

	_, err := p.Generate(context.Background(), sampleParams())

	var provErr *Error
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "EMPTY_RESPONSE", provErr.Code)
	assert.True(t, provErr.Recoverable)
}

func TestOpenAIProvider_Generate(t *testing.T) {
	var captured openAIRequest
	p, _ := openAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{
				"message":       map[string]string{"role": "assistant", "content": "Street parking is available nearby."},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{
				"prompt_tokens":     40,
				"completion_tokens": 8,
				"total_tokens":      48,
			},
		})
	})

	resp, err := p.Generate(context.Background(), sampleParams())
	require.NoError(t, err)

	assert.Equal(t, "Street parking is available nearby.", resp.Content)
	assert.Equal(t, "openai", resp.Provider)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 48, resp.Usage.TotalTokens)
	assert.InDelta(t, 0.85, resp.Confidence, 1e-9)

	// No synthesized safety analysis: the backend provides none, so the
	// flags must be all-clear rather than faked.
	assert.Equal(t, models.SafetyFlags{}, resp.SafetyFlags)

	// System prompt first, history in order, new prompt last.
	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "assistant", captured.Messages[2].Role)
	assert.Equal(t, "user", captured.Messages[3].Role)
}

func TestOpenAIProvider_RateLimitIsRecoverable(t *testing.T) {
	p, _ := openAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := p.Generate(context.Background(), sampleParams())

	var provErr *Error
	require.ErrorAs(t, err, &provErr)
	assert.True(t, provErr.Recoverable)
}

func TestOpenAIProvider_BadRequestNotRecoverable(t *testing.T) {
	p, _ := openAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := p.Generate(context.Background(), sampleParams())

	var provErr *Error
	require.ErrorAs(t, err, &provErr)
	assert.False(t, provErr.Recoverable)
}

func TestOpenAIProvider_ContextCancellation(t *testing.T) {
	p, _ := openAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, sampleParams())
	require.Error(t, err)

	var provErr *Error
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "TRANSPORT_ERROR", provErr.Code)
	assert.True(t, provErr.Recoverable)
}

func TestLocalConfidence_NeverNegative(t *testing.T) {
	got := localConfidence("no", true, false)
	assert.GreaterOrEqual(t, got, 0.0)
	assert.InDelta(t, 0.55, got, 1e-9)
}

func TestProviderError_Message(t *testing.T) {
	err := &Error{Code: "HTTP_500", Message: "backend returned status 500", Provider: "gemini", Recoverable: true}
	assert.True(t, strings.Contains(err.Error(), "gemini"))
	assert.True(t, strings.Contains(err.Error(), "HTTP_500"))
}
