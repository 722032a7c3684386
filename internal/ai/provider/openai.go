// internal/ai/provider/openai.go
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"stayflow-workers/internal/models"
)

const openAIDefaultBaseURL = "https://api.openai.com"

// OpenAIProvider calls the chat completions API. The backend exposes no
// granular safety categories, so safety flags are always all-clear; callers
// must not treat that as a verified-safe signal.
type OpenAIProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}
	return &OpenAIProvider{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
	Stop        []string        `json:"stop,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (p *OpenAIProvider) Generate(ctx context.Context, params GenerateParams) (*AIResponse, error) {
	messages := []openAIMessage{{Role: "system", Content: params.SystemPrompt}}
	for _, msg := range params.History {
		role := "user"
		if msg.Role == "assistant" {
			role = "assistant"
		}
		messages = append(messages, openAIMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: params.UserPrompt})

	body, err := json.Marshal(openAIRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
		Stop:        params.StopSequences,
	})
	if err != nil {
		return nil, &Error{Code: "REQUEST_ENCODE_FAILED", Message: err.Error(), Provider: p.Name(), Recoverable: false}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return nil, &Error{Code: "REQUEST_BUILD_FAILED", Message: err.Error(), Provider: p.Name(), Recoverable: false}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &Error{Code: "TRANSPORT_ERROR", Message: err.Error(), Provider: p.Name(), Recoverable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpStatusError(p.Name(), resp.StatusCode)
	}

	var apiResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, &Error{Code: "RESPONSE_DECODE_FAILED", Message: err.Error(), Provider: p.Name(), Recoverable: true}
	}

	if len(apiResp.Choices) == 0 {
		return nil, &Error{Code: "EMPTY_RESPONSE", Message: "no choices returned", Provider: p.Name(), Recoverable: true}
	}

	choice := apiResp.Choices[0]
	normalStop := choice.FinishReason == "stop"

	return &AIResponse{
		Content:      choice.Message.Content,
		Confidence:   localConfidence(choice.Message.Content, false, normalStop),
		Model:        p.model,
		Usage: Usage{
			PromptTokens:     apiResp.Usage.PromptTokens,
			CompletionTokens: apiResp.Usage.CompletionTokens,
			TotalTokens:      apiResp.Usage.TotalTokens,
		},
		LatencyMS:    time.Since(start).Milliseconds(),
		SafetyFlags:  models.SafetyFlags{},
		FinishReason: choice.FinishReason,
		Provider:     p.Name(),
	}, nil
}
