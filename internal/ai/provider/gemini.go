// internal/ai/provider/gemini.go
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"stayflow-workers/internal/models"
)

const geminiDefaultBaseURL = "https://generativelanguage.googleapis.com"

// GeminiProvider calls the Gemini generateContent REST API. It is the only
// backend that reports granular safety categories.
type GeminiProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = geminiDefaultBaseURL
	}
	return &GeminiProvider{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		// No client timeout; the caller owns the deadline via context.
		client: &http.Client{},
	}
}

func (p *GeminiProvider) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  struct {
		Temperature     float64  `json:"temperature"`
		MaxOutputTokens int      `json:"maxOutputTokens"`
		StopSequences   []string `json:"stopSequences,omitempty"`
	} `json:"generationConfig"`
}

type geminiSafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
}

type geminiResponse struct {
	Candidates []struct {
		Content       geminiContent        `json:"content"`
		FinishReason  string               `json:"finishReason"`
		SafetyRatings []geminiSafetyRating `json:"safetyRatings"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// mapGeminiSafetyRatings marks a category when the backend reports medium
// or high probability of harm.
func mapGeminiSafetyRatings(ratings []geminiSafetyRating) models.SafetyFlags {
	var flags models.SafetyFlags
	for _, rating := range ratings {
		if rating.Probability != "MEDIUM" && rating.Probability != "HIGH" {
			continue
		}
		switch rating.Category {
		case "HARM_CATEGORY_HARASSMENT":
			flags.Harassment = true
		case "HARM_CATEGORY_HATE_SPEECH":
			flags.HateSpeech = true
		case "HARM_CATEGORY_SEXUALLY_EXPLICIT":
			flags.SexuallyExplicit = true
		case "HARM_CATEGORY_DANGEROUS_CONTENT":
			flags.DangerousContent = true
		}
	}
	return flags
}

func (p *GeminiProvider) Generate(ctx context.Context, params GenerateParams) (*AIResponse, error) {
	reqBody := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: params.SystemPrompt}}},
	}
	reqBody.GenerationConfig.Temperature = params.Temperature
	reqBody.GenerationConfig.MaxOutputTokens = params.MaxTokens
	reqBody.GenerationConfig.StopSequences = params.StopSequences

	for _, msg := range params.History {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		reqBody.Contents = append(reqBody.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: msg.Content}},
		})
	}
	reqBody.Contents = append(reqBody.Contents, geminiContent{
		Role:  "user",
		Parts: []geminiPart{{Text: params.UserPrompt}},
	})

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &Error{Code: "REQUEST_ENCODE_FAILED", Message: err.Error(), Provider: p.Name(), Recoverable: false}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, &Error{Code: "REQUEST_BUILD_FAILED", Message: err.Error(), Provider: p.Name(), Recoverable: false}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &Error{Code: "TRANSPORT_ERROR", Message: err.Error(), Provider: p.Name(), Recoverable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpStatusError(p.Name(), resp.StatusCode)
	}

	var apiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, &Error{Code: "RESPONSE_DECODE_FAILED", Message: err.Error(), Provider: p.Name(), Recoverable: true}
	}

	if len(apiResp.Candidates) == 0 {
		return nil, &Error{Code: "EMPTY_RESPONSE", Message: "no candidates returned", Provider: p.Name(), Recoverable: true}
	}

	candidate := apiResp.Candidates[0]
	content := ""
	if len(candidate.Content.Parts) > 0 {
		content = candidate.Content.Parts[0].Text
	}

	flags := mapGeminiSafetyRatings(candidate.SafetyRatings)
	normalStop := candidate.FinishReason == "STOP"

	return &AIResponse{
		Content:      content,
		Confidence:   localConfidence(content, flags.Any(), normalStop),
		Model:        p.model,
		Usage: Usage{
			PromptTokens:     apiResp.UsageMetadata.PromptTokenCount,
			CompletionTokens: apiResp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      apiResp.UsageMetadata.TotalTokenCount,
		},
		LatencyMS:    time.Since(start).Milliseconds(),
		SafetyFlags:  flags,
		FinishReason: candidate.FinishReason,
		Provider:     p.Name(),
	}, nil
}
