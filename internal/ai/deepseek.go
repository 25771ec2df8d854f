package ai

import (
	"context"
	"errors"
	"net/http"

	"github.com/nyashahama/ops-diagnostic-backend/internal/report"
)

const (
	deepseekEndpoint = "https://api.deepseek.com/v1/chat/completions"
	deepseekProvider = "deepseek"
)

// deepseekClient is the Narrator backed by DeepSeek's OpenAI-compatible
// /v1/chat/completions endpoint.
type deepseekClient struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewDeepSeekClient returns a Narrator that calls the DeepSeek API.
func NewDeepSeekClient(apiKey, model string) Narrator {
	return &deepseekClient{
		apiKey:     apiKey,
		model:      model,
		endpoint:   deepseekEndpoint,
		httpClient: newHTTPClient(),
	}
}

// ─── OPENAI-COMPATIBLE API SHAPES ────────────────────────────────────────────

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// responseFormat {"type":"json_object"} asks for bare JSON.
type responseFormat struct {
	Type string `json:"type"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

// ─── IMPLEMENTATION ───────────────────────────────────────────────────────────

func (c *deepseekClient) GenerateNarrative(ctx context.Context, req NarrativeRequest) (report.Narrative, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.apiKey)

	var resp openAIResponse
	err := postJSON(ctx, c.httpClient, deepseekProvider, c.endpoint, headers, openAIRequest{
		Model:          c.model,
		MaxTokens:      2048,
		ResponseFormat: &responseFormat{Type: "json_object"},
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(req)},
		},
	}, &resp, func() *apiError { return resp.Error })
	if err != nil {
		return report.Narrative{}, err
	}

	if len(resp.Choices) == 0 {
		return report.Narrative{}, errors.New("deepseek: no choices in response")
	}
	// parseNarrative strips fences even in json_object mode.
	return parseNarrative(resp.Choices[0].Message.Content, deepseekProvider)
}
