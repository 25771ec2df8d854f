package ai

import (
	"context"
	"errors"
	"net/http"

	"github.com/nyashahama/ops-diagnostic-backend/internal/report"
)

const (
	anthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion  = "2023-06-01"
	anthropicProvider = "anthropic"
)

// anthropicClient is the Narrator backed by the Anthropic Messages API.
type anthropicClient struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewAnthropicClient returns a Narrator that calls the Anthropic API.
//   - apiKey: your ANTHROPIC_API_KEY
//   - model:  e.g. "claude-sonnet-4-5"
func NewAnthropicClient(apiKey, model string) Narrator {
	return &anthropicClient{
		apiKey:     apiKey,
		model:      model,
		endpoint:   anthropicEndpoint,
		httpClient: newHTTPClient(),
	}
}

// ─── ANTHROPIC API SHAPES ─────────────────────────────────────────────────────

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *apiError `json:"error"`
}

// ─── IMPLEMENTATION ───────────────────────────────────────────────────────────

// GenerateNarrative asks Claude for the narrative JSON and parses the first
// text block.
func (c *anthropicClient) GenerateNarrative(ctx context.Context, req NarrativeRequest) (report.Narrative, error) {
	headers := http.Header{}
	headers.Set("x-api-key", c.apiKey)
	headers.Set("anthropic-version", anthropicVersion)

	var resp anthropicResponse
	err := postJSON(ctx, c.httpClient, anthropicProvider, c.endpoint, headers, anthropicRequest{
		Model:     c.model,
		MaxTokens: 2048,
		System:    systemPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: buildPrompt(req)}},
	}, &resp, func() *apiError { return resp.Error })
	if err != nil {
		return report.Narrative{}, err
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			return parseNarrative(block.Text, anthropicProvider)
		}
	}
	return report.Narrative{}, errors.New("anthropic: no text content in response")
}
