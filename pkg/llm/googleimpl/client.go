// Package googleimpl provides the Google Gemini implementation of the
// llm.Client interface.
package googleimpl

import (
	"context"
	"strings"
	"sync"

	"google.golang.org/genai"

	"concierge/pkg/llm"
)

// DefaultModel is used when the config names no model.
const DefaultModel = "gemini-2.0-flash"

// Client wraps the Google GenAI client. Client creation requires a context,
// so it is deferred to the first Complete call.
type Client struct {
	mu     sync.Mutex
	client *genai.Client
	apiKey string
	model  string
}

// NewClient creates a Gemini client. Empty model selects the default.
func NewClient(apiKey, model string) llm.Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{apiKey: apiKey, model: model}
}

func (c *Client) ensureClient(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, llm.NewError(llm.ErrorTypeAuth, "failed to create Gemini client: %v", err)
	}
	c.client = client
	return client, nil
}

// Complete implements llm.Client.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	if len(in.Messages) == 0 {
		return llm.CompletionResponse{}, llm.NewError(llm.ErrorTypeBadPrompt, "message list cannot be empty")
	}

	client, err := c.ensureClient(ctx)
	if err != nil {
		return llm.CompletionResponse{}, err
	}

	contents, systemInstruction := convertMessages(in.Messages)

	temperature := in.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(in.MaxTokens), //nolint:gosec // bounded by config validation
	}
	if systemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		}
	}

	result, err := client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return llm.CompletionResponse{}, classifyError(err)
	}
	if result == nil || result.Text() == "" {
		return llm.CompletionResponse{}, llm.NewError(llm.ErrorTypeEmptyResponse, "empty response from Gemini API")
	}

	return llm.CompletionResponse{
		Content:    result.Text(),
		StopReason: stopReason(result),
	}, nil
}

// ModelName implements llm.Client.
func (c *Client) ModelName() string {
	return c.model
}

// convertMessages maps completion messages to Gemini contents. System
// messages collapse into the system instruction; assistant becomes "model".
func convertMessages(messages []llm.CompletionMessage) ([]*genai.Content, string) {
	var systemParts []string
	var contents []*genai.Content

	for i := range messages {
		msg := &messages[i]
		switch msg.Role {
		case llm.RoleSystem:
			systemParts = append(systemParts, msg.Content)
		case llm.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	return contents, strings.Join(systemParts, "\n\n")
}

func stopReason(result *genai.GenerateContentResponse) string {
	if len(result.Candidates) > 0 {
		return string(result.Candidates[0].FinishReason)
	}
	return ""
}

func classifyError(err error) error {
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "429") || strings.Contains(errStr, "RESOURCE_EXHAUSTED"):
		return llm.NewError(llm.ErrorTypeRateLimit, "Gemini rate limit: %v", err)
	case strings.Contains(errStr, "401") || strings.Contains(errStr, "403") || strings.Contains(errStr, "API key"):
		return llm.NewError(llm.ErrorTypeAuth, "Gemini auth error: %v", err)
	case strings.Contains(errStr, "500") || strings.Contains(errStr, "503") || strings.Contains(errStr, "timeout"):
		return llm.NewError(llm.ErrorTypeTransient, "Gemini transient error: %v", err)
	default:
		return llm.NewError(llm.ErrorTypeUnknown, "Gemini API call failed: %v", err)
	}
}
