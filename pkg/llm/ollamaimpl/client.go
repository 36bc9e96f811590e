// Package ollamaimpl provides the Ollama implementation of the llm.Client
// interface. Ollama is a local runtime for open-source models; it is the
// zero-cloud option for on-premise deployments.
package ollamaimpl

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"concierge/pkg/llm"
)

// DefaultModel is used when the config names no model.
const DefaultModel = "llama3.1"

// Client wraps the Ollama API client.
type Client struct {
	client *api.Client
	model  string
}

// NewClient creates an Ollama client for the given server URL
// (e.g. "http://localhost:11434"). Empty model selects the default.
func NewClient(hostURL, model string) llm.Client {
	parsedURL, err := url.Parse(hostURL)
	if err != nil || hostURL == "" {
		parsedURL, _ = url.Parse("http://localhost:11434")
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		client: api.NewClient(parsedURL, http.DefaultClient),
		model:  model,
	}
}

// Complete implements llm.Client.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	if len(in.Messages) == 0 {
		return llm.CompletionResponse{}, llm.NewError(llm.ErrorTypeBadPrompt, "message list cannot be empty")
	}

	messages := make([]api.Message, 0, len(in.Messages))
	for i := range in.Messages {
		msg := &in.Messages[i]
		messages = append(messages, api.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": in.Temperature,
			"num_predict": in.MaxTokens,
		},
	}

	var response api.ChatResponse
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		return llm.CompletionResponse{}, classifyError(err)
	}
	if response.Message.Content == "" {
		return llm.CompletionResponse{}, llm.NewError(llm.ErrorTypeEmptyResponse, "empty response from Ollama")
	}

	return llm.CompletionResponse{
		Content:    response.Message.Content,
		StopReason: response.DoneReason,
	}, nil
}

// ModelName implements llm.Client.
func (c *Client) ModelName() string {
	return c.model
}

func classifyError(err error) error {
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "connection refused"):
		return llm.NewError(llm.ErrorTypeTransient, "Ollama server not reachable: %v", err)
	case strings.Contains(errStr, "model") && strings.Contains(errStr, "not found"):
		return llm.NewError(llm.ErrorTypeBadPrompt, "Ollama model not found: %v", err)
	case strings.Contains(errStr, "context canceled") || strings.Contains(errStr, "timeout"):
		return llm.NewError(llm.ErrorTypeTransient, "Ollama request interrupted: %v", err)
	default:
		return llm.NewError(llm.ErrorTypeUnknown, "Ollama API error: %v", err)
	}
}
