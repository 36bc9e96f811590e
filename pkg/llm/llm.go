// Package llm provides the language model client interface used by the
// intent fallback classifier and the response synthesizer, plus error
// classification and retry wrapping. Provider implementations live in the
// subpackages.
package llm

import (
	"context"
)

// CompletionRole represents the role of a message in a conversation.
type CompletionRole string

const (
	// RoleSystem indicates a system message that provides instructions.
	RoleSystem CompletionRole = "system"
	// RoleUser indicates a message from the caller.
	RoleUser CompletionRole = "user"
	// RoleAssistant indicates a message from the assistant.
	RoleAssistant CompletionRole = "assistant"
)

const (
	// TemperatureClassification keeps the fallback intent classifier
	// deterministic.
	TemperatureClassification = 0.0
	// TemperatureSynthesis allows mild variation in spoken replies.
	TemperatureSynthesis = 0.4
)

// CompletionMessage represents a message in a completion request.
type CompletionMessage struct {
	Role    CompletionRole
	Content string
}

// CompletionRequest represents a request to generate a completion. The
// orchestration core never asks the model to call tools; tool dispatch is
// deterministic and lives in the tools package.
type CompletionRequest struct {
	Messages    []CompletionMessage
	MaxTokens   int
	Temperature float32
}

// CompletionResponse represents the model's reply.
type CompletionResponse struct {
	Content    string
	StopReason string
}

// Client defines the interface for language model interactions.
type Client interface {
	// Complete generates a completion synchronously. Implementations must
	// honor ctx cancellation.
	Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error)

	// ModelName returns the model identifier for logging and metrics.
	ModelName() string
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) CompletionMessage {
	return CompletionMessage{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) CompletionMessage {
	return CompletionMessage{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) CompletionMessage {
	return CompletionMessage{Role: RoleAssistant, Content: content}
}
