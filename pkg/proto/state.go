// Package proto defines the shared turn-state types that flow through the
// orchestration graph. Every node receives the current TurnState and returns
// a StatePatch; the graph runner merges patches with Apply. Nothing in this
// package performs I/O.
package proto

import (
	"time"
)

// Locale identifies the conversation language.
type Locale string

const (
	// LocaleSpanish is the Spanish locale.
	LocaleSpanish Locale = "es"
	// LocaleEnglish is the English locale.
	LocaleEnglish Locale = "en"
)

// Valid reports whether the locale is one of the supported values.
func (l Locale) Valid() bool {
	return l == LocaleSpanish || l == LocaleEnglish
}

// Intent is the coarse category of what the caller wants this turn.
type Intent string

const (
	// IntentTool indicates the caller asked for a side-effecting action.
	IntentTool Intent = "tool"
	// IntentRAG indicates a factual question answered from the knowledge base.
	IntentRAG Intent = "rag"
	// IntentDirect indicates small talk or anything answered without retrieval.
	IntentDirect Intent = "direct"
	// IntentTransfer indicates a request to speak with a human.
	IntentTransfer Intent = "transfer"
	// IntentConfirm indicates a yes/no answer to an outstanding confirmation.
	IntentConfirm Intent = "confirm"
	// IntentUnknown is the fallback when classification produced nothing.
	IntentUnknown Intent = "unknown"
)

// Valid reports whether the intent is a member of the fixed enum.
func (i Intent) Valid() bool {
	switch i {
	case IntentTool, IntentRAG, IntentDirect, IntentTransfer, IntentConfirm, IntentUnknown:
		return true
	default:
		return false
	}
}

// ConfirmationStatus tracks the multi-turn confirmation protocol.
type ConfirmationStatus string

const (
	// ConfirmationNone means no confirmation is in flight.
	ConfirmationNone ConfirmationStatus = "none"
	// ConfirmationPending means a question was asked and the answer is outstanding.
	ConfirmationPending ConfirmationStatus = "pending"
	// ConfirmationConfirmed means the caller approved the queued tool.
	ConfirmationConfirmed ConfirmationStatus = "confirmed"
	// ConfirmationDenied means the caller declined the queued tool.
	ConfirmationDenied ConfirmationStatus = "denied"
)

// MessageRole tags history entries.
type MessageRole string

const (
	// RoleUser marks caller utterances.
	RoleUser MessageRole = "user"
	// RoleAssistant marks assistant replies.
	RoleAssistant MessageRole = "assistant"
	// RoleSystem marks injected instructions.
	RoleSystem MessageRole = "system"
)

// Message is one entry in the conversation history. Insertion order is
// significant.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// PendingTool is an action queued for confirmation or execution. It lives
// only nested inside TurnState.
type PendingTool struct {
	Name                 string         `json:"name"`
	Params               map[string]any `json:"params,omitempty"`
	RequiresConfirmation bool           `json:"requires_confirmation"`
	ConfirmationMessage  string         `json:"confirmation_message,omitempty"`
	EnqueuedAt           time.Time      `json:"enqueued_at"`
}

// ToolExecutionResult is the normalized outcome of running (or refusing to
// run) a tool. Failures are values, never panics.
type ToolExecutionResult struct {
	Success         bool           `json:"success"`
	Data            map[string]any `json:"data,omitempty"`
	Err             string         `json:"error,omitempty"`
	VoiceMessage    string         `json:"voice_message"`
	ForwardToClient bool           `json:"forward_to_client"`
}

// RAGResult holds the retrieval outcome for a knowledge question.
type RAGResult struct {
	Context string        `json:"context"`
	Sources []string      `json:"sources,omitempty"`
	Success bool          `json:"success"`
	Latency time.Duration `json:"latency"`
}

// GraphError is one entry in the per-turn append-only error log.
type GraphError struct {
	Node        NodeName  `json:"node"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Recoverable bool      `json:"recoverable"`
}

// ResponseKind labels where the final text came from.
type ResponseKind string

const (
	// ResponseTemplate means a canned locale template answered the turn.
	ResponseTemplate ResponseKind = "template"
	// ResponseLLM means a model generated the final text.
	ResponseLLM ResponseKind = "llm"
	// ResponseTool means the tool's voice message was reused.
	ResponseTool ResponseKind = "tool"
	// ResponseConfirmation means a confirmation prompt or denial was delivered.
	ResponseConfirmation ResponseKind = "confirmation"
	// ResponseApology means a degraded safe apology was emitted.
	ResponseApology ResponseKind = "apology"
)

// TurnState is the single record threaded through one turn of the graph.
// It is created fresh per turn from the carried-over fields the caller
// persisted after the previous turn, mutated only through Apply, and
// discarded once the runner returns.
//
//nolint:govet // fieldalignment: logical grouping preferred over packing
type TurnState struct {
	CallID   string `json:"call_id"`
	TenantID string `json:"tenant_id"`
	Locale   Locale `json:"locale"`

	Messages        []Message `json:"messages"`
	Input           string    `json:"input"`
	NormalizedInput string    `json:"normalized_input"`

	Intent     Intent            `json:"intent"`
	Confidence float64           `json:"confidence"`
	SubIntent  string            `json:"sub_intent,omitempty"`
	Entities   map[string]string `json:"entities,omitempty"`

	PendingTool          *PendingTool         `json:"pending_tool,omitempty"`
	LastToolResult       *ToolExecutionResult `json:"last_tool_result,omitempty"`
	ConfirmationStatus   ConfirmationStatus   `json:"confirmation_status"`
	ConfirmationAttempts int                  `json:"confirmation_attempts"`

	RAGResult *RAGResult `json:"rag_result,omitempty"`
	UsedRAG   bool       `json:"used_rag"`

	Response      string       `json:"response"`
	ResponseKind  ResponseKind `json:"response_kind,omitempty"`
	EndCall       bool         `json:"end_call"`
	EndCallReason string       `json:"end_call_reason,omitempty"`

	NodeLatency map[NodeName]time.Duration `json:"node_latency,omitempty"`
	Errors      []GraphError               `json:"errors,omitempty"`
	CurrentNode NodeName                   `json:"current_node"`
	Done        bool                       `json:"done"`
}

// NewTurnState builds the per-turn state from the caller-supplied carry-over.
// Intent starts as unknown, never empty.
func NewTurnState(callID, tenantID string, locale Locale, history []Message, input string) *TurnState {
	if !locale.Valid() {
		locale = LocaleSpanish
	}
	return &TurnState{
		CallID:             callID,
		TenantID:           tenantID,
		Locale:             locale,
		Messages:           history,
		Input:              input,
		Intent:             IntentUnknown,
		ConfirmationStatus: ConfirmationNone,
		Entities:           make(map[string]string),
		NodeLatency:        make(map[NodeName]time.Duration),
		CurrentNode:        NodeRouter,
	}
}

// TurnResponse is the derived reply contract handed back to the caller
// alongside the final state.
type TurnResponse struct {
	Text            string `json:"text"`
	EndCall         bool   `json:"end_call"`
	EndCallReason   string `json:"end_call_reason,omitempty"`
	ForwardToClient bool   `json:"forward_to_client"`
}

// ResponseOut derives the caller-facing reply from the final state.
func (s *TurnState) ResponseOut() TurnResponse {
	forward := false
	if s.LastToolResult != nil {
		forward = s.LastToolResult.ForwardToClient
	}
	return TurnResponse{
		Text:            s.Response,
		EndCall:         s.EndCall,
		EndCallReason:   s.EndCallReason,
		ForwardToClient: forward,
	}
}
