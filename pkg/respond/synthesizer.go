// Package respond turns the state accumulated over a turn into the final
// spoken reply. Upstream results take priority over generation: a
// confirmation prompt, a denial message or a tool's voice message is reused
// rather than rephrased.
package respond

import (
	"context"
	"fmt"
	"strings"

	"concierge/pkg/llm"
	"concierge/pkg/logx"
	"concierge/pkg/proto"
	"concierge/pkg/utils"
)

// Synthesizer produces the final text, the end-call decision and the
// response kind for one turn.
type Synthesizer struct {
	client        llm.Client // nil disables generation, templates only
	tokens        *utils.TokenCounter
	historyBudget int
	logger        *logx.Logger
}

// NewSynthesizer creates a synthesizer. client may be nil; historyBudget
// bounds how much conversation history is replayed into prompts.
func NewSynthesizer(client llm.Client, tokens *utils.TokenCounter, historyBudget int) *Synthesizer {
	if historyBudget <= 0 {
		historyBudget = 1200
	}
	return &Synthesizer{
		client:        client,
		tokens:        tokens,
		historyBudget: historyBudget,
		logger:        logx.NewLogger("respond"),
	}
}

// Synthesize builds the final response patch. Output text is always
// non-empty; any internal failure degrades to a locale apology instead of
// propagating.
func (s *Synthesizer) Synthesize(ctx context.Context, state *proto.TurnState) (patch *proto.StatePatch) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("synthesizer panic: %v", rec)
			patch = s.apologyPatch(state, fmt.Sprintf("synthesizer panic: %v", rec))
		}
	}()

	text, kind, appendErr := s.compose(ctx, state)
	text = ForSpeech(text, state.Locale)
	if text == "" {
		text = ForSpeech(localized(apologyMessages, state.Locale), state.Locale)
		kind = proto.ResponseApology
	}

	endCall, reason := s.decideEndCall(state, text)

	patch = &proto.StatePatch{
		Response:     proto.Ptr(text),
		ResponseKind: proto.Ptr(kind),
		EndCall:      proto.Ptr(endCall),
		AppendMessages: []proto.Message{
			{Role: proto.RoleAssistant, Content: text},
		},
	}
	if reason != "" {
		patch.EndCallReason = proto.Ptr(reason)
	}
	if appendErr != "" {
		patch.AppendErrors = []proto.GraphError{
			proto.RecoverableError(proto.NodeResponseGenerator, appendErr),
		}
	}
	return patch
}

// compose walks the priority chain and returns the raw text before speech
// post-processing, along with a recoverable error message when the turn
// degraded.
func (s *Synthesizer) compose(ctx context.Context, state *proto.TurnState) (string, proto.ResponseKind, string) {
	// An upstream node already produced the reply.
	if state.Response != "" {
		kind := state.ResponseKind
		if kind == "" {
			kind = proto.ResponseTemplate
		}
		return state.Response, kind, ""
	}

	switch state.Intent {
	case proto.IntentDirect, proto.IntentUnknown:
		return s.composeDirect(ctx, state)
	case proto.IntentRAG:
		return s.composeRAG(ctx, state)
	case proto.IntentTool:
		return s.composeTool(state)
	case proto.IntentTransfer:
		if state.LastToolResult != nil && state.LastToolResult.VoiceMessage != "" {
			return state.LastToolResult.VoiceMessage, proto.ResponseTool, ""
		}
		return localized(transferMessages, state.Locale), proto.ResponseTemplate, ""
	case proto.IntentConfirm:
		// Denial and clarification set state.Response upstream; reaching
		// here means the confirmed tool already ran.
		return s.composeTool(state)
	default:
		text, _ := template(state.Locale, "fallback")
		return text, proto.ResponseTemplate, ""
	}
}

func (s *Synthesizer) composeDirect(ctx context.Context, state *proto.TurnState) (string, proto.ResponseKind, string) {
	if text, ok := template(state.Locale, state.SubIntent); ok {
		return text, proto.ResponseTemplate, ""
	}

	if s.client != nil {
		text, err := s.generateDirect(ctx, state)
		if err == nil && text != "" {
			return text, proto.ResponseLLM, ""
		}
		if err != nil {
			s.logger.Warn("direct generation failed: %v", err)
		}
	}

	text, _ := template(state.Locale, "fallback")
	return text, proto.ResponseTemplate, ""
}

func (s *Synthesizer) composeRAG(ctx context.Context, state *proto.TurnState) (string, proto.ResponseKind, string) {
	rag := state.RAGResult
	if rag == nil || !rag.Success || strings.TrimSpace(rag.Context) == "" {
		return localized(noInfoMessages, state.Locale), proto.ResponseApology, ""
	}

	if s.client == nil {
		// Template-only mode: speak the best matching document directly.
		return firstSection(rag.Context), proto.ResponseTemplate, ""
	}

	text, err := s.generateGrounded(ctx, state, rag.Context)
	if err != nil || strings.TrimSpace(text) == "" {
		s.logger.Warn("grounded generation failed: %v", err)
		return firstSection(rag.Context), proto.ResponseTemplate,
			fmt.Sprintf("grounded generation failed: %v", err)
	}
	return text, proto.ResponseLLM, ""
}

func (s *Synthesizer) composeTool(state *proto.TurnState) (string, proto.ResponseKind, string) {
	result := state.LastToolResult
	if result == nil {
		return localized(toolFailureMessages, state.Locale), proto.ResponseApology, ""
	}
	if result.VoiceMessage != "" {
		return result.VoiceMessage, proto.ResponseTool, ""
	}
	if result.Success {
		return localized(toolSuccessMessages, state.Locale), proto.ResponseTemplate, ""
	}
	return localized(toolFailureMessages, state.Locale), proto.ResponseTemplate, ""
}

const directSystemPrompt = `You are the phone assistant of a small business. Reply to the caller in %s.
Keep it to one or two short spoken sentences. No lists, no markdown, no URLs.`

const groundedSystemPrompt = `You are the phone assistant of a small business. Answer the caller's question in %s using ONLY the information below. If the answer is not in the information, say you don't have that information. Do not use outside knowledge. Keep it to one or two short spoken sentences. No lists, no markdown, no URLs.

Information:
%s`

var localeNames = map[proto.Locale]string{
	proto.LocaleSpanish: "Spanish",
	proto.LocaleEnglish: "English",
}

func (s *Synthesizer) generateDirect(ctx context.Context, state *proto.TurnState) (string, error) {
	messages := []llm.CompletionMessage{
		llm.NewSystemMessage(fmt.Sprintf(directSystemPrompt, localeNames[state.Locale])),
	}
	messages = append(messages, s.history(state)...)
	messages = append(messages, llm.NewUserMessage(state.Input))

	resp, err := s.client.Complete(ctx, llm.CompletionRequest{
		Messages:    messages,
		MaxTokens:   150,
		Temperature: llm.TemperatureSynthesis,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (s *Synthesizer) generateGrounded(ctx context.Context, state *proto.TurnState, ragContext string) (string, error) {
	messages := []llm.CompletionMessage{
		llm.NewSystemMessage(fmt.Sprintf(groundedSystemPrompt, localeNames[state.Locale], ragContext)),
	}
	messages = append(messages, s.history(state)...)
	messages = append(messages, llm.NewUserMessage(state.Input))

	resp, err := s.client.Complete(ctx, llm.CompletionRequest{
		Messages:    messages,
		MaxTokens:   200,
		Temperature: llm.TemperatureSynthesis,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// history replays the most recent conversation turns that fit the token
// budget, newest kept first.
func (s *Synthesizer) history(state *proto.TurnState) []llm.CompletionMessage {
	var kept []llm.CompletionMessage
	budget := s.historyBudget
	for i := len(state.Messages) - 1; i >= 0; i-- {
		msg := state.Messages[i]
		if msg.Role == proto.RoleSystem {
			continue
		}
		cost := s.countTokens(msg.Content)
		if cost > budget {
			break
		}
		budget -= cost
		role := llm.RoleUser
		if msg.Role == proto.RoleAssistant {
			role = llm.RoleAssistant
		}
		kept = append(kept, llm.CompletionMessage{Role: role, Content: msg.Content})
	}
	// Reverse back into chronological order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}

func (s *Synthesizer) countTokens(text string) int {
	if s.tokens == nil {
		return len(text) / 4
	}
	return s.tokens.CountTokens(text)
}

func (s *Synthesizer) decideEndCall(state *proto.TurnState, text string) (bool, string) {
	if state.EndCall {
		reason := state.EndCallReason
		if reason == "" {
			reason = "upstream"
		}
		return true, reason
	}

	normalized := utils.NormalizeText(text)
	phrases, ok := farewellPhrases[state.Locale]
	if !ok {
		phrases = farewellPhrases[proto.LocaleSpanish]
	}
	for _, phrase := range phrases {
		if strings.Contains(normalized, phrase) {
			return true, "farewell"
		}
	}
	return false, ""
}

func (s *Synthesizer) apologyPatch(state *proto.TurnState, errMsg string) *proto.StatePatch {
	text := ForSpeech(localized(apologyMessages, state.Locale), state.Locale)
	return &proto.StatePatch{
		Response:     proto.Ptr(text),
		ResponseKind: proto.Ptr(proto.ResponseApology),
		EndCall:      proto.Ptr(false),
		AppendMessages: []proto.Message{
			{Role: proto.RoleAssistant, Content: text},
		},
		AppendErrors: []proto.GraphError{
			proto.RecoverableError(proto.NodeResponseGenerator, errMsg),
		},
	}
}

// firstSection returns the content of the top retrieved document, without
// its heading line.
func firstSection(ragContext string) string {
	section := ragContext
	if i := strings.Index(ragContext, "\n\n"); i > 0 {
		section = ragContext[:i]
	}
	lines := strings.SplitN(section, "\n", 2)
	if len(lines) == 2 && strings.HasPrefix(lines[0], "## ") {
		return lines[1]
	}
	return section
}
