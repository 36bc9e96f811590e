// Package intent classifies a caller utterance into a coarse intent plus a
// finer sub-intent and structured entities. Classification is keyword and
// regex driven per locale, with an optional LLM fallback for low-confidence
// utterances.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"concierge/pkg/llm"
	"concierge/pkg/logx"
	"concierge/pkg/proto"
	"concierge/pkg/utils"
)

// Classification is the router's verdict for one utterance.
type Classification struct {
	Intent     proto.Intent
	Confidence float64
	SubIntent  string
	Entities   map[string]string
}

// Router scores utterances against the per-locale pattern tables.
type Router struct {
	threshold float64
	fallback  llm.Client // nil disables the LLM fallback
	logger    *logx.Logger
}

// NewRouter creates a router with the given confidence threshold. A nil
// fallback client disables the low-confidence LLM path.
func NewRouter(threshold float64, fallback llm.Client) *Router {
	return &Router{
		threshold: threshold,
		fallback:  fallback,
		logger:    logx.NewLogger("intent"),
	}
}

// Classify determines intent, sub-intent and entities for the utterance.
// It never returns an error to the caller: any internal failure degrades to
// a direct intent at 0.5 confidence, and the degradation is reported through
// the returned recoverable flag so the orchestrator can log it.
func (r *Router) Classify(ctx context.Context, raw string, locale proto.Locale, confirmationOutstanding bool) (result Classification, degraded bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("classification panic: %v", rec)
			result = Classification{Intent: proto.IntentDirect, Confidence: 0.5, Entities: map[string]string{}}
			degraded = true
		}
	}()

	if strings.TrimSpace(raw) == "" {
		return Classification{Intent: proto.IntentDirect, Confidence: 0.5, Entities: map[string]string{}}, false
	}

	normalized := utils.NormalizeText(raw)
	entities := ExtractEntities(raw, locale)

	// A bare "sí"/"yes" while a confirmation is outstanding is an answer,
	// never a new topic. This pre-empts normal classification.
	if confirmationOutstanding && isYesNoAnswer(normalized, locale) {
		return Classification{
			Intent:     proto.IntentConfirm,
			Confidence: 0.95,
			Entities:   entities,
		}, false
	}

	best, scored := scoreIntents(normalized, locale)
	scored.SubIntent = resolveSubIntent(normalized, locale)
	scored.Entities = entities

	if scored.Confidence >= r.threshold {
		return scored, false
	}

	if r.fallback != nil {
		if llmResult, err := r.classifyWithLLM(ctx, raw, locale); err != nil {
			r.logger.Warn("llm fallback failed, keeping keyword result: %v", err)
		} else {
			llmResult.SubIntent = scored.SubIntent
			llmResult.Entities = mergeEntities(entities, llmResult.Entities)
			return llmResult, false
		}
	}

	// Below threshold with no (working) fallback: an unmatched utterance
	// becomes a plain reply rather than a guessed action.
	if best == 0 {
		scored.Intent = proto.IntentDirect
	}
	return scored, false
}

// scoreIntents counts pattern hits per intent and derives a confidence from
// the share of hits the winning intent took.
func scoreIntents(normalized string, locale proto.Locale) (bestScore int, c Classification) {
	table, ok := intentPatterns[locale]
	if !ok {
		table = intentPatterns[proto.LocaleSpanish]
	}

	scores := make(map[proto.Intent]int)
	total := 0
	for in, patterns := range table {
		for _, p := range patterns {
			if p.matches(normalized) {
				scores[in]++
				total++
			}
		}
	}

	best := proto.IntentUnknown
	for _, in := range []proto.Intent{proto.IntentTransfer, proto.IntentTool, proto.IntentRAG, proto.IntentDirect} {
		if scores[in] > bestScore {
			bestScore = scores[in]
			best = in
		}
	}

	confidence := 0.3
	if bestScore > 0 {
		confidence = float64(bestScore)/float64(total) + float64(bestScore)*0.1
		if confidence > 0.95 {
			confidence = 0.95
		}
	}

	return bestScore, Classification{Intent: best, Confidence: confidence}
}

func resolveSubIntent(normalized string, locale proto.Locale) string {
	rules, ok := subIntentRules[locale]
	if !ok {
		rules = subIntentRules[proto.LocaleSpanish]
	}
	for _, rule := range rules {
		for _, p := range rule.patterns {
			if p.matches(normalized) {
				return rule.sub
			}
		}
	}
	return ""
}

func isYesNoAnswer(normalized string, locale proto.Locale) bool {
	patterns, ok := yesNoPatterns[locale]
	if !ok {
		patterns = yesNoPatterns[proto.LocaleSpanish]
	}
	for _, p := range patterns {
		if p.matches(normalized) {
			return true
		}
	}
	return false
}

// classificationPrompt constrains the model to the intent enum and a strict
// JSON shape so the reply can be parsed without heuristics.
const classificationPrompt = `You classify a caller utterance for a business phone assistant.
Respond with ONLY a JSON object, no prose:
{"intent": "<tool|rag|direct|transfer>", "confidence": <0.0-1.0>, "entities": {"date": "...", "time": "...", "guests": "...", "name": "...", "phone": "..."}}

Meanings:
- tool: the caller wants an action taken (book, cancel or change a reservation, place an order, leave a message)
- rag: the caller asks about the business (hours, location, menu, prices, facilities)
- transfer: the caller asks for a human
- direct: greetings, thanks, small talk, anything else

Omit entities you did not find. Utterance locale: %s.`

type llmVerdict struct {
	Intent     string            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities"`
}

func (r *Router) classifyWithLLM(ctx context.Context, raw string, locale proto.Locale) (Classification, error) {
	resp, err := r.fallback.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.CompletionMessage{
			llm.NewSystemMessage(fmt.Sprintf(classificationPrompt, locale)),
			llm.NewUserMessage(raw),
		},
		MaxTokens:   200,
		Temperature: llm.TemperatureClassification,
	})
	if err != nil {
		return Classification{}, err
	}

	var verdict llmVerdict
	content := strings.TrimSpace(resp.Content)
	// Models sometimes wrap JSON in a code fence.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &verdict); err != nil {
		return Classification{}, fmt.Errorf("unparseable classification reply: %w", err)
	}

	in := proto.Intent(verdict.Intent)
	if !in.Valid() || in == proto.IntentConfirm || in == proto.IntentUnknown {
		return Classification{}, fmt.Errorf("model returned invalid intent %q", verdict.Intent)
	}
	if verdict.Confidence < 0 || verdict.Confidence > 1 {
		verdict.Confidence = 0.5
	}

	return Classification{Intent: in, Confidence: verdict.Confidence, Entities: verdict.Entities}, nil
}

// mergeEntities prefers keyword-extracted values; the model only fills gaps.
func mergeEntities(keyword, model map[string]string) map[string]string {
	merged := make(map[string]string, len(keyword)+len(model))
	for k, v := range model {
		if v != "" {
			merged[k] = v
		}
	}
	for k, v := range keyword {
		if v != "" {
			merged[k] = v
		}
	}
	return merged
}
