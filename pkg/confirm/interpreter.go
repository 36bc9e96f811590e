// Package confirm interprets a free-text reply to an outstanding yes/no
// question. The interpretation is deliberately biased toward safety: on any
// internal failure the answer defaults to denied, never to confirmed.
package confirm

import (
	"strings"

	"concierge/pkg/logx"
	"concierge/pkg/proto"
	"concierge/pkg/utils"
)

// Interpretation is the parsed verdict for one reply.
type Interpretation struct {
	Understood bool
	Status     proto.ConfirmationStatus
	Confidence float64
	Message    string // clarification or denial text, empty on plain confirm
}

// Interpreter parses confirmation replies against per-locale pattern tables.
type Interpreter struct {
	logger *logx.Logger
}

// NewInterpreter creates a confirmation interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{logger: logx.NewLogger("confirm")}
}

// Interpret classifies the reply. originalQuestion is echoed back when the
// caller keeps being ambiguous; toolName selects the denial message.
func (in *Interpreter) Interpret(raw string, locale proto.Locale, toolName, originalQuestion string) (result Interpretation) {
	defer func() {
		if rec := recover(); rec != nil {
			in.logger.Error("interpreter panic, defaulting to denied: %v", rec)
			result = Interpretation{
				Understood: true,
				Status:     proto.ConfirmationDenied,
				Confidence: 0.5,
				Message:    denialMessage(locale, toolName),
			}
		}
	}()

	pats, ok := patternsByLocale[locale]
	if !ok {
		pats = patternsByLocale[proto.LocaleSpanish]
	}
	prompts, ok := clarificationPrompts[locale]
	if !ok {
		prompts = clarificationPrompts[proto.LocaleSpanish]
	}

	normalized := utils.NormalizeText(raw)
	if normalized == "" {
		return Interpretation{
			Status:     proto.ConfirmationPending,
			Confidence: 0,
			Message:    prompts.askAgain,
		}
	}

	// A reply that opens affirmative can still carry an explicit refusal
	// ("si pero mejor no"). Any refusal marker anywhere in the reply blocks
	// the positive stage; when in doubt the action does not run.
	refused := containsRefusal(normalized, pats)

	if !refused {
		for _, re := range pats.positive {
			if re.MatchString(normalized) {
				return Interpretation{
					Understood: true,
					Status:     proto.ConfirmationConfirmed,
					Confidence: 0.95,
				}
			}
		}
	}

	for _, re := range pats.negative {
		if re.MatchString(normalized) {
			return Interpretation{
				Understood: true,
				Status:     proto.ConfirmationDenied,
				Confidence: 0.95,
				Message:    denialMessage(locale, toolName),
			}
		}
	}

	for _, re := range pats.unclear {
		if re.MatchString(normalized) {
			return Interpretation{
				Status:     proto.ConfirmationPending,
				Confidence: 0.3,
				Message:    clarification(prompts.prefix, originalQuestion, prompts.generic),
			}
		}
	}

	// Fuzzy stage: a positive or negative term anywhere in the reply.
	// Negatives win because "si pero mejor no" is a refusal.
	if containsAnyTerm(normalized, pats.negativeTerms) {
		return Interpretation{
			Understood: true,
			Status:     proto.ConfirmationDenied,
			Confidence: 0.8,
			Message:    denialMessage(locale, toolName),
		}
	}
	if containsAnyTerm(normalized, pats.positiveTerms) {
		return Interpretation{
			Understood: true,
			Status:     proto.ConfirmationConfirmed,
			Confidence: 0.8,
		}
	}

	return Interpretation{
		Status:     proto.ConfirmationPending,
		Confidence: 0.2,
		Message:    clarification(prompts.prefix, originalQuestion, prompts.generic),
	}
}

func clarification(prefix, originalQuestion, generic string) string {
	if originalQuestion != "" {
		return prefix + originalQuestion
	}
	return generic
}

func denialMessage(locale proto.Locale, toolName string) string {
	messages, ok := denialMessages[locale]
	if !ok {
		messages = denialMessages[proto.LocaleSpanish]
	}
	if msg, ok := messages[toolName]; ok {
		return msg
	}
	return messages[""]
}

// containsRefusal reports whether the reply carries any strict negative
// match or bare refusal word, regardless of position.
func containsRefusal(normalized string, pats *localePatterns) bool {
	for _, re := range pats.negative {
		if re.MatchString(normalized) {
			return true
		}
	}
	return containsAnyTerm(normalized, pats.negativeTerms)
}

func containsAnyTerm(normalized string, terms []string) bool {
	words := strings.Fields(normalized)
	for _, term := range terms {
		for _, w := range words {
			if w == term {
				return true
			}
		}
	}
	return false
}
