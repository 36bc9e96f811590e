package confirm

import (
	"regexp"

	"concierge/pkg/proto"
)

// localePatterns holds the ordered matchers for one locale. Order matters:
// strict positives before negatives before unclear, so "sí, claro" never
// falls through to the fuzzy stage.
type localePatterns struct {
	positive []*regexp.Regexp
	negative []*regexp.Regexp
	unclear  []*regexp.Regexp

	// Short term lists for the fuzzy containment stage. These catch
	// phrasings the strict regexes do not enumerate.
	positiveTerms []string
	negativeTerms []string
}

var patternsByLocale = map[proto.Locale]*localePatterns{
	proto.LocaleSpanish: {
		positive: []*regexp.Regexp{
			regexp.MustCompile(`^si$`),
			regexp.MustCompile(`^si\b`),
			regexp.MustCompile(`^(claro|vale|ok|okay|correcto|perfecto|exacto)\b`),
			regexp.MustCompile(`^(por supuesto|de acuerdo|asi es|esta bien)\b`),
			regexp.MustCompile(`\b(confirmo|confirmado|adelante|hazlo|procede)\b`),
		},
		// "no sé" must fall through to the unclear stage, so the bare
		// "no" matchers are anchored to the whole reply or to a closing
		// word, never a loose prefix.
		negative: []*regexp.Regexp{
			regexp.MustCompile(`^no$`),
			regexp.MustCompile(`^no (gracias|no)\b`),
			regexp.MustCompile(`^(mejor no|para nada|nunca)\b`),
			regexp.MustCompile(`\b(cancela|cancelalo|dejalo|olvidalo|espera)\b`),
			regexp.MustCompile(`\bno (quiero|lo hagas|hace falta)\b`),
		},
		unclear: []*regexp.Regexp{
			regexp.MustCompile(`^(que|como|cual|cuando|donde|por que)\b`),
			regexp.MustCompile(`\b(no se|no estoy segur[oa]|tal vez|quizas|quiza|depende|a lo mejor)\b`),
			regexp.MustCompile(`\b(un momento|dejame pensar)\b`),
		},
		positiveTerms: []string{"si", "claro", "vale", "correcto", "perfecto", "confirmo", "adelante"},
		negativeTerms: []string{"no", "cancela", "olvidalo", "nunca"},
	},
	proto.LocaleEnglish: {
		positive: []*regexp.Regexp{
			regexp.MustCompile(`^(yes|yeah|yep|yup|sure|ok|okay)\b`),
			regexp.MustCompile(`^(of course|absolutely|definitely|correct|right|exactly)\b`),
			regexp.MustCompile(`\b(confirm|confirmed|go ahead|do it|sounds good|that works)\b`),
		},
		negative: []*regexp.Regexp{
			regexp.MustCompile(`^(no|nope|nah)\b`),
			regexp.MustCompile(`^(rather not|never mind|nevermind)\b`),
			regexp.MustCompile(`\b(cancel|forget it|dont|do not|stop|wait)\b`),
			regexp.MustCompile(`\bno thanks?\b`),
		},
		unclear: []*regexp.Regexp{
			regexp.MustCompile(`^(what|how|which|when|where|why)\b`),
			regexp.MustCompile(`\b(not sure|i dont know|maybe|perhaps|it depends|possibly)\b`),
			regexp.MustCompile(`\b(hold on|let me think|one moment)\b`),
		},
		positiveTerms: []string{"yes", "sure", "okay", "correct", "confirm", "absolutely"},
		negativeTerms: []string{"no", "cancel", "nope", "never"},
	},
}

// Denial messages looked up by tool name, with a generic fallback.
var denialMessages = map[proto.Locale]map[string]string{
	proto.LocaleSpanish: {
		"create_reservation": "De acuerdo, no haré la reserva. ¿Puedo ayudarle en algo más?",
		"cancel_reservation": "De acuerdo, su reserva se mantiene. ¿Puedo ayudarle en algo más?",
		"modify_reservation": "De acuerdo, dejo la reserva como está. ¿Puedo ayudarle en algo más?",
		"create_order":       "De acuerdo, no registraré el pedido. ¿Puedo ayudarle en algo más?",
		"":                   "De acuerdo, no lo haré. ¿Puedo ayudarle en algo más?",
	},
	proto.LocaleEnglish: {
		"create_reservation": "Alright, I won't make the reservation. Is there anything else I can help with?",
		"cancel_reservation": "Alright, your reservation stays as it is. Is there anything else I can help with?",
		"modify_reservation": "Alright, I'll leave the reservation unchanged. Is there anything else I can help with?",
		"create_order":       "Alright, I won't place the order. Is there anything else I can help with?",
		"":                   "Alright, I won't do that. Is there anything else I can help with?",
	},
}

var clarificationPrompts = map[proto.Locale]struct {
	askAgain string
	generic  string
	prefix   string
}{
	proto.LocaleSpanish: {
		askAgain: "¿Me confirma, sí o no?",
		generic:  "Disculpe, no le he entendido. ¿Me lo confirma con un sí o un no?",
		prefix:   "Necesito una respuesta clara. ",
	},
	proto.LocaleEnglish: {
		askAgain: "Could you confirm, yes or no?",
		generic:  "Sorry, I didn't catch that. Could you confirm with a yes or a no?",
		prefix:   "I need a clear response. ",
	},
}
