package respond

import (
	"math/rand"

	"concierge/pkg/proto"
)

// Canned replies for direct turns, keyed by sub-intent. Multiple variants
// keep repeated calls from sounding robotic; selection is uniform.
var directTemplates = map[proto.Locale]map[string][]string{
	proto.LocaleSpanish: {
		"greeting": {
			"¡Hola! ¿En qué puedo ayudarle?",
			"¡Buenas! ¿Qué necesita?",
			"¡Hola! Dígame, ¿en qué le puedo ayudar?",
		},
		"farewell": {
			"¡Gracias por llamar! Que tenga un buen día.",
			"¡Hasta pronto! Gracias por su llamada.",
		},
		"acknowledgment": {
			"¡Perfecto! ¿Necesita algo más?",
			"De acuerdo. ¿Puedo ayudarle en algo más?",
		},
		"fallback": {
			"¿Podría repetírmelo de otra forma, por favor?",
			"Disculpe, no le he entendido bien. ¿Me lo puede repetir?",
		},
	},
	proto.LocaleEnglish: {
		"greeting": {
			"Hello! How can I help you?",
			"Hi there! What can I do for you?",
		},
		"farewell": {
			"Thanks for calling! Have a great day.",
			"Goodbye! Thank you for your call.",
		},
		"acknowledgment": {
			"Perfect! Anything else you need?",
			"Alright. Is there anything else I can help with?",
		},
		"fallback": {
			"Could you say that another way, please?",
			"Sorry, I didn't quite catch that. Could you repeat it?",
		},
	},
}

var noInfoMessages = map[proto.Locale]string{
	proto.LocaleSpanish: "Lo siento, no tengo esa información. ¿Puedo ayudarle con otra cosa?",
	proto.LocaleEnglish: "I'm sorry, I don't have that information. Can I help you with something else?",
}

var apologyMessages = map[proto.Locale]string{
	proto.LocaleSpanish: "Disculpe, ha habido un problema. ¿Puede repetírmelo, por favor?",
	proto.LocaleEnglish: "I'm sorry, something went wrong. Could you say that again, please?",
}

var transferMessages = map[proto.Locale]string{
	proto.LocaleSpanish: "Le paso con una persona del equipo. Un momento, por favor.",
	proto.LocaleEnglish: "I'll put you through to a member of our team. One moment, please.",
}

var toolSuccessMessages = map[proto.Locale]string{
	proto.LocaleSpanish: "Hecho. ¿Puedo ayudarle en algo más?",
	proto.LocaleEnglish: "Done. Is there anything else I can help with?",
}

var toolFailureMessages = map[proto.Locale]string{
	proto.LocaleSpanish: "Lo siento, no he podido completar la acción. ¿Puedo ayudarle en algo más?",
	proto.LocaleEnglish: "I'm sorry, I couldn't complete that action. Is there anything else I can help with?",
}

// Farewell phrases that end the call when they appear in the final text.
var farewellPhrases = map[proto.Locale][]string{
	proto.LocaleSpanish: {
		"que tenga un buen dia", "hasta pronto", "hasta luego", "adios",
		"gracias por llamar", "gracias por su llamada",
	},
	proto.LocaleEnglish: {
		"have a great day", "have a good day", "goodbye", "see you soon",
		"thanks for calling", "thank you for your call",
	},
}

func template(locale proto.Locale, subIntent string) (string, bool) {
	byLocale, ok := directTemplates[locale]
	if !ok {
		byLocale = directTemplates[proto.LocaleSpanish]
	}
	variants, ok := byLocale[subIntent]
	if !ok || len(variants) == 0 {
		return "", false
	}
	return variants[rand.Intn(len(variants))], true
}

func localized(m map[proto.Locale]string, locale proto.Locale) string {
	if v, ok := m[locale]; ok {
		return v
	}
	return m[proto.LocaleSpanish]
}
