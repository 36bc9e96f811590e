package intent

import (
	"regexp"
	"strconv"
	"strings"

	"concierge/pkg/proto"
	"concierge/pkg/utils"
)

// Structural extractors (dates, times, phones) run on the lowercased raw
// input because normalization strips the ":" "/" "+" characters they need.
// Word-based extractors run on the normalized copy.
var (
	reDateISO     = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	reDateSlash   = regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`)
	reTime24      = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	reTimeSpokenE = regexp.MustCompile(`\b(\d{1,2})\s?(am|pm)\b`)
	reTimeSpokenS = regexp.MustCompile(`\ba las? (\d{1,2})( y media)?\b`)
	reGuestsES    = regexp.MustCompile(`\b(?:para|somos)\s+(\d{1,2})\b|\b(\d{1,2})\s+personas?\b`)
	reGuestsEN    = regexp.MustCompile(`\b(?:for|party of)\s+(\d{1,2})\b|\b(\d{1,2})\s+(?:people|guests)\b`)
	rePhone       = regexp.MustCompile(`\+?\d[\d\s.-]{7,}\d`)
	reNameES      = regexp.MustCompile(`\b(?:me llamo|mi nombre es|a nombre de|soy)\s+([a-zñ]+(?:\s[a-zñ]+)?)`)
	reNameEN      = regexp.MustCompile(`\b(?:my name is|under the name|this is|i am)\s+([a-z]+(?:\s[a-z]+)?)`)
)

var relativeDates = map[proto.Locale]map[string]string{
	proto.LocaleSpanish: {
		"hoy": "today", "mañana": "tomorrow", "pasado mañana": "day_after_tomorrow",
	},
	proto.LocaleEnglish: {
		"today": "today", "tomorrow": "tomorrow", "day after tomorrow": "day_after_tomorrow",
	},
}

var numberWords = map[proto.Locale]map[string]int{
	proto.LocaleSpanish: {
		"dos": 2, "tres": 3, "cuatro": 4, "cinco": 5, "seis": 6,
		"siete": 7, "ocho": 8, "nueve": 9, "diez": 10,
	},
	proto.LocaleEnglish: {
		"two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
		"seven": 7, "eight": 8, "nine": 9, "ten": 10,
	},
}

// ExtractEntities pulls date, time, guest count, phone and name out of the
// utterance. Each extractor is independent; a miss in one never blocks the
// others, and missing entities are simply absent from the map.
func ExtractEntities(raw string, locale proto.Locale) map[string]string {
	lower := strings.ToLower(raw)
	normalized := utils.NormalizeText(raw)
	entities := make(map[string]string)

	extractDate(lower, normalized, locale, entities)
	extractTime(lower, normalized, locale, entities)
	extractGuests(normalized, locale, entities)

	if m := rePhone.FindString(lower); m != "" {
		entities["phone"] = stripPhoneSeparators(m)
	}

	nameRe := reNameES
	if locale == proto.LocaleEnglish {
		nameRe = reNameEN
	}
	if m := nameRe.FindStringSubmatch(normalized); m != nil {
		entities["name"] = m[1]
	}

	return entities
}

func extractDate(lower, normalized string, locale proto.Locale, entities map[string]string) {
	if m := reDateISO.FindStringSubmatch(lower); m != nil {
		entities["date"] = m[1]
		return
	}
	if m := reDateSlash.FindString(lower); m != "" {
		entities["date"] = m
		return
	}
	// Longer relative phrases win: "pasado mañana" over "mañana".
	best := ""
	for phrase, canonical := range relativeDates[locale] {
		if containsPhrase(normalized, phrase) && len(phrase) > len(best) {
			best = phrase
			entities["date"] = canonical
		}
	}
}

func extractTime(lower, normalized string, locale proto.Locale, entities map[string]string) {
	if m := reTime24.FindStringSubmatch(lower); m != nil {
		entities["time"] = m[0]
		return
	}
	if locale == proto.LocaleEnglish {
		if m := reTimeSpokenE.FindStringSubmatch(normalized); m != nil {
			hour, _ := strconv.Atoi(m[1])
			if m[2] == "pm" && hour < 12 {
				hour += 12
			}
			entities["time"] = strconv.Itoa(hour) + ":00"
		}
		return
	}
	if m := reTimeSpokenS.FindStringSubmatch(normalized); m != nil {
		minutes := "00"
		if m[2] != "" {
			minutes = "30"
		}
		entities["time"] = m[1] + ":" + minutes
	}
}

func extractGuests(normalized string, locale proto.Locale, entities map[string]string) {
	guestRe := reGuestsES
	if locale == proto.LocaleEnglish {
		guestRe = reGuestsEN
	}
	if m := guestRe.FindStringSubmatch(normalized); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				entities["guests"] = g
				return
			}
		}
	}
	for word, n := range numberWords[locale] {
		if containsPhrase(normalized, word+" personas") ||
			containsPhrase(normalized, "para "+word) ||
			containsPhrase(normalized, "for "+word) ||
			containsPhrase(normalized, word+" people") {
			entities["guests"] = strconv.Itoa(n)
			return
		}
	}
}

func stripPhoneSeparators(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '+' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
