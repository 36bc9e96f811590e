package respond

import (
	"regexp"
	"strings"

	"concierge/pkg/proto"
)

var (
	reURL       = regexp.MustCompile(`https?://\S+|www\.\S+`)
	reMarkdown  = regexp.MustCompile("[*_`#~]+")
	reBullet    = regexp.MustCompile(`(?m)^\s*[-•*]\s+`)
	reMDLink    = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	reBrackets  = regexp.MustCompile(`[\[\]<>{}]`)
	reSpaces    = regexp.MustCompile(`[ \t]+`)
	reLoneDigit = regexp.MustCompile(`(^|[^\d:,./])([0-9])($|[^\d:,./])`)
)

var digitWords = map[proto.Locale][]string{
	proto.LocaleSpanish: {"cero", "uno", "dos", "tres", "cuatro", "cinco", "seis", "siete", "ocho", "nueve"},
	proto.LocaleEnglish: {"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"},
}

// ForSpeech rewrites text for a TTS voice: no markdown, no URLs, lone
// digits spelled out, and a terminal punctuation mark so the voice does not
// trail off. The result is never empty when the input is non-empty.
func ForSpeech(text string, locale proto.Locale) string {
	out := reMDLink.ReplaceAllString(text, "$1")
	out = reURL.ReplaceAllString(out, "")
	out = reBullet.ReplaceAllString(out, "")
	out = reBrackets.ReplaceAllString(out, "")
	out = reMarkdown.ReplaceAllString(out, "")
	out = spellLoneDigits(out, locale)
	out = reSpaces.ReplaceAllString(out, " ")
	out = collapseBlankLines(out)
	out = strings.TrimRight(strings.TrimSpace(out), " ,;:")

	if out == "" {
		return out
	}
	if !endsWithPunct(out) {
		out += "."
	}
	return out
}

// spellLoneDigits replaces isolated single digits with words. Digits that
// are part of times, dates or larger numbers keep their shape.
func spellLoneDigits(text string, locale proto.Locale) string {
	words, ok := digitWords[locale]
	if !ok {
		words = digitWords[proto.LocaleSpanish]
	}
	for {
		replaced := reLoneDigit.ReplaceAllStringFunc(text, func(m string) string {
			sub := reLoneDigit.FindStringSubmatch(m)
			d := int(sub[2][0] - '0')
			return sub[1] + words[d] + sub[3]
		})
		if replaced == text {
			return replaced
		}
		text = replaced
	}
}

func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, strings.TrimSpace(l))
		}
	}
	return strings.Join(kept, " ")
}

func endsWithPunct(s string) bool {
	runes := []rune(s)
	last := runes[len(runes)-1]
	switch last {
	case '.', '!', '?', '¿', '¡':
		return true
	default:
		return false
	}
}
