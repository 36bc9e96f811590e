// Package utils provides text normalization and token counting helpers shared
// by the classification and synthesis layers.
package utils

import (
	"strings"
	"unicode"
)

// accentFold maps accented Spanish characters to their base letters. The
// pattern tables are written unaccented, so classification normalizes both
// sides the same way.
//
//nolint:gochecknoglobals // static lookup table
var accentFold = map[rune]rune{
	'á': 'a', 'é': 'e', 'í': 'i', 'ó': 'o', 'ú': 'u', 'ü': 'u',
	'Á': 'a', 'É': 'e', 'Í': 'i', 'Ó': 'o', 'Ú': 'u', 'Ü': 'u',
	'à': 'a', 'è': 'e', 'ì': 'i', 'ò': 'o', 'ù': 'u',
}

// NormalizeText lowercases, strips accents, drops punctuation, and collapses
// whitespace. The ñ is preserved: "manana" and "mañana" are different words.
func NormalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))

	lastSpace := true // leading whitespace is dropped
	for _, r := range strings.ToLower(input) {
		if folded, ok := accentFold[r]; ok {
			r = folded
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		default:
			// Punctuation separates words rather than joining them.
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimSpace(b.String())
}
