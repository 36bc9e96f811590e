package rag

import (
	"sort"
	"strings"

	"concierge/pkg/utils"
)

// maxSearchTerms caps the FTS query width for long utterances.
const maxSearchTerms = 10

// Stop words for both supported locales. Spoken input is normalized before
// filtering, so accented forms fold onto these entries.
var stopWords = map[string]bool{
	// Spanish
	"el": true, "la": true, "los": true, "las": true, "un": true,
	"una": true, "unos": true, "unas": true, "de": true, "del": true,
	"en": true, "con": true, "por": true, "para": true, "que": true,
	"como": true, "cual": true, "cuando": true, "donde": true, "quien": true,
	"es": true, "son": true, "esta": true, "estan": true, "hay": true,
	"tiene": true, "tienen": true, "ser": true, "estar": true, "desea": true,
	"quiero": true, "quisiera": true, "puede": true, "pueden": true,
	"me": true, "te": true, "se": true, "su": true, "sus": true,
	"mi": true, "mis": true, "yo": true, "tu": true, "usted": true,
	"muy": true, "mas": true, "pero": true, "si": true, "no": true,
	"al": true, "le": true, "les": true, "lo": true,
	// English
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "from": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"do": true, "does": true, "did": true, "have": true, "has": true,
	"what": true, "which": true, "who": true, "when": true, "where": true,
	"why": true, "how": true, "you": true, "your": true, "i": true,
	"we": true, "they": true, "it": true, "this": true, "that": true,
	"can": true, "could": true, "would": true, "want": true, "like": true,
}

// ExtractSearchTerms pulls the most frequent content words out of an
// utterance, normalized and stop-word filtered, ordered by frequency then
// first appearance.
func ExtractSearchTerms(text string) []string {
	normalized := utils.NormalizeText(text)
	if normalized == "" {
		return nil
	}

	type termInfo struct {
		term  string
		freq  int
		first int
	}
	seen := make(map[string]*termInfo)
	order := []*termInfo{}

	for i, token := range strings.Fields(normalized) {
		if len(token) < 3 || stopWords[token] {
			continue
		}
		if info, ok := seen[token]; ok {
			info.freq++
			continue
		}
		info := &termInfo{term: token, freq: 1, first: i}
		seen[token] = info
		order = append(order, info)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].freq != order[j].freq {
			return order[i].freq > order[j].freq
		}
		return order[i].first < order[j].first
	})

	if len(order) > maxSearchTerms {
		order = order[:maxSearchTerms]
	}

	terms := make([]string, len(order))
	for i, info := range order {
		terms[i] = info.term
	}
	return terms
}
