package elementfinder

import (
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`[a-zA-Z0-9']+`)

func tokenize(s string) []string {
	return wordRe.FindAllString(strings.ToLower(s), -1)
}

// significantTokens returns the lowercase word tokens of s longer than 2
// characters, the query-token filter spec.md §4.4 applies to semantic
// search and DOM-fallback token lookups alike.
func significantTokens(s string) []string {
	var out []string
	for _, t := range tokenize(s) {
		if len(t) > 2 {
			out = append(out, t)
		}
	}
	return out
}
