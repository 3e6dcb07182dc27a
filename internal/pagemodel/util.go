package pagemodel

import (
	"encoding/json"
	"regexp"
	"strings"
)

// decodeRawSnapshot converts the any returned by playwright's Page.Evaluate
// (already JSON-shaped since walkScript returns a plain object) into a
// [rawSnapshot] via a JSON round-trip, which is the simplest reliable way to
// turn Playwright's loosely-typed result into our typed struct.
func decodeRawSnapshot(v any) (*rawSnapshot, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var snap rawSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

var wordRe = regexp.MustCompile(`[a-zA-Z0-9']+`)

func tokenize(s string) []string {
	return wordRe.FindAllString(strings.ToLower(s), -1)
}

// containsAnyWord reports whether any entry of words appears in hay as a
// whole word (word-boundary match), matching spec.md §4.3's distinction
// between whole-word keyword matches and substring phrase matches.
func containsAnyWord(hay string, words []string) bool {
	tokens := tokenize(hay)
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	for _, w := range words {
		if !strings.Contains(w, " ") {
			if set[strings.ToLower(w)] {
				return true
			}
			continue
		}
		if strings.Contains(strings.ToLower(hay), strings.ToLower(w)) {
			return true
		}
	}
	return false
}

// containsAnyPhrase reports whether any entry of phrases is a substring of
// hay, used for multi-word CTA verb phrases (spec.md §4.3: "multi-word
// phrases match by substring").
func containsAnyPhrase(hay string, phrases []string) bool {
	low := strings.ToLower(hay)
	for _, p := range phrases {
		if strings.Contains(low, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func countPriceMatches(re *regexp.Regexp, text string) int {
	return len(re.FindAllString(text, -1))
}

func isHeadingTag(tag string) bool {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

func firstHeading(n rawNode) string {
	for _, lvl := range []string{"h4", "h3", "h2", "h1", "h5", "h6"} {
		for _, c := range n.Children {
			if c.Tag == lvl {
				return c.Text
			}
		}
	}
	return ""
}

func hasChildTag(n rawNode, tag string) bool {
	for _, c := range n.Children {
		if c.Tag == tag {
			return true
		}
	}
	return false
}

func countTag(nodes []rawNode, tag string) int {
	n := 0
	for _, c := range nodes {
		if c.Tag == tag {
			n++
		}
	}
	return n
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max])
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// parseJSONLD attempts to parse a <script type="application/ld+json"> block.
// Invalid JSON is silently skipped, per spec.md §4.1 step 3.
func parseJSONLD(block string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(block), &m); err != nil {
		return nil, false
	}
	return m, true
}
