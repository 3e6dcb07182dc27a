package intent

import (
	"regexp"
	"strings"

	"github.com/salesagent/runtime/pkg/types"
)

var wordRe = regexp.MustCompile(`[a-zA-Z0-9']+`)

func tokenize(s string) []string {
	return wordRe.FindAllString(strings.ToLower(s), -1)
}

// scoreGroup counts whole-word matches of single-word entries (word-boundary
// semantics) plus substring matches of multi-word phrases, per spec.md
// §4.3's "word boundaries; multi-word phrases match by substring".
func scoreGroup(utterance string, tokens map[string]int, entries []string) int {
	low := strings.ToLower(utterance)
	score := 0
	for _, e := range entries {
		if strings.Contains(e, " ") {
			if strings.Contains(low, e) {
				score++
			}
			continue
		}
		score += tokens[e]
	}
	return score
}

func tokenCounts(utterance string) map[string]int {
	counts := make(map[string]int)
	for _, t := range tokenize(utterance) {
		counts[t]++
	}
	return counts
}

// entityNames collects every plan/product/feature/CTA name known to the
// current Page Context, lowercased, for entity resolution.
func entityNames(pc *types.PageContext) []string {
	if pc == nil {
		return nil
	}
	names := make([]string, 0, len(pc.Content.Pricing)+len(pc.Content.Products)+len(pc.Content.Features)+len(pc.Content.CTAs))
	for _, p := range pc.Content.Pricing {
		if p.Plan != "" {
			names = append(names, p.Plan)
		}
	}
	for _, p := range pc.Content.Products {
		if p.Name != "" {
			names = append(names, p.Name)
		}
	}
	for _, f := range pc.Content.Features {
		if f.Name != "" {
			names = append(names, f.Name)
		}
	}
	for _, c := range pc.Content.CTAs {
		if c.Text != "" {
			names = append(names, c.Text)
		}
	}
	return names
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		low := strings.ToLower(s)
		if !seen[low] {
			seen[low] = true
			out = append(out, s)
		}
	}
	return out
}
