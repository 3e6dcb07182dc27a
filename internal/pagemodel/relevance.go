package pagemodel

import "strings"

// semanticTags get a ranking bonus; footer/aside get a penalty (spec.md §4.1
// relevance ranking).
var (
	semanticTags = map[string]bool{"main": true, "article": true, "section": true, "h1": true, "h2": true, "h3": true}
	penaltyTags  = map[string]bool{"footer": true, "aside": true}
)

// relevance scores a candidate node using the spec's formula: base 50,
// +30 fully in viewport, up to +20 inversely to scroll distance, up to +20
// proportional to viewport-area fraction (capped at 0.5), +10 semantic tag,
// -20 footer/aside. Used to rank competing candidates for the same slot
// (e.g. multiple plausible pricing containers) before size caps are applied.
func relevance(n rawNode) float64 {
	score := 50.0
	if n.InViewport && n.Rect.Top >= 0 {
		score += 30
	}
	distBonus := 20.0 - n.ScrollDist/50.0
	if distBonus > 0 {
		score += min(distBonus, 20)
	}
	areaFrac := n.ViewportPct
	if areaFrac > 0.5 {
		areaFrac = 0.5
	}
	score += areaFrac * 40 // scaled so the 0.5 cap yields the spec's +20 max

	if semanticTags[n.Tag] {
		score += 10
	}
	if penaltyTags[n.Tag] {
		score -= 20
	}
	return score
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// hasSemanticClassHint reports whether n's class list contains any of hints
// as a case-insensitive substring. Nothing in the package calls it; the
// ranking in [relevance] does not look at classes.
func hasSemanticClassHint(n rawNode, hints []string) bool {
	joined := strings.ToLower(strings.Join(n.Classes, " "))
	for _, h := range hints {
		if strings.Contains(joined, h) {
			return true
		}
	}
	return false
}
