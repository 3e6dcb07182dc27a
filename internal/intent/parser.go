// Package intent classifies a user utterance into an intent/target/entity
// triple (C3 Intent Parser). Scoring is plain Go over two keyword tables;
// the only cleverness is a Jaro-Winkler fuzzy fallback, grounded on the
// teacher's phonetic entity-resolution code, for typo-tolerant entity
// matching against the current Page Context.
package intent

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/salesagent/runtime/pkg/types"
)

// intentOrder and targetOrder fix the tie-break order spec.md §4.3 implies
// by listing intents/targets in a specific sequence; the first group to
// reach the maximum score wins ties deterministically.
var intentOrder = []string{"navigate", "compare", "highlight", "read", "click"}

var targetOrder = []string{"pricing", "features", "signup", "contact", "about", "faq", "product", "cta"}

// DefaultFuzzyThreshold is the minimum Jaro-Winkler similarity for the
// typo-tolerant entity fallback to accept a match.
const DefaultFuzzyThreshold = 0.85

// Parser scores an utterance against a [Tables] to produce a [types.Intent].
type Parser struct {
	tables         *Tables
	fuzzyThreshold float64
}

// Option configures a [Parser].
type Option func(*Parser)

// WithTables overrides the default keyword tables.
func WithTables(t *Tables) Option {
	return func(p *Parser) { p.tables = t }
}

// WithFuzzyThreshold overrides the Jaro-Winkler acceptance threshold used
// for the typo-tolerant entity fallback. A threshold ≤0 disables the
// fallback entirely, leaving only spec.md's exact-match path.
func WithFuzzyThreshold(threshold float64) Option {
	return func(p *Parser) { p.fuzzyThreshold = threshold }
}

// NewParser builds a Parser with [DefaultTables] and [DefaultFuzzyThreshold]
// unless overridden.
func NewParser(opts ...Option) *Parser {
	p := &Parser{tables: DefaultTables(), fuzzyThreshold: DefaultFuzzyThreshold}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse classifies utterance against pc (the current Page Context, possibly
// nil if no extraction has run yet) and returns the resulting [types.Intent].
func (p *Parser) Parse(utterance string, pc *types.PageContext) types.Intent {
	tokens := tokenCounts(utterance)

	bestIntent, intentKnown := bestGroup(utterance, tokens, p.tables.IntentVerbs, intentOrder)
	bestTarget, targetKnown := bestGroup(utterance, tokens, p.tables.TargetNouns, targetOrder)

	// "if zero but a target matched, default intent to navigate"
	if !intentKnown && targetKnown {
		bestIntent = "navigate"
		intentKnown = true
	}

	entities := p.resolveEntities(utterance, pc)

	confidence := 0.0
	if intentKnown {
		confidence += 0.4
	}
	if targetKnown {
		confidence += 0.3
	}
	if len(entities) > 0 {
		confidence += 0.3
	}
	if confidence > 1 {
		confidence = 1
	}

	result := types.Intent{
		Intent:     types.IntentUnknown,
		Target:     types.TargetUnknown,
		Entities:   entities,
		Confidence: confidence,
	}
	if intentKnown {
		result.Intent = types.IntentKind(bestIntent)
	}
	if targetKnown {
		result.Target = types.Target(bestTarget)
	}
	return result
}

// bestGroup scores every entry in groups and returns the key of the
// highest-scoring one (order breaks ties), and whether any group scored
// above zero.
func bestGroup(utterance string, tokens map[string]int, groups map[string][]string, order []string) (string, bool) {
	best := ""
	bestScore := 0
	for _, key := range order {
		words, ok := groups[key]
		if !ok {
			continue
		}
		score := scoreGroup(utterance, tokens, words)
		if score > bestScore {
			bestScore = score
			best = key
		}
	}
	return best, bestScore > 0
}

// resolveEntities finds plan/product/feature/CTA names (from pc, plus the
// fallback plan-name list) mentioned in utterance. The exact/substring path
// from spec.md §4.3 runs first; a Jaro-Winkler fuzzy pass only considers a
// name if the exact path found nothing for it, per SPEC_FULL.md's C3 note
// that the fuzzy fallback is strictly supplemental.
func (p *Parser) resolveEntities(utterance string, pc *types.PageContext) []string {
	known := dedupeStrings(append(entityNames(pc), p.tables.FallbackPlanNames...))
	tokens := tokenize(utterance)
	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}

	var found []string
	for _, name := range known {
		nameTokens := tokenize(name)
		if len(nameTokens) == 0 {
			continue
		}
		if len(nameTokens) == 1 {
			if tokenSet[nameTokens[0]] {
				found = append(found, name)
				continue
			}
		} else if strings.Contains(strings.ToLower(utterance), strings.ToLower(name)) {
			found = append(found, name)
			continue
		}

		if p.fuzzyThreshold <= 0 {
			continue
		}
		if p.fuzzyMatch(tokens, nameTokens) {
			found = append(found, name)
		}
	}
	return dedupeStrings(found)
}

// fuzzyMatch reports whether any utterance token is a close Jaro-Winkler
// match (≥ p.fuzzyThreshold) to any token of the candidate entity name.
// Tokens shorter than 3 characters are skipped to avoid spurious matches on
// short common words.
func (p *Parser) fuzzyMatch(utteranceTokens, nameTokens []string) bool {
	for _, ut := range utteranceTokens {
		if len(ut) < 3 {
			continue
		}
		for _, nt := range nameTokens {
			if len(nt) < 3 {
				continue
			}
			if matchr.JaroWinkler(ut, nt, false) >= p.fuzzyThreshold {
				return true
			}
		}
	}
	return false
}
