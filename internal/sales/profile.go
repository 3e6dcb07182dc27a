package sales

import (
	"regexp"
	"strings"

	"github.com/salesagent/runtime/pkg/types"
)

// ProfileTables holds the keyword tables that drive [BuildProfile]. Each
// classification field is "highest-scoring table wins," with an explicit
// default when nothing scores above zero (spec.md §4.10).
type ProfileTables struct {
	Type        map[types.ProfileType][]string
	CompanySize map[types.CompanySize][]string
	Industry    map[string][]string
	Urgency     map[types.Urgency][]string
	Budget      map[types.Budget][]string

	PainPointKeywords []string
	InterestKeywords  []string
	ObjectionKeywords []string
}

// DefaultProfileTables returns the built-in keyword tables.
func DefaultProfileTables() ProfileTables {
	return ProfileTables{
		Type: map[types.ProfileType][]string{
			types.ProfileBuyer:      {"ready to buy", "sign up", "purchase", "get started", "let's do this"},
			types.ProfileResearcher: {"comparing", "evaluating", "researching", "looking into options", "vs"},
			types.ProfileSkeptic:    {"not sure", "skeptical", "does this actually", "prove it", "too good to be true"},
			types.ProfileExplorer:   {"just looking", "just browsing", "curious", "exploring", "not ready yet"},
		},
		CompanySize: map[types.CompanySize][]string{
			types.CompanyStartup:    {"startup", "small team", "just us", "couple of us", "bootstrapped"},
			types.CompanySMB:        {"small business", "our company", "our team of", "mid-size"},
			types.CompanyEnterprise: {"enterprise", "large organization", "thousands of employees", "company-wide", "procurement"},
		},
		Industry: map[string][]string{
			"saas":          {"saas", "software company"},
			"healthcare":    {"healthcare", "hospital", "clinic", "patients"},
			"finance":       {"finance", "bank", "fintech", "accounting"},
			"retail":        {"retail", "ecommerce", "e-commerce", "storefront"},
			"education":     {"school", "university", "education", "students"},
			"manufacturing": {"manufacturing", "factory", "supply chain"},
		},
		Urgency: map[types.Urgency][]string{
			types.UrgencyHigh:   {"asap", "urgently", "this week", "immediately", "right away"},
			types.UrgencyMedium: {"this month", "this quarter", "in the next few weeks"},
			types.UrgencyLow:    {"no rush", "just exploring", "down the road", "eventually"},
		},
		Budget: map[types.Budget][]string{
			types.BudgetHigh:   {"budget isn't an issue", "enterprise budget", "whatever it costs", "cost isn't a concern"},
			types.BudgetMedium: {"reasonable budget", "mid-range", "flexible budget"},
			types.BudgetLow:    {"tight budget", "limited budget", "free plan", "can't spend much", "cheapest"},
		},
		PainPointKeywords: []string{"problem", "pain", "struggle", "issue", "frustrated", "broken", "slow", "manual"},
		InterestKeywords:  []string{"interested in", "would love", "really like", "excited about", "care about"},
		ObjectionKeywords: []string{"but", "however", "expensive", "not sure", "concern", "worried", "doubt", "hesitant"},
	}
}

var sentenceSplit = regexp.MustCompile(`[.!?\n]+`)

// BuildProfile infers a [types.UserProfile] from a visitor's message
// history and current behavior snapshot (spec.md §4.10).
func BuildProfile(messages []string, behavior types.Behavior, tables ProfileTables) types.UserProfile {
	text := strings.ToLower(strings.Join(messages, " "))

	profileType, typeKnown := pickEnum(text, tables.Type, types.ProfileExplorer)
	companySize, sizeKnown := pickEnum(text, tables.CompanySize, types.CompanyUnknown)
	urgency, urgencyKnown := pickEnum(text, tables.Urgency, types.UrgencyUnknown)
	budget, budgetKnown := pickEnum(text, tables.Budget, types.BudgetUnknown)
	industry, _ := pickEnum(text, tables.Industry, "")

	painPoints := matchingSentences(messages, tables.PainPointKeywords)
	interests := matchingSentences(messages, tables.InterestKeywords)
	objections := matchingSentences(messages, tables.ObjectionKeywords)

	return types.UserProfile{
		Type:        profileType,
		CompanySize: companySize,
		Industry:    industry,
		Urgency:     urgency,
		Budget:      budget,
		PainPoints:  painPoints,
		Interests:   interests,
		Objections:  objections,
		Behavior:    behavior,
		Confidence:  profileConfidence(typeKnown, sizeKnown, urgencyKnown, budgetKnown, len(painPoints) > 0),
	}
}

// pickEnum scores text against each key's keyword list and returns the
// highest-scoring key. Ties keep the first key encountered in iteration
// order; callers that care about determinism pass single-winner keyword
// sets. known reports whether any key scored above zero.
func pickEnum[T comparable](text string, table map[T][]string, fallback T) (value T, known bool) {
	best := fallback
	bestScore := 0
	for key, keywords := range table {
		score := 0
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = key
		}
	}
	return best, bestScore > 0
}

// matchingSentences splits messages into sentences and returns (deduped,
// trimmed) the ones containing any of keywords.
func matchingSentences(messages []string, keywords []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, msg := range messages {
		for _, sentence := range sentenceSplit.Split(msg, -1) {
			trimmed := strings.TrimSpace(sentence)
			if trimmed == "" {
				continue
			}
			lower := strings.ToLower(trimmed)
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					key := strings.ToLower(trimmed)
					if !seen[key] {
						seen[key] = true
						out = append(out, trimmed)
					}
					break
				}
			}
		}
	}
	return out
}

// profileConfidence weights each "is this field known" flag: type carries
// the most weight since it drives closing-technique selection, followed
// by urgency and budget (both inputs to the same decision), then company
// size and whether any pain point was volunteered at all.
func profileConfidence(typeKnown, sizeKnown, urgencyKnown, budgetKnown, painPointsKnown bool) float64 {
	var confidence float64
	if typeKnown {
		confidence += 0.30
	}
	if urgencyKnown {
		confidence += 0.20
	}
	if budgetKnown {
		confidence += 0.20
	}
	if sizeKnown {
		confidence += 0.15
	}
	if painPointsKnown {
		confidence += 0.15
	}
	return confidence
}
