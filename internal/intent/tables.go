package intent

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Tables holds the two keyword tables the parser scores an utterance
// against (spec.md §4.3): intent verbs grouped by [types.IntentKind], and
// target nouns grouped by [types.Target]. It also carries a fallback list of
// common plan names used for entity resolution when the Page Context itself
// doesn't name a plan (e.g. the visitor says "enterprise" before any pricing
// section has been extracted). Data, not code, per REDESIGN FLAGS.
type Tables struct {
	IntentVerbs       map[string][]string `yaml:"intent_verbs"`
	TargetNouns       map[string][]string `yaml:"target_nouns"`
	FallbackPlanNames []string            `yaml:"fallback_plan_names"`
}

// DefaultTables returns the built-in keyword tables. They cover the intent
// verbs and target nouns spec.md §4.3 names plus the common SaaS pricing
// tier names most marketing pages use somewhere.
func DefaultTables() *Tables {
	return &Tables{
		IntentVerbs: map[string][]string{
			"navigate": {
				"go to", "take me to", "show me", "navigate", "scroll to", "jump to",
				"where is", "find", "go",
			},
			"compare": {
				"compare", "versus", "vs", "difference between", "which is better",
				"how does it compare",
			},
			"highlight": {
				"highlight", "point out", "show", "point to", "circle",
			},
			"read": {
				"read", "tell me about", "what is", "explain", "describe",
				"what does it say",
			},
			"click": {
				"click", "press", "select", "choose", "hit", "tap",
			},
		},
		TargetNouns: map[string][]string{
			"pricing":  {"pricing", "price", "plans", "plan", "cost", "tier", "tiers"},
			"features": {"features", "feature", "capabilities", "what it does"},
			"signup":   {"sign up", "signup", "register", "create account", "get started"},
			"contact":  {"contact", "support", "sales team", "talk to sales", "reach out"},
			"about":    {"about", "company", "who are you", "about us"},
			"faq":      {"faq", "questions", "frequently asked"},
			"product":  {"product", "products", "item", "items"},
			"cta":      {"button", "cta", "call to action"},
		},
		FallbackPlanNames: []string{
			"free", "starter", "basic", "pro", "professional", "plus",
			"business", "team", "premium", "enterprise", "custom",
		},
	}
}

// LoadTables reads yaml-encoded table overrides from path and merges them
// onto [DefaultTables]. A missing file is not an error; it just means the
// built-in tables are used.
func LoadTables(path string) (*Tables, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return DefaultTables(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeTables(f)
}

// DecodeTables decodes yaml table overrides from r, starting from
// [DefaultTables] and overwriting only the fields present in r.
func DecodeTables(r io.Reader) (*Tables, error) {
	t := DefaultTables()
	dec := yaml.NewDecoder(r)
	var override Tables
	if err := dec.Decode(&override); err != nil && err != io.EOF {
		return nil, err
	}
	if override.IntentVerbs != nil {
		t.IntentVerbs = override.IntentVerbs
	}
	if override.TargetNouns != nil {
		t.TargetNouns = override.TargetNouns
	}
	if override.FallbackPlanNames != nil {
		t.FallbackPlanNames = override.FallbackPlanNames
	}
	return t, nil
}
