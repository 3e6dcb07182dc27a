package engagement

import (
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Priority is a rule's firing priority (spec.md §4.8).
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// weight orders priorities for evaluation (lower fires first). An unknown
// priority sorts last, after low.
func (p Priority) weight() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Rule is one engagement-trigger rule (spec.md §4.8): a condition to
// evaluate, a priority determining evaluation order, a cooldown before it
// may fire again, a delay before the fire is actually emitted, and the
// message to surface when it does.
type Rule struct {
	ID         string    `yaml:"id"`
	Priority   Priority  `yaml:"priority"`
	Condition  Condition `yaml:"condition"`
	CooldownMs int       `yaml:"cooldown_ms"`
	DelayMs    int       `yaml:"delay_ms"`
	Message    string    `yaml:"message"`
}

// ruleSet is the on-disk YAML shape: a flat list under a `rules:` key.
type ruleSet struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a YAML rule table from path, sorted into priority order.
// A missing file is not an error — it yields an empty rule table, which is
// the shipped default per spec.md's Open Question ("the shipped rule
// table is intentionally empty; the mechanism is the deliverable").
func LoadRules(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeRules(f)
}

// DecodeRules decodes a YAML rule table from r and sorts it into priority
// order (critical, high, medium, low), preserving declaration order within
// a priority tier.
func DecodeRules(r io.Reader) ([]Rule, error) {
	var set ruleSet
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&set); err != nil && err != io.EOF {
		return nil, err
	}
	sort.SliceStable(set.Rules, func(i, j int) bool {
		return set.Rules[i].Priority.weight() < set.Rules[j].Priority.weight()
	})
	return set.Rules, nil
}
