package conversation

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// TransitionTables holds the cue-phrase lists that drive stage transitions
// (spec.md §4.9). Data, not code, per REDESIGN FLAGS — the priority order
// in which these lists are checked lives in [Flow.nextStage], not here.
type TransitionTables struct {
	ClosingCues       []string `yaml:"closing_cues"`
	ObjectionCues     []string `yaml:"objection_cues"`
	QualificationCues []string `yaml:"qualification_cues"`
	PresentationCues  []string `yaml:"presentation_cues"`
	DiscoveryCues     []string `yaml:"discovery_cues"`
}

// DefaultTransitionTables returns the exact cue lists spec.md §4.9 names.
func DefaultTransitionTables() *TransitionTables {
	return &TransitionTables{
		ClosingCues: []string{
			"sign up", "get started", "buy", "purchase", "trial", "subscribe", "join",
		},
		ObjectionCues: []string{
			"but", "however", "expensive", "not sure", "concern", "worried", "doubt", "hesitant",
		},
		QualificationCues: []string{
			"price", "cost", "how much", "budget", "when", "timeline", "team size",
		},
		PresentationCues: []string{
			"features", "how does", "show me", "demo", "capabilities", "what can",
		},
		DiscoveryCues: []string{
			"what", "tell me", "explain", "help", "looking for", "need",
		},
	}
}

// LoadTransitionTables reads YAML overrides from path and merges them onto
// [DefaultTransitionTables]. A missing file is not an error.
func LoadTransitionTables(path string) (*TransitionTables, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return DefaultTransitionTables(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeTransitionTables(f)
}

// DecodeTransitionTables decodes YAML overrides from r, starting from
// [DefaultTransitionTables] and overwriting only the fields present in r.
func DecodeTransitionTables(r io.Reader) (*TransitionTables, error) {
	t := DefaultTransitionTables()
	dec := yaml.NewDecoder(r)
	var override TransitionTables
	if err := dec.Decode(&override); err != nil && err != io.EOF {
		return nil, err
	}
	if override.ClosingCues != nil {
		t.ClosingCues = override.ClosingCues
	}
	if override.ObjectionCues != nil {
		t.ObjectionCues = override.ObjectionCues
	}
	if override.QualificationCues != nil {
		t.QualificationCues = override.QualificationCues
	}
	if override.PresentationCues != nil {
		t.PresentationCues = override.PresentationCues
	}
	if override.DiscoveryCues != nil {
		t.DiscoveryCues = override.DiscoveryCues
	}
	return t, nil
}
