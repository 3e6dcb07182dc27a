package engagement

import (
	"strings"
	"testing"
)

func TestDecodeRules_SortsByPriority(t *testing.T) {
	t.Parallel()
	yamlDoc := `
rules:
  - id: low-one
    priority: low
  - id: critical-one
    priority: critical
  - id: high-one
    priority: high
`
	rules, err := DecodeRules(strings.NewReader(yamlDoc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("got %d rules, want 3", len(rules))
	}
	want := []string{"critical-one", "high-one", "low-one"}
	for i, id := range want {
		if rules[i].ID != id {
			t.Errorf("rules[%d].ID = %q, want %q", i, rules[i].ID, id)
		}
	}
}

func TestLoadRules_MissingFileReturnsEmpty(t *testing.T) {
	t.Parallel()
	rules, err := LoadRules("/nonexistent/rules.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("got %d rules, want 0", len(rules))
	}
}

func TestDecodeRules_EmptyDocumentReturnsEmpty(t *testing.T) {
	t.Parallel()
	rules, err := DecodeRules(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("got %d rules, want 0", len(rules))
	}
}
