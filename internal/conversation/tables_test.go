package conversation

import (
	"strings"
	"testing"
)

func TestDecodeTransitionTables_OverridesOnlySpecifiedFields(t *testing.T) {
	t.Parallel()
	yamlDoc := `
closing_cues:
  - "let's do this"
`
	tables, err := DecodeTransitionTables(strings.NewReader(yamlDoc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tables.ClosingCues) != 1 || tables.ClosingCues[0] != "let's do this" {
		t.Errorf("ClosingCues = %v", tables.ClosingCues)
	}
	if len(tables.ObjectionCues) == 0 {
		t.Error("expected ObjectionCues to retain defaults")
	}
}

func TestLoadTransitionTables_MissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()
	tables, err := LoadTransitionTables("/nonexistent/tables.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tables.ClosingCues) == 0 {
		t.Error("expected default closing cues")
	}
}
