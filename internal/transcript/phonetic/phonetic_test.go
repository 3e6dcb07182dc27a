package phonetic_test

import (
	"testing"

	"github.com/salesagent/runtime/internal/transcript/phonetic"
)

func TestMatcher_SingleWordMatch(t *testing.T) {
	t.Parallel()

	m := phonetic.New()

	// "nimbus cloud" is a two-word n-gram that should phonetically match "NimbusCloud".
	// Double Metaphone("nimbus") overlaps with Double Metaphone("nimbuscloud")
	// because both share a common leading phoneme cluster.
	entities := []string{"NimbusCloud", "Acme Corp", "Enterprise Suite"}

	corrected, conf, matched := m.Match("nimbus cloud", entities)
	if !matched {
		t.Fatalf("Match(%q, entities): matched=false, want true", "nimbus cloud")
	}
	if corrected != "NimbusCloud" {
		t.Errorf("Match(%q): corrected=%q, want %q", "nimbus cloud", corrected, "NimbusCloud")
	}
	if conf < 0.7 {
		t.Errorf("Match(%q): confidence=%f, want >= 0.7", "nimbus cloud", conf)
	}
}

func TestMatcher_MultiWordEntityMatch(t *testing.T) {
	t.Parallel()

	m := phonetic.New()

	entities := []string{"Enterprise Suite", "NimbusCloud", "Acme Corp"}

	// "enterprise sweet" should match the multi-word entity "Enterprise Suite".
	corrected, conf, matched := m.Match("enterprise sweet", entities)
	if !matched {
		t.Fatalf("Match(%q, entities): matched=false, want true", "enterprise sweet")
	}
	if corrected != "Enterprise Suite" {
		t.Errorf("Match(%q): corrected=%q, want %q", "enterprise sweet", corrected, "Enterprise Suite")
	}
	if conf < 0.7 {
		t.Errorf("Match(%q): confidence=%f, want >= 0.7", "enterprise sweet", conf)
	}
}

func TestMatcher_NoMatch(t *testing.T) {
	t.Parallel()

	m := phonetic.New()
	entities := []string{"NimbusCloud", "Acme Corp"}

	corrected, conf, matched := m.Match("hello", entities)
	if matched {
		t.Fatalf("Match(%q, entities): matched=true, want false", "hello")
	}
	if corrected != "hello" {
		t.Errorf("Match(%q): corrected=%q, want original word %q", "hello", corrected, "hello")
	}
	if conf != 0 {
		t.Errorf("Match(%q): confidence=%f, want 0", "hello", conf)
	}
}

func TestMatcher_CaseInsensitivity(t *testing.T) {
	t.Parallel()

	m := phonetic.New()
	entities := []string{"NimbusCloud"}

	// Uppercased input should still match.
	corrected, _, matched := m.Match("NIMBUSCLOUD", entities)
	if !matched {
		t.Fatalf("Match(%q, entities): matched=false, want true", "NIMBUSCLOUD")
	}
	// Should return the original entity casing.
	if corrected != "NimbusCloud" {
		t.Errorf("Match(%q): corrected=%q, want %q", "NIMBUSCLOUD", corrected, "NimbusCloud")
	}
}

func TestMatcher_ExactMatch(t *testing.T) {
	t.Parallel()

	m := phonetic.New()
	entities := []string{"Acme Corp", "NimbusCloud"}

	// Exact case-insensitive match should return high confidence.
	corrected, conf, matched := m.Match("acme corp", entities)
	if !matched {
		t.Fatalf("Match(%q, entities): matched=false, want true", "acme corp")
	}
	if corrected != "Acme Corp" {
		t.Errorf("Match(%q): corrected=%q, want %q", "acme corp", corrected, "Acme Corp")
	}
	if conf < 0.9 {
		t.Errorf("Match(%q): confidence=%f, want >= 0.9 for near-exact match", "acme corp", conf)
	}
}

func TestMatcher_PhoneticThresholdFiltering(t *testing.T) {
	t.Parallel()

	// Set a very high phonetic threshold so near-matches are rejected.
	m := phonetic.New(
		phonetic.WithPhoneticThreshold(0.99),
		phonetic.WithFuzzyThreshold(0.99),
	)
	entities := []string{"NimbusCloud"}

	_, _, matched := m.Match("nimbus cloud", entities)
	if matched {
		t.Fatal("Match with threshold=0.99 should reject near-matches, got matched=true")
	}
}

func TestMatcher_EmptyEntities(t *testing.T) {
	t.Parallel()

	m := phonetic.New()
	corrected, conf, matched := m.Match("nimbuscloud", nil)
	if matched {
		t.Fatal("Match with nil entities should return matched=false")
	}
	if corrected != "nimbuscloud" {
		t.Errorf("corrected=%q, want original", corrected)
	}
	if conf != 0 {
		t.Errorf("conf=%f, want 0", conf)
	}
}

func TestMatcher_EmptyWord(t *testing.T) {
	t.Parallel()

	m := phonetic.New()
	corrected, conf, matched := m.Match("", []string{"NimbusCloud"})
	if matched {
		t.Fatal("Match with empty word should return matched=false")
	}
	if corrected != "" {
		t.Errorf("corrected=%q, want empty string", corrected)
	}
	if conf != 0 {
		t.Errorf("conf=%f, want 0", conf)
	}
}

func TestWithOptions(t *testing.T) {
	t.Parallel()

	// Verify that options are applied without panicking.
	m := phonetic.New(
		phonetic.WithPhoneticThreshold(0.75),
		phonetic.WithFuzzyThreshold(0.90),
	)
	if m == nil {
		t.Fatal("New returned nil")
	}
}
