package sales

import "testing"

func TestScoreBANT_RecommendationBands(t *testing.T) {
	t.Parallel()
	k := DefaultBANTKeywords()

	cases := []struct {
		messages []string
		wantBand string
	}{
		{[]string{"just browsing, no particular reason"}, "disqualify"},
		{[]string{"our budget and cost are a concern, I'm the decision maker, we have a real need, and we'd like this soon"}, "nurture"},
	}
	for _, c := range cases {
		got := ScoreBANT(c.messages, k)
		if got.Recommendation != c.wantBand {
			t.Errorf("ScoreBANT(%v) band = %q, want %q (total=%v)", c.messages, got.Recommendation, c.wantBand, got.Total)
		}
	}
}

func TestScoreBANT_QualifiedAtOrAbove06(t *testing.T) {
	t.Parallel()
	k := DefaultBANTKeywords()
	messages := []string{
		"Budget and cost matter to us. I'm the decision maker but my boss also needs to sign off. We have a real problem we need solved asap, and ideally this month.",
	}
	got := ScoreBANT(messages, k)
	if !got.IsQualified {
		t.Errorf("expected qualified, total = %v", got.Total)
	}
}

func TestScoreBANT_SubScoreSaturatesAtThreeHits(t *testing.T) {
	t.Parallel()
	k := BANTKeywords{Budget: []string{"a", "b", "c", "d"}}
	got := ScoreBANT([]string{"a b c d"}, k)
	if got.Budget != 1.0 {
		t.Errorf("Budget = %v, want 1.0 (capped at 3 hits)", got.Budget)
	}
}
