package action

import (
	"testing"

	"github.com/salesagent/runtime/pkg/types"
)

func TestBudgetEnforcer_FiltersByTierAndSortsByLatency(t *testing.T) {
	t.Parallel()
	entries := []toolEntry{
		{def: types.ToolDefinition{Name: "slow", EstimatedDurationMs: 1200}, tier: tierFromDeclaredMs(1200)},
		{def: types.ToolDefinition{Name: "fast", EstimatedDurationMs: 50}, tier: tierFromDeclaredMs(50)},
		{def: types.ToolDefinition{Name: "deep", EstimatedDurationMs: 5000}, tier: tierFromDeclaredMs(5000)},
	}
	var e BudgetEnforcer
	got := e.FilterTools(entries, TierStandard)
	if len(got) != 2 {
		t.Fatalf("got %d tools, want 2 (deep excluded)", len(got))
	}
	if got[0].Name != "fast" || got[1].Name != "slow" {
		t.Errorf("order = [%s %s], want [fast slow]", got[0].Name, got[1].Name)
	}
}

func TestTierFromDeclaredMs(t *testing.T) {
	t.Parallel()
	cases := []struct {
		ms   int
		want Tier
	}{
		{50, TierFast},
		{500, TierFast},
		{501, TierStandard},
		{1500, TierStandard},
		{1501, TierDeep},
	}
	for _, c := range cases {
		if got := tierFromDeclaredMs(c.ms); got != c.want {
			t.Errorf("tierFromDeclaredMs(%d) = %v, want %v", c.ms, got, c.want)
		}
	}
}
