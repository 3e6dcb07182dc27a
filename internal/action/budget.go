package action

import (
	"cmp"
	"slices"

	"github.com/salesagent/runtime/pkg/types"
)

// Tier controls which Action Executor tools are advertised to the LLM-facing
// side of the tool-call surface, grounded on the teacher's mcphost budget
// tiers. Every action this runtime performs is a local, sub-second DOM
// operation; most tools declare under 500ms and sit at [TierFast], while
// click_element and focus_element declare longer latencies and sit at
// [TierStandard]. Engagement Triggers' cooldown/priority gating (C8)
// follows the same tier-then-latency shape.
type Tier int

const (
	TierFast Tier = iota
	TierStandard
	TierDeep
)

// MaxLatencyMs returns the maximum latency this tier tolerates.
func (t Tier) MaxLatencyMs() int {
	switch t {
	case TierFast:
		return 500
	case TierStandard:
		return 1500
	default:
		return 4000
	}
}

func tierFromDeclaredMs(ms int) Tier {
	switch {
	case ms <= 500:
		return TierFast
	case ms <= 1500:
		return TierStandard
	default:
		return TierDeep
	}
}

// BudgetEnforcer filters tool definitions down to those whose tier is within
// a caller's budget, sorted fastest-first — unchanged shape from the
// teacher's mcphost.BudgetEnforcer.
type BudgetEnforcer struct{}

func (BudgetEnforcer) FilterTools(entries []toolEntry, maxTier Tier) []types.ToolDefinition {
	var kept []toolEntry
	for _, e := range entries {
		if e.tier <= maxTier {
			kept = append(kept, e)
		}
	}
	slices.SortFunc(kept, func(a, b toolEntry) int {
		return cmp.Compare(a.def.EstimatedDurationMs, b.def.EstimatedDurationMs)
	})
	defs := make([]types.ToolDefinition, len(kept))
	for i, e := range kept {
		defs[i] = e.def
	}
	return defs
}
