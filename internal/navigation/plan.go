package navigation

import "github.com/salesagent/runtime/pkg/types"

// planActions turns a classified Intent into an ordered ActionPlan
// (spec.md §4.6 step 2). The mapping is intentionally a plain switch over
// a small, closed set of intents rather than a registry — there is no
// expectation of new intent kinds being added without a matching change
// to the Intent Parser's own tables.
func planActions(intent types.Intent) types.ActionPlan {
	knownTarget := intent.Target != types.TargetUnknown

	switch intent.Intent {
	case types.IntentNavigate:
		return types.ActionPlan{
			{Type: types.ActionNavigate, Target: string(intent.Target), Entities: intent.Entities},
		}

	case types.IntentCompare:
		var plan types.ActionPlan
		if knownTarget {
			plan = append(plan, types.Action{Type: types.ActionNavigate, Target: string(intent.Target)})
		}
		return append(plan, types.Action{Type: types.ActionCompare, Entities: intent.Entities})

	case types.IntentHighlight:
		var plan types.ActionPlan
		if knownTarget {
			plan = append(plan, types.Action{Type: types.ActionNavigate, Target: string(intent.Target)})
		}
		target := string(intent.Target)
		if len(intent.Entities) > 0 {
			target = intent.Entities[0]
		}
		return append(plan, types.Action{Type: types.ActionFocus, Target: target, Entities: intent.Entities})

	case types.IntentRead:
		var plan types.ActionPlan
		if knownTarget {
			plan = append(plan, types.Action{Type: types.ActionNavigate, Target: string(intent.Target)})
		}
		return append(plan, types.Action{Type: types.ActionRead, Target: string(intent.Target), Entities: intent.Entities})

	case types.IntentClick:
		target := string(intent.Target)
		if len(intent.Entities) > 0 {
			target = intent.Entities[0]
		}
		return types.ActionPlan{{Type: types.ActionClick, Target: target, Entities: intent.Entities}}

	default:
		// Unknown intent but a known target still gets a navigate plan
		// (spec.md §4.6 step 2, last bullet).
		if knownTarget {
			return types.ActionPlan{{Type: types.ActionNavigate, Target: string(intent.Target)}}
		}
		return nil
	}
}

// describe resolves the free-text description the Element Finder receives
// for one action step: a single named entity wins over the bare target
// category, since "the Enterprise plan" is a much better search query than
// "pricing".
func describe(a types.Action) string {
	if len(a.Entities) == 1 {
		return a.Entities[0]
	}
	return a.Target
}
