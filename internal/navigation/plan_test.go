package navigation

import (
	"reflect"
	"testing"

	"github.com/salesagent/runtime/pkg/types"
)

func TestPlanActions_Navigate(t *testing.T) {
	t.Parallel()
	intent := types.Intent{Intent: types.IntentNavigate, Target: types.TargetPricing}
	plan := planActions(intent)
	want := types.ActionPlan{{Type: types.ActionNavigate, Target: "pricing"}}
	if !reflect.DeepEqual(plan, want) {
		t.Errorf("plan = %#v, want %#v", plan, want)
	}
}

func TestPlanActions_CompareWithKnownTargetPrependsNavigate(t *testing.T) {
	t.Parallel()
	intent := types.Intent{
		Intent:   types.IntentCompare,
		Target:   types.TargetPricing,
		Entities: []string{"Starter", "Enterprise"},
	}
	plan := planActions(intent)
	if len(plan) != 2 {
		t.Fatalf("got %d steps, want 2", len(plan))
	}
	if plan[0].Type != types.ActionNavigate || plan[1].Type != types.ActionCompare {
		t.Errorf("plan = %#v", plan)
	}
	if !reflect.DeepEqual(plan[1].Entities, intent.Entities) {
		t.Errorf("compare entities = %v, want %v", plan[1].Entities, intent.Entities)
	}
}

func TestPlanActions_CompareWithUnknownTargetSkipsNavigate(t *testing.T) {
	t.Parallel()
	intent := types.Intent{Intent: types.IntentCompare, Target: types.TargetUnknown, Entities: []string{"A", "B"}}
	plan := planActions(intent)
	if len(plan) != 1 || plan[0].Type != types.ActionCompare {
		t.Errorf("plan = %#v, want single compare step", plan)
	}
}

func TestPlanActions_HighlightPrefersEntityOverTarget(t *testing.T) {
	t.Parallel()
	intent := types.Intent{Intent: types.IntentHighlight, Target: types.TargetPricing, Entities: []string{"Enterprise"}}
	plan := planActions(intent)
	last := plan[len(plan)-1]
	if last.Type != types.ActionFocus || last.Target != "Enterprise" {
		t.Errorf("last step = %#v, want focus on Enterprise", last)
	}
}

func TestPlanActions_Click(t *testing.T) {
	t.Parallel()
	intent := types.Intent{Intent: types.IntentClick, Target: types.TargetSignup}
	plan := planActions(intent)
	want := types.ActionPlan{{Type: types.ActionClick, Target: "signup"}}
	if !reflect.DeepEqual(plan, want) {
		t.Errorf("plan = %#v, want %#v", plan, want)
	}
}

func TestPlanActions_UnknownIntentWithKnownTargetNavigates(t *testing.T) {
	t.Parallel()
	intent := types.Intent{Intent: types.IntentUnknown, Target: types.TargetFeatures}
	plan := planActions(intent)
	want := types.ActionPlan{{Type: types.ActionNavigate, Target: "features"}}
	if !reflect.DeepEqual(plan, want) {
		t.Errorf("plan = %#v, want %#v", plan, want)
	}
}

func TestPlanActions_UnknownIntentUnknownTargetIsEmpty(t *testing.T) {
	t.Parallel()
	intent := types.Intent{Intent: types.IntentUnknown, Target: types.TargetUnknown}
	if plan := planActions(intent); len(plan) != 0 {
		t.Errorf("plan = %#v, want empty", plan)
	}
}

func TestDescribe_PrefersSingleEntity(t *testing.T) {
	t.Parallel()
	if got := describe(types.Action{Target: "pricing", Entities: []string{"Enterprise"}}); got != "Enterprise" {
		t.Errorf("describe() = %q, want Enterprise", got)
	}
	if got := describe(types.Action{Target: "pricing"}); got != "pricing" {
		t.Errorf("describe() = %q, want pricing", got)
	}
}
