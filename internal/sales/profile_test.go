package sales

import (
	"testing"

	"github.com/salesagent/runtime/pkg/types"
)

func TestBuildProfile_ClassifiesTypeAndBudget(t *testing.T) {
	t.Parallel()
	tables := DefaultProfileTables()
	messages := []string{"We're ready to buy, let's sign up today. We have a tight budget though."}
	profile := BuildProfile(messages, types.Behavior{}, tables)

	if profile.Type != types.ProfileBuyer {
		t.Errorf("Type = %v, want buyer", profile.Type)
	}
	if profile.Budget != types.BudgetLow {
		t.Errorf("Budget = %v, want low", profile.Budget)
	}
}

func TestBuildProfile_DefaultsToExplorerWhenNoSignal(t *testing.T) {
	t.Parallel()
	profile := BuildProfile([]string{"hello there"}, types.Behavior{}, DefaultProfileTables())
	if profile.Type != types.ProfileExplorer {
		t.Errorf("Type = %v, want explorer default", profile.Type)
	}
}

func TestBuildProfile_ObjectionsAreDedupedSentences(t *testing.T) {
	t.Parallel()
	messages := []string{"That seems expensive. That seems expensive. But I like the features."}
	profile := BuildProfile(messages, types.Behavior{}, DefaultProfileTables())
	if len(profile.Objections) != 2 {
		t.Errorf("Objections = %v, want 2 deduped sentences", profile.Objections)
	}
}

func TestBuildProfile_ConfidenceReflectsKnownFields(t *testing.T) {
	t.Parallel()
	messages := []string{"We need this asap and our budget isn't an issue. I'm the decision maker for an enterprise-wide rollout."}
	profile := BuildProfile(messages, types.Behavior{}, DefaultProfileTables())
	if profile.Confidence <= 0 {
		t.Errorf("Confidence = %v, want > 0", profile.Confidence)
	}
}
