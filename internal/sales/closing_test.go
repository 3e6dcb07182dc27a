package sales

import (
	"testing"

	"github.com/salesagent/runtime/pkg/types"
)

func TestPickTechnique_DirectWhenHighBANTAndNoObjections(t *testing.T) {
	t.Parallel()
	profile := types.UserProfile{}
	bant := BANTScore{Total: 0.85}
	if got := pickTechnique(profile, bant); got != ClosingDirect {
		t.Errorf("pickTechnique = %v, want direct", got)
	}
}

func TestPickTechnique_UrgencyWhenBuyerAndHighUrgency(t *testing.T) {
	t.Parallel()
	profile := types.UserProfile{Type: types.ProfileBuyer, Urgency: types.UrgencyHigh}
	bant := BANTScore{Total: 0.5}
	if got := pickTechnique(profile, bant); got != ClosingUrgency {
		t.Errorf("pickTechnique = %v, want urgency", got)
	}
}

func TestPickTechnique_PuppyDogWhenSkeptic(t *testing.T) {
	t.Parallel()
	profile := types.UserProfile{Type: types.ProfileSkeptic}
	bant := BANTScore{Total: 0.5}
	if got := pickTechnique(profile, bant); got != ClosingPuppyDog {
		t.Errorf("pickTechnique = %v, want puppy-dog", got)
	}
}

func TestPickTechnique_SummaryWhenManyObjections(t *testing.T) {
	t.Parallel()
	profile := types.UserProfile{Objections: []string{"a", "b", "c"}}
	bant := BANTScore{Total: 0.5}
	if got := pickTechnique(profile, bant); got != ClosingSummary {
		t.Errorf("pickTechnique = %v, want summary", got)
	}
}

func TestPickTechnique_DefaultsToAssumptive(t *testing.T) {
	t.Parallel()
	profile := types.UserProfile{Type: types.ProfileExplorer}
	bant := BANTScore{Total: 0.5}
	if got := pickTechnique(profile, bant); got != ClosingAssumptive {
		t.Errorf("pickTechnique = %v, want assumptive", got)
	}
}

func TestPickTechnique_FirstMatchWinsOverLaterBranches(t *testing.T) {
	t.Parallel()
	// High BANT with no objections beats the skeptic branch — direct wins.
	profile := types.UserProfile{Type: types.ProfileSkeptic}
	bant := BANTScore{Total: 0.9}
	if got := pickTechnique(profile, bant); got != ClosingDirect {
		t.Errorf("pickTechnique = %v, want direct (first match)", got)
	}
}

func TestRecommendedPlan_EnterpriseGetsLastTier(t *testing.T) {
	t.Parallel()
	pricing := []types.PricingCard{{Plan: "Starter"}, {Plan: "Pro"}, {Plan: "Enterprise"}}
	profile := types.UserProfile{CompanySize: types.CompanyEnterprise}
	if got := recommendedPlan(profile, pricing); got != "Enterprise" {
		t.Errorf("recommendedPlan = %q, want Enterprise", got)
	}
}

func TestRecommendedPlan_StartupOrLowBudgetGetsFirstTier(t *testing.T) {
	t.Parallel()
	pricing := []types.PricingCard{{Plan: "Starter"}, {Plan: "Pro"}, {Plan: "Enterprise"}}

	startup := types.UserProfile{CompanySize: types.CompanyStartup}
	if got := recommendedPlan(startup, pricing); got != "Starter" {
		t.Errorf("recommendedPlan(startup) = %q, want Starter", got)
	}

	lowBudget := types.UserProfile{Budget: types.BudgetLow}
	if got := recommendedPlan(lowBudget, pricing); got != "Starter" {
		t.Errorf("recommendedPlan(lowBudget) = %q, want Starter", got)
	}
}

func TestRecommendedPlan_PopularTierOtherwise(t *testing.T) {
	t.Parallel()
	pricing := []types.PricingCard{{Plan: "Starter"}, {Plan: "Pro", Popular: true}, {Plan: "Enterprise"}}
	profile := types.UserProfile{CompanySize: types.CompanySMB}
	if got := recommendedPlan(profile, pricing); got != "Pro" {
		t.Errorf("recommendedPlan = %q, want Pro (popular)", got)
	}
}

func TestRecommendedPlan_MiddleTierWhenNonePopular(t *testing.T) {
	t.Parallel()
	pricing := []types.PricingCard{{Plan: "Starter"}, {Plan: "Pro"}, {Plan: "Enterprise"}}
	profile := types.UserProfile{CompanySize: types.CompanySMB}
	if got := recommendedPlan(profile, pricing); got != "Pro" {
		t.Errorf("recommendedPlan = %q, want Pro (middle index)", got)
	}
}

func TestRecommendedPlan_EmptyPricingReturnsEmpty(t *testing.T) {
	t.Parallel()
	if got := recommendedPlan(types.UserProfile{}, nil); got != "" {
		t.Errorf("recommendedPlan(nil pricing) = %q, want empty", got)
	}
}

func TestSelectClosing_ActionsAlwaysNavigateAndPulse(t *testing.T) {
	t.Parallel()
	pricing := []types.PricingCard{{Plan: "Starter"}, {Plan: "Pro", Popular: true}}
	plan := SelectClosing(types.UserProfile{}, BANTScore{Total: 0.5}, pricing)

	if len(plan.Actions) != 3 {
		t.Fatalf("Actions = %v, want 3 steps (navigate, pulse_cta, focus)", plan.Actions)
	}
	if plan.Actions[0].Type != types.ActionNavigate || plan.Actions[0].Target != string(types.TargetPricing) {
		t.Errorf("first action = %+v, want navigate->pricing", plan.Actions[0])
	}
	if plan.Actions[1].Type != types.ActionPulseCTA || plan.Actions[1].Target != string(types.TargetSignup) {
		t.Errorf("second action = %+v, want pulse_cta->signup", plan.Actions[1])
	}
	if plan.Actions[2].Type != types.ActionFocus || len(plan.Actions[2].Entities) != 1 || plan.Actions[2].Entities[0] != "Pro" {
		t.Errorf("third action = %+v, want focus on Pro", plan.Actions[2])
	}
	if plan.Statement == "" || plan.FollowUp == "" {
		t.Error("expected non-empty statement and follow-up")
	}
}

func TestSelectClosing_NoFocusActionWhenPricingEmpty(t *testing.T) {
	t.Parallel()
	plan := SelectClosing(types.UserProfile{}, BANTScore{Total: 0.5}, nil)
	if len(plan.Actions) != 2 {
		t.Errorf("Actions = %v, want 2 steps (no focus, pricing empty)", plan.Actions)
	}
}
