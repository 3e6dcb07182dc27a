package sales

import (
	"fmt"

	"github.com/salesagent/runtime/pkg/types"
)

// ClosingTechnique is one of the eight closing techniques this package
// has templates for (spec.md §4.10). [SelectClosing] only ever picks
// direct, urgency, puppy-dog, summary or assumptive; alternative, trial
// and takeaway are never selected.
type ClosingTechnique string

const (
	ClosingAssumptive  ClosingTechnique = "assumptive"
	ClosingAlternative ClosingTechnique = "alternative"
	ClosingUrgency     ClosingTechnique = "urgency"
	ClosingTrial       ClosingTechnique = "trial"
	ClosingDirect      ClosingTechnique = "direct"
	ClosingSummary     ClosingTechnique = "summary"
	ClosingTakeaway    ClosingTechnique = "takeaway"
	ClosingPuppyDog    ClosingTechnique = "puppy-dog"
)

// ClosingPlan is the result of [SelectClosing]: the chosen technique, its
// rendered statement, the action plan to run alongside it, and a
// follow-up line.
type ClosingPlan struct {
	Technique ClosingTechnique `json:"technique"`
	Statement string           `json:"statement"`
	Actions   types.ActionPlan `json:"actions"`
	FollowUp  string           `json:"followUp"`
}

// closingTemplates maps each technique to a statement format string taking the
// recommended plan name as its one argument, plus a fixed follow-up line.
var closingTemplates = map[ClosingTechnique]struct {
	statementFmt string
	followUp     string
}{
	ClosingAssumptive: {"Great — let's get you set up on the %s plan.", "I'll take you to checkout now."},
	ClosingAlternative: {"Would you rather start with the %s plan, or see the other options side by side?", "Either way, I can get you there in a click."},
	ClosingUrgency:     {"The %s plan is the best fit for what you need — want to lock it in today?", "I can take you straight to signup."},
	ClosingTrial:       {"Why not start with a free trial of the %s plan and see how it feels?", "No commitment required to get started."},
	ClosingDirect:      {"Based on everything you've shared, the %s plan is the right fit — ready to sign up?", "I can take you there right now."},
	ClosingSummary:     {"To recap what we've covered, the %s plan addresses the points you raised — shall we move forward?", "Happy to revisit anything before you decide."},
	ClosingTakeaway:    {"If the %s plan isn't the right fit right now, that's okay — it'll be here when you're ready.", "In the meantime, I'm happy to answer anything else."},
	ClosingPuppyDog:    {"Why not try the %s plan free for a bit — no pressure, just see how it works for you.", "You can cancel any time during the trial."},
}

// SelectClosing picks a closing technique per spec.md §4.10's decision
// table and renders its statement against the recommended plan.
func SelectClosing(profile types.UserProfile, bant BANTScore, pricing []types.PricingCard) ClosingPlan {
	technique := pickTechnique(profile, bant)
	plan := recommendedPlan(profile, pricing)

	tmpl := closingTemplates[technique]
	statement := tmpl.statementFmt
	if plan != "" {
		statement = fmt.Sprintf(tmpl.statementFmt, plan)
	} else {
		statement = fmt.Sprintf(tmpl.statementFmt, "recommended")
	}

	actions := types.ActionPlan{
		{Type: types.ActionNavigate, Target: string(types.TargetPricing)},
		{Type: types.ActionPulseCTA, Target: string(types.TargetSignup)},
	}
	if plan != "" {
		actions = append(actions, types.Action{Type: types.ActionFocus, Entities: []string{plan}})
	}

	return ClosingPlan{Technique: technique, Statement: statement, Actions: actions, FollowUp: tmpl.followUp}
}

// pickTechnique implements spec.md §4.10's decision table, checked in the
// order given (first match wins).
func pickTechnique(profile types.UserProfile, bant BANTScore) ClosingTechnique {
	switch {
	case bant.Total >= 0.8 && len(profile.Objections) == 0:
		return ClosingDirect
	case profile.Type == types.ProfileBuyer && profile.Urgency == types.UrgencyHigh:
		return ClosingUrgency
	case profile.Type == types.ProfileSkeptic:
		return ClosingPuppyDog
	case len(profile.Objections) > 2:
		return ClosingSummary
	default:
		return ClosingAssumptive
	}
}

// recommendedPlan picks which pricing tier to recommend: enterprise
// company size gets the last (typically highest) tier; a startup or a
// low budget gets the first (typically cheapest); otherwise the
// popular-marked tier, or the middle one if none is marked (spec.md
// §4.10).
func recommendedPlan(profile types.UserProfile, pricing []types.PricingCard) string {
	if len(pricing) == 0 {
		return ""
	}
	switch {
	case profile.CompanySize == types.CompanyEnterprise:
		return pricing[len(pricing)-1].Plan
	case profile.CompanySize == types.CompanyStartup || profile.Budget == types.BudgetLow:
		return pricing[0].Plan
	}
	for _, card := range pricing {
		if card.Popular {
			return card.Plan
		}
	}
	return pricing[len(pricing)/2].Plan
}
