package engagement

import "github.com/salesagent/runtime/pkg/types"

// Condition is the data-driven predicate a [Rule] evaluates against a
// behavior snapshot (spec.md §4.8's `condition(behavior, tracker)→bool`,
// expressed as YAML fields rather than code so the rule table stays pure
// data per REDESIGN FLAGS). Every non-nil field must hold for Matches to
// report true — a rule with no fields set vacuously matches every
// snapshot, which is why the shipped rule table is empty rather than
// relying on a "no conditions" rule to mean something sensible.
type Condition struct {
	ScrollDepthAtLeast     *float64 `yaml:"scroll_depth_at_least,omitempty"`
	TimeOnPageAtLeastSecs  *int     `yaml:"time_on_page_at_least_secs,omitempty"`
	CTAHoveredAtLeast      *int     `yaml:"cta_hovered_at_least,omitempty"`
	CTAClickedAtLeast      *int     `yaml:"cta_clicked_at_least,omitempty"`
	PlanComparisonsAtLeast *int     `yaml:"plan_comparisons_at_least,omitempty"`
	ExitIntent             *bool    `yaml:"exit_intent,omitempty"`
	PricingViewed          *bool    `yaml:"pricing_viewed,omitempty"`
	FeaturesViewed         *bool    `yaml:"features_viewed,omitempty"`
}

// Matches reports whether every field set on c holds against b.
func (c Condition) Matches(b types.Behavior) bool {
	if c.ScrollDepthAtLeast != nil && b.MaxScrollDepth < *c.ScrollDepthAtLeast {
		return false
	}
	if c.TimeOnPageAtLeastSecs != nil && int(b.TimeOnPage.Seconds()) < *c.TimeOnPageAtLeastSecs {
		return false
	}
	if c.CTAHoveredAtLeast != nil && b.CTAHovered < *c.CTAHoveredAtLeast {
		return false
	}
	if c.CTAClickedAtLeast != nil && b.CTAClicked < *c.CTAClickedAtLeast {
		return false
	}
	if c.PlanComparisonsAtLeast != nil && b.PlanComparisons < *c.PlanComparisonsAtLeast {
		return false
	}
	if c.ExitIntent != nil && b.ExitIntentDetected != *c.ExitIntent {
		return false
	}
	if c.PricingViewed != nil && b.PricingViewed != *c.PricingViewed {
		return false
	}
	if c.FeaturesViewed != nil && b.FeaturesViewed != *c.FeaturesViewed {
		return false
	}
	return true
}
