package prompt

import (
	"strings"
	"testing"

	"github.com/salesagent/runtime/internal/sales"
	"github.com/salesagent/runtime/pkg/types"
)

func TestFormatSystemPrompt_OmitsEmptySections(t *testing.T) {
	t.Parallel()
	got := FormatSystemPrompt(Inputs{})

	for _, header := range []string{"## Conversation Stage", "## Visitor Profile", "## Page Content", "## Page Sections", "## Closing Guidance"} {
		if strings.Contains(got, header) {
			t.Errorf("expected %q to be omitted when its input is empty, got:\n%s", header, got)
		}
	}
	if !strings.Contains(got, "## Available Actions") || !strings.Contains(got, "## Response Rules") {
		t.Error("expected Available Actions and Response Rules sections to always render")
	}
}

func TestFormatSystemPrompt_IncludesStageAndGroundTruth(t *testing.T) {
	t.Parallel()
	pc := &types.PageContext{
		Summary: "A SaaS pricing page.",
		Content: types.Content{
			Pricing: []types.PricingCard{{Plan: "Pro", Price: "$49/mo", Features: []string{"unlimited seats"}}},
		},
	}
	got := FormatSystemPrompt(Inputs{PageContext: pc, Stage: types.StageDiscovery})

	if !strings.Contains(got, "## Conversation Stage") {
		t.Error("expected stage section")
	}
	if !strings.Contains(got, "## Page Content (ground truth)") || !strings.Contains(got, "Pro") {
		t.Errorf("expected ground-truth pricing section, got:\n%s", got)
	}
}

func TestFormatSystemPrompt_ProfileOmittedBelowConfidenceThreshold(t *testing.T) {
	t.Parallel()
	low := &types.UserProfile{Type: types.ProfileBuyer, Confidence: 0.1}
	got := FormatSystemPrompt(Inputs{Profile: low})
	if strings.Contains(got, "## Visitor Profile") {
		t.Error("expected low-confidence profile to be omitted")
	}

	high := &types.UserProfile{Type: types.ProfileBuyer, Confidence: 0.9}
	got = FormatSystemPrompt(Inputs{Profile: high})
	if !strings.Contains(got, "## Visitor Profile") {
		t.Error("expected high-confidence profile to render")
	}
}

func TestFormatSystemPrompt_VoiceModeUsesStricterRules(t *testing.T) {
	t.Parallel()
	text := FormatSystemPrompt(Inputs{VoiceMode: false})
	voice := FormatSystemPrompt(Inputs{VoiceMode: true})

	if !strings.Contains(text, "80 words") {
		t.Error("expected text mode to mention the 80-word limit")
	}
	if !strings.Contains(voice, "50 words") {
		t.Error("expected voice mode to mention the 50-word limit")
	}
	if !strings.Contains(voice, "say") {
		t.Error("expected voice mode to mention the say-yes CTA preset")
	}
}

func TestFormatSystemPrompt_IncludesClosingGuidance(t *testing.T) {
	t.Parallel()
	closing := &sales.ClosingPlan{Technique: sales.ClosingDirect, Statement: "Let's get started.", FollowUp: "I'll take you there."}
	got := FormatSystemPrompt(Inputs{Closing: closing})
	if !strings.Contains(got, "## Closing Guidance") || !strings.Contains(got, "Let's get started.") {
		t.Errorf("expected closing guidance rendered, got:\n%s", got)
	}
}
