package prompt

import (
	"fmt"
	"strings"

	"github.com/salesagent/runtime/internal/conversation"
	"github.com/salesagent/runtime/internal/sales"
	"github.com/salesagent/runtime/pkg/types"
)

// identityPreamble is the fixed opening line every prompt carries, regardless
// of how much ground truth is available for the current page.
const identityPreamble = "You are a helpful, concise sales assistant embedded on this page. " +
	"You only ever speak to facts drawn from the page content provided below; you never invent " +
	"pricing, features, or policies."

// ProfileConfidenceThreshold is the minimum [types.UserProfile.Confidence]
// required before the user-profile block is rendered at all (spec.md §4.11:
// "when confident").
const ProfileConfidenceThreshold = 0.4

// Inputs bundles everything [FormatSystemPrompt] needs. All fields besides
// PageContext are optional; a nil/zero value omits the corresponding
// section rather than rendering an empty header.
type Inputs struct {
	PageContext *types.PageContext
	Stage       types.Stage
	Profile     *types.UserProfile
	Closing     *sales.ClosingPlan
	VoiceMode   bool
}

// FormatSystemPrompt converts [Inputs] into a system prompt string ready for
// direct injection into the LLM call.
//
// The formatter is pure: no I/O, no side effects, safe for concurrent use.
// Empty sections (no page context, low-confidence profile, no closing
// guidance) are omitted entirely rather than rendered as empty headers,
// mirroring the teacher's system-prompt formatter discipline.
func FormatSystemPrompt(in Inputs) string {
	var sb strings.Builder
	sb.WriteString(identityPreamble)

	if in.Stage != "" {
		if frag := conversation.PromptFragment(in.Stage); frag != "" {
			sb.WriteString("\n\n## Conversation Stage\n")
			sb.WriteString(frag)
		}
	}

	if in.Profile != nil && in.Profile.Confidence >= ProfileConfidenceThreshold {
		if section := formatProfileSection(in.Profile); section != "" {
			sb.WriteString("\n\n## Visitor Profile\n")
			sb.WriteString(section)
		}
	}

	if in.PageContext != nil {
		if section := formatGroundTruthSection(in.PageContext); section != "" {
			sb.WriteString("\n\n## Page Content (ground truth)\n")
			sb.WriteString(section)
		}
		if section := formatSectionMap(in.PageContext); section != "" {
			sb.WriteString("\n\n## Page Sections\n")
			sb.WriteString(section)
		}
	}

	sb.WriteString("\n\n## Available Actions\n")
	sb.WriteString(formatAvailableActions())

	if in.Closing != nil {
		sb.WriteString("\n\n## Closing Guidance\n")
		sb.WriteString(formatClosingSection(in.Closing))
	}

	sb.WriteString("\n\n## Response Rules\n")
	for _, r := range responseRules(in.VoiceMode) {
		sb.WriteString("- ")
		sb.WriteString(r)
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func formatProfileSection(p *types.UserProfile) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("Type: %s", p.Type))
	if p.CompanySize != "" && p.CompanySize != types.CompanyUnknown {
		lines = append(lines, fmt.Sprintf("Company size: %s", p.CompanySize))
	}
	if p.Industry != "" {
		lines = append(lines, fmt.Sprintf("Industry: %s", p.Industry))
	}
	if p.Urgency != "" && p.Urgency != types.UrgencyUnknown {
		lines = append(lines, fmt.Sprintf("Urgency: %s", p.Urgency))
	}
	if p.Budget != "" && p.Budget != types.BudgetUnknown {
		lines = append(lines, fmt.Sprintf("Budget: %s", p.Budget))
	}
	if len(p.PainPoints) > 0 {
		lines = append(lines, fmt.Sprintf("Pain points: %s", strings.Join(p.PainPoints, "; ")))
	}
	if len(p.Objections) > 0 {
		lines = append(lines, fmt.Sprintf("Objections raised: %s", strings.Join(p.Objections, "; ")))
	}
	return strings.Join(lines, "\n")
}

func formatGroundTruthSection(pc *types.PageContext) string {
	var lines []string
	if pc.Summary != "" {
		lines = append(lines, fmt.Sprintf("Summary: %s", pc.Summary))
	}
	if len(pc.Content.Pricing) > 0 {
		var parts []string
		for _, card := range pc.Content.Pricing {
			parts = append(parts, fmt.Sprintf("%s (%s): %s", card.Plan, card.Price, strings.Join(card.Features, ", ")))
		}
		lines = append(lines, fmt.Sprintf("Pricing: %s", strings.Join(parts, " | ")))
	}
	if len(pc.Content.Features) > 0 {
		var parts []string
		for _, f := range pc.Content.Features {
			parts = append(parts, f.Name)
		}
		lines = append(lines, fmt.Sprintf("Features: %s", strings.Join(parts, ", ")))
	}
	if len(pc.Content.FAQs) > 0 {
		var parts []string
		for _, f := range pc.Content.FAQs {
			parts = append(parts, fmt.Sprintf("Q: %s A: %s", f.Question, f.Answer))
		}
		lines = append(lines, fmt.Sprintf("FAQ: %s", strings.Join(parts, " | ")))
	}
	if len(pc.Content.Products) > 0 {
		var parts []string
		for _, p := range pc.Content.Products {
			parts = append(parts, p.Name)
		}
		lines = append(lines, fmt.Sprintf("Products: %s", strings.Join(parts, ", ")))
	}
	if len(pc.Content.CTAs) > 0 {
		var parts []string
		for _, c := range pc.Content.CTAs {
			parts = append(parts, c.Text)
		}
		lines = append(lines, fmt.Sprintf("Calls to action: %s", strings.Join(parts, ", ")))
	}
	return strings.Join(lines, "\n")
}

func formatSectionMap(pc *types.PageContext) string {
	if len(pc.Structure.Sections) == 0 {
		return ""
	}
	var lines []string
	for _, s := range pc.Structure.Sections {
		label := s.Heading
		if label == "" {
			label = s.Tag
		}
		lines = append(lines, fmt.Sprintf("%s: %s", label, s.TextPreview))
	}
	return strings.Join(lines, "\n")
}

// formatAvailableActions lists the directive verbs the Agent Response Parser
// recognizes (spec.md §4.11: "scroll | highlight | pulse_cta"), so the model
// knows what it may emit as a one-line JSON directive.
func formatAvailableActions() string {
	return strings.Join([]string{
		`- {"action":"scroll","target":"<section id>"} — smooth-scroll a section into view`,
		`- {"action":"highlight","selector":"<css selector>"} — draw attention to an element`,
		`- {"action":"pulse_cta","selector":"<css selector>"} — pulse a call-to-action`,
		"Emit at most one directive per line, as the only content on that line; everything else is spoken response text.",
	}, "\n")
}

func formatClosingSection(c *sales.ClosingPlan) string {
	return fmt.Sprintf("Recommended technique: %s.\nSuggested line: %s\nFollow-up: %s", c.Technique, c.Statement, c.FollowUp)
}
