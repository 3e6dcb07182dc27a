package navigation

import (
	"fmt"
	"strings"

	"github.com/salesagent/runtime/pkg/types"
)

// maxReadSummaryLen bounds the read-intent response summary (spec.md
// §4.6 step 4: "include a summary (≤200 chars) for read").
const maxReadSummaryLen = 200

// availableCategories lists the non-empty content categories a Page
// Context actually has, in a fixed, spec-ordered sequence. Used both in
// the low-confidence suggestion and in failure responses.
func availableCategories(pc *types.PageContext) []string {
	if pc == nil {
		return nil
	}
	var cats []string
	if len(pc.Content.Pricing) > 0 {
		cats = append(cats, "pricing")
	}
	if len(pc.Content.Features) > 0 {
		cats = append(cats, "features")
	}
	if len(pc.Content.FAQs) > 0 {
		cats = append(cats, "faq")
	}
	if len(pc.Content.Products) > 0 {
		cats = append(cats, "products")
	}
	if len(pc.Content.CTAs) > 0 {
		cats = append(cats, "signup")
	}
	return cats
}

// buildSuggestion is the response for a low-confidence parse (confidence
// < 0.5): it never guesses an action, it just points at what the page
// actually has to offer.
func buildSuggestion(pc *types.PageContext) string {
	cats := availableCategories(pc)
	if len(cats) == 0 {
		return "I'm not sure what you'd like me to do. Could you tell me more?"
	}
	return fmt.Sprintf("I'm not sure what you meant. I can help you with: %s.", strings.Join(cats, ", "))
}

// buildResponse assembles the user-facing reply for one navigate() call
// from the intent, the plan that was run, and the results each step
// produced (spec.md §4.6 step 4). A nil entry in results marks a step
// whose executor call itself errored (caught, not raised).
func buildResponse(intent types.Intent, plan types.ActionPlan, results []*types.ActionResult, pc *types.PageContext) string {
	if len(plan) == 0 {
		return buildSuggestion(pc)
	}

	anySucceeded := false
	for _, r := range results {
		if r != nil && r.Success {
			anySucceeded = true
			break
		}
	}
	if !anySucceeded {
		cats := availableCategories(pc)
		if len(cats) == 0 {
			return "I couldn't find that on this page."
		}
		return fmt.Sprintf("I couldn't find that on this page. Here's what I can show you: %s.", strings.Join(cats, ", "))
	}

	last := plan[len(plan)-1]
	switch last.Type {
	case types.ActionCompare:
		return fmt.Sprintf("Here's a comparison of %s.", strings.Join(last.Entities, " vs "))
	case types.ActionFocus:
		return fmt.Sprintf("I've highlighted %s for you.", labelFor(last))
	case types.ActionRead:
		if len(results) > 0 && results[len(results)-1] != nil {
			return summarize(results[len(results)-1].Content)
		}
		return fmt.Sprintf("Here's %s.", labelFor(last))
	case types.ActionClick:
		return fmt.Sprintf("Done — I've clicked %s.", labelFor(last))
	default: // ActionNavigate
		return fmt.Sprintf("Taking you to %s.", labelFor(last))
	}
}

// labelFor renders an action's target for prose, preferring a specific
// entity name over the bare category.
func labelFor(a types.Action) string {
	if len(a.Entities) == 1 {
		return a.Entities[0]
	}
	if a.Target != "" {
		return a.Target
	}
	return "that"
}

// summarize truncates content to maxReadSummaryLen, breaking on a space so
// words aren't cut mid-token where avoidable.
func summarize(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= maxReadSummaryLen {
		return content
	}
	cut := content[:maxReadSummaryLen]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}
