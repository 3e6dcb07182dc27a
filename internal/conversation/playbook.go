package conversation

import (
	"fmt"
	"strings"

	"github.com/salesagent/runtime/pkg/types"
)

// Playbook is the stage-specific prompt fragment spec.md §4.9 calls for:
// what the assistant is trying to accomplish in this stage, how it should
// go about it, and a couple of concrete example responses the Prompt
// Builder (C11) can fold into its assembled system prompt.
type Playbook struct {
	Objectives       []string
	Tactics          []string
	ExampleResponses []string
}

// playbooks is the fixed per-stage table. Data, not code, in spirit —
// kept as a Go map rather than YAML since, unlike the keyword cue tables,
// none of this prose is meant to be tuned without a matching change to
// how the Prompt Builder renders it.
var playbooks = map[types.Stage]Playbook{
	types.StageGreeting: {
		Objectives: []string{"Make the visitor feel welcome", "Surface what the product does in one line"},
		Tactics:    []string{"Keep it short", "Ask an open question about what brought them here"},
		ExampleResponses: []string{
			"Hey! I can help you find the right plan or answer questions about the product — what are you looking to do?",
		},
	},
	types.StageDiscovery: {
		Objectives: []string{"Understand the visitor's goal", "Identify their role and use case"},
		Tactics:    []string{"Ask one clarifying question at a time", "Mirror back what they said before moving on"},
		ExampleResponses: []string{
			"Got it — are you looking at this for your own team, or evaluating it for a larger rollout?",
		},
	},
	types.StageQualification: {
		Objectives: []string{"Establish budget and timeline", "Confirm team size and urgency"},
		Tactics:    []string{"Tie pricing questions back to the plan that fits their answer", "Don't over-ask; one or two questions is enough"},
		ExampleResponses: []string{
			"Most teams your size land on the Pro plan — do you have a timeline in mind for getting started?",
		},
	},
	types.StagePresentation: {
		Objectives: []string{"Show the features that map to their stated needs", "Build confidence in the product"},
		Tactics:    []string{"Reference ground-truth features from the page, never invent capabilities", "Offer to navigate or highlight the relevant section"},
		ExampleResponses: []string{
			"Since you mentioned reporting, let me show you the analytics dashboard feature.",
		},
	},
	types.StageObjection: {
		Objectives: []string{"Understand the real concern behind the objection", "De-escalate without being defensive"},
		Tactics:    []string{"Acknowledge the concern before responding to it", "Offer a concrete mitigation (trial, guarantee, lower tier)"},
		ExampleResponses: []string{
			"That's fair — a lot of folks start on the free trial first so there's no risk before committing.",
		},
	},
	types.StageClosing: {
		Objectives: []string{"Move the visitor to sign up or start a trial", "Remove remaining friction"},
		Tactics:    []string{"Use the selected closing technique's template", "Always pair the ask with a concrete next action (navigate/pulse to the CTA)"},
		ExampleResponses: []string{
			"Ready to get started? I can take you straight to the signup page.",
		},
	},
	types.StageCompleted: {
		Objectives: []string{"Confirm the outcome", "Offer further help if needed"},
		Tactics:    []string{"Keep it brief", "Don't re-pitch"},
		ExampleResponses: []string{
			"Great, you're all set! Let me know if you need anything else.",
		},
	},
}

// PromptFragment renders stage's playbook as a short prose block for the
// Prompt Builder to embed.
func PromptFragment(stage types.Stage) string {
	p, ok := playbooks[stage]
	if !ok {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Stage: %s\n", stage)
	fmt.Fprintf(&b, "Objectives: %s\n", strings.Join(p.Objectives, "; "))
	fmt.Fprintf(&b, "Tactics: %s\n", strings.Join(p.Tactics, "; "))
	if len(p.ExampleResponses) > 0 {
		fmt.Fprintf(&b, "Example: %s", p.ExampleResponses[0])
	}
	return b.String()
}
