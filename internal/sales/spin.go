package sales

import "github.com/salesagent/runtime/pkg/types"

// SPINCategory is one of the four SPIN question-bank categories.
type SPINCategory string

const (
	SPINSituation   SPINCategory = "situation"
	SPINProblem     SPINCategory = "problem"
	SPINImplication SPINCategory = "implication"
	SPINNeedPayoff  SPINCategory = "need-payoff"
)

// SPINQuestions is the fixed question bank for one category.
type SPINQuestions struct {
	Category  SPINCategory
	Questions []string
}

// spinBanks holds the four fixed SPIN question banks (spec.md §4.10).
var spinBanks = map[SPINCategory][]string{
	SPINSituation: {
		"What does your current workflow look like for this?",
		"How is your team handling this today?",
		"What tools are you currently using?",
	},
	SPINProblem: {
		"What's the biggest challenge you're running into with that?",
		"What's not working well with your current approach?",
		"Where does most of the time get lost?",
	},
	SPINImplication: {
		"What happens if this problem doesn't get solved soon?",
		"How is this affecting the rest of your team?",
		"What's the cost of sticking with the status quo?",
	},
	SPINNeedPayoff: {
		"If this were solved, what would that mean for your team?",
		"How much time would you get back if this just worked?",
		"Would solving this change how you plan for next quarter?",
	},
}

// stageSPINCategory maps the current conversation stage to the SPIN
// category most useful to ask next (spec.md §4.10: "picker by current
// stage").
var stageSPINCategory = map[types.Stage]SPINCategory{
	types.StageGreeting:      SPINSituation,
	types.StageDiscovery:     SPINSituation,
	types.StageQualification: SPINProblem,
	types.StagePresentation:  SPINImplication,
	types.StageObjection:     SPINImplication,
	types.StageClosing:       SPINNeedPayoff,
	types.StageCompleted:     SPINNeedPayoff,
}

// PickSPIN returns the question bank appropriate for stage.
func PickSPIN(stage types.Stage) SPINQuestions {
	category, ok := stageSPINCategory[stage]
	if !ok {
		category = SPINSituation
	}
	return SPINQuestions{Category: category, Questions: spinBanks[category]}
}
