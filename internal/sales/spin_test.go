package sales

import (
	"testing"

	"github.com/salesagent/runtime/pkg/types"
)

func TestPickSPIN_MapsStageToCategory(t *testing.T) {
	t.Parallel()
	cases := []struct {
		stage types.Stage
		want  SPINCategory
	}{
		{types.StageGreeting, SPINSituation},
		{types.StageQualification, SPINProblem},
		{types.StagePresentation, SPINImplication},
		{types.StageClosing, SPINNeedPayoff},
	}
	for _, c := range cases {
		got := PickSPIN(c.stage)
		if got.Category != c.want {
			t.Errorf("PickSPIN(%v).Category = %v, want %v", c.stage, got.Category, c.want)
		}
		if len(got.Questions) == 0 {
			t.Errorf("PickSPIN(%v) returned no questions", c.stage)
		}
	}
}
