package conversation

import (
	"testing"

	"github.com/salesagent/runtime/pkg/types"
)

func TestAdvance_DefaultProgressionByMessageCount(t *testing.T) {
	t.Parallel()
	f := NewFlow()
	if got := f.Stage(); got != types.StageGreeting {
		t.Fatalf("initial stage = %v, want greeting", got)
	}
	if got := f.Advance("hmm okay", 1); got != types.StageDiscovery {
		t.Errorf("stage after 1 msg = %v, want discovery", got)
	}
	if got := f.Advance("hmm okay", 2); got != types.StageQualification {
		t.Errorf("stage after 2 msgs = %v, want qualification", got)
	}
	if got := f.Advance("hmm okay", 3); got != types.StagePresentation {
		t.Errorf("stage after 3 msgs = %v, want presentation", got)
	}
}

func TestAdvance_ClosingCueWins(t *testing.T) {
	t.Parallel()
	f := NewFlow()
	if got := f.Advance("I'd like to sign up now", 1); got != types.StageClosing {
		t.Errorf("stage = %v, want closing", got)
	}
}

func TestAdvance_ObjectionCueOverridesDefaultProgression(t *testing.T) {
	t.Parallel()
	f := NewFlow()
	if got := f.Advance("that seems expensive", 1); got != types.StageObjection {
		t.Errorf("stage = %v, want objection", got)
	}
}

func TestAdvance_NeverAutoAdvancesOutOfObjection(t *testing.T) {
	t.Parallel()
	f := NewFlow()
	f.Advance("not sure about this", 1)
	if got := f.Stage(); got != types.StageObjection {
		t.Fatalf("precondition: stage = %v, want objection", got)
	}
	if got := f.Advance("okay", 5); got != types.StageObjection {
		t.Errorf("stage after neutral utterance = %v, want still objection", got)
	}
}

func TestAdvance_ExplicitCueStillAppliesFromObjection(t *testing.T) {
	t.Parallel()
	f := NewFlow()
	f.Advance("that's too expensive", 1)
	if got := f.Advance("okay let's sign up", 2); got != types.StageClosing {
		t.Errorf("stage = %v, want closing (explicit cue overrides stickiness)", got)
	}
}

func TestAdvance_NeverAutoAdvancesOutOfClosing(t *testing.T) {
	t.Parallel()
	f := NewFlow()
	f.Advance("let's subscribe", 1)
	if got := f.Advance("random chatter", 10); got != types.StageClosing {
		t.Errorf("stage = %v, want still closing", got)
	}
}

func TestAdvance_RecordsHistoryOnlyOnActualChange(t *testing.T) {
	t.Parallel()
	f := NewFlow()
	f.Advance("let's subscribe", 1)
	f.Advance("let's subscribe again", 2)
	if got := len(f.History()); got != 1 {
		t.Errorf("history length = %d, want 1 (no-op transition not recorded)", got)
	}
}

func TestPromptFragment_KnownStageIncludesExample(t *testing.T) {
	t.Parallel()
	frag := PromptFragment(types.StageClosing)
	if frag == "" {
		t.Fatal("expected non-empty fragment")
	}
}

func TestPromptFragment_UnknownStageIsEmpty(t *testing.T) {
	t.Parallel()
	if got := PromptFragment(types.Stage("nonexistent")); got != "" {
		t.Errorf("fragment = %q, want empty", got)
	}
}
