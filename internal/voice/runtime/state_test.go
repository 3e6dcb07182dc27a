package runtime

import (
	"testing"
	"time"

	"github.com/salesagent/runtime/pkg/types"
)

func TestStateMachine_TransitionNotifiesAndSkipsNoop(t *testing.T) {
	t.Parallel()
	var transitions [][2]types.VoiceState
	sm := NewStateMachine(func(prev, next types.VoiceState) {
		transitions = append(transitions, [2]types.VoiceState{prev, next})
	})

	sm.Transition(types.VoiceListening)
	sm.Transition(types.VoiceListening) // no-op, same state
	sm.Transition(types.VoiceUserSpeaking)

	if got := sm.State(); got != types.VoiceUserSpeaking {
		t.Fatalf("State() = %v, want user-speaking", got)
	}
	if len(transitions) != 2 {
		t.Fatalf("got %d transitions, want 2 (no-op must not notify): %v", len(transitions), transitions)
	}
	if transitions[0] != [2]types.VoiceState{types.VoiceIdle, types.VoiceListening} {
		t.Errorf("transitions[0] = %v", transitions[0])
	}
}

func TestStateMachine_ErrorAutoRecoversAfterDelay(t *testing.T) {
	t.Parallel()
	sm := NewStateMachine(nil)
	sm.Transition(types.VoiceListening)
	sm.Transition(types.VoiceError)

	if got := sm.State(); got != types.VoiceError {
		t.Fatalf("State() = %v, want error", got)
	}

	deadline := time.Now().Add(errorRecoveryDelay + 500*time.Millisecond)
	for time.Now().Before(deadline) {
		if sm.State() == types.VoiceListening {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("State() never recovered to listening, stuck at %v", sm.State())
}

func TestStateMachine_TransitionOutOfErrorCancelsRecoveryTimer(t *testing.T) {
	t.Parallel()
	var transitions []types.VoiceState
	sm := NewStateMachine(func(_, next types.VoiceState) { transitions = append(transitions, next) })

	sm.Transition(types.VoiceError)
	sm.Transition(types.VoiceProcessing) // manually recovers before the timer fires

	time.Sleep(errorRecoveryDelay + 200*time.Millisecond)

	if got := sm.State(); got != types.VoiceProcessing {
		t.Fatalf("State() = %v, want processing (recovery timer should have been cancelled)", got)
	}
}

func TestStateMachine_CloseStopsPendingRecovery(t *testing.T) {
	t.Parallel()
	sm := NewStateMachine(nil)
	sm.Transition(types.VoiceError)
	sm.Close()

	time.Sleep(errorRecoveryDelay + 200*time.Millisecond)
	if got := sm.State(); got != types.VoiceError {
		t.Fatalf("State() = %v, want error to remain after Close", got)
	}
}
