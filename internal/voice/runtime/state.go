// Package runtime implements the Voice Runtime's turn-taking state machine,
// gapless playback scheduler, and session orchestration (spec.md §4.12),
// grounded on the teacher's internal/engine/s2s (session lifecycle, lazy
// reconnect, silence-timeout-as-turn-boundary) and internal/engine/cascade
// (sentence-boundary streaming, dual-source completion tracking).
package runtime

import (
	"sync"
	"time"

	"github.com/salesagent/runtime/pkg/types"
)

// errorRecoveryDelay is how long the state machine waits in
// [types.VoiceError] before automatically returning to
// [types.VoiceListening] (spec.md §4.12).
const errorRecoveryDelay = 2 * time.Second

// StateMachine tracks the Voice Runtime's current state and notifies a
// subscriber on every transition. It does not itself decide when to
// transition (that's [Session]'s job) beyond the one transition it owns
// outright: automatic error recovery.
type StateMachine struct {
	mu      sync.Mutex
	state   types.VoiceState
	onState func(prev, next types.VoiceState)

	recoveryTimer *time.Timer
}

// NewStateMachine returns a [StateMachine] starting in [types.VoiceIdle].
// onState, if non-nil, is called (without the internal lock held) after
// every transition.
func NewStateMachine(onState func(prev, next types.VoiceState)) *StateMachine {
	return &StateMachine{state: types.VoiceIdle, onState: onState}
}

// State returns the current state.
func (m *StateMachine) State() types.VoiceState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Transition moves to next, cancelling any pending automatic error-recovery
// timer. If the prior state was already next, this is a no-op (no duplicate
// notification).
func (m *StateMachine) Transition(next types.VoiceState) {
	m.mu.Lock()
	prev := m.state
	if prev == next {
		m.mu.Unlock()
		return
	}
	m.state = next
	if m.recoveryTimer != nil {
		m.recoveryTimer.Stop()
		m.recoveryTimer = nil
	}
	if next == types.VoiceError {
		m.recoveryTimer = time.AfterFunc(errorRecoveryDelay, func() {
			m.Transition(types.VoiceListening)
		})
	}
	onState := m.onState
	m.mu.Unlock()

	if onState != nil {
		onState(prev, next)
	}
}

// Close stops any pending recovery timer, for use when a session is torn
// down mid-error-state.
func (m *StateMachine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recoveryTimer != nil {
		m.recoveryTimer.Stop()
		m.recoveryTimer = nil
	}
}
