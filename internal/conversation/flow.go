// Package conversation implements C9, the Conversation Flow: a finite
// state machine over [types.Stage] that advances on cue phrases found in
// each user utterance, falling back to a message-count-based default
// progression, and never auto-advancing out of objection or closing.
package conversation

import (
	"strings"
	"sync"
	"time"

	"github.com/salesagent/runtime/pkg/types"
)

// Flow tracks one session's conversation stage and its transition
// history.
type Flow struct {
	tables *TransitionTables

	mu      sync.Mutex
	stage   types.Stage
	history []types.StageTransition
}

// Option configures a Flow at construction time.
type Option func(*Flow)

// WithTables overrides the default transition cue tables.
func WithTables(t *TransitionTables) Option {
	return func(f *Flow) { f.tables = t }
}

// NewFlow builds a Flow starting in [types.StageGreeting].
func NewFlow(opts ...Option) *Flow {
	f := &Flow{tables: DefaultTransitionTables(), stage: types.StageGreeting}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Stage returns the current conversation stage.
func (f *Flow) Stage() types.Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage
}

// History returns a copy of every recorded stage transition, oldest first.
func (f *Flow) History() []types.StageTransition {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.StageTransition, len(f.history))
	copy(out, f.history)
	return out
}

// Advance evaluates utterance against the transition cue tables and moves
// the FSM accordingly (spec.md §4.9), returning the resulting stage.
// messageCount is the number of user messages seen so far in the session
// (including this one), used only by the default-progression fallback.
func (f *Flow) Advance(utterance string, messageCount int) types.Stage {
	f.mu.Lock()
	defer f.mu.Unlock()

	current := f.stage
	next, reason := f.nextStage(utterance, messageCount, current)
	if next == current {
		return current
	}

	f.history = append(f.history, types.StageTransition{From: current, To: next, At: time.Now(), Reason: reason})
	f.stage = next
	return next
}

// nextStage implements the priority-ordered cue matching of spec.md
// §4.9: closing, then objection, then qualification, then presentation,
// then discovery, each checked regardless of current stage — an explicit
// cue is never suppressed by the "no auto-advance out of objection/
// closing" rule, which only guards the *default* progression branch
// below.
func (f *Flow) nextStage(utterance string, messageCount int, current types.Stage) (types.Stage, string) {
	lower := strings.ToLower(utterance)

	switch {
	case matchesAny(lower, f.tables.ClosingCues):
		return types.StageClosing, "closing cue matched"
	case matchesAny(lower, f.tables.ObjectionCues):
		return types.StageObjection, "objection cue matched"
	case matchesAny(lower, f.tables.QualificationCues):
		return types.StageQualification, "qualification cue matched"
	case matchesAny(lower, f.tables.PresentationCues):
		return types.StagePresentation, "presentation cue matched"
	case matchesAny(lower, f.tables.DiscoveryCues):
		return types.StageDiscovery, "discovery cue matched"
	}

	if current == types.StageObjection || current == types.StageClosing || current == types.StageCompleted {
		return current, ""
	}
	return defaultProgression(messageCount), "default progression"
}

// defaultProgression is the message-count fallback: 0→greeting,
// 1→discovery, 2→qualification, ≥3→presentation (spec.md §4.9).
func defaultProgression(messageCount int) types.Stage {
	switch {
	case messageCount <= 0:
		return types.StageGreeting
	case messageCount == 1:
		return types.StageDiscovery
	case messageCount == 2:
		return types.StageQualification
	default:
		return types.StagePresentation
	}
}

// matchesAny reports whether any cue occurs as a substring of lower
// (already-lowercased utterance).
func matchesAny(lower string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

// Complete forces the FSM into the terminal [types.StageCompleted] stage
// (e.g. once a purchase or explicit opt-out is confirmed downstream of
// this package). Unlike Advance, this always transitions.
func (f *Flow) Complete(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stage == types.StageCompleted {
		return
	}
	f.history = append(f.history, types.StageTransition{From: f.stage, To: types.StageCompleted, At: time.Now(), Reason: reason})
	f.stage = types.StageCompleted
}
