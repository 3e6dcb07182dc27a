// Package ui implements the embeddable widget's client-facing state store
// and per-embed session lifecycle (spec.md §4.13): a tiny pub-sub store
// holding {isOpen, isVoiceMode, config} with shallow-merge updates, plus the
// open/close debounce and suppression rules that drive the widget shell.
package ui

import "sync"

// VoiceStatus is the live status label rendered while voice mode is active.
type VoiceStatus string

const (
	VoiceStatusNone       VoiceStatus = ""
	VoiceStatusListening  VoiceStatus = "Listening…"
	VoiceStatusUserSpeaks VoiceStatus = "You're speaking…"
	VoiceStatusProcessing VoiceStatus = "Processing…"
	VoiceStatusAISpeaks   VoiceStatus = "AI is speaking…"
)

// Config holds the widget shell's presentational settings (placement,
// theme, copy overrides). It is replaced wholesale by SetState, never
// deep-merged, matching spec.md §4.13's shallow-merge contract: only the
// top-level {isOpen, isVoiceMode, config} fields merge independently of one
// another.
type Config struct {
	Position    string
	AccentColor string
	GreetingMsg string
}

// State is the store's full shape.
type State struct {
	IsOpen      bool
	IsVoiceMode bool
	VoiceStatus VoiceStatus
	Config      Config
}

// Patch describes a shallow-merge update: a nil field leaves that part of
// the state untouched.
type Patch struct {
	IsOpen      *bool
	IsVoiceMode *bool
	VoiceStatus *VoiceStatus
	Config      *Config
}

func boolPtr(b bool) *bool { return &b }

// Store is a per-embed-session pub-sub state container. It holds no
// process-wide state — one Store exists per active widget session
// (constructed by [SessionManager]), never a package-level singleton.
type Store struct {
	mu          sync.Mutex
	state       State
	subscribers map[uint64]func(State)
	nextSubID   uint64
}

// NewStore returns a Store seeded with the given initial state.
func NewStore(initial State) *Store {
	return &Store{state: initial, subscribers: make(map[uint64]func(State))}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to be called with the new state after every
// SetState, and returns a function that removes it again.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// SetState shallow-merges patch into the current state and notifies every
// subscriber with the resulting state. Subscribers are invoked without the
// store's lock held.
func (s *Store) SetState(patch Patch) {
	s.mu.Lock()
	if patch.IsOpen != nil {
		s.state.IsOpen = *patch.IsOpen
	}
	if patch.IsVoiceMode != nil {
		s.state.IsVoiceMode = *patch.IsVoiceMode
	}
	if patch.VoiceStatus != nil {
		s.state.VoiceStatus = *patch.VoiceStatus
	}
	if patch.Config != nil {
		s.state.Config = *patch.Config
	}
	next := s.state
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}
