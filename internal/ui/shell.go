package ui

import (
	"sync"
	"time"
)

// closeDebounce is how long the shell waits, after the pointer leaves the
// notch and message stack, before actually closing (spec.md §4.13).
const closeDebounce = 150 * time.Millisecond

// Shell drives a [Store]'s open/close and voice-mode affordances per
// spec.md §4.13's interaction rules: pointer enter/leave of the notch and
// message stack opens/closes with a 150ms close debounce; the debounce is
// suppressed entirely while voice mode is active or an assistant message is
// being hovered; a document-level outside click closes immediately and
// bypasses the debounce.
type Shell struct {
	store *Store

	mu              sync.Mutex
	closeTimer      *time.Timer
	voiceModeActive bool
	messageHovered  bool
}

// NewShell wraps store with the widget's open/close interaction rules.
func NewShell(store *Store) *Shell {
	return &Shell{store: store}
}

// PointerEnter opens the widget immediately and cancels any pending close.
func (s *Shell) PointerEnter() {
	s.mu.Lock()
	s.stopCloseTimerLocked()
	s.mu.Unlock()
	s.store.SetState(Patch{IsOpen: boolPtr(true)})
}

// PointerLeave starts the close debounce unless suppressed by an active
// voice session or a hovered assistant message.
func (s *Shell) PointerLeave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCloseTimerLocked()
	if s.voiceModeActive || s.messageHovered {
		return
	}
	s.closeTimer = time.AfterFunc(closeDebounce, func() {
		s.store.SetState(Patch{IsOpen: boolPtr(false)})
	})
}

// MessageHoverChanged records whether an assistant message bubble is
// currently hovered, suppressing the close debounce while true.
func (s *Shell) MessageHoverChanged(hovered bool) {
	s.mu.Lock()
	s.messageHovered = hovered
	if hovered {
		s.stopCloseTimerLocked()
	}
	s.mu.Unlock()
}

// SetVoiceModeActive toggles voice mode, suppressing the close debounce
// while active, and updates the store's IsVoiceMode field.
func (s *Shell) SetVoiceModeActive(active bool) {
	s.mu.Lock()
	s.voiceModeActive = active
	if active {
		s.stopCloseTimerLocked()
	}
	s.mu.Unlock()
	s.store.SetState(Patch{IsVoiceMode: boolPtr(active)})
}

// OutsideClick closes the widget immediately, bypassing the debounce. The
// caller (the JS shell) is responsible for clearing visible assistant
// bubbles in reaction to the resulting IsOpen=false state notification.
func (s *Shell) OutsideClick() {
	s.mu.Lock()
	s.stopCloseTimerLocked()
	s.mu.Unlock()
	s.store.SetState(Patch{IsOpen: boolPtr(false)})
}

// stopCloseTimerLocked cancels any pending close timer. Must be called
// with s.mu held.
func (s *Shell) stopCloseTimerLocked() {
	if s.closeTimer != nil {
		s.closeTimer.Stop()
		s.closeTimer = nil
	}
}
