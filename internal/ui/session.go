package ui

import (
	"fmt"
	"sync"
	"time"
)

// SessionInfo holds metadata about one active widget embed session.
type SessionInfo struct {
	SessionID string
	StartedAt time.Time
}

// SessionManager owns the lifecycle of exactly one widget embed
// session — one browser tab's SDK instance, not the whole service.
// REDESIGN FLAGS calls for no process-wide singleton store: the embedding
// service constructs a fresh SessionManager per connection, the way the
// teacher's SessionManager is itself constructed once per voice session
// rather than living as a package-level global. All exported methods are
// safe for concurrent use.
type SessionManager struct {
	mu     sync.Mutex
	active bool
	info   SessionInfo
	store  *Store
	shell  *Shell

	// closers are torn down in reverse order during Stop, mirroring the
	// teacher's internal/app.SessionManager.
	closers []func() error
}

// NewSessionManager returns an idle SessionManager.
func NewSessionManager() *SessionManager {
	return &SessionManager{}
}

// Start begins a new embed session with the given initial state, seeding a
// fresh [Store]/[Shell] pair. Returns an error if a session is already
// active on this manager.
func (sm *SessionManager) Start(sessionID string, initial State) (*Store, *Shell, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.active {
		return nil, nil, fmt.Errorf("ui: a session is already active (id=%s)", sm.info.SessionID)
	}

	store := NewStore(initial)
	shell := NewShell(store)

	sm.active = true
	sm.store = store
	sm.shell = shell
	sm.info = SessionInfo{SessionID: sessionID, StartedAt: time.Now()}
	sm.closers = nil

	return store, shell, nil
}

// AddCloser registers fn to run (in reverse registration order) when Stop
// is called, for resources the caller wires up around this session (e.g. a
// voice runtime session, an engagement engine instance).
func (sm *SessionManager) AddCloser(fn func() error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.closers = append(sm.closers, fn)
}

// Stop tears down the active session, running registered closers in
// reverse order and collecting (not stopping on) their errors.
func (sm *SessionManager) Stop() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.active {
		return fmt.Errorf("ui: no active session to stop")
	}

	var firstErr error
	for i := len(sm.closers) - 1; i >= 0; i-- {
		if err := sm.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	sm.active = false
	sm.store = nil
	sm.shell = nil
	sm.closers = nil
	sm.info = SessionInfo{}

	return firstErr
}

// IsActive reports whether a session is currently running.
func (sm *SessionManager) IsActive() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.active
}

// Info returns metadata about the active session, or the zero value if
// none is active.
func (sm *SessionManager) Info() SessionInfo {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.info
}

// Store returns the active session's state store, or nil if none is
// active.
func (sm *SessionManager) Store() *Store {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.store
}

// Shell returns the active session's interaction-rule controller, or nil
// if none is active.
func (sm *SessionManager) Shell() *Shell {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.shell
}
