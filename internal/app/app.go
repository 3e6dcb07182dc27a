package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/salesagent/runtime/internal/config"
	"github.com/salesagent/runtime/internal/engagement"
	"github.com/salesagent/runtime/internal/llm"
	webrtcaudio "github.com/salesagent/runtime/pkg/audio/webrtc"
)

// App is the top-level embed runtime service: it holds the loaded
// configuration and provider registry and spawns one [Session] per browser
// tab that connects, rather than owning a fixed set of channels up front.
type App struct {
	cfg      config.Config
	registry *config.Registry
	llm      llm.Provider
	rules    []engagement.Rule

	voicePlatform  *webrtcaudio.Platform
	voiceSignaling *webrtcaudio.SignalingServer

	mu       sync.Mutex
	sessions map[string]*Session
}

// New loads providers named in cfg from reg and returns a ready-to-use App.
// An unconfigured provider kind (empty Name) is left nil; callers querying
// voice mode on a Session built from such an App get an explanatory error
// from [Session.EnterVoiceMode].
func New(cfg config.Config, reg *config.Registry) (*App, error) {
	voicePlatform := webrtcaudio.New()
	a := &App{
		cfg:            cfg,
		registry:       reg,
		sessions:       make(map[string]*Session),
		voicePlatform:  voicePlatform,
		voiceSignaling: webrtcaudio.NewSignalingServer(voicePlatform),
	}

	if cfg.Providers.LLM.Name != "" {
		p, err := reg.CreateLLM(cfg.Providers.LLM)
		if err != nil {
			return nil, fmt.Errorf("app: create llm provider: %w", err)
		}
		a.llm = p
	}

	return a, nil
}

// VoiceSignalingHandler returns the HTTP handler that browser-side WebRTC
// peers use to join/leave a session's voice channel (POST/DELETE
// /rooms/{roomID}/...). Mount it under the embed server's mux; sessionID is
// used as the WebRTC room ID.
func (a *App) VoiceSignalingHandler() http.Handler {
	return a.voiceSignaling.Handler()
}

// SetEngagementRules installs the rule table (spec.md §4.8) every new
// Session's Engagement Engine is seeded with; cmd/salesagent supplies it on
// load and on each change seen by its own fsnotify watch of the rule file.
func (a *App) SetEngagementRules(rules []engagement.Rule) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rules = rules
}

// Connect attaches to the browser page at cdpURL and starts a new Session
// under sessionID, rejecting a duplicate sessionID already being served.
func (a *App) Connect(ctx context.Context, sessionID, cdpURL string) (*Session, error) {
	a.mu.Lock()
	if _, exists := a.sessions[sessionID]; exists {
		a.mu.Unlock()
		return nil, fmt.Errorf("app: session %q already connected", sessionID)
	}
	rules := a.rules
	a.mu.Unlock()

	sess, err := NewSession(ctx, sessionID, cdpURL, a.cfg, a.llm, rules, a.voiceSignaling)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.sessions[sessionID] = sess
	a.mu.Unlock()

	slog.Info("session connected", "session_id", sessionID, "page_url", cdpURL)
	return sess, nil
}

// Disconnect tears down and forgets the session, if one is active.
func (a *App) Disconnect(sessionID string) error {
	a.mu.Lock()
	sess, exists := a.sessions[sessionID]
	delete(a.sessions, sessionID)
	a.mu.Unlock()

	if !exists {
		return nil
	}
	slog.Info("session disconnected", "session_id", sessionID)
	return sess.Close()
}

// Shutdown disconnects every active session, collecting (not stopping on)
// their teardown errors, mirroring the teacher's reverse-closer Shutdown
// discipline at the session level rather than app.Shutdown's own.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	ids := make([]string, 0, len(a.sessions))
	for id := range a.sessions {
		ids = append(ids, id)
	}
	a.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := a.Disconnect(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ActiveSessionCount reports how many sessions are currently connected.
func (a *App) ActiveSessionCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sessions)
}
