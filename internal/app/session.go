// Package app wires the fourteen components (C1-C14) together into one
// running embed session, the way the teacher's internal/app.App wires a
// Discord guild's engine/agent/mcp stack into one voice session — here the
// unit of wiring is one browser tab's widget embed rather than one voice
// channel.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/salesagent/runtime/internal/action"
	"github.com/salesagent/runtime/internal/agentresponse"
	"github.com/salesagent/runtime/internal/behavior"
	"github.com/salesagent/runtime/internal/browserpage"
	"github.com/salesagent/runtime/internal/config"
	"github.com/salesagent/runtime/internal/conversation"
	"github.com/salesagent/runtime/internal/elementfinder"
	"github.com/salesagent/runtime/internal/engagement"
	"github.com/salesagent/runtime/internal/eventbus"
	"github.com/salesagent/runtime/internal/intent"
	"github.com/salesagent/runtime/internal/llm"
	"github.com/salesagent/runtime/internal/navigation"
	"github.com/salesagent/runtime/internal/pagemodel"
	"github.com/salesagent/runtime/internal/prompt"
	"github.com/salesagent/runtime/internal/sales"
	"github.com/salesagent/runtime/internal/session"
	"github.com/salesagent/runtime/internal/transcript"
	"github.com/salesagent/runtime/internal/transcript/llmcorrect"
	"github.com/salesagent/runtime/internal/transcript/phonetic"
	"github.com/salesagent/runtime/internal/ui"
	"github.com/salesagent/runtime/internal/voice/recognizer"
	"github.com/salesagent/runtime/internal/voice/runtime"
	"github.com/salesagent/runtime/internal/voice/ttsclient"
	"github.com/salesagent/runtime/pkg/audio"
	webrtcaudio "github.com/salesagent/runtime/pkg/audio/webrtc"
	"github.com/salesagent/runtime/pkg/memory/postgres"
	providerllm "github.com/salesagent/runtime/pkg/provider/llm"
	"github.com/salesagent/runtime/pkg/provider/vad"
	vadenergy "github.com/salesagent/runtime/pkg/provider/vad/energy"
	"github.com/salesagent/runtime/pkg/types"
)

// Session is one embedded widget's live component graph: the DOM/page
// pipeline (C1-C6), behavior and engagement (C7-C8), conversation and sales
// reasoning (C9-C12), the optional voice runtime (C13), and the UI state
// store (C14). Exactly one Session exists per browser tab connection.
type Session struct {
	cfg       config.Config
	sessionID string

	page      *browserpage.Page
	cache     *pagemodel.Cache
	extractor *pagemodel.Extractor
	intent    *intent.Parser
	finder    *elementfinder.Finder
	executor  *action.Executor
	navAgent  *navigation.Agent
	tracker   *behavior.Tracker
	engine    *engagement.Engine
	flow      *conversation.Flow
	builder   *prompt.Builder
	bus       *eventbus.Bus

	llmProvider llm.Provider
	voice       *runtime.Session // nil until voice mode is entered

	profile    *types.UserProfile
	transcript []string // raw utterances this session has seen, for BANT/profile scoring

	ctxMgr       *session.ContextManager
	memStore     *postgres.Store       // nil unless memory.postgres_dsn is configured
	consolidator *session.Consolidator // nil unless memStore is

	voiceSignaling *webrtcaudio.SignalingServer
	voiceConn      *session.Reconnector // nil until voice mode establishes a browser audio link
	voiceMu        sync.Mutex
	voicePeers     map[string]bool // participant IDs already bridged into the recognizer; guarded by voiceMu

	sm    *ui.SessionManager
	store *ui.Store
	shell *ui.Shell
}

// NewSession connects to the page at cdpURL, assembles the component graph,
// and starts an active [ui.SessionManager] session under sessionID.
func NewSession(ctx context.Context, sessionID, cdpURL string, cfg config.Config, llmProvider llm.Provider, rules []engagement.Rule, voiceSignaling *webrtcaudio.SignalingServer) (*Session, error) {
	page, err := browserpage.Connect(cdpURL)
	if err != nil {
		return nil, fmt.Errorf("app: connect page: %w", err)
	}

	cache := pagemodel.NewCache()
	extractor := pagemodel.NewExtractor()
	finder := elementfinder.NewFinder()
	executor := action.NewExecutor(page, finder)
	intentParser := intent.NewParser()
	navAgent := navigation.NewAgent(executor, intentParser)
	bus := eventbus.New()
	tracker := behavior.New(page, bus)
	engine := engagement.New(rules, bus)
	flow := conversation.NewFlow()

	s := &Session{
		cfg:            cfg,
		sessionID:      sessionID,
		voiceSignaling: voiceSignaling,
		page:           page,
		cache:       cache,
		extractor:   extractor,
		intent:      intentParser,
		finder:      finder,
		executor:    executor,
		navAgent:    navAgent,
		tracker:     tracker,
		engine:      engine,
		flow:        flow,
		bus:         bus,
		llmProvider: llmProvider,
	}

	s.builder = prompt.NewBuilder(s.currentPageContext, s.currentStage, s.currentProfile, s.currentClosingPlan)

	if err := tracker.Init(); err != nil {
		page.Close()
		return nil, fmt.Errorf("app: start behavior tracker: %w", err)
	}
	engine.Start(tracker)

	s.sm = ui.NewSessionManager()
	store, shell, err := s.sm.Start(sessionID, ui.State{Config: ui.Config{
		Position:    "bottom-right",
		GreetingMsg: "Hi! Let me know if you have any questions.",
	}})
	if err != nil {
		tracker.Close()
		engine.Stop()
		page.Close()
		return nil, fmt.Errorf("app: start ui session: %w", err)
	}
	s.store = store
	s.shell = shell

	s.sm.AddCloser(func() error { engine.Stop(); return nil })
	s.sm.AddCloser(func() error { tracker.Close(); return nil })
	s.sm.AddCloser(page.Close)

	if llmProvider != nil {
		summariser := session.NewLLMSummariser(llm.ToBackendProvider(llmProvider))
		s.ctxMgr = session.NewContextManager(session.ContextManagerConfig{
			MaxTokens:  cfg.Session.ContextWindowTokens,
			Summariser: summariser,
		})
	}

	if cfg.Memory.PostgresDSN != "" && s.ctxMgr != nil {
		memStore, err := postgres.NewStore(ctx, cfg.Memory.PostgresDSN, cfg.Memory.EmbeddingDimensions)
		if err != nil {
			tracker.Close()
			engine.Stop()
			page.Close()
			return nil, fmt.Errorf("app: connect memory store: %w", err)
		}
		s.memStore = memStore

		guard := session.NewMemoryGuard(memStore.L1())
		s.consolidator = session.NewConsolidator(session.ConsolidatorConfig{
			Store:      guard,
			ContextMgr: s.ctxMgr,
			SessionID:  sessionID,
		})
		s.consolidator.Start(ctx)

		s.sm.AddCloser(func() error { s.consolidator.Stop(); return nil })
		s.sm.AddCloser(func() error { memStore.Close(); return nil })
	}

	return s, nil
}

// EnterVoiceMode starts the Voice Runtime (C13) for this session. It returns
// an error when recognizerProvider or ttsProvider is nil (no voice providers
// configured).
func (s *Session) EnterVoiceMode(ctx context.Context, recognizerProvider recognizer.Provider, ttsProvider ttsclient.Provider, voice types.VoiceProfile) error {
	if recognizerProvider == nil || ttsProvider == nil {
		return fmt.Errorf("app: voice mode requires both an STT and a TTS provider")
	}
	corrector := transcript.NewPipeline(
		transcript.WithPhoneticMatcher(phonetic.New()),
		transcript.WithLLMCorrector(llmcorrect.New(llm.ToBackendProvider(s.llmProvider))),
	)
	sess := runtime.NewSession(recognizerProvider, ttsProvider, voice, s.handleTurn,
		runtime.WithSilenceThreshold(s.cfg.Session.SilenceThreshold),
		runtime.WithCorrector(corrector, s.voiceVocab),
		runtime.WithVAD(vadenergy.New(), vad.Config{
			SampleRate:       types.DefaultAudioFormat.SampleRate,
			SpeechThreshold:  0.02,
			SilenceThreshold: 0.012,
		}),
	)
	if err := sess.Start(ctx, recognizer.StreamConfig{SampleRate: types.DefaultAudioFormat.SampleRate, Channels: types.DefaultAudioFormat.Channels}); err != nil {
		return fmt.Errorf("app: start voice session: %w", err)
	}
	s.voice = sess
	s.shell.SetVoiceModeActive(true)
	s.store.SetState(ui.Patch{IsVoiceMode: boolPtrApp(true)})
	s.sm.AddCloser(sess.Close)

	s.startVoiceTransport(ctx, sess)

	return nil
}

// startVoiceTransport bridges the visitor's browser-side WebRTC audio link
// into the voice runtime's recognizer ingress. The room is the same
// [webrtcaudio.Connection] the embed server's voice signaling HTTP endpoints
// (join/ice/leave) operate on, so a peer that joins via the browser's WebRTC
// negotiation is picked up here automatically. The peer connection is
// reconnected automatically on drop; reconnection failures degrade the voice
// turn to whatever audio the recognizer already has queued rather than
// aborting the session.
func (s *Session) startVoiceTransport(ctx context.Context, sess *runtime.Session) {
	if s.voiceSignaling == nil {
		return
	}
	s.voiceMu.Lock()
	s.voicePeers = make(map[string]bool)
	s.voiceMu.Unlock()

	reconnector := session.NewReconnector(session.ReconnectorConfig{
		Platform:  signalingPlatform{s.voiceSignaling},
		ChannelID: s.sessionID,
		OnReconnect: func(conn audio.Connection) {
			s.voiceMu.Lock()
			s.voicePeers = make(map[string]bool)
			s.voiceMu.Unlock()
			s.bridgeVoiceInput(conn, sess)
		},
	})

	conn, err := reconnector.Connect(ctx)
	if err != nil {
		slog.Warn("app: voice transport connect failed", "session_id", s.sessionID, "err", err)
		return
	}

	conn.OnParticipantChange(func(ev audio.Event) {
		switch ev.Type {
		case audio.EventJoin:
			s.bridgeVoiceInput(conn, sess)
		case audio.EventLeave:
			reconnector.NotifyDisconnect()
		}
	})

	reconnector.Monitor(ctx)
	s.bridgeVoiceInput(conn, sess)

	s.voiceConn = reconnector
	s.sm.AddCloser(func() error { return reconnector.Stop() })
}

// bridgeVoiceInput forwards every not-yet-bridged participant's inbound
// audio frames on conn into the voice runtime's recognizer, one goroutine
// per participant stream, converting each stream to the recognizer's
// negotiated format along the way (browser peers negotiate the
// WebRTC-standard 48kHz; the recognizer was started against the session's
// own negotiated AudioFormat — see EnterVoiceMode). It is safe to call
// repeatedly (e.g. once per [audio.EventJoin]): streams already bridged are
// skipped.
func (s *Session) bridgeVoiceInput(conn audio.Connection, sess *runtime.Session) {
	target := audio.Format{
		SampleRate: types.DefaultAudioFormat.SampleRate,
		Channels:   types.DefaultAudioFormat.Channels,
	}
	for participantID, ch := range conn.InputStreams() {
		s.voiceMu.Lock()
		alreadyBridged := s.voicePeers[participantID]
		s.voicePeers[participantID] = true
		s.voiceMu.Unlock()
		if alreadyBridged {
			continue
		}

		converted := audio.ConvertStream(ch, target)
		go func(frames <-chan audio.AudioFrame) {
			for frame := range frames {
				_ = sess.SendAudio(frame.Data)
			}
		}(converted)
	}
}

// signalingPlatform adapts a [webrtcaudio.SignalingServer]'s shared room map
// into an [audio.Platform], so [session.Reconnector] connects to (and
// reconnects against) the exact same Connection the HTTP signaling
// endpoints serve, rather than creating a second, disconnected room.
//
// Known gap: SignalingServer never evicts a disconnected room from its map,
// so a reconnect attempt against a room whose Connection already had
// Disconnect called on it will keep returning that same, permanently
// disconnected Connection rather than a fresh one. Reconnection therefore
// only actually recovers a session whose Connection is still healthy from
// the signaling server's point of view (e.g. a transient AddPeer/RemovePeer
// hiccup), not one that has fully torn down.
type signalingPlatform struct {
	server *webrtcaudio.SignalingServer
}

func (p signalingPlatform) Connect(ctx context.Context, channelID string) (audio.Connection, error) {
	return p.server.Room(ctx, channelID)
}

// ExitVoiceMode stops the active voice session, if any.
func (s *Session) ExitVoiceMode() {
	if s.voice == nil {
		return
	}
	s.voice.Close()
	s.voice = nil
	if s.voiceConn != nil {
		_ = s.voiceConn.Stop()
		s.voiceConn = nil
	}
	s.shell.SetVoiceModeActive(false)
	s.store.SetState(ui.Patch{IsVoiceMode: boolPtrApp(false)})
}

// HandleUtterance is the text-chat turn entry point (spec.md §4.9): advance
// the conversation stage, resolve navigation intent/actions, refresh the
// sales profile, and render the next system prompt ready for an LLM call.
func (s *Session) HandleUtterance(ctx context.Context, utterance string) (systemPrompt string, navResult *navigation.Result, err error) {
	pc, err := s.pageContext(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("app: page context: %w", err)
	}

	s.transcript = append(s.transcript, utterance)
	s.flow.Advance(utterance, len(s.transcript))
	s.navAgent.UpdateContext(pc)
	result := s.navAgent.Navigate(ctx, utterance)

	behaviorSnap := s.tracker.Snapshot()
	profile := sales.BuildProfile(s.transcript, behaviorSnap, sales.DefaultProfileTables())
	s.profile = &profile

	rendered, err := s.builder.Assemble(ctx)
	if err != nil {
		return "", result, fmt.Errorf("app: render prompt: %w", err)
	}
	return rendered, result, nil
}

// handleTurn is the Voice Runtime's [runtime.TurnHandler]: once a user turn
// completes (final transcript + silence), it is driven through the same
// pipeline as a text-chat turn.
func (s *Session) handleTurn(ctx context.Context, transcript string) {
	systemPrompt, _, err := s.HandleUtterance(ctx, transcript)
	if err != nil || s.llmProvider == nil || s.voice == nil {
		return
	}

	resp, err := s.llmProvider.Complete(ctx, llm.CompletionRequest{
		Messages:     []types.Message{{Role: "user", Content: transcript}},
		SystemPrompt: systemPrompt,
	})
	if err != nil {
		return
	}

	result, err := agentresponse.Dispatch(ctx, s.executor.Host(), resp.Content)
	if err != nil || result.Text == "" {
		return
	}
	_ = s.voice.Speak(ctx, result.Text)

	if s.ctxMgr != nil {
		_ = s.ctxMgr.AddMessages(ctx,
			providerllm.Message{Role: "user", Content: transcript},
			providerllm.Message{Role: "assistant", Content: result.Text},
		)
	}
}

// voiceVocab returns the entity names (pricing plans, features, products)
// from the most recently cached page extraction, for the transcript
// correction pipeline to align misheard STT output against. Reads the cache
// directly rather than triggering a fresh extraction — a stale or missing
// vocabulary just means fewer corrections on this turn, not a blocked one.
func (s *Session) voiceVocab() []string {
	pc := s.cache.Get(s.page.URL())
	if pc == nil {
		return nil
	}
	vocab := make([]string, 0, len(pc.Content.Pricing)+len(pc.Content.Features)+len(pc.Content.Products))
	for _, p := range pc.Content.Pricing {
		if p.Plan != "" {
			vocab = append(vocab, p.Plan)
		}
	}
	for _, f := range pc.Content.Features {
		if f.Name != "" {
			vocab = append(vocab, f.Name)
		}
	}
	for _, p := range pc.Content.Products {
		if p.Name != "" {
			vocab = append(vocab, p.Name)
		}
	}
	return vocab
}

func (s *Session) pageContext(ctx context.Context) (*types.PageContext, error) {
	return s.cache.GetOrExtract(ctx, s.page.URL(), func(ctx context.Context) (*types.PageContext, error) {
		return s.extractor.Extract(ctx, s.page)
	})
}

func (s *Session) currentPageContext(ctx context.Context) (*types.PageContext, error) {
	return s.pageContext(ctx)
}

func (s *Session) currentStage(ctx context.Context) (types.Stage, error) {
	return s.flow.Stage(), nil
}

func (s *Session) currentProfile(ctx context.Context) (*types.UserProfile, error) {
	return s.profile, nil
}

func (s *Session) currentClosingPlan(ctx context.Context) (*sales.ClosingPlan, error) {
	if s.flow.Stage() != types.StageClosing || s.profile == nil {
		return nil, nil
	}
	pc, err := s.pageContext(ctx)
	if err != nil {
		return nil, err
	}
	bant := sales.ScoreBANT(s.transcript, sales.DefaultBANTKeywords())
	plan := sales.SelectClosing(*s.profile, bant, pc.Content.Pricing)
	return &plan, nil
}

// Close tears down the session's component graph and UI session.
func (s *Session) Close() error {
	return s.sm.Stop()
}

func boolPtrApp(b bool) *bool { return &b }
