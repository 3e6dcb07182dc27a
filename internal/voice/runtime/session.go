package runtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/salesagent/runtime/internal/observe"
	"github.com/salesagent/runtime/internal/transcript"
	"github.com/salesagent/runtime/internal/voice/recognizer"
	"github.com/salesagent/runtime/internal/voice/ttsclient"
	"github.com/salesagent/runtime/pkg/provider/vad"
	"github.com/salesagent/runtime/pkg/types"
)

// defaultSilenceThreshold is how long after a final transcript segment the
// session waits, with no further partial result, before treating the
// utterance as a completed user turn (spec.md §4.12).
const defaultSilenceThreshold = 800 * time.Millisecond

// defaultRestartDelay is how long after AI playback completes the
// recognizer is restarted (spec.md §4.12's walkie-talkie discipline).
const defaultRestartDelay = 300 * time.Millisecond

// errInterrupted is the error a [Session.Speak] call resolves with when
// cancelled by a newer Speak call or an explicit [Session.Interrupt].
var errInterrupted = errors.New("voice: interrupted by new speech")

// TurnHandler is invoked with the accumulated transcript once a user turn
// completes (silence timer fires after a final segment). It is expected to
// route the transcript through the conversational path and eventually call
// [Session.Speak] with the reply.
type TurnHandler func(ctx context.Context, transcript string)

// Session owns one voice conversation's full turn-taking lifecycle: state
// machine, recognizer session (with walkie-talkie pause/restart and bounded
// reconnect), and gapless TTS playback scheduling with barge-in.
//
// Grounded end-to-end on the teacher's internal/engine/s2s.Engine (session
// lifecycle, lazy reconnect, silence-timeout-as-turn-boundary) and
// internal/engine/cascade.Engine (serialized per-utterance streaming with a
// cancel-on-new-call discipline).
type Session struct {
	recognizerProvider recognizer.Provider
	ttsProvider         ttsclient.Provider
	voice               types.VoiceProfile
	onTurn              TurnHandler

	silenceThreshold time.Duration
	restartDelay     time.Duration
	sampleRate       int

	corrector      transcript.Pipeline
	correctionVocab func() []string

	vadEngine  vad.Engine
	vadCfg     vad.Config
	vadSession vad.SessionHandle // nil unless vadEngine is configured

	sm        *StateMachine
	scheduler *Scheduler

	mu                sync.Mutex
	recognizerCfg     recognizer.StreamConfig
	recognizerSession recognizer.SessionHandle
	silenceTimer      *time.Timer
	pendingFinal      types.Transcript
	activeSpeak       *speakCall
	turnStart         time.Time

	nextContextSeq uint64

	done    chan struct{}
	closed  bool
	wg      sync.WaitGroup
}

// Option configures a [Session].
type Option func(*Session)

// WithSilenceThreshold overrides the 800ms default end-of-turn silence
// timer.
func WithSilenceThreshold(d time.Duration) Option {
	return func(s *Session) { s.silenceThreshold = d }
}

// WithRestartDelay overrides the 300ms default recognizer-restart delay.
func WithRestartDelay(d time.Duration) Option {
	return func(s *Session) { s.restartDelay = d }
}

// WithSampleRate overrides the default negotiated sample rate used by the
// playback scheduler.
func WithSampleRate(hz int) Option {
	return func(s *Session) { s.sampleRate = hz }
}

// WithOnStateChange registers a callback invoked on every voice-state
// transition, e.g. to drive a UI status indicator (spec.md §4.13).
func WithOnStateChange(fn func(prev, next types.VoiceState)) Option {
	return func(s *Session) { s.sm = NewStateMachine(fn) }
}

// WithCorrector attaches a [transcript.Pipeline] that resolves phonetic and
// LLM-assisted entity-name corrections on each final transcript before it is
// handed to onTurn. vocab returns the current page's known entity names
// (product, feature, and pricing-tier names) at turn time, so the list
// reflects whatever content has been extracted since the session started.
func WithCorrector(p transcript.Pipeline, vocab func() []string) Option {
	return func(s *Session) {
		s.corrector = p
		s.correctionVocab = vocab
	}
}

// WithVAD attaches a [vad.Engine] that gates outbound microphone audio
// before it reaches the recognizer: frames classified as silence are
// dropped in [Session.SendAudio] rather than forwarded, cutting STT traffic
// during long pauses. If the engine cannot start a session, or a frame
// fails classification, audio is forwarded unfiltered rather than dropped.
func WithVAD(engine vad.Engine, cfg vad.Config) Option {
	return func(s *Session) {
		s.vadEngine = engine
		s.vadCfg = cfg
	}
}

// NewSession constructs a [Session]. onTurn is called once per completed
// user turn.
func NewSession(recognizerProvider recognizer.Provider, ttsProvider ttsclient.Provider, voice types.VoiceProfile, onTurn TurnHandler, opts ...Option) *Session {
	s := &Session{
		recognizerProvider: recognizerProvider,
		ttsProvider:        ttsProvider,
		voice:              voice,
		onTurn:             onTurn,
		silenceThreshold:   defaultSilenceThreshold,
		restartDelay:       defaultRestartDelay,
		sampleRate:         types.DefaultAudioFormat.SampleRate,
		done:               make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	if s.sm == nil {
		s.sm = NewStateMachine(nil)
	}
	s.scheduler = NewScheduler(s.sampleRate)
	return s
}

// State returns the session's current voice state.
func (s *Session) State() types.VoiceState { return s.sm.State() }

// Start opens the recognizer stream (via bounded [Reconnect]) and
// transitions to [types.VoiceListening].
func (s *Session) Start(ctx context.Context, cfg recognizer.StreamConfig) error {
	s.mu.Lock()
	s.recognizerCfg = cfg
	if s.vadEngine != nil {
		vcfg := s.vadCfg
		if vcfg.SampleRate == 0 {
			vcfg.SampleRate = cfg.SampleRate
		}
		if vs, err := s.vadEngine.NewSession(vcfg); err != nil {
			slog.Warn("voice: vad session unavailable, audio will be forwarded unfiltered", "err", err)
		} else {
			s.vadSession = vs
		}
	}
	s.mu.Unlock()

	sess, err := Reconnect(ctx, func(ctx context.Context) (recognizer.SessionHandle, error) {
		return s.recognizerProvider.StartStream(ctx, cfg)
	})
	if err != nil {
		s.sm.Transition(types.VoiceError)
		return err
	}

	s.mu.Lock()
	s.recognizerSession = sess
	s.mu.Unlock()

	s.sm.Transition(types.VoiceListening)
	s.wg.Add(1)
	go s.listenLoop(ctx, sess)
	return nil
}

// SendAudio forwards one chunk of microphone audio to the active recognizer
// session. It is a no-op (not an error) while the recognizer is paused
// during ai-speaking, since the caller's mic pipeline keeps running
// independent of walkie-talkie state.
func (s *Session) SendAudio(chunk []byte) error {
	s.mu.Lock()
	sess := s.recognizerSession
	vs := s.vadSession
	s.mu.Unlock()
	if sess == nil {
		return nil
	}
	if vs != nil {
		if ev, err := vs.ProcessFrame(chunk); err == nil && ev.Type == vad.VADSilence {
			return nil
		}
	}
	return sess.SendAudio(chunk)
}

// listenLoop fans partial/final transcripts from sess into handlePartial/
// handleFinal until either channel closes or the session is closed.
func (s *Session) listenLoop(ctx context.Context, sess recognizer.SessionHandle) {
	defer s.wg.Done()
	partials := sess.Partials()
	finals := sess.Finals()

	for partials != nil || finals != nil {
		select {
		case <-s.done:
			return
		case t, ok := <-partials:
			if !ok {
				partials = nil
				continue
			}
			s.handlePartial(t)
		case t, ok := <-finals:
			if !ok {
				finals = nil
				continue
			}
			s.handleFinal(ctx, t)
		}
	}
}

// handlePartial implements turn-taking's partial-result handling (spec.md
// §4.13): a partial result resets any pending end-of-turn timer, and — if
// one slips through while AI audio is still playing — triggers barge-in.
func (s *Session) handlePartial(t types.Transcript) {
	if s.sm.State() == types.VoiceAISpeaking {
		s.Interrupt()
		s.sm.Transition(types.VoiceUserSpeaking)
		return
	}

	s.mu.Lock()
	s.stopSilenceTimerLocked()
	s.mu.Unlock()

	if s.sm.State() != types.VoiceUserSpeaking {
		s.sm.Transition(types.VoiceUserSpeaking)
	}
}

// handleFinal implements turn-taking's final-result handling: start/reset
// an 800ms silence timer; on fire, hand the transcript to onTurn.
func (s *Session) handleFinal(ctx context.Context, t types.Transcript) {
	if s.sm.State() == types.VoiceAISpeaking {
		s.Interrupt()
		s.sm.Transition(types.VoiceUserSpeaking)
	}

	s.mu.Lock()
	if prev := s.pendingFinal; prev.Text != "" {
		t.Text = prev.Text + " " + t.Text
		t.Words = append(append([]types.WordDetail(nil), prev.Words...), t.Words...)
	}
	s.pendingFinal = t
	s.stopSilenceTimerLocked()
	s.silenceTimer = time.AfterFunc(s.silenceThreshold, func() { s.fireTurn(ctx) })
	s.mu.Unlock()
}

// stopSilenceTimerLocked cancels any pending end-of-turn timer. Must be
// called with s.mu held.
func (s *Session) stopSilenceTimerLocked() {
	if s.silenceTimer != nil {
		s.silenceTimer.Stop()
		s.silenceTimer = nil
	}
}

// fireTurn is called when the silence timer elapses: it hands the
// accumulated transcript to onTurn exactly once, after running it through
// the configured correction pipeline (if any).
func (s *Session) fireTurn(ctx context.Context) {
	s.mu.Lock()
	final := s.pendingFinal
	s.pendingFinal = types.Transcript{}
	s.silenceTimer = nil
	if final.Text != "" {
		s.turnStart = time.Now()
	}
	s.mu.Unlock()

	if final.Text == "" {
		return
	}
	s.sm.Transition(types.VoiceProcessing)
	text := s.correctFinal(ctx, final)
	if s.onTurn != nil {
		s.onTurn(ctx, text)
	}
}

// correctFinal runs final through the configured correction pipeline, if
// one is attached, and returns its corrected text. Falls back to the raw
// transcript text when no corrector is configured or correction fails — an
// STT misspelling is recoverable downstream, a dropped turn is not.
func (s *Session) correctFinal(ctx context.Context, final types.Transcript) string {
	if s.corrector == nil {
		return final.Text
	}
	var vocab []string
	if s.correctionVocab != nil {
		vocab = s.correctionVocab()
	}
	corrected, err := s.corrector.Correct(ctx, final, vocab)
	if err != nil {
		slog.Warn("voice: transcript correction failed, using raw transcript", "err", err)
		return final.Text
	}
	return corrected.Corrected
}

// speakCall tracks one in-flight [Session.Speak] invocation.
type speakCall struct {
	contextID string
	cancel    context.CancelFunc
	tracker   *CompletionTracker
	result    chan error
}

// Speak synthesises text and schedules its audio gaplessly, blocking until
// playback completes, is interrupted by a newer Speak call or explicit
// [Session.Interrupt], or fails outright. Calls strictly serialize: a new
// call cancels any still-pending prior call — ending its context on the
// wire (the concrete [ttsclient.Provider] is expected to translate ctx
// cancellation into its own "end context"/"clear" wire messages, per the
// same abstraction boundary the provider interface already draws) — before
// starting its own synthesis.
func (s *Session) Speak(parentCtx context.Context, text string) error {
	call, ctx, audioCh, err := s.beginSpeak(parentCtx, text)
	if err != nil {
		return err
	}
	s.wg.Add(1)
	go s.runSpeak(ctx, call, audioCh)
	return <-call.result
}

func (s *Session) beginSpeak(parentCtx context.Context, text string) (*speakCall, context.Context, <-chan []byte, error) {
	s.mu.Lock()
	if prior := s.activeSpeak; prior != nil {
		prior.cancel()
	}
	contextID := s.newContextID()
	s.mu.Unlock()

	s.pauseRecognizer()
	s.sm.Transition(types.VoiceAISpeaking)
	s.scheduler.Reset(0)

	ctx, cancel := context.WithCancel(parentCtx)
	call := &speakCall{
		contextID: contextID,
		cancel:    cancel,
		tracker:   NewCompletionTracker(),
		result:    make(chan error, 1),
	}

	s.mu.Lock()
	s.activeSpeak = call
	s.mu.Unlock()

	textCh := make(chan string, 1)
	textCh <- text
	close(textCh)

	audioCh, err := s.ttsProvider.SynthesizeStream(ctx, textCh, s.voice)
	if err != nil {
		cancel()
		s.finishSpeak(call, err)
		return call, ctx, nil, err
	}
	return call, ctx, audioCh, nil
}

func (s *Session) newContextID() string {
	s.nextContextSeq++
	return "ctx-" + itoa(s.nextContextSeq)
}

// itoa avoids importing strconv for one call site; kept tiny and local.
func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// runSpeak schedules every chunk of audioCh onto the gapless scheduler and
// resolves call.result once playback completes, is interrupted, or the
// stream errors out.
func (s *Session) runSpeak(ctx context.Context, call *speakCall, audioCh <-chan []byte) {
	defer s.wg.Done()

	var clock time.Duration
	streaming := true
	for streaming {
		select {
		case <-ctx.Done():
			s.finishSpeak(call, errInterrupted)
			return
		case chunk, ok := <-audioCh:
			if !ok {
				call.tracker.MarkFinalReceived()
				streaming = false
				break
			}
			call.tracker.SourceStarted()
			sourceID, scheduled := s.scheduler.Schedule(clock, chunk)
			clock = scheduled.StartAt + scheduled.Duration
			time.AfterFunc(scheduled.Duration, func() {
				s.scheduler.SourceEnded(sourceID)
				call.tracker.SourceEnded()
			})
		}
	}

	select {
	case <-ctx.Done():
		s.finishSpeak(call, errInterrupted)
	case <-call.tracker.Done():
		s.finishSpeak(call, nil)
	}
}

// finishSpeak resolves call.result exactly once and, on success, schedules
// the walkie-talkie recognizer restart.
func (s *Session) finishSpeak(call *speakCall, err error) {
	select {
	case call.result <- err:
	default:
	}

	s.mu.Lock()
	if s.activeSpeak == call {
		s.activeSpeak = nil
	}
	s.mu.Unlock()

	switch {
	case err == nil:
		s.mu.Lock()
		turnStart := s.turnStart
		s.turnStart = time.Time{}
		s.mu.Unlock()
		if !turnStart.IsZero() {
			observe.DefaultMetrics().RecordVoiceTurn(context.Background(), time.Since(turnStart))
		}
		s.scheduleRecognizerRestart()
	case errors.Is(err, errInterrupted):
		// Interrupted by a newer call or explicit Interrupt(): the newer
		// call (if any) already owns recognizer state; nothing further to do.
	default:
		s.sm.Transition(types.VoiceError)
	}
}

// Interrupt cancels any in-flight Speak call and flushes the playback
// scheduler. Idempotent and safe in any state; if no call is active it's a
// no-op (spec.md §4.12).
func (s *Session) Interrupt() {
	s.mu.Lock()
	call := s.activeSpeak
	s.mu.Unlock()

	s.scheduler.Reset(0)
	if call != nil {
		call.cancel()
		select {
		case call.result <- errInterrupted:
		default:
		}
	}
}

// pauseRecognizer implements walkie-talkie discipline: stop the recognizer
// while AI audio plays, preventing the synthesized speech from feeding back
// into recognition.
func (s *Session) pauseRecognizer() {
	s.mu.Lock()
	sess := s.recognizerSession
	s.recognizerSession = nil
	s.mu.Unlock()

	if sess != nil {
		if err := sess.Close(); err != nil {
			slog.Warn("voice: error closing recognizer session before speaking", "err", err)
		}
	}
}

// scheduleRecognizerRestart restarts the recognizer restartDelay after
// playback completes.
func (s *Session) scheduleRecognizerRestart() {
	s.wg.Add(1)
	time.AfterFunc(s.restartDelay, func() {
		defer s.wg.Done()
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		cfg := s.recognizerCfg
		s.mu.Unlock()

		sess, err := Reconnect(context.Background(), func(ctx context.Context) (recognizer.SessionHandle, error) {
			return s.recognizerProvider.StartStream(ctx, cfg)
		})
		if err != nil {
			s.sm.Transition(types.VoiceError)
			return
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = sess.Close()
			return
		}
		s.recognizerSession = sess
		s.mu.Unlock()

		s.sm.Transition(types.VoiceListening)
		s.wg.Add(1)
		go s.listenLoop(context.Background(), sess)
	})
}

// Close tears down the session: stops timers, interrupts any active speak
// call, closes the recognizer session, and waits for background goroutines
// to exit. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	s.stopSilenceTimerLocked()
	sess := s.recognizerSession
	s.recognizerSession = nil
	vs := s.vadSession
	s.vadSession = nil
	call := s.activeSpeak
	s.mu.Unlock()

	if call != nil {
		call.cancel()
	}
	if sess != nil {
		_ = sess.Close()
	}
	if vs != nil {
		_ = vs.Close()
	}
	s.sm.Close()
	s.wg.Wait()
	return nil
}
