// Package energy implements [vad.Engine] with a simple RMS-energy
// speech/silence classifier, for deployments that don't need a model-backed
// detector (Silero, WebRTC VAD) and just want to gate obviously-silent audio
// out of the STT path.
package energy

import (
	"math"
	"sync"

	"github.com/salesagent/runtime/pkg/provider/vad"
)

// maxInt16RMS is the theoretical peak RMS for full-scale 16-bit PCM, used to
// normalise the configured probability thresholds into a sample-amplitude
// scale.
const maxInt16RMS = 32768.0

// Engine is a model-free [vad.Engine] backed by per-frame RMS energy.
type Engine struct{}

// New returns a new energy-based [vad.Engine].
func New() *Engine { return &Engine{} }

// NewSession creates a session using cfg's thresholds. SpeechThreshold and
// SilenceThreshold are treated as fractions (0.0-1.0) of full-scale PCM RMS.
func (e *Engine) NewSession(cfg vad.Config) (vad.SessionHandle, error) {
	speechThreshold := cfg.SpeechThreshold
	if speechThreshold <= 0 {
		speechThreshold = 0.02
	}
	silenceThreshold := cfg.SilenceThreshold
	if silenceThreshold <= 0 {
		silenceThreshold = speechThreshold * 0.6
	}
	return &session{
		speechThreshold:  speechThreshold,
		silenceThreshold: silenceThreshold,
	}, nil
}

var _ vad.Engine = (*Engine)(nil)

// session tracks whether the stream was last classified as speaking, so
// ProcessFrame can report edge transitions (VADSpeechStart/VADSpeechEnd)
// rather than just the instantaneous classification.
//
// Unlike a frame-locked model-backed detector, ProcessFrame here accepts any
// even-length little-endian int16 PCM buffer rather than requiring it to
// match cfg.FrameSizeMs exactly — energy is just averaged over however many
// samples are supplied.
type session struct {
	mu sync.Mutex

	speechThreshold  float64
	silenceThreshold float64
	speaking         bool
}

// ProcessFrame classifies frame's average sample energy against the
// session's thresholds, with hysteresis between the speech and silence
// thresholds to avoid chattering around the boundary.
func (s *session) ProcessFrame(frame []byte) (vad.VADEvent, error) {
	rms := rmsInt16(frame)
	probability := rms / maxInt16RMS
	if probability > 1 {
		probability = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case probability >= s.speechThreshold:
		wasSpeaking := s.speaking
		s.speaking = true
		if !wasSpeaking {
			return vad.VADEvent{Type: vad.VADSpeechStart, Probability: probability}, nil
		}
		return vad.VADEvent{Type: vad.VADSpeechContinue, Probability: probability}, nil
	case probability <= s.silenceThreshold:
		wasSpeaking := s.speaking
		s.speaking = false
		if wasSpeaking {
			return vad.VADEvent{Type: vad.VADSpeechEnd, Probability: probability}, nil
		}
		return vad.VADEvent{Type: vad.VADSilence, Probability: probability}, nil
	default:
		// Between thresholds: hold the previous classification.
		if s.speaking {
			return vad.VADEvent{Type: vad.VADSpeechContinue, Probability: probability}, nil
		}
		return vad.VADEvent{Type: vad.VADSilence, Probability: probability}, nil
	}
}

// Reset clears the speaking/silence state, without affecting thresholds.
func (s *session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speaking = false
}

// Close is a no-op; the session holds no external resources.
func (s *session) Close() error { return nil }

var _ vad.SessionHandle = (*session)(nil)

// rmsInt16 computes the root-mean-square amplitude of little-endian int16
// PCM samples in pcm. Returns 0 for empty or odd-length input.
func rmsInt16(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sumSquares float64
	for i := 0; i < n; i++ {
		sample := int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
		v := float64(sample)
		sumSquares += v * v
	}
	return math.Sqrt(sumSquares / float64(n))
}
