// Package recognizer defines the Provider abstraction for speech-to-text
// backends feeding the Voice Runtime (spec §4.13). The browser's own
// MediaRecorder/WebSpeech path is one implementation; a server-side Whisper
// deployment is another, selected via [config.ProviderEntry].
package recognizer

import (
	"context"

	"github.com/salesagent/runtime/pkg/types"
)

// StreamConfig describes the audio format and recognition hints for a new
// session. SampleRate/Channels must match the negotiated [types.AudioFormat].
type StreamConfig struct {
	SampleRate int
	Channels   int
	Language   string

	// Keywords biases recognition toward terms pulled from the current page
	// (plan names, product names) so a visitor saying "the Growth plan"
	// transcribes correctly even for an unusual product name.
	Keywords []types.KeywordBoost
}

// SessionHandle is an open streaming transcription session.
//
// All methods are safe for concurrent use. Close must be called when the
// voice session ends or changes state away from listening; failing to do so
// leaks the provider's underlying connection.
type SessionHandle interface {
	// SendAudio delivers one chunk of PCM audio. The first chunk of a
	// stream carries the RIFF/WAV header ([types.WAVHeaderSize] bytes),
	// which the implementation must strip before decoding (spec §4.12 edge
	// case).
	SendAudio(chunk []byte) error

	// Partials emits low-latency interim transcripts, suitable for driving a
	// live caption UI but never appended to conversation history.
	Partials() <-chan types.Transcript

	// Finals emits authoritative transcripts. A final transcript starts the
	// silence-threshold timer that marks a completed user turn (spec §4.13).
	Finals() <-chan types.Transcript

	// SetKeywords replaces the active boost list without restarting the
	// session, used when navigation changes the current page's vocabulary.
	SetKeywords(keywords []types.KeywordBoost) error

	// Close terminates the session and releases its resources. Safe to call
	// more than once.
	Close() error
}

// Provider is the abstraction over any STT backend.
type Provider interface {
	// StartStream opens a new session ready to accept audio immediately.
	StartStream(ctx context.Context, cfg StreamConfig) (SessionHandle, error)
}
