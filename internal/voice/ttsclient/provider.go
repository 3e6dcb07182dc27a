// Package ttsclient defines the Provider abstraction for text-to-speech
// backends feeding the Voice Runtime's AI-speaking state (spec §4.13).
package ttsclient

import (
	"context"

	"github.com/salesagent/runtime/pkg/types"
)

// Provider is the abstraction over any TTS backend.
//
// Implementations must be safe for concurrent use; a deployment may run one
// synthesis stream per active voice session.
type Provider interface {
	// SynthesizeStream consumes text fragments as the agent's reply streams
	// out of the LLM and returns PCM audio fragments as they're synthesised,
	// so playback can start before the full reply is generated.
	//
	// The audio channel is closed when all text has been synthesised or ctx
	// is cancelled. The caller must drain it to avoid leaking the
	// provider's internal goroutine.
	SynthesizeStream(ctx context.Context, text <-chan string, voice types.VoiceProfile) (<-chan []byte, error)

	// ListVoices returns the voice catalogue currently available.
	ListVoices(ctx context.Context) ([]types.VoiceProfile, error)
}
