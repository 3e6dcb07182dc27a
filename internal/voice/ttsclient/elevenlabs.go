package ttsclient

import (
	"context"
	"fmt"

	"github.com/salesagent/runtime/internal/resilience"
	"github.com/salesagent/runtime/pkg/provider/tts"
	"github.com/salesagent/runtime/pkg/provider/tts/elevenlabs"
	"github.com/salesagent/runtime/pkg/types"
)

// NewElevenLabs wraps ElevenLabs' streaming synthesis API as a [Provider].
// apiKey must be non-empty. Synthesis calls run through a
// [resilience.TTSFallback] so a burst of transport errors trips a circuit
// breaker rather than retrying a dead endpoint on every agent utterance; use
// [AddTTSFallback] to register a secondary voice backend.
func NewElevenLabs(apiKey string, opts ...elevenlabs.Option) (Provider, error) {
	p, err := elevenlabs.New(apiKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("ttsclient: elevenlabs: %w", err)
	}
	fb := resilience.NewTTSFallback(p, "elevenlabs", resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{Name: "tts-elevenlabs"},
	})
	return &concreteTTSAdapter{fb}, nil
}

// AddTTSFallback registers a secondary voice backend that SynthesizeStream
// fails over to once p's circuit breaker opens. p must have been built by
// [NewCoqui] or [NewElevenLabs].
func AddTTSFallback(p Provider, name string, fallback Provider) error {
	a, ok := p.(*concreteTTSAdapter)
	if !ok {
		return fmt.Errorf("ttsclient: AddTTSFallback: provider was not built by NewCoqui/NewElevenLabs")
	}
	fb, ok := a.inner.(*resilience.TTSFallback)
	if !ok {
		return fmt.Errorf("ttsclient: AddTTSFallback: provider was not built by NewCoqui/NewElevenLabs")
	}
	fa, ok := fallback.(*concreteTTSAdapter)
	if !ok {
		return fmt.Errorf("ttsclient: AddTTSFallback: fallback provider was not built by NewCoqui/NewElevenLabs")
	}
	backend, ok := fa.inner.(tts.Provider)
	if !ok {
		return fmt.Errorf("ttsclient: AddTTSFallback: fallback provider does not support CloneVoice")
	}
	fb.AddFallback(name, backend)
	return nil
}

// concreteProvider is the subset of a concrete pkg/provider/tts backend's
// method set this package depends on. elevenlabs.Provider and coqui.Provider
// both satisfy it; neither is declared against [tts.Provider] directly
// because their SynthesizeStream/ListVoices signatures use the package-local
// [tts.VoiceProfile] rather than [types.VoiceProfile].
type concreteProvider interface {
	SynthesizeStream(ctx context.Context, text <-chan string, voice tts.VoiceProfile) (<-chan []byte, error)
	ListVoices(ctx context.Context) ([]tts.VoiceProfile, error)
}

// concreteTTSAdapter adapts a concrete backend to [Provider], converting
// between [types.VoiceProfile] (the Voice Runtime's wire type) and
// [tts.VoiceProfile] (the backend packages' catalogue type).
type concreteTTSAdapter struct {
	inner concreteProvider
}

func (a *concreteTTSAdapter) SynthesizeStream(ctx context.Context, text <-chan string, voice types.VoiceProfile) (<-chan []byte, error) {
	return a.inner.SynthesizeStream(ctx, text, toBackendVoice(voice))
}

func (a *concreteTTSAdapter) ListVoices(ctx context.Context) ([]types.VoiceProfile, error) {
	voices, err := a.inner.ListVoices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.VoiceProfile, len(voices))
	for i, v := range voices {
		out[i] = fromBackendVoice(v)
	}
	return out, nil
}

func toBackendVoice(v types.VoiceProfile) tts.VoiceProfile {
	return tts.VoiceProfile{
		ID:          v.ID,
		Name:        v.Name,
		Provider:    v.Provider,
		SpeedFactor: v.SpeedFactor,
		Metadata:    v.Metadata,
	}
}

func fromBackendVoice(v tts.VoiceProfile) types.VoiceProfile {
	return types.VoiceProfile{
		ID:          v.ID,
		Name:        v.Name,
		Provider:    v.Provider,
		SpeedFactor: v.SpeedFactor,
		Metadata:    v.Metadata,
	}
}
