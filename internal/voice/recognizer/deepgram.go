package recognizer

import (
	"context"
	"fmt"

	"github.com/salesagent/runtime/internal/resilience"
	"github.com/salesagent/runtime/pkg/provider/stt"
	"github.com/salesagent/runtime/pkg/provider/stt/deepgram"
	"github.com/salesagent/runtime/pkg/types"
)

// NewDeepgram wraps a Deepgram [stt.Provider] as a [Provider] for the Voice
// Runtime. apiKey must be non-empty; opts are passed through to
// [deepgram.New] unchanged. StartStream runs through a
// [resilience.STTFallback] so a connection failure trips a circuit breaker
// instead of attempting to open a new session on every turn; use
// [AddSTTFallback] to register a secondary transcription backend.
func NewDeepgram(apiKey string, opts ...deepgram.Option) (Provider, error) {
	p, err := deepgram.New(apiKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("recognizer: deepgram: %w", err)
	}
	fb := resilience.NewSTTFallback(p, "deepgram", resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{Name: "stt-deepgram"},
	})
	return sttProviderAdapter{inner: fb}, nil
}

// AddSTTFallback registers a secondary transcription backend that
// StartStream fails over to once p's circuit breaker opens. p must have
// been built by [NewDeepgram] or [NewWhisper].
func AddSTTFallback(p Provider, name string, fallback Provider) error {
	a, ok := p.(sttProviderAdapter)
	if !ok {
		return fmt.Errorf("recognizer: AddSTTFallback: provider was not built by NewDeepgram/NewWhisper")
	}
	fb, ok := a.inner.(*resilience.STTFallback)
	if !ok {
		return fmt.Errorf("recognizer: AddSTTFallback: provider was not built by NewDeepgram/NewWhisper")
	}
	fa, ok := fallback.(sttProviderAdapter)
	if !ok {
		return fmt.Errorf("recognizer: AddSTTFallback: fallback provider was not built by NewDeepgram/NewWhisper")
	}
	fb.AddFallback(name, fa.inner)
	return nil
}

// sttProviderAdapter adapts any [stt.Provider] to [Provider]. Both
// interfaces describe the same streaming contract but are declared with
// distinct named types, so Go requires an explicit conversion at each call
// site rather than structural satisfaction.
type sttProviderAdapter struct {
	inner stt.Provider
}

func (a sttProviderAdapter) StartStream(ctx context.Context, cfg StreamConfig) (SessionHandle, error) {
	sess, err := a.inner.StartStream(ctx, stt.StreamConfig{
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		Language:   cfg.Language,
		Keywords:   toSTTKeywords(cfg.Keywords),
	})
	if err != nil {
		return nil, err
	}
	return sttSessionAdapter{inner: sess}, nil
}

type sttSessionAdapter struct {
	inner stt.SessionHandle
}

func (a sttSessionAdapter) SendAudio(chunk []byte) error { return a.inner.SendAudio(chunk) }

func (a sttSessionAdapter) Partials() <-chan types.Transcript {
	return relayTranscripts(a.inner.Partials())
}

func (a sttSessionAdapter) Finals() <-chan types.Transcript {
	return relayTranscripts(a.inner.Finals())
}

func (a sttSessionAdapter) SetKeywords(keywords []types.KeywordBoost) error {
	return a.inner.SetKeywords(toSTTKeywords(keywords))
}

func (a sttSessionAdapter) Close() error { return a.inner.Close() }

func toSTTKeywords(in []types.KeywordBoost) []stt.KeywordBoost {
	if in == nil {
		return nil
	}
	out := make([]stt.KeywordBoost, len(in))
	for i, k := range in {
		out[i] = stt.KeywordBoost{Keyword: k.Keyword, Boost: k.Boost}
	}
	return out
}

func relayTranscripts(in <-chan stt.Transcript) <-chan types.Transcript {
	out := make(chan types.Transcript)
	go func() {
		defer close(out)
		for t := range in {
			out <- types.Transcript{
				Text:       t.Text,
				IsFinal:    t.IsFinal,
				Confidence: t.Confidence,
				Words:      toWordDetails(t.Words),
				Timestamp:  t.Timestamp,
				Duration:   t.Duration,
			}
		}
	}()
	return out
}

func toWordDetails(in []stt.WordDetail) []types.WordDetail {
	if in == nil {
		return nil
	}
	out := make([]types.WordDetail, len(in))
	for i, w := range in {
		out[i] = types.WordDetail{Word: w.Word, Start: w.Start, End: w.End, Confidence: w.Confidence}
	}
	return out
}
