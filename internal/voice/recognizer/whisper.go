package recognizer

import (
	"fmt"

	"github.com/salesagent/runtime/internal/resilience"
	"github.com/salesagent/runtime/pkg/provider/stt/whisper"
)

// NewWhisper wraps a local whisper.cpp HTTP-server-backed [Provider] for
// deployments without a streaming STT vendor contract, behind a circuit
// breaker (see [NewDeepgram]). serverURL must be non-empty
// (e.g. "http://localhost:8080").
func NewWhisper(serverURL string, opts ...whisper.Option) (Provider, error) {
	p, err := whisper.New(serverURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("recognizer: whisper: %w", err)
	}
	fb := resilience.NewSTTFallback(p, "whisper", resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{Name: "stt-whisper"},
	})
	return sttProviderAdapter{inner: fb}, nil
}
