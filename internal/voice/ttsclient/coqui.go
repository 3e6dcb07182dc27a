package ttsclient

import (
	"fmt"

	"github.com/salesagent/runtime/internal/resilience"
	"github.com/salesagent/runtime/pkg/provider/tts/coqui"
)

// NewCoqui wraps a self-hosted Coqui TTS server as a [Provider], behind a
// circuit breaker (see [NewElevenLabs]). serverURL must be non-empty
// (e.g. "http://localhost:5002").
func NewCoqui(serverURL string, opts ...coqui.Option) (Provider, error) {
	p, err := coqui.New(serverURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("ttsclient: coqui: %w", err)
	}
	fb := resilience.NewTTSFallback(p, "coqui", resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{Name: "tts-coqui"},
	})
	return &concreteTTSAdapter{fb}, nil
}
