package llm

import (
	"context"
	"fmt"

	"github.com/salesagent/runtime/internal/resilience"
	llmprovider "github.com/salesagent/runtime/pkg/provider/llm"
	"github.com/salesagent/runtime/pkg/provider/llm/anyllm"
	"github.com/salesagent/runtime/pkg/provider/llm/openai"
	"github.com/salesagent/runtime/pkg/types"
)

// NewOpenAI wraps the OpenAI chat-completions backend as a [Provider]. The
// backend is wrapped in a [resilience.LLMFallback] so a string of transport
// failures trips a circuit breaker instead of hammering a dead endpoint on
// every chat turn; use [AddLLMFallback] to register a secondary model the
// breaker fails over to once it opens. apiKey must be non-empty.
func NewOpenAI(apiKey, model string, opts ...openai.Option) (Provider, error) {
	p, err := openai.New(apiKey, model, opts...)
	if err != nil {
		return nil, fmt.Errorf("llm: openai: %w", err)
	}
	fb := resilience.NewLLMFallback(p, "openai", resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{Name: "llm-openai"},
	})
	return providerAdapter{inner: fb}, nil
}

// NewAnyLLM wraps any-llm's unified backend (Anthropic, Gemini, Ollama,
// DeepSeek, Mistral, Groq and local llama.cpp/llamafile servers all share
// one client) as a [Provider] selected by providerName, behind the same
// circuit breaker as [NewOpenAI].
func NewAnyLLM(providerName, model string, opts ...anyllm.Option) (Provider, error) {
	p, err := anyllm.New(providerName, model, opts...)
	if err != nil {
		return nil, fmt.Errorf("llm: anyllm/%s: %w", providerName, err)
	}
	fb := resilience.NewLLMFallback(p, "anyllm/"+providerName, resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{Name: "llm-anyllm-" + providerName},
	})
	return providerAdapter{inner: fb}, nil
}

// AddLLMFallback registers a secondary backend that StreamCompletion/Complete
// fail over to once the primary backend's circuit breaker opens. p must have
// been built by [NewOpenAI] or [NewAnyLLM]; it is not meaningful to call this
// on a bare [Provider] obtained some other way.
func AddLLMFallback(p Provider, name string, fallback Provider) error {
	a, ok := p.(providerAdapter)
	if !ok {
		return fmt.Errorf("llm: AddLLMFallback: provider was not built by NewOpenAI/NewAnyLLM")
	}
	fb, ok := a.inner.(*resilience.LLMFallback)
	if !ok {
		return fmt.Errorf("llm: AddLLMFallback: provider was not built by NewOpenAI/NewAnyLLM")
	}
	fa, ok := fallback.(providerAdapter)
	if !ok {
		return fmt.Errorf("llm: AddLLMFallback: fallback provider was not built by NewOpenAI/NewAnyLLM")
	}
	fb.AddFallback(name, fa.inner)
	return nil
}

// providerAdapter adapts a [llmprovider.Provider] to this package's
// [Provider]. The two interfaces describe an identical contract but are
// declared with distinct named request/response types, so calls are
// translated field-by-field rather than relying on structural satisfaction.
type providerAdapter struct {
	inner llmprovider.Provider
}

func (a providerAdapter) StreamCompletion(ctx context.Context, req CompletionRequest) (<-chan Chunk, error) {
	chunks, err := a.inner.StreamCompletion(ctx, toProviderRequest(req))
	if err != nil {
		return nil, err
	}
	out := make(chan Chunk)
	go func() {
		defer close(out)
		for c := range chunks {
			out <- Chunk{Text: c.Text, FinishReason: c.FinishReason, ToolCalls: c.ToolCalls}
		}
	}()
	return out, nil
}

func (a providerAdapter) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	resp, err := a.inner.Complete(ctx, toProviderRequest(req))
	if err != nil {
		return nil, err
	}
	return &CompletionResponse{
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
		Usage:     Usage(resp.Usage),
	}, nil
}

func (a providerAdapter) CountTokens(messages []types.Message) (int, error) {
	return a.inner.CountTokens(messages)
}

func (a providerAdapter) Capabilities() types.ModelCapabilities {
	return a.inner.Capabilities()
}

func toProviderRequest(req CompletionRequest) llmprovider.CompletionRequest {
	return llmprovider.CompletionRequest{
		Messages:     req.Messages,
		Tools:        req.Tools,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
		SystemPrompt: req.SystemPrompt,
	}
}

// ToBackendProvider adapts a [Provider] to an [llmprovider.Provider], the
// reverse direction of providerAdapter — for callers outside this package
// (e.g. internal/transcript/llmcorrect) that are built against the backend
// interface directly rather than this package's narrower one.
func ToBackendProvider(p Provider) llmprovider.Provider {
	return backendAdapter{inner: p}
}

type backendAdapter struct {
	inner Provider
}

func (a backendAdapter) StreamCompletion(ctx context.Context, req llmprovider.CompletionRequest) (<-chan llmprovider.Chunk, error) {
	chunks, err := a.inner.StreamCompletion(ctx, fromProviderRequest(req))
	if err != nil {
		return nil, err
	}
	out := make(chan llmprovider.Chunk)
	go func() {
		defer close(out)
		for c := range chunks {
			out <- llmprovider.Chunk{Text: c.Text, FinishReason: c.FinishReason, ToolCalls: c.ToolCalls}
		}
	}()
	return out, nil
}

func (a backendAdapter) Complete(ctx context.Context, req llmprovider.CompletionRequest) (*llmprovider.CompletionResponse, error) {
	resp, err := a.inner.Complete(ctx, fromProviderRequest(req))
	if err != nil {
		return nil, err
	}
	return &llmprovider.CompletionResponse{
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
		Usage:     llmprovider.Usage(resp.Usage),
	}, nil
}

func (a backendAdapter) CountTokens(messages []types.Message) (int, error) {
	return a.inner.CountTokens(messages)
}

func (a backendAdapter) Capabilities() types.ModelCapabilities {
	return a.inner.Capabilities()
}

func fromProviderRequest(req llmprovider.CompletionRequest) CompletionRequest {
	return CompletionRequest{
		Messages:     req.Messages,
		Tools:        req.Tools,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
		SystemPrompt: req.SystemPrompt,
	}
}
