package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/salesagent/runtime/internal/llm"
	"github.com/salesagent/runtime/internal/voice/recognizer"
	"github.com/salesagent/runtime/internal/voice/ttsclient"
	"github.com/salesagent/runtime/pkg/memory"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider kind the runtime consumes. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	llm        map[string]func(ProviderEntry) (llm.Provider, error)
	stt        map[string]func(ProviderEntry) (recognizer.Provider, error)
	tts        map[string]func(ProviderEntry) (ttsclient.Provider, error)
	embeddings map[string]func(ProviderEntry) (memory.EmbeddingsProvider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		llm:        make(map[string]func(ProviderEntry) (llm.Provider, error)),
		stt:        make(map[string]func(ProviderEntry) (recognizer.Provider, error)),
		tts:        make(map[string]func(ProviderEntry) (ttsclient.Provider, error)),
		embeddings: make(map[string]func(ProviderEntry) (memory.EmbeddingsProvider, error)),
	}
}

// RegisterLLM registers an LLM provider factory under name. Subsequent calls
// with the same name overwrite the previous registration.
func (r *Registry) RegisterLLM(name string, factory func(ProviderEntry) (llm.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llm[name] = factory
}

// RegisterSTT registers an STT provider factory under name.
func (r *Registry) RegisterSTT(name string, factory func(ProviderEntry) (recognizer.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stt[name] = factory
}

// RegisterTTS registers a TTS provider factory under name.
func (r *Registry) RegisterTTS(name string, factory func(ProviderEntry) (ttsclient.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tts[name] = factory
}

// RegisterEmbeddings registers an embeddings provider factory under name.
func (r *Registry) RegisterEmbeddings(name string, factory func(ProviderEntry) (memory.EmbeddingsProvider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embeddings[name] = factory
}

// CreateLLM instantiates an LLM provider using the factory registered under
// entry.Name, then builds and wires in any entry.Fallbacks in order so the
// returned provider fails over once its circuit breaker opens.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	primary, err := r.createLLM(entry)
	if err != nil {
		return nil, err
	}
	for _, fb := range entry.Fallbacks {
		fbProvider, err := r.createLLM(fb)
		if err != nil {
			return nil, fmt.Errorf("config: llm fallback %q: %w", fb.Name, err)
		}
		if err := llm.AddLLMFallback(primary, fb.Name, fbProvider); err != nil {
			return nil, fmt.Errorf("config: llm fallback %q: %w", fb.Name, err)
		}
	}
	return primary, nil
}

func (r *Registry) createLLM(entry ProviderEntry) (llm.Provider, error) {
	r.mu.RLock()
	factory, ok := r.llm[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: llm/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateSTT instantiates an STT provider using the factory registered under
// entry.Name, then builds and wires in any entry.Fallbacks in order.
func (r *Registry) CreateSTT(entry ProviderEntry) (recognizer.Provider, error) {
	primary, err := r.createSTT(entry)
	if err != nil {
		return nil, err
	}
	for _, fb := range entry.Fallbacks {
		fbProvider, err := r.createSTT(fb)
		if err != nil {
			return nil, fmt.Errorf("config: stt fallback %q: %w", fb.Name, err)
		}
		if err := recognizer.AddSTTFallback(primary, fb.Name, fbProvider); err != nil {
			return nil, fmt.Errorf("config: stt fallback %q: %w", fb.Name, err)
		}
	}
	return primary, nil
}

func (r *Registry) createSTT(entry ProviderEntry) (recognizer.Provider, error) {
	r.mu.RLock()
	factory, ok := r.stt[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: stt/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateTTS instantiates a TTS provider using the factory registered under
// entry.Name, then builds and wires in any entry.Fallbacks in order.
func (r *Registry) CreateTTS(entry ProviderEntry) (ttsclient.Provider, error) {
	primary, err := r.createTTS(entry)
	if err != nil {
		return nil, err
	}
	for _, fb := range entry.Fallbacks {
		fbProvider, err := r.createTTS(fb)
		if err != nil {
			return nil, fmt.Errorf("config: tts fallback %q: %w", fb.Name, err)
		}
		if err := ttsclient.AddTTSFallback(primary, fb.Name, fbProvider); err != nil {
			return nil, fmt.Errorf("config: tts fallback %q: %w", fb.Name, err)
		}
	}
	return primary, nil
}

func (r *Registry) createTTS(entry ProviderEntry) (ttsclient.Provider, error) {
	r.mu.RLock()
	factory, ok := r.tts[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: tts/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateEmbeddings instantiates an embeddings provider using the factory registered under entry.Name.
func (r *Registry) CreateEmbeddings(entry ProviderEntry) (memory.EmbeddingsProvider, error) {
	r.mu.RLock()
	factory, ok := r.embeddings[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: embeddings/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
