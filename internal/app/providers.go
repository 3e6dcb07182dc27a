package app

import (
	"fmt"

	"github.com/salesagent/runtime/internal/config"
	"github.com/salesagent/runtime/internal/llm"
	"github.com/salesagent/runtime/internal/voice/recognizer"
	"github.com/salesagent/runtime/internal/voice/ttsclient"
	"github.com/salesagent/runtime/pkg/memory"
	"github.com/salesagent/runtime/pkg/provider/embeddings/ollama"
	"github.com/salesagent/runtime/pkg/provider/embeddings/openai"
)

// RegisterBuiltinProviders registers every provider implementation this
// module ships under the name a [config.Config] selects it by.
func RegisterBuiltinProviders(reg *config.Registry) {
	reg.RegisterLLM("openai", func(e config.ProviderEntry) (llm.Provider, error) {
		return llm.NewOpenAI(e.APIKey, e.Model)
	})
	reg.RegisterLLM("anyllm", func(e config.ProviderEntry) (llm.Provider, error) {
		backend, _ := e.Options["backend"].(string)
		if backend == "" {
			return nil, fmt.Errorf("config: anyllm provider requires options.backend")
		}
		return llm.NewAnyLLM(backend, e.Model)
	})

	reg.RegisterSTT("deepgram", func(e config.ProviderEntry) (recognizer.Provider, error) {
		return recognizer.NewDeepgram(e.APIKey)
	})
	reg.RegisterSTT("whisper", func(e config.ProviderEntry) (recognizer.Provider, error) {
		return recognizer.NewWhisper(e.BaseURL)
	})

	reg.RegisterTTS("elevenlabs", func(e config.ProviderEntry) (ttsclient.Provider, error) {
		return ttsclient.NewElevenLabs(e.APIKey)
	})
	reg.RegisterTTS("coqui", func(e config.ProviderEntry) (ttsclient.Provider, error) {
		return ttsclient.NewCoqui(e.BaseURL)
	})

	reg.RegisterEmbeddings("openai", func(e config.ProviderEntry) (memory.EmbeddingsProvider, error) {
		return openai.New(e.APIKey, e.Model)
	})
	reg.RegisterEmbeddings("ollama", func(e config.ProviderEntry) (memory.EmbeddingsProvider, error) {
		return ollama.New(e.BaseURL, e.Model)
	})
}
