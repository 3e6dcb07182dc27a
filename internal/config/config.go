// Package config provides the configuration schema, loader, and provider
// registry for the sales-agent embed runtime. The schema mirrors the embed
// contract of spec.md §6 (init(config)) plus the ambient server/provider
// settings a standalone Go service needs to run it.
package config

import "time"

// Config is the root configuration for the embed runtime service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Session   SessionConfig   `yaml:"session"`
	Memory    MemoryConfig    `yaml:"memory"`
	Triggers  TriggersConfig  `yaml:"triggers"`
}

// ServerConfig holds network and logging settings for the embed service.
type ServerConfig struct {
	// ListenAddr is the TCP address the embed WebSocket endpoint listens on.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Valid values: "debug", "info", "warn", "error".
	LogLevel LogLevel `yaml:"log_level"`
}

// LogLevel is a validated server log level.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is one of the recognised log levels.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// ProvidersConfig declares which provider implementation to use for each
// external collaborator. Each field selects a named provider registered in
// the [Registry].
type ProvidersConfig struct {
	LLM ProviderEntry `yaml:"llm"`
	TTS ProviderEntry `yaml:"tts"`
	STT ProviderEntry `yaml:"stt"`
}

// ProviderEntry is the common configuration block shared by all provider types.
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g. "openai",
	// "elevenlabs", "deepgram", "whisper").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API. Corresponds
	// to the embed contract's llmApiKey / ttsApiKey (spec §6).
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider.
	Model string `yaml:"model"`

	// VoiceID selects a specific TTS voice (embed contract's ttsVoiceId).
	VoiceID string `yaml:"voice_id"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above.
	Options map[string]any `yaml:"options"`

	// Fallbacks lists secondary providers to fail over to, in order, once
	// the primary's circuit breaker opens after repeated transport errors.
	// Each entry is built with the same registered factory as the primary
	// (selected by its own Name) and wired in behind it.
	Fallbacks []ProviderEntry `yaml:"fallbacks"`
}

// SessionConfig controls per-tab session behavior (embed contract knobs
// silenceThresholdMs / historyMax, plus extraction/cache tuning).
type SessionConfig struct {
	// SilenceThreshold is how long the voice runtime waits after a final STT
	// segment before treating the turn as complete. Default 800ms.
	SilenceThreshold time.Duration `yaml:"silence_threshold_ms"`

	// HistoryMax caps ConversationHistory. Default 20 (spec §3).
	HistoryMax int `yaml:"history_max"`

	// PageContextTTL is the Content Cache TTL. Default 5 minutes.
	PageContextTTL time.Duration `yaml:"page_context_ttl"`

	// ExtractionBudget is the soft time budget for one DOM extraction pass.
	// Default 200ms.
	ExtractionBudget time.Duration `yaml:"extraction_budget_ms"`

	// ContextWindowTokens is the LLM provider's context window size, used by
	// the conversation context manager to decide when to summarise older
	// turns. Default 8000.
	ContextWindowTokens int `yaml:"context_window_tokens"`
}

// DefaultSessionConfig returns the spec-mandated defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		SilenceThreshold:    800 * time.Millisecond,
		HistoryMax:          20,
		PageContextTTL:      5 * time.Minute,
		ExtractionBudget:    200 * time.Millisecond,
		ContextWindowTokens: 8000,
	}
}

// MemoryConfig holds settings for the optional long-term memory backend.
type MemoryConfig struct {
	// PostgresDSN is the PostgreSQL connection string for the pgvector-backed
	// conversation/profile store. Empty means use the in-memory default.
	PostgresDSN string `yaml:"postgres_dsn"`

	// EmbeddingDimensions is the vector dimension used for FAQ/feature
	// semantic search. Must match the configured embeddings model.
	EmbeddingDimensions int `yaml:"embedding_dimensions"`
}

// TriggersConfig points at the engagement-trigger rule table file. [Watcher]
// does not reload it; cmd/salesagent loads it and watches it separately. Left unset, Engagement Triggers ships with an
// empty rule table, per spec.md's Open Question ("all disabled").
type TriggersConfig struct {
	RulesPath string `yaml:"rules_path"`
}
