package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind. Used by
// [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm": {"openai", "anyllm"},
	"tts": {"elevenlabs", "coqui"},
	"stt": {"deepgram", "whisper"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in zero-valued session knobs with the spec-mandated
// defaults. A partially-specified session block (e.g. only SilenceThreshold
// set) keeps the caller's explicit values.
func applyDefaults(cfg *Config) {
	d := DefaultSessionConfig()
	if cfg.Session.SilenceThreshold == 0 {
		cfg.Session.SilenceThreshold = d.SilenceThreshold
	}
	if cfg.Session.HistoryMax == 0 {
		cfg.Session.HistoryMax = d.HistoryMax
	}
	if cfg.Session.PageContextTTL == 0 {
		cfg.Session.PageContextTTL = d.PageContextTTL
	}
	if cfg.Session.ExtractionBudget == 0 {
		cfg.Session.ExtractionBudget = d.ExtractionBudget
	}
	if cfg.Session.ContextWindowTokens == 0 {
		cfg.Session.ContextWindowTokens = d.ContextWindowTokens
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)

	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; the conversational path will not be able to generate responses")
	}
	if cfg.Providers.TTS.Name == "" {
		slog.Warn("no TTS provider configured; voice mode cannot start (there is no browser-synthesis fallback)")
	}

	if cfg.Memory.PostgresDSN != "" && cfg.Memory.EmbeddingDimensions <= 0 {
		slog.Warn("memory.postgres_dsn is set but memory.embedding_dimensions is not; defaulting to 1536")
		cfg.Memory.EmbeddingDimensions = 1536
	}

	if cfg.Session.HistoryMax <= 0 {
		errs = append(errs, fmt.Errorf("session.history_max must be positive, got %d", cfg.Session.HistoryMax))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind, "name", name, "known", known)
}
