package config_test

import (
	"testing"

	"github.com/salesagent/runtime/internal/config"
)

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		Server:   config.ServerConfig{LogLevel: config.LogInfo},
		Triggers: config.TriggersConfig{RulesPath: "triggers.yaml"},
		Providers: config.ProvidersConfig{
			LLM: config.ProviderEntry{Name: "openai"},
		},
	}
	d := config.Diff(cfg, cfg)
	if d.LogLevelChanged {
		t.Error("expected LogLevelChanged=false for identical configs")
	}
	if d.RulesPathChanged {
		t.Error("expected RulesPathChanged=false for identical configs")
	}
	if d.ProvidersChanged {
		t.Error("expected ProvidersChanged=false for identical configs")
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Server: config.ServerConfig{LogLevel: config.LogInfo}}
	updated := &config.Config{Server: config.ServerConfig{LogLevel: config.LogDebug}}

	d := config.Diff(old, updated)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("expected NewLogLevel=debug, got %q", d.NewLogLevel)
	}
}

func TestDiff_RulesPathChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Triggers: config.TriggersConfig{RulesPath: "old.yaml"}}
	updated := &config.Config{Triggers: config.TriggersConfig{RulesPath: "new.yaml"}}

	d := config.Diff(old, updated)
	if !d.RulesPathChanged {
		t.Error("expected RulesPathChanged=true")
	}
	if d.NewRulesPath != "new.yaml" {
		t.Errorf("expected NewRulesPath=new.yaml, got %q", d.NewRulesPath)
	}
}

func TestDiff_ProvidersChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Providers: config.ProvidersConfig{
		LLM: config.ProviderEntry{Name: "openai", Options: map[string]any{"temperature": 0.7}},
	}}
	updated := &config.Config{Providers: config.ProvidersConfig{
		LLM: config.ProviderEntry{Name: "anthropic", Options: map[string]any{"temperature": 0.7}},
	}}

	d := config.Diff(old, updated)
	if !d.ProvidersChanged {
		t.Error("expected ProvidersChanged=true")
	}
}

func TestDiff_ProvidersUnchangedWithEqualOptionsMaps(t *testing.T) {
	t.Parallel()
	old := &config.Config{Providers: config.ProvidersConfig{
		LLM: config.ProviderEntry{Name: "openai", Options: map[string]any{"temperature": 0.7}},
	}}
	updated := &config.Config{Providers: config.ProvidersConfig{
		LLM: config.ProviderEntry{Name: "openai", Options: map[string]any{"temperature": 0.7}},
	}}

	d := config.Diff(old, updated)
	if d.ProvidersChanged {
		t.Error("expected ProvidersChanged=false when map contents are equal")
	}
}
