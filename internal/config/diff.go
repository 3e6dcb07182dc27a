package config

import "reflect"

// ConfigDiff describes what changed between two configs. Only fields that
// can be safely hot-reloaded by the [Watcher] are tracked.
type ConfigDiff struct {
	LogLevelChanged   bool
	NewLogLevel       LogLevel
	RulesPathChanged  bool
	NewRulesPath      string
	ProvidersChanged  bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Triggers.RulesPath != new.Triggers.RulesPath {
		d.RulesPathChanged = true
		d.NewRulesPath = new.Triggers.RulesPath
	}

	if !reflect.DeepEqual(old.Providers, new.Providers) {
		d.ProvidersChanged = true
	}

	return d
}
