package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely applied without a restart are tracked;
// provider and capture changes require relaunching the pipeline.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// VoiceChanged is true when the synthesis voice or any delivery
	// parameter (speed, volume, pitch) changed.
	VoiceChanged bool
	NewVoice     VoiceConfig

	MaxHistoryChanged bool
	NewMaxHistory     int
}

// Empty reports whether nothing hot-reloadable changed.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.VoiceChanged && !d.MaxHistoryChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.LogLevel != new.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.LogLevel
	}

	if old.Voice != new.Voice {
		d.VoiceChanged = true
		d.NewVoice = new.Voice
	}

	if old.Assistant.MaxHistory != new.Assistant.MaxHistory {
		d.MaxHistoryChanged = true
		d.NewMaxHistory = new.Assistant.MaxHistory
	}

	return d
}
