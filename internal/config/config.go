// Package config provides the configuration schema, loader, and provider
// registry for the Anglo voice assistant.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Anglo.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	// LogLevel controls verbosity. Default: info.
	LogLevel LogLevel `yaml:"log_level"`

	// Offline switches the pipeline to local providers only; no API keys
	// are required and no network calls are made.
	Offline bool `yaml:"offline"`

	// StatusAddr is the TCP address of the metrics and health endpoint
	// (e.g., "127.0.0.1:9090"). Empty disables the status server.
	StatusAddr string `yaml:"status_addr"`

	Assistant AssistantConfig `yaml:"assistant"`
	Voice     VoiceConfig     `yaml:"voice"`
	Capture   CaptureConfig   `yaml:"capture"`
	Providers ProvidersConfig `yaml:"providers"`
	Paths     PathsConfig     `yaml:"paths"`
}

// AssistantConfig describes the assistant's identity and conversation
// behaviour.
type AssistantConfig struct {
	// Name is the assistant's spoken name. Default: "Anglo".
	Name string `yaml:"name"`

	// Owner is the user the assistant addresses by default.
	Owner string `yaml:"owner"`

	// Language is the BCP-47 tag used for speech recognition.
	// Default: "en-US".
	Language string `yaml:"language"`

	// MaxHistory is the number of conversation exchanges kept in memory.
	// Default: 15.
	MaxHistory int `yaml:"max_history"`
}

// VoiceConfig specifies the synthesis voice and its delivery parameters.
type VoiceConfig struct {
	// Name is the provider-side voice name or ID. Default: "Adam".
	Name string `yaml:"name"`

	// SpeedFactor adjusts speaking rate in the range [0.5, 2.0].
	// Default: 1.0.
	SpeedFactor float64 `yaml:"speed_factor"`

	// Volume is playback volume in the range [0.0, 1.0]. Default: 1.0.
	Volume float64 `yaml:"volume"`

	// PitchShift adjusts pitch in the range [-10, +10]. 0 means default.
	PitchShift float64 `yaml:"pitch_shift"`

	// CatalogDir is the directory holding pre-recorded response audio.
	// Empty disables catalog playback.
	CatalogDir string `yaml:"catalog_dir"`
}

// CaptureConfig tunes audio capture and speech detection.
type CaptureConfig struct {
	// SampleRate is the capture sample rate in Hz. Default: 16000.
	SampleRate int `yaml:"sample_rate"`

	// WindowMs is the analysis window in milliseconds (10, 20, or 30).
	// Default: 30.
	WindowMs int `yaml:"window_ms"`

	// EnergyThreshold is the mean absolute amplitude above which a window
	// counts as speech when the classifier backend is degraded.
	// Default: 0.01.
	EnergyThreshold float64 `yaml:"energy_threshold"`

	// EnterRun is the number of consecutive speech windows required to
	// open a segment. Default: 3.
	EnterRun int `yaml:"enter_run"`

	// ExitRun is the number of trailing silent windows required to close
	// a segment. Default: 3.
	ExitRun int `yaml:"exit_run"`

	// ExitHistory is the number of recent windows inspected when closing
	// a segment. Must be at least ExitRun. Default: 5.
	ExitHistory int `yaml:"exit_history"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each entry selects a named factory registered in the
// [Registry].
type ProvidersConfig struct {
	LLM ProviderEntry `yaml:"llm"`
	STT ProviderEntry `yaml:"stt"`
	TTS ProviderEntry `yaml:"tts"`
	VAD ProviderEntry `yaml:"vad"`
}

// ProviderEntry is the common configuration block shared by all provider
// types.
type ProviderEntry struct {
	// Name selects the registered provider implementation
	// (e.g., "openai", "elevenlabs").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	// When empty it is resolved from the provider's environment variable
	// at load time.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider
	// (e.g., "gpt-4o-mini", "whisper-1").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above.
	Options map[string]any `yaml:"options"`
}

// PathsConfig holds filesystem locations for conversation artifacts.
type PathsConfig struct {
	// HistoryFile is where conversation history is persisted as JSON.
	// Default: "data/conversation_history.json".
	HistoryFile string `yaml:"history_file"`

	// ThoughtLog receives the assistant's hidden reasoning lines.
	// Default: "data/anglo_thoughts.log".
	ThoughtLog string `yaml:"thought_log"`

	// ErrorLog receives structured records of failed turns.
	// Default: "data/anglo_errors.log".
	ErrorLog string `yaml:"error_log"`

	// AudioDir is where recorded utterance WAV files are written.
	// Default: "data/audio".
	AudioDir string `yaml:"audio_dir"`
}

// applyDefaults fills zero-valued fields with their documented defaults.
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = LogInfo
	}
	if cfg.Assistant.Name == "" {
		cfg.Assistant.Name = "Anglo"
	}
	if cfg.Assistant.Language == "" {
		cfg.Assistant.Language = "en-US"
	}
	if cfg.Assistant.MaxHistory == 0 {
		cfg.Assistant.MaxHistory = 15
	}
	if cfg.Voice.Name == "" {
		cfg.Voice.Name = "Adam"
	}
	if cfg.Voice.SpeedFactor == 0 {
		cfg.Voice.SpeedFactor = 1.0
	}
	if cfg.Voice.Volume == 0 {
		cfg.Voice.Volume = 1.0
	}
	if cfg.Capture.SampleRate == 0 {
		cfg.Capture.SampleRate = 16000
	}
	if cfg.Capture.WindowMs == 0 {
		cfg.Capture.WindowMs = 30
	}
	if cfg.Capture.EnergyThreshold == 0 {
		cfg.Capture.EnergyThreshold = 0.01
	}
	if cfg.Capture.EnterRun == 0 {
		cfg.Capture.EnterRun = 3
	}
	if cfg.Capture.ExitRun == 0 {
		cfg.Capture.ExitRun = 3
	}
	if cfg.Capture.ExitHistory == 0 {
		cfg.Capture.ExitHistory = 5
	}
	if cfg.Paths.HistoryFile == "" {
		cfg.Paths.HistoryFile = "data/conversation_history.json"
	}
	if cfg.Paths.ThoughtLog == "" {
		cfg.Paths.ThoughtLog = "data/anglo_thoughts.log"
	}
	if cfg.Paths.ErrorLog == "" {
		cfg.Paths.ErrorLog = "data/anglo_errors.log"
	}
	if cfg.Paths.AudioDir == "" {
		cfg.Paths.AudioDir = "data/audio"
	}
}
