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

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm": {"openai", "anthropic", "gemini", "deepseek", "mistral", "groq", "ollama", "llamacpp"},
	"stt": {"whisper", "whisper-native"},
	"tts": {"elevenlabs", "local"},
	"vad": {"rms"},
}

// envKeys maps provider names to the environment variable their API key is
// read from when the config leaves it empty.
var envKeys = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"gemini":     "GEMINI_API_KEY",
	"deepseek":   "DEEPSEEK_API_KEY",
	"mistral":    "MISTRAL_API_KEY",
	"groq":       "GROQ_API_KEY",
	"whisper":    "OPENAI_API_KEY",
	"elevenlabs": "ELEVENLABS_API_KEY",
}

// keyRequired lists provider names that cannot operate without an API key.
var keyRequired = map[string]bool{
	"openai":     true,
	"anthropic":  true,
	"gemini":     true,
	"deepseek":   true,
	"mistral":    true,
	"groq":       true,
	"whisper":    true,
	"elevenlabs": true,
}

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied and API keys resolved from the environment.
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

// LoadFromReader decodes a YAML config from r, applies defaults, resolves
// API keys from the environment, and validates the result. Useful in tests
// where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	resolveAPIKeys(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveAPIKeys fills empty provider API keys from the environment.
func resolveAPIKeys(cfg *Config) {
	for _, entry := range []*ProviderEntry{
		&cfg.Providers.LLM,
		&cfg.Providers.STT,
		&cfg.Providers.TTS,
	} {
		if entry.APIKey != "" {
			continue
		}
		if env, ok := envKeys[entry.Name]; ok {
			entry.APIKey = os.Getenv(env)
		}
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	// Identity.
	if cfg.Assistant.MaxHistory < 1 {
		errs = append(errs, fmt.Errorf("assistant.max_history %d must be at least 1", cfg.Assistant.MaxHistory))
	}

	// Voice delivery ranges.
	if cfg.Voice.SpeedFactor < 0.5 || cfg.Voice.SpeedFactor > 2.0 {
		errs = append(errs, fmt.Errorf("voice.speed_factor %.2f is out of range [0.5, 2.0]", cfg.Voice.SpeedFactor))
	}
	if cfg.Voice.Volume < 0 || cfg.Voice.Volume > 1 {
		errs = append(errs, fmt.Errorf("voice.volume %.2f is out of range [0.0, 1.0]", cfg.Voice.Volume))
	}
	if cfg.Voice.PitchShift < -10 || cfg.Voice.PitchShift > 10 {
		errs = append(errs, fmt.Errorf("voice.pitch_shift %.2f is out of range [-10, 10]", cfg.Voice.PitchShift))
	}

	// Capture tuning.
	if cfg.Capture.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("capture.sample_rate %d must be positive", cfg.Capture.SampleRate))
	}
	switch cfg.Capture.WindowMs {
	case 10, 20, 30:
	default:
		errs = append(errs, fmt.Errorf("capture.window_ms %d is invalid; valid values: 10, 20, 30", cfg.Capture.WindowMs))
	}
	if cfg.Capture.EnterRun < 1 {
		errs = append(errs, fmt.Errorf("capture.enter_run %d must be at least 1", cfg.Capture.EnterRun))
	}
	if cfg.Capture.ExitRun < 1 {
		errs = append(errs, fmt.Errorf("capture.exit_run %d must be at least 1", cfg.Capture.ExitRun))
	}
	if cfg.Capture.ExitHistory < cfg.Capture.ExitRun {
		errs = append(errs, fmt.Errorf("capture.exit_history %d must be at least exit_run (%d)", cfg.Capture.ExitHistory, cfg.Capture.ExitRun))
	}

	// Provider name validation warns for unknown names.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)
	validateProviderName("vad", cfg.Providers.VAD.Name)

	// Credentials are fatal at startup unless running offline.
	if !cfg.Offline {
		for kind, entry := range map[string]ProviderEntry{
			"llm": cfg.Providers.LLM,
			"stt": cfg.Providers.STT,
			"tts": cfg.Providers.TTS,
		} {
			if keyRequired[entry.Name] && entry.APIKey == "" {
				env := envKeys[entry.Name]
				errs = append(errs, fmt.Errorf("providers.%s: provider %q requires an API key; set providers.%s.api_key or the %s environment variable", kind, entry.Name, kind, env))
			}
		}
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
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
