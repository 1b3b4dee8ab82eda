// Command anglo is the main entry point for the Anglo voice assistant.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/easimeng/anglo/internal/app"
	"github.com/easimeng/anglo/internal/config"
	"github.com/easimeng/anglo/internal/observe"
	"github.com/easimeng/anglo/internal/resilience"
	"github.com/easimeng/anglo/pkg/audio/alsa"
	"github.com/easimeng/anglo/pkg/provider/llm"
	"github.com/easimeng/anglo/pkg/provider/llm/anyllm"
	"github.com/easimeng/anglo/pkg/provider/llm/openai"
	"github.com/easimeng/anglo/pkg/provider/stt"
	"github.com/easimeng/anglo/pkg/provider/stt/whisper"
	"github.com/easimeng/anglo/pkg/provider/tts"
	"github.com/easimeng/anglo/pkg/provider/tts/elevenlabs"
	"github.com/easimeng/anglo/pkg/provider/tts/local"
	providervad "github.com/easimeng/anglo/pkg/provider/vad"
	"github.com/easimeng/anglo/pkg/provider/vad/rms"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "anglo: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "anglo: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger, logLevel := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	slog.Info("anglo starting",
		"config", *configPath,
		"assistant", cfg.Assistant.Name,
		"log_level", cfg.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "anglo",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg, cfg)

	// ── Instantiate providers ─────────────────────────────────────────────────
	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	application, err := app.New(cfg, providers, app.WithLogger(logger))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	// ── Config hot-reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		diff := config.Diff(old, new)
		if diff.Empty() {
			return
		}
		if diff.LogLevelChanged {
			logLevel.Set(slogLevel(diff.NewLogLevel))
			slog.Info("log level updated", "level", diff.NewLogLevel)
		}
		application.ApplyConfigDiff(diff)
	})
	if err != nil {
		slog.Warn("config hot-reload disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	slog.Info("assistant ready — press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("stopping…")

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// builtinProviders maps provider category names to the implementations that
// ship with Anglo. Used for startup logging.
var builtinProviders = map[string][]string{
	"llm": {"openai", "anthropic", "ollama", "llamacpp", "gemini", "deepseek", "mistral", "groq"},
	"stt": {"whisper", "whisper-native"},
	"tts": {"elevenlabs", "local"},
	"vad": {"rms"},
}

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the appropriate
// provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry, cfg *config.Config) {
	// ── LLM ───────────────────────────────────────────────────────────────────

	// openai goes through the official SDK rather than the any-llm shim so
	// request options like organisation headers stay available.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	// anthropic, gemini, deepseek, mistral and groq all share the same
	// pattern: optional APIKey + optional BaseURL.
	for _, providerName := range []string{"anthropic", "gemini", "deepseek", "mistral", "groq"} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama and llamacpp are local servers; they use BaseURL for the
	// address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.NewOllama(entry.Model, opts...)
	})
	reg.RegisterLLM("llamacpp", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.NewLlamaCpp(entry.Model, opts...)
	})

	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.RemoteOption
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, whisper.WithBaseURL(entry.BaseURL))
		}
		if lang, ok := entry.StringOption("language"); ok {
			opts = append(opts, whisper.WithLanguage(lang))
		} else if cfg.Assistant.Language != "" {
			// Whisper wants the bare ISO-639-1 code, not the full BCP-47 tag.
			lang, _, _ := strings.Cut(cfg.Assistant.Language, "-")
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.NewRemote(entry.APIKey, opts...), nil
	})

	reg.RegisterSTT("whisper-native", func(entry config.ProviderEntry) (stt.Provider, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath, _ = entry.StringOption("model_path")
		}
		var opts []whisper.NativeOption
		if lang, ok := entry.StringOption("language"); ok {
			opts = append(opts, whisper.WithNativeLanguage(lang))
		}
		return whisper.NewNative(modelPath, opts...)
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})

	reg.RegisterTTS("local", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []local.Option
		if binary, ok := entry.StringOption("binary"); ok {
			opts = append(opts, local.WithBinary(binary))
		}
		if voice, ok := entry.StringOption("voice"); ok {
			opts = append(opts, local.WithVoice(voice))
		}
		return local.New(opts...)
	})

	// ── VAD ───────────────────────────────────────────────────────────────────

	reg.RegisterVAD("rms", func(entry config.ProviderEntry) (providervad.Classifier, error) {
		return rms.New(providervad.Config{
			SampleRate: cfg.Capture.SampleRate,
			WindowMs:   cfg.Capture.WindowMs,
		})
	})

	// Debug log of all registered providers.
	for kind, names := range builtinProviders {
		for _, name := range names {
			slog.Debug("registered provider", "kind", kind, "name", name)
		}
	}
}

// buildProviders instantiates all providers named in cfg using the registry,
// wraps the remote ones in their fallback chains, and opens the audio
// endpoints. The returned struct is complete; app.New rejects empty slots.
func buildProviders(cfg *config.Config, reg *config.Registry) (app.Providers, error) {
	var ps app.Providers

	if cfg.Offline {
		applyOfflineProviders(cfg)
	}

	llmProvider, err := reg.CreateLLM(cfg.Providers.LLM)
	if err != nil {
		return ps, fmt.Errorf("create llm provider %q: %w", cfg.Providers.LLM.Name, err)
	}
	ps.LLM = withLLMFallback(cfg, llmProvider)
	slog.Info("provider created", "kind", "llm", "name", cfg.Providers.LLM.Name)

	sttProvider, err := reg.CreateSTT(cfg.Providers.STT)
	if err != nil {
		return ps, fmt.Errorf("create stt provider %q: %w", cfg.Providers.STT.Name, err)
	}
	ps.STT = withSTTFallback(cfg, sttProvider)
	slog.Info("provider created", "kind", "stt", "name", cfg.Providers.STT.Name)

	ttsProvider, err := reg.CreateTTS(cfg.Providers.TTS)
	if err != nil {
		return ps, fmt.Errorf("create tts provider %q: %w", cfg.Providers.TTS.Name, err)
	}
	ps.TTS = withTTSFallback(cfg, ttsProvider)
	slog.Info("provider created", "kind", "tts", "name", cfg.Providers.TTS.Name)

	classifier, err := reg.CreateVAD(cfg.Providers.VAD)
	if err != nil {
		return ps, fmt.Errorf("create vad provider %q: %w", cfg.Providers.VAD.Name, err)
	}
	ps.Classifier = classifier
	slog.Info("provider created", "kind", "vad", "name", cfg.Providers.VAD.Name)

	device, err := alsa.NewDevice(
		alsa.WithSampleRate(cfg.Capture.SampleRate),
		alsa.WithWindowMs(cfg.Capture.WindowMs),
	)
	if err != nil {
		return ps, fmt.Errorf("open capture device: %w", err)
	}
	ps.Device = device

	player, err := alsa.NewPlayer()
	if err != nil {
		return ps, fmt.Errorf("open playback device: %w", err)
	}
	ps.Player = player

	return ps, nil
}

// applyOfflineProviders rewrites the provider selection so nothing reaches a
// remote API. Entries that already name a local implementation are left
// alone.
func applyOfflineProviders(cfg *config.Config) {
	p := &cfg.Providers
	if p.LLM.Name != "ollama" && p.LLM.Name != "llamacpp" {
		slog.Info("offline mode: using local llm", "instead_of", p.LLM.Name)
		p.LLM.Name = "ollama"
	}
	if p.STT.Name != "whisper-native" {
		slog.Info("offline mode: using local stt", "instead_of", p.STT.Name)
		// A remote entry's Model is an API model name, not a file; the
		// native engine loads the configured fallback model instead.
		p.STT.Model, _ = p.STT.StringOption("fallback_model_path")
		p.STT.Name = "whisper-native"
	}
	if p.TTS.Name != "local" {
		slog.Info("offline mode: using local tts", "instead_of", p.TTS.Name)
		p.TTS.Name = "local"
	}
}

// withLLMFallback chains a local ollama backend behind the configured
// completion provider when a fallback model is present.
func withLLMFallback(cfg *config.Config, primary llm.Provider) llm.Provider {
	model, ok := cfg.Providers.LLM.StringOption("fallback_model")
	if !ok || cfg.Providers.LLM.Name == "ollama" {
		return primary
	}
	local, err := anyllm.NewOllama(model)
	if err != nil {
		slog.Warn("ollama fallback unavailable", "model", model, "err", err)
		return primary
	}
	fb := resilience.NewLLMFallback(primary, primary.Name(), resilience.FallbackConfig{})
	fb.AddFallback("ollama", local)
	slog.Info("llm fallback chained", "fallback", "ollama", "model", model)
	return fb
}

// withSTTFallback chains a native whisper engine behind the configured
// transcriber when a fallback model path is present.
func withSTTFallback(cfg *config.Config, primary stt.Provider) stt.Provider {
	modelPath, ok := cfg.Providers.STT.StringOption("fallback_model_path")
	if !ok || cfg.Providers.STT.Name == "whisper-native" {
		return primary
	}
	native, err := whisper.NewNative(modelPath)
	if err != nil {
		slog.Warn("native whisper fallback unavailable", "model", modelPath, "err", err)
		return primary
	}
	fb := resilience.NewSTTFallback(primary, primary.Name(), resilience.FallbackConfig{})
	fb.AddFallback("whisper-native", native)
	slog.Info("stt fallback chained", "fallback", "whisper-native", "model", modelPath)
	return fb
}

// withTTSFallback chains the offline espeak engine behind the configured
// synthesiser so a network outage degrades voice quality instead of muting
// the assistant.
func withTTSFallback(cfg *config.Config, primary tts.Provider) tts.Provider {
	if cfg.Providers.TTS.Name == "local" {
		return primary
	}
	engine, err := local.New()
	if err != nil {
		slog.Debug("offline synthesiser unavailable, no tts fallback", "err", err)
		return primary
	}
	fb := resilience.NewTTSFallback(primary, primary.Name(), resilience.FallbackConfig{})
	fb.AddFallback("local", engine)
	slog.Info("tts fallback chained", "fallback", "local")
	return fb
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║          Anglo — startup summary      ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("LLM", cfg.Providers.LLM.Name, cfg.Providers.LLM.Model)
	printProvider("STT", cfg.Providers.STT.Name, cfg.Providers.STT.Model)
	printProvider("TTS", cfg.Providers.TTS.Name, cfg.Providers.TTS.Model)
	printProvider("VAD", cfg.Providers.VAD.Name, "")
	fmt.Printf("║  Assistant    : %-21s ║\n", cfg.Assistant.Name)
	fmt.Printf("║  Voice        : %-21s ║\n", cfg.Voice.Name)
	if cfg.Offline {
		fmt.Printf("║  Mode         : %-21s ║\n", "offline")
	} else {
		fmt.Printf("║  Mode         : %-21s ║\n", "online")
	}
	if cfg.StatusAddr != "" {
		fmt.Printf("║  Status addr  : %-21s ║\n", cfg.StatusAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 21 {
		value = value[:18] + "…"
	}
	fmt.Printf("║  %-10s   : %-21s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

// newLogger builds the process logger. The returned LevelVar lets the config
// watcher raise or lower verbosity without restarting.
func newLogger(level config.LogLevel) (*slog.Logger, *slog.LevelVar) {
	lvl := new(slog.LevelVar)
	lvl.Set(slogLevel(level))
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), lvl
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
