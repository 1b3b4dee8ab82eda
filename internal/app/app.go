// Package app wires Anglo's subsystems into a running voice assistant.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run executes the listen → transcribe → respond → speak loop,
// and Shutdown tears everything down in order.
//
// For testing, inject mock providers through the Providers struct and
// override subsystems via functional options (WithConversation,
// WithMetrics, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/easimeng/anglo/internal/capture"
	"github.com/easimeng/anglo/internal/config"
	"github.com/easimeng/anglo/internal/conversation"
	"github.com/easimeng/anglo/internal/health"
	"github.com/easimeng/anglo/internal/observe"
	"github.com/easimeng/anglo/internal/orchestrator"
	"github.com/easimeng/anglo/internal/transcript"
	"github.com/easimeng/anglo/internal/transcript/phonetic"
	"github.com/easimeng/anglo/internal/vad"
	"github.com/easimeng/anglo/internal/voice"
	"github.com/easimeng/anglo/pkg/audio"
	"github.com/easimeng/anglo/pkg/provider/llm"
	"github.com/easimeng/anglo/pkg/provider/stt"
	"github.com/easimeng/anglo/pkg/provider/tts"
	providervad "github.com/easimeng/anglo/pkg/provider/vad"
	"github.com/easimeng/anglo/pkg/types"
)

// errStreamClosed ends the conversation loop when the capture device stops
// producing frames outside of a shutdown.
var errStreamClosed = errors.New("app: audio stream closed")

// statusShutdownTimeout bounds how long the status server gets to drain
// in-flight scrapes during shutdown.
const statusShutdownTimeout = 5 * time.Second

// Providers holds one interface value per provider slot. All slots are
// required; main.go populates them via the config registry (wrapping in
// resilience fallback chains where configured) and tests pass mocks.
type Providers struct {
	LLM        llm.Provider
	STT        stt.Provider
	TTS        tts.Provider
	Classifier providervad.Classifier
	Device     audio.Device
	Player     audio.Player
}

// App owns all subsystem lifetimes and drives the Anglo conversation loop.
type App struct {
	cfg       *config.Config
	providers Providers
	logger    *slog.Logger
	metrics   *observe.Metrics

	// Subsystems, initialised in New and torn down in Shutdown.
	conv      *conversation.Manager
	corrector *transcript.Corrector
	recorder  *capture.Recorder
	orch      *orchestrator.Orchestrator
	speaker   *voice.Speaker
	status    *observe.StatusServer

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithLogger sets the logger. Default: [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithMetrics injects a metrics bundle instead of using the process-wide one.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithConversation injects a conversation manager instead of creating one
// from the config.
func WithConversation(m *conversation.Manager) Option {
	return func(a *App) { a.conv = m }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry). Use Option
// functions to inject test doubles for any subsystem.
func New(cfg *config.Config, providers Providers, opts ...Option) (*App, error) {
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if err := a.checkProviders(); err != nil {
		return nil, err
	}

	// ── 1. Conversation history ──────────────────────────────────────────
	a.initConversation()

	// ── 2. Transcript correction ─────────────────────────────────────────
	a.initCorrector()

	// ── 3. Speech detection + recorder ───────────────────────────────────
	a.initRecorder()

	// ── 4. Response orchestrator ─────────────────────────────────────────
	a.orch = orchestrator.New(providers.LLM, a.conv,
		orchestrator.WithLogger(a.logger),
		orchestrator.WithThoughtLog(cfg.Paths.ThoughtLog),
		orchestrator.WithErrorLog(cfg.Paths.ErrorLog),
	)

	// ── 5. Speaker ───────────────────────────────────────────────────────
	a.initSpeaker()

	// ── 6. Status server ─────────────────────────────────────────────────
	if cfg.StatusAddr != "" {
		a.status = observe.NewStatusServer(cfg.StatusAddr, a.metrics,
			health.DirWritable("audio_dir", cfg.Paths.AudioDir),
		)
	}

	return a, nil
}

// checkProviders rejects a Providers struct with empty slots up front, so a
// misconfigured deployment fails at startup rather than mid-conversation.
func (a *App) checkProviders() error {
	missing := ""
	switch {
	case a.providers.LLM == nil:
		missing = "llm"
	case a.providers.STT == nil:
		missing = "stt"
	case a.providers.TTS == nil:
		missing = "tts"
	case a.providers.Classifier == nil:
		missing = "vad"
	case a.providers.Device == nil:
		missing = "audio device"
	case a.providers.Player == nil:
		missing = "audio player"
	}
	if missing != "" {
		return fmt.Errorf("app: no %s provider configured", missing)
	}
	return nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

func (a *App) initConversation() {
	if a.conv == nil {
		persona := conversation.DefaultPersona
		persona.Name = a.cfg.Assistant.Name
		if a.cfg.Assistant.Owner != "" {
			persona.Owner = a.cfg.Assistant.Owner
		}
		a.conv = conversation.NewManager(
			conversation.WithPersona(persona),
			conversation.WithMaxHistory(a.cfg.Assistant.MaxHistory),
			conversation.WithHistoryFile(a.cfg.Paths.HistoryFile),
			conversation.WithLogger(a.logger),
		)
	}
	a.closers = append(a.closers, a.conv.Save)
}

func (a *App) initCorrector() {
	terms := []string{a.cfg.Assistant.Name}
	if a.cfg.Assistant.Owner != "" {
		terms = append(terms, a.cfg.Assistant.Owner)
	}
	a.corrector = transcript.NewCorrector(phonetic.NewMatcher(), terms,
		transcript.WithLogger(a.logger),
	)
}

func (a *App) initRecorder() {
	detector := vad.New(a.providers.Classifier,
		providervad.Config{
			SampleRate: a.cfg.Capture.SampleRate,
			WindowMs:   a.cfg.Capture.WindowMs,
		},
		vad.WithEnergyThreshold(a.cfg.Capture.EnergyThreshold),
		vad.WithHysteresis(a.cfg.Capture.EnterRun, a.cfg.Capture.ExitRun, a.cfg.Capture.ExitHistory),
		vad.WithLogger(a.logger),
	)
	a.recorder = capture.New(a.providers.Device, detector,
		capture.WithOutputDir(a.cfg.Paths.AudioDir),
		capture.WithLogger(a.logger),
	)

	a.closers = append(a.closers,
		a.providers.Device.Close,
		a.providers.Classifier.Close,
		a.providers.STT.Close,
	)
}

func (a *App) initSpeaker() {
	vc := a.cfg.Voice
	a.speaker = voice.NewSpeaker(a.providers.TTS, a.providers.Player,
		voice.WithVoice(voiceProfile(vc)),
		voice.WithCatalogDir(vc.CatalogDir),
		voice.WithLogger(a.logger),
	)
	a.closers = append(a.closers, a.providers.Player.Close)
}

// voiceProfile maps the voice section of the config onto a provider-facing
// profile. Delivery parameters travel as metadata so providers that do not
// understand them can ignore them.
func voiceProfile(vc config.VoiceConfig) types.VoiceProfile {
	return types.VoiceProfile{
		Name: vc.Name,
		Metadata: map[string]string{
			"speed_factor": strconv.FormatFloat(vc.SpeedFactor, 'f', -1, 64),
			"volume":       strconv.FormatFloat(vc.Volume, 'f', -1, 64),
			"pitch_shift":  strconv.FormatFloat(vc.PitchShift, 'f', -1, 64),
		},
	}
}

// ApplyConfigDiff applies the hot-reloadable parts of a config change to the
// running pipeline. Log level changes are handled by the caller, which owns
// the logger.
func (a *App) ApplyConfigDiff(d config.ConfigDiff) {
	if d.VoiceChanged {
		a.speaker.SetVoice(voiceProfile(d.NewVoice))
		a.logger.Info("voice profile updated", "voice", d.NewVoice.Name)
	}
	if d.MaxHistoryChanged {
		a.conv.SetMaxHistory(d.NewMaxHistory)
		a.logger.Info("history bound updated", "max_history", d.NewMaxHistory)
	}
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run starts the conversation loop (and the status server when configured)
// and blocks until ctx is cancelled or the capture device closes its stream.
// A closed stream returns nil; cancellation returns the context error.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if a.status != nil {
		g.Go(a.status.ListenAndServe)
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), statusShutdownTimeout)
			defer cancel()
			return a.status.Shutdown(sctx)
		})
		a.logger.Info("status server listening", "addr", a.cfg.StatusAddr)
	}

	g.Go(func() error { return a.conversationLoop(ctx) })

	a.logger.Info("anglo running",
		"assistant", a.cfg.Assistant.Name,
		"voice", a.cfg.Voice.Name,
		"offline", a.cfg.Offline,
	)

	err := g.Wait()
	if errors.Is(err, errStreamClosed) {
		return nil
	}
	return err
}

// conversationLoop runs turns back to back. Only one recording is ever in
// flight: the next one does not start until the previous turn's reply has
// been spoken.
func (a *App) conversationLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		spoke, err := a.runTurn(ctx)
		if err != nil {
			if !spoke {
				// Capture is broken; no point retrying into the same device.
				return err
			}
			a.logger.Error("conversation turn failed", "error", err)
			continue
		}
		if !spoke {
			if err := ctx.Err(); err != nil {
				return err
			}
			a.logger.Info("capture stream ended")
			return errStreamClosed
		}
	}
}

// runTurn captures one utterance and answers it. The bool result reports
// whether an utterance was captured at all; false with a nil error means the
// audio stream is gone and the loop should stop.
func (a *App) runTurn(ctx context.Context) (bool, error) {
	ctx, span := observe.StartSpan(ctx, "turn")
	defer span.End()

	a.metrics.ActiveRecordings.Add(ctx, 1)
	path, err := a.recorder.Record(ctx)
	a.metrics.ActiveRecordings.Add(ctx, -1)
	if err != nil {
		return false, fmt.Errorf("app: capture utterance: %w", err)
	}
	if path == "" {
		return false, nil
	}
	a.metrics.SpeechSegments.Add(ctx, 1)
	turnStart := time.Now()

	text, err := a.transcribe(ctx, path)
	if err != nil {
		return true, err
	}
	if text == "" {
		a.logger.Debug("utterance transcribed to nothing", "path", path)
		return true, nil
	}

	reply, status := a.respond(ctx, text)

	if err := a.speak(ctx, reply); err != nil {
		return true, err
	}

	if err := a.conv.Save(); err != nil {
		a.logger.Warn("could not persist conversation history", "error", err)
	}

	a.metrics.RecordTurn(ctx, status)
	a.metrics.TurnDuration.Record(ctx, time.Since(turnStart).Seconds())
	return true, nil
}

// transcribe runs STT on the utterance file and applies proper-noun
// correction to the result.
func (a *App) transcribe(ctx context.Context, path string) (string, error) {
	sttName := a.providers.STT.Name()

	start := time.Now()
	text, err := a.providers.STT.Transcribe(ctx, path)
	a.metrics.STTDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		a.metrics.RecordProviderError(ctx, sttName, "stt")
		return "", fmt.Errorf("app: transcribe %s: %w", path, err)
	}
	a.metrics.RecordProviderRequest(ctx, sttName, "stt", "ok")
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	// The manager reports "User" until a real name has been learned.
	if name := a.conv.UserName(); name != "" && name != "User" {
		a.corrector.AddTerm(name)
	}
	corrected, corrections := a.corrector.Correct(text)
	if len(corrections) > 0 {
		a.metrics.TranscriptCorrections.Add(ctx, int64(len(corrections)))
	}
	a.logger.Info("utterance transcribed",
		"text", corrected,
		"corrections", len(corrections),
	)
	return corrected, nil
}

// respond produces the reply for one user utterance and classifies the turn
// for metrics. The orchestrator never fails; an apology turn is detected by
// the missing assistant entry in the history.
func (a *App) respond(ctx context.Context, text string) (reply, status string) {
	start := time.Now()
	reply = a.orch.Respond(ctx, text)
	a.metrics.LLMDuration.Record(ctx, time.Since(start).Seconds())

	status = "ok"
	if last, ok := a.conv.Last(); !ok || last.Role != types.RoleAssistant {
		status = "apology"
	}
	a.metrics.RecordProviderRequest(ctx, a.providers.LLM.Name(), "llm", status)
	return reply, status
}

// speak plays the reply in the current conversation mood.
func (a *App) speak(ctx context.Context, reply string) error {
	start := time.Now()
	source, err := a.speaker.Speak(ctx, reply, string(a.conv.Mood()))
	a.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		a.metrics.RecordProviderError(ctx, a.providers.TTS.Name(), "tts")
		return fmt.Errorf("app: speak reply: %w", err)
	}
	a.metrics.RecordPlayback(ctx, source)
	return nil
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown speaks a sign-off line and tears down all subsystems in order.
// It respects the context deadline: if ctx expires before all closers
// finish, remaining closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		if ctx.Err() == nil {
			if _, err := a.speaker.Speak(ctx, a.conv.Farewell(), ""); err != nil {
				a.logger.Debug("farewell not spoken", "error", err)
			}
		}

		a.logger.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				a.logger.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				a.logger.Warn("closer error", "index", i, "error", err)
			}
		}

		a.logger.Info("shutdown complete")
	})
	return shutdownErr
}
