package config_test

import (
	"strings"
	"testing"

	"github.com/easimeng/anglo/internal/config"
)

func mustLoad(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	return cfg
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	a := mustLoad(t, validYAML)
	b := mustLoad(t, validYAML)

	d := config.Diff(a, b)
	if !d.Empty() {
		t.Errorf("Diff of identical configs = %+v, want empty", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	t.Parallel()
	a := mustLoad(t, validYAML)
	b := mustLoad(t, "log_level: debug\n"+validYAML[1:])

	d := config.Diff(a, b)
	if !d.LogLevelChanged {
		t.Fatal("LogLevelChanged = false, want true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("NewLogLevel = %q, want debug", d.NewLogLevel)
	}
	if d.Empty() {
		t.Error("Empty() = true for a changed config")
	}
}

func TestDiff_Voice(t *testing.T) {
	t.Parallel()
	a := mustLoad(t, validYAML)
	b := mustLoad(t, validYAML+"voice:\n  name: Rachel\n  volume: 0.7\n")

	d := config.Diff(a, b)
	if !d.VoiceChanged {
		t.Fatal("VoiceChanged = false, want true")
	}
	if d.NewVoice.Name != "Rachel" || d.NewVoice.Volume != 0.7 {
		t.Errorf("NewVoice = %+v, want Rachel at volume 0.7", d.NewVoice)
	}
}

func TestDiff_MaxHistory(t *testing.T) {
	t.Parallel()
	a := mustLoad(t, validYAML)
	b := mustLoad(t, validYAML+"assistant:\n  max_history: 40\n")

	d := config.Diff(a, b)
	if !d.MaxHistoryChanged {
		t.Fatal("MaxHistoryChanged = false, want true")
	}
	if d.NewMaxHistory != 40 {
		t.Errorf("NewMaxHistory = %d, want 40", d.NewMaxHistory)
	}
}

func TestDiff_IgnoresProviderChanges(t *testing.T) {
	t.Parallel()
	a := mustLoad(t, validYAML)
	b := mustLoad(t, strings.Replace(validYAML, "llama3", "mistral", 1))

	if d := config.Diff(a, b); !d.Empty() {
		t.Errorf("provider model change should not be hot-reloadable, got %+v", d)
	}
}
