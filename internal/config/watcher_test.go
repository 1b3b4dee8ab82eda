package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/easimeng/anglo/internal/config"
)

const watcherValidYAML = `
offline: true
log_level: info
assistant:
  name: Anglo
`

const watcherUpdatedYAML = `
offline: true
log_level: debug
assistant:
  name: Anglo
`

const watcherInvalidYAML = `
offline: true
log_level: bananas
`

// touch bumps the file's mtime far enough that the watcher's quick check
// notices a change.
func touch(t *testing.T, path string) {
	t.Helper()
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
}

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "anglo.yaml")
	writeFile(t, path, watcherValidYAML)

	w, err := config.NewWatcher(path, nil, config.WithInterval(time.Hour))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if got := w.Current().LogLevel; got != config.LogInfo {
		t.Errorf("Current().LogLevel = %q, want info", got)
	}
}

func TestWatcher_InitialLoadFails(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "anglo.yaml")
	writeFile(t, path, watcherInvalidYAML)

	if _, err := config.NewWatcher(path, nil); err == nil {
		t.Fatal("expected error for invalid initial config, got nil")
	}
}

func TestWatcher_DetectsChange(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "anglo.yaml")
	writeFile(t, path, watcherValidYAML)

	var (
		mu      sync.Mutex
		changed bool
		gotNew  *config.Config
	)
	onChange := func(old, new *config.Config) {
		mu.Lock()
		defer mu.Unlock()
		changed = true
		gotNew = new
	}

	w, err := config.NewWatcher(path, onChange, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	writeFile(t, path, watcherUpdatedYAML)
	touch(t, path)

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		done := changed
		mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatal("watcher did not report the change in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if gotNew.LogLevel != config.LogDebug {
		t.Errorf("onChange new config LogLevel = %q, want debug", gotNew.LogLevel)
	}
	if w.Current().LogLevel != config.LogDebug {
		t.Errorf("Current() not updated after change")
	}
}

func TestWatcher_KeepsOldConfigOnInvalidUpdate(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "anglo.yaml")
	writeFile(t, path, watcherValidYAML)

	w, err := config.NewWatcher(path, func(old, new *config.Config) {
		t.Error("onChange should not fire for an invalid config")
	}, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	writeFile(t, path, watcherInvalidYAML)
	touch(t, path)

	// Give the watcher a few polling cycles to (wrongly) pick it up.
	time.Sleep(200 * time.Millisecond)

	if got := w.Current().LogLevel; got != config.LogInfo {
		t.Errorf("Current().LogLevel = %q, want the old value info", got)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "anglo.yaml")
	writeFile(t, path, watcherValidYAML)

	w, err := config.NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.Stop()
	w.Stop()
}
