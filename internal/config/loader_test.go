package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/easimeng/anglo/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %q: %v", path, err)
	}
}

func TestLoad_FromFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "anglo.yaml")
	writeFile(t, path, validYAML)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Offline {
		t.Error("Offline = false, want true")
	}
	if cfg.Providers.LLM.Name != "ollama" {
		t.Errorf("Providers.LLM.Name = %q, want ollama", cfg.Providers.LLM.Name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
	if !strings.Contains(err.Error(), "open") {
		t.Errorf("error should mention open, got: %v", err)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "anglo.yaml")
	writeFile(t, path, "assistant: [unclosed")

	if _, err := config.Load(path); err == nil {
		t.Fatal("expected error for malformed yaml, got nil")
	}
}
