package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"murmur/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.AI.Mode != config.ModeMock {
		t.Fatalf("expected default ai mode %q, got %q", config.ModeMock, cfg.AI.Mode)
	}
	if cfg.Queue.LeaseSeconds != 300 {
		t.Fatalf("expected default lease of 300s, got %d", cfg.Queue.LeaseSeconds)
	}
	if cfg.Queue.MaxAttempts != 5 {
		t.Fatalf("expected default max attempts of 5, got %d", cfg.Queue.MaxAttempts)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[queue]
lease_seconds = 120
max_attempts = 3

[pipeline]
workers = 4
heartbeat_interval = 10

[logging]
format = "json"
level = "debug"
`)
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Queue.LeaseSeconds != 120 || cfg.Queue.MaxAttempts != 3 {
		t.Fatalf("queue overrides not applied: %+v", cfg.Queue)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Fatalf("expected 4 workers, got %d", cfg.Pipeline.Workers)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging overrides not applied: %+v", cfg.Logging)
	}
}

func TestLoadRejectsOpenAIWithoutKey(t *testing.T) {
	path := writeConfig(t, `
[ai]
mode = "openai"
`)
	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for openai mode without api key")
	}
	if !strings.Contains(err.Error(), "ai.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
[audio_store]
backend = "ftp"
`)
	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for unknown audio backend")
	}
}

func TestLoadRejectsShortLease(t *testing.T) {
	path := writeConfig(t, `
[queue]
lease_seconds = 10

[pipeline]
heartbeat_interval = 15
`)
	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for lease shorter than twice the heartbeat interval")
	}
}

func TestLoadRejectsBadSchedule(t *testing.T) {
	path := writeConfig(t, `
[reconcile]
schedule = "not a schedule"
`)
	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for invalid reconcile schedule")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.AI.Mode != config.ModeMock {
		t.Fatalf("sample should keep mock defaults, got %q", cfg.AI.Mode)
	}
}
