package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("addr = %q, want :8080", cfg.Addr)
	}
	if cfg.JournalPath != "data/neohaven.db" {
		t.Errorf("journal = %q", cfg.JournalPath)
	}
	if cfg.Oracle.APIKey != "" {
		t.Errorf("api key should default empty")
	}
	if cfg.Oracle.Timeout != 30*time.Second || cfg.Oracle.MaxAttempts != 3 {
		t.Errorf("oracle defaults = %+v", cfg.Oracle)
	}
	if cfg.Level() != slog.LevelInfo {
		t.Errorf("level = %v", cfg.Level())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("NEOHAVEN_ADDR", "127.0.0.1:9000")
	t.Setenv("NEOHAVEN_NOISE_SEED", "42")
	t.Setenv("NEOHAVEN_LOG_LEVEL", "DEBUG")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("NEOHAVEN_ORACLE_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" || cfg.NoiseSeed != 42 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Oracle.APIKey != "sk-test" || cfg.Oracle.Timeout != 5*time.Second {
		t.Errorf("oracle = %+v", cfg.Oracle)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("level = %v, want debug", cfg.Level())
	}
}

func TestLoadError(t *testing.T) {
	t.Setenv("NEOHAVEN_NOISE_SEED", "not-a-number")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		" info ":  slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (Config{LogLevel: in}).Level(); got != want {
			t.Errorf("Level(%q) = %v, want %v", in, got, want)
		}
	}
}
