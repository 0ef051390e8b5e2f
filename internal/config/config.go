// Package config loads process settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/talgya/neo-haven/internal/llm"
)

// Config is the neohaven process configuration.
type Config struct {
	Addr        string `env:"NEOHAVEN_ADDR"         envDefault:":8080"`
	LogLevel    string `env:"NEOHAVEN_LOG_LEVEL"    envDefault:"info"`
	TuningPath  string `env:"NEOHAVEN_TUNING"`
	JournalPath string `env:"NEOHAVEN_JOURNAL"      envDefault:"data/neohaven.db"`
	AdminKey    string `env:"NEOHAVEN_ADMIN_KEY"`
	OTel        string `env:"NEOHAVEN_OTEL_ENDPOINT"`

	// NoiseSeed, when non-zero, makes per-citizen noise replayable.
	NoiseSeed int64 `env:"NEOHAVEN_NOISE_SEED"`
	// TurnRate caps turn submissions per client IP per minute.
	TurnRate int `env:"NEOHAVEN_TURN_RATE" envDefault:"10"`

	Oracle llm.Config
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the process configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Level maps LogLevel onto slog; unknown names fall back to info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
