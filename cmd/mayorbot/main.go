// Command mayorbot plays a served Neo Haven session on its own.
// It observes the city, picks a policy via the LLM (or a canned fallback),
// and submits it via the turn API until the game ends.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/talgya/neo-haven/internal/autopilot"
	"github.com/talgya/neo-haven/internal/config"
	"github.com/talgya/neo-haven/internal/llm"
	"github.com/talgya/neo-haven/internal/tuning"
)

type botConfig struct {
	APIURL     string        `env:"NEOHAVEN_API_URL"    envDefault:"http://localhost:8080"`
	AdminKey   string        `env:"NEOHAVEN_ADMIN_KEY"`
	TuningPath string        `env:"NEOHAVEN_TUNING"`
	Interval   time.Duration `env:"MAYORBOT_INTERVAL"   envDefault:"5s"`
	MemoryPath string        `env:"MAYORBOT_MEMORY"     envDefault:"mayorbot_memory.json"`
	ReadyWait  time.Duration `env:"MAYORBOT_READY_WAIT" envDefault:"5m"`

	LLM llm.Config
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var cfg botConfig
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("mayorbot: %v", err)
	}
	t, err := tuning.Load(cfg.TuningPath)
	if err != nil {
		config.Exitf("mayorbot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := llm.NewClient(cfg.LLM)
	slog.Info("Neo Haven mayor starting",
		"api_url", cfg.APIURL,
		"interval", cfg.Interval,
		"llm", client.Enabled(),
	)

	observer := autopilot.NewObserver(cfg.APIURL)

	// The server may still be starting; poll until it answers.
	slog.Info("waiting for neohaven API...")
	if err := waitForAPI(ctx, observer, cfg.ReadyWait); err != nil {
		slog.Error("neohaven API did not become ready", "error", err)
		os.Exit(1)
	}

	mayor := &autopilot.Mayor{
		Observer: observer,
		Actor:    autopilot.NewActor(cfg.APIURL, cfg.AdminKey),
		LLM:      client,
		Memory:   autopilot.LoadMemory(cfg.MemoryPath),
		Rules:    t.EngineRules(),
	}
	status, err := mayor.Run(ctx, cfg.Interval)
	if err != nil {
		slog.Info("mayor stopped", "reason", err)
		return
	}
	slog.Info("mayor finished", "status", status)
}

func waitForAPI(ctx context.Context, o *autopilot.Observer, wait time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 30 * time.Second

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if err := o.Ready(ctx); err != nil {
			slog.Info("neohaven not ready, retrying...", "error", err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(b), backoff.WithMaxElapsedTime(wait))
	return err
}
