package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/talgya/neo-haven/internal/citizens"
	"github.com/talgya/neo-haven/internal/config"
	"github.com/talgya/neo-haven/internal/engine"
	"github.com/talgya/neo-haven/internal/llm"
	"github.com/talgya/neo-haven/internal/persistence"
	"github.com/talgya/neo-haven/internal/tuning"
)

// session is one freshly spawned game with its optional journal.
type session struct {
	orch    *engine.Orchestrator
	journal *persistence.DB
	id      string
	hooks   []func(engine.Outcome)
}

func newSession(cfg config.Config) (*session, error) {
	tun, err := tuning.Load(cfg.TuningPath)
	if err != nil {
		return nil, err
	}

	var noise citizens.Noise = citizens.FreshNoise{Magnitude: tun.NoiseMagnitude}
	if cfg.NoiseSeed != 0 {
		noise = citizens.ReplayNoise{Seed: cfg.NoiseSeed, Magnitude: tun.NoiseMagnitude}
	}

	client := llm.NewClient(cfg.Oracle)
	if !client.Enabled() {
		slog.Warn("no ANTHROPIC_API_KEY set, turns will be refused")
	}

	roster := citizens.NewSpawner(tun.SpawnConfig(), nil).Generate(tun.Population)
	s := &session{}
	s.orch = engine.NewOrchestrator(
		llm.NewOracle(client, cfg.Oracle),
		engine.NewState(tun.InitialMetrics(), roster),
		engine.Config{Rules: tun.EngineRules(), Noise: noise},
	)
	s.orch.OnTurn = s.dispatch

	if cfg.JournalPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.JournalPath), 0o755); err != nil {
			return nil, fmt.Errorf("journal dir: %w", err)
		}
		db, err := persistence.Open(cfg.JournalPath)
		if err != nil {
			return nil, err
		}
		id, err := db.StartSession(len(roster), cfg.NoiseSeed)
		if err != nil {
			db.Close()
			return nil, err
		}
		s.journal, s.id = db, id
	}

	slog.Info("session ready",
		"session", s.id,
		"citizens", len(roster),
		"turn_limit", tun.Rules.TurnLimit,
		"replayable_noise", cfg.NoiseSeed != 0,
	)
	return s, nil
}

// onTurn adds an observer of completed turns.
func (s *session) onTurn(fn func(engine.Outcome)) {
	s.hooks = append(s.hooks, fn)
}

func (s *session) dispatch(out engine.Outcome) {
	if s.journal != nil {
		if err := s.journal.RecordTurn(s.id, out); err != nil {
			slog.Error("journal turn", "turn", out.Previous.Turn, "error", err)
		}
	}
	for _, fn := range s.hooks {
		fn(out)
	}
}

func (s *session) Close() error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}
