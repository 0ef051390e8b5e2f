package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/talgya/neo-haven/internal/api"
	"github.com/talgya/neo-haven/internal/config"
)

func runServe(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	srv := api.NewServer(s.orch, cfg.AdminKey, cfg.TurnRate)
	s.onTurn(srv.Publish)
	return srv.ListenAndServe(ctx, cfg.Addr)
}
