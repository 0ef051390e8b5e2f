package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/talgya/neo-haven/internal/config"
	"github.com/talgya/neo-haven/internal/persistence"
)

func runExport(cfg config.Config, session, path string, out io.Writer) error {
	db, err := persistence.Open(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := db.ExportTranscript(f, session)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "exported %d turns to %s (%s)\n", n, path, humanize.Bytes(uint64(info.Size())))
	return nil
}

func runSessions(cfg config.Config, out io.Writer) error {
	db, err := persistence.Open(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer db.Close()

	sessions, err := db.Sessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "no sessions journaled")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(out, "%s  %-8s %2d turns  %d citizens  started %s\n",
			s.ID, s.Status, s.Turns, s.Population, s.StartedAt)
	}
	return nil
}
