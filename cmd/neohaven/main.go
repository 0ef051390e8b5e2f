// Command neohaven runs the Neo Haven city simulation: an HTTP server, an
// interactive terminal game, journal export and layout inspection.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/neo-haven/internal/config"
	"github.com/talgya/neo-haven/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("neohaven: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	slog.SetDefault(logger)

	shutdown, err := telemetry.Setup(context.Background(), "neohaven", cfg.OTel)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	}
	defer shutdown(context.Background())

	rootCmd := &cobra.Command{
		Use:   "neohaven",
		Short: "Neo Haven: govern a city one decree at a time",
	}

	rootCmd.AddCommand(serveCmd(cfg))
	rootCmd.AddCommand(playCmd(cfg))
	rootCmd.AddCommand(exportCmd(cfg))
	rootCmd.AddCommand(layoutCmd())

	if err := rootCmd.Execute(); err != nil {
		shutdown(context.Background())
		os.Exit(1)
	}
}

func serveCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a session over HTTP and websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&cfg.Addr, "addr", "a", cfg.Addr, "listen address")
	cmd.Flags().StringVar(&cfg.TuningPath, "tuning", cfg.TuningPath, "tuning YAML file")
	return cmd
}

func playCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a session in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlay(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&cfg.TuningPath, "tuning", cfg.TuningPath, "tuning YAML file")
	cmd.Flags().StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "journal database (empty disables)")
	return cmd
}

func exportCmd(cfg config.Config) *cobra.Command {
	var (
		session string
		out     string
		list    bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the turn journal as zstd-compressed JSONL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				return runSessions(cfg, cmd.OutOrStdout())
			}
			return runExport(cfg, session, out, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "journal database")
	cmd.Flags().StringVarP(&session, "session", "s", "", "export one session (default: all)")
	cmd.Flags().StringVarP(&out, "out", "o", "transcript.jsonl.zst", "output file")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list journaled sessions instead")
	return cmd
}

func layoutCmd() *cobra.Command {
	var population int
	cmd := &cobra.Command{
		Use:   "layout [district]",
		Short: "Print the derived geometry of a district",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(args[0], population, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&population, "population", "n", 0, "spawn a roster of this size and place its residents")
	return cmd
}
