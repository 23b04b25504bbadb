package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZiperRom1/codechecker/internal/app"
	"github.com/spf13/cobra"
)

var flagConfig string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the statistics server",
	RunE:  runServer,
}

func init() {
	serverCmd.Flags().StringVar(&flagConfig, "config", "", "config file (default: ./codechecker.yaml)")
}

func runServer(cmd *cobra.Command, args []string) error {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := app.LoadConfig(flagConfig)
	if err != nil {
		return err
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := a.Start(); err != nil {
		return err
	}

	log.Info("server started",
		"addr", cfg.ListenAddr,
		"stats_root", cfg.StatsRoot,
		"capture_enabled", cfg.CaptureEnabled)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	return a.Stop()
}
