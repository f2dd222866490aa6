package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/agent-monitor/internal/tui"
	"github.com/Sternrassler/agent-monitor/pkg/metrics"
)

// runTUI opens the dashboard, serving metrics alongside it when configured.
// The dashboard owns the terminal, so logs go to the log file or nowhere.
func (c *cli) runTUI(cmd *cobra.Command, _ []string) error {
	cfg := c.cfg

	closeLog, err := cfg.setupLogging(io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	api, err := cfg.newAPI()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := cfg.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	log.Info().
		Str("api_url", api.BaseURL()).
		Str("prefs_backend", cfg.PrefsBackend).
		Str("version", Version).
		Msg("Starting dashboard")

	g, gctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, cfg.MetricsAddr)
		})
	}

	g.Go(func() error {
		// Quitting the dashboard stops the metrics server too.
		defer stop()
		return tui.Run(gctx, tui.Options{
			API:       api,
			Store:     store,
			PageLimit: cfg.PageLimit,
			Timeout:   cfg.Timeout,
			RetryUnit: cfg.RetryUnit,
		})
	})

	err = g.Wait()
	log.Info().Err(err).Msg("Dashboard stopped")
	return err
}
