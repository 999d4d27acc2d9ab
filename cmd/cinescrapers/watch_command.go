package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"cinescrapers/internal/cinema"
	"cinescrapers/internal/export"
	"cinescrapers/internal/logging"
	"cinescrapers/internal/scrape"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the pipeline on a schedule until interrupted",
		Long: "Periodically re-runs scrapers whose catalog data has gone stale, then\n" +
			"refreshes the export artifacts. The schedule and staleness threshold come\n" +
			"from the scrape section of the config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			release, err := ctx.acquireLock()
			if err != nil {
				return err
			}
			defer release()

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			job := func() {
				if err := runWatchCycle(runCtx, ctx, logger); err != nil && runCtx.Err() == nil {
					logger.Warn("watch cycle failed", logging.Error(err))
				}
			}

			scheduler := cron.New()
			if _, err := scheduler.AddFunc(cfg.Scrape.WatchSchedule, job); err != nil {
				return fmt.Errorf("invalid watch schedule %q: %w", cfg.Scrape.WatchSchedule, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Watching on schedule %q (Ctrl-C to stop)\n", cfg.Scrape.WatchSchedule)

			// One cycle up front so a freshly started watcher is useful
			// immediately.
			job()

			scheduler.Start()
			<-runCtx.Done()
			<-scheduler.Stop().Done()
			return nil
		},
	}
}

func runWatchCycle(runCtx context.Context, ctx *commandContext, logger *slog.Logger) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	registry, err := ctx.buildRegistry()
	if err != nil {
		return err
	}
	store, err := ctx.openStore(logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// Only re-run scrapers whose latest data is older than the staleness
	// threshold; fresh ones keep their batch.
	staleBefore := time.Now().Add(-time.Duration(cfg.Scrape.StaleAfterHours) * time.Hour)
	var stale []scrape.Scraper
	for _, name := range registry.Names() {
		latest, exists, err := store.LatestUpdate(runCtx, name)
		if err != nil {
			return err
		}
		if !exists || latest.Before(staleBefore) {
			scraper, _ := registry.Get(name)
			stale = append(stale, scraper)
		}
	}

	if len(stale) > 0 {
		names := make([]string, 0, len(stale))
		for _, s := range stale {
			names = append(names, s.Name())
		}
		logger.Info("re-running stale scrapers", logging.Any("scrapers", names))

		runner, err := newScrapeRunner(ctx, store, logger)
		if err != nil {
			return err
		}
		if _, err := runner.Run(runCtx, stale); err != nil {
			return err
		}
	}

	cinemas, err := cinema.Default()
	if err != nil {
		return err
	}
	exporter, err := export.NewExporter(store, cinemas, cfg.ExportDir, cfg.WindowDays, logger)
	if err != nil {
		return err
	}
	if _, err := exporter.Run(runCtx); err != nil {
		return err
	}
	return nil
}
