package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"cinescrapers/internal/catalog"
	"cinescrapers/internal/scrape"
	"cinescrapers/internal/showtime"
	"cinescrapers/internal/thumbs"
)

func newScrapeCommand(ctx *commandContext) *cobra.Command {
	var listOnly bool

	cmd := &cobra.Command{
		Use:   "scrape [scraper...]",
		Short: "Collect showtimes from cinema sources",
		Long: "Runs the named scrapers (or all configured scrapers when none are named)\n" +
			"and lands their listings in the catalog. Each scraper's batch commits as a\n" +
			"single transaction, so a mid-run failure never leaves partial data behind.",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.buildRegistry()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if listOnly {
				for _, name := range registry.Names() {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			scrapers, err := registry.Select(args)
			if err != nil {
				return err
			}
			if len(scrapers) == 0 {
				return fmt.Errorf("no scrapers configured; add [[scrape.feeds]] entries to the config")
			}

			release, err := ctx.acquireLock()
			if err != nil {
				return err
			}
			defer release()

			outcomes, err := runScrape(ctx, cmd, scrapers)
			if err != nil {
				return err
			}

			printOutcomes(out, outcomes)
			for _, outcome := range outcomes {
				if outcome.Err != nil {
					return fmt.Errorf("%d of %d scrapers failed", failedCount(outcomes), len(outcomes))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&listOnly, "list", false, "List configured scrapers without running them")
	return cmd
}

func runScrape(ctx *commandContext, cmd *cobra.Command, scrapers []scrape.Scraper) ([]scrape.Outcome, error) {
	logger, err := ctx.newLogger()
	if err != nil {
		return nil, err
	}
	store, err := ctx.openStore(logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	runner, err := newScrapeRunner(ctx, store, logger)
	if err != nil {
		return nil, err
	}
	return runner.Run(cmd.Context(), scrapers)
}

// newScrapeRunner wires the enrichment pipeline (thumbnails included) onto an
// already-open store.
func newScrapeRunner(ctx *commandContext, store *catalog.Store, logger *slog.Logger) (*scrape.Runner, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}

	generator, err := thumbs.NewGenerator(cfg.ThumbnailDir(), logger)
	if err != nil {
		return nil, err
	}
	enricher := showtime.NewEnricher(logger, showtime.WithThumbnailer(generator))

	return scrape.NewRunner(store, enricher, cfg.Scrape.Workers, logger)
}

func printOutcomes(out io.Writer, outcomes []scrape.Outcome) {
	rows := make([][]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		status := "ok"
		if outcome.Err != nil {
			status = outcome.Err.Error()
		}
		rows = append(rows, []string{
			outcome.Scraper,
			fmt.Sprintf("%d", outcome.Count),
			outcome.Duration.Round(time.Millisecond).String(),
			status,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Scraper", "Showtimes", "Duration", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
	))
}

func failedCount(outcomes []scrape.Outcome) int {
	failed := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
		}
	}
	return failed
}
