package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-scraper catalog statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openStore(logger)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.ScraperStats(cmd.Context())
			if err != nil {
				return err
			}
			total, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(stats) == 0 {
				fmt.Fprintln(out, "The catalog is empty; run `cinescrapers scrape` first.")
				return nil
			}

			heading := "Catalog statistics"
			if shouldColorize(out) {
				heading = ansiBlue + heading + ansiReset
			}
			fmt.Fprintln(out, heading)

			rows := make([][]string, 0, len(stats))
			for _, stat := range stats {
				rows = append(rows, []string{
					stat.Scraper,
					strconv.Itoa(stat.Showtimes),
					strconv.Itoa(stat.Identified),
					formatAge(stat.LastUpdated),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Scraper", "Showtimes", "Identified", "Last updated"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "Total showtimes: %d\n", total)
			return nil
		},
	}
}
