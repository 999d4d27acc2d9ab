package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cinescrapers/internal/cinema"
	"cinescrapers/internal/export"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Publish the upcoming programme as compressed JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openStore(logger)
			if err != nil {
				return err
			}
			defer store.Close()

			registry, err := cinema.Default()
			if err != nil {
				return err
			}

			exporter, err := export.NewExporter(store, registry, cfg.ExportDir, cfg.WindowDays, logger)
			if err != nil {
				return err
			}

			result, err := exporter.Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Exported %d showtimes across %d cinemas to %s\n",
				result.Showtimes, result.Cinemas, result.Dir)
			fmt.Fprintf(out, "Window: %s to %s\n",
				result.From.Format("2006-01-02"), result.To.AddDate(0, 0, -1).Format("2006-01-02"))
			return nil
		},
	}
}
