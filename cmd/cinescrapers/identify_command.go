package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cinescrapers/internal/filmid"
	"cinescrapers/internal/filmid/tmdb"
	"cinescrapers/internal/services/embedder"
)

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "identify",
		Short: "Resolve film identities for unmatched showtimes",
		Long: "Searches TMDB for every showtime without a resolved film identity and\n" +
			"records the best match. Outcomes are cached by listing content, so\n" +
			"interrupted runs resume where they left off.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireTMDB(); err != nil {
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
			store, err := ctx.openStore(logger)
			if err != nil {
				return err
			}
			defer store.Close()

			client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.ImageURL, cfg.TMDB.Language)
			if err != nil {
				return err
			}

			cache := filmid.NewMatchCache(cfg.MatchCachePath(), logger)

			opts := []filmid.ResolverOption{}
			if cfg.Embedder.URL != "" {
				embedClient, err := embedder.New(cfg.Embedder.URL, time.Duration(cfg.Embedder.RequestTimeout)*time.Second)
				if err != nil {
					return fmt.Errorf("configure embedder: %w", err)
				}
				opts = append(opts, filmid.WithImageScoring(embedClient, client, cfg.ThumbnailDir(), cfg.TMDBImageDir()))
			}

			resolver, err := filmid.NewResolver(client, cache, logger, opts...)
			if err != nil {
				return err
			}
			runner, err := filmid.NewRunner(store, resolver, logger)
			if err != nil {
				return err
			}

			summary, err := runner.Run(cmd.Context())
			printSummary(cmd, summary)
			return err
		},
	}
}

func printSummary(cmd *cobra.Command, summary filmid.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Processed: %d\n", summary.Processed)
	fmt.Fprintf(out, "Matched:   %d\n", summary.Matched)
	fmt.Fprintf(out, "No match:  %d\n", summary.NoMatch)
	fmt.Fprintf(out, "Failed:    %d\n", summary.Failed)
}
