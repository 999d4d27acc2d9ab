package filmid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cinescrapers/internal/catalog"
	"cinescrapers/internal/logging"
	"cinescrapers/internal/services"
)

// Summary reports the outcome of one identification pass.
type Summary struct {
	Processed int
	Matched   int
	NoMatch   int
	Failed    int
}

// Runner drives the resolver over every unidentified showtime in the store.
type Runner struct {
	store    *catalog.Store
	resolver *Resolver
	logger   *slog.Logger
}

// NewRunner creates a batch identification runner.
func NewRunner(store *catalog.Store, resolver *Resolver, logger *slog.Logger) (*Runner, error) {
	if store == nil {
		return nil, errors.New("store required")
	}
	if resolver == nil {
		return nil, errors.New("resolver required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		store:    store,
		resolver: resolver,
		logger:   logging.NewComponentLogger(logger, "filmid"),
	}, nil
}

// Run resolves all unidentified showtimes. Individual failures are logged
// and counted without stopping the pass; rate limiting aborts it, since
// every remaining listing would hit the same wall. The pass is resumable:
// already-resolved rows never reappear in the work set and cached outcomes
// cost no API calls.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	pending, err := r.store.Unidentified(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list unidentified showtimes: %w", err)
	}

	r.logger.Info("starting identification pass",
		logging.Int("pending", len(pending)))

	var summary Summary
	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		summary.Processed++

		match, err := r.resolver.Resolve(ctx, rec)
		if err != nil {
			if errors.Is(err, services.ErrRateLimited) {
				r.logger.Warn("rate limited; aborting identification pass",
					logging.String("id", rec.ID),
					logging.Error(err))
				return summary, err
			}
			summary.Failed++
			r.logger.Warn("failed to resolve listing",
				logging.String("id", rec.ID),
				logging.String("norm_title", rec.NormTitle),
				logging.Error(err))
			continue
		}

		if !match.Matched {
			summary.NoMatch++
			continue
		}

		if err := r.store.SetFilmID(ctx, rec.ID, match.TMDBID); err != nil {
			summary.Failed++
			r.logger.Warn("failed to record film identity",
				logging.String("id", rec.ID),
				logging.Int64("tmdb_id", match.TMDBID),
				logging.Error(err))
			continue
		}

		summary.Matched++
		r.logger.Info("identified film",
			logging.String("id", rec.ID),
			logging.String("norm_title", rec.NormTitle),
			logging.Int64("tmdb_id", match.TMDBID),
			logging.String("matched_title", match.Title),
			logging.Float64("score", match.Score),
			logging.Bool("from_cache", match.FromCache))
	}

	r.logger.Info("identification pass complete",
		logging.Int("processed", summary.Processed),
		logging.Int("matched", summary.Matched),
		logging.Int("no_match", summary.NoMatch),
		logging.Int("failed", summary.Failed))

	return summary, nil
}
