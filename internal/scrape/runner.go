package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"cinescrapers/internal/catalog"
	"cinescrapers/internal/logging"
	"cinescrapers/internal/showtime"
)

// Outcome reports one scraper's run.
type Outcome struct {
	Scraper  string
	RunID    uuid.UUID
	Count    int
	Duration time.Duration
	Err      error
}

// Runner executes scrapers concurrently and commits each scraper's batch to
// the store as a single transaction. One scraper failing never blocks the
// others; the caller inspects the outcomes.
type Runner struct {
	store    *catalog.Store
	enricher *showtime.Enricher
	logger   *slog.Logger
	workers  int
}

// NewRunner creates a scrape runner with the given concurrency limit.
func NewRunner(store *catalog.Store, enricher *showtime.Enricher, workers int, logger *slog.Logger) (*Runner, error) {
	if store == nil {
		return nil, errors.New("store required")
	}
	if enricher == nil {
		return nil, errors.New("enricher required")
	}
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		store:    store,
		enricher: enricher,
		logger:   logging.NewComponentLogger(logger, "scrape"),
		workers:  workers,
	}, nil
}

// Run executes the given scrapers and returns one outcome per scraper, in
// input order. The returned error reflects only infrastructure failure;
// per-scraper errors live on their outcomes.
func (r *Runner) Run(ctx context.Context, scrapers []Scraper) ([]Outcome, error) {
	if len(scrapers) == 0 {
		return nil, nil
	}

	outcomes := make([]Outcome, len(scrapers))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.workers)

	for i, scraper := range scrapers {
		i, scraper := i, scraper
		group.Go(func() error {
			outcome := r.runOne(groupCtx, scraper)
			mu.Lock()
			outcomes[i] = outcome
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func (r *Runner) runOne(ctx context.Context, scraper Scraper) Outcome {
	outcome := Outcome{
		Scraper: scraper.Name(),
		RunID:   uuid.New(),
	}
	started := time.Now()
	logger := r.logger.With(
		logging.String("scraper", outcome.Scraper),
		logging.String("run_id", outcome.RunID.String()))

	logger.Info("scrape started")

	raws, err := scraper.Scrape(ctx)
	if err != nil {
		outcome.Err = fmt.Errorf("scrape %s: %w", outcome.Scraper, err)
		outcome.Duration = time.Since(started)
		logger.Warn("scrape failed", logging.Error(err))
		return outcome
	}

	records := make([]showtime.Canonical, 0, len(raws))
	for _, raw := range raws {
		record, err := r.enricher.Enrich(ctx, raw, outcome.Scraper)
		if err != nil {
			// A single malformed listing does not sink the batch.
			logger.Warn("skipping unenrichable listing",
				logging.String("title", raw.Title),
				logging.Error(err))
			continue
		}
		records = append(records, record)
	}

	if err := r.store.UpsertBatch(ctx, records); err != nil {
		outcome.Err = fmt.Errorf("commit %s batch: %w", outcome.Scraper, err)
		outcome.Duration = time.Since(started)
		logger.Warn("batch commit failed", logging.Error(err))
		return outcome
	}

	outcome.Count = len(records)
	outcome.Duration = time.Since(started)
	logger.Info("scrape complete",
		logging.Int("showtimes", outcome.Count),
		logging.Duration("duration", outcome.Duration))
	return outcome
}
