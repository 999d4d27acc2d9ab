package filmid

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cinescrapers/internal/catalog"
	"cinescrapers/internal/filmid/tmdb"
	"cinescrapers/internal/services"
	"cinescrapers/internal/showtime"
)

func newBatchStore(t *testing.T, records ...showtime.Canonical) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "showtimes.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if len(records) > 0 {
		if err := store.UpsertBatch(context.Background(), records); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}
	return store
}

func batchListing(id, title, normTitle string) showtime.Canonical {
	return showtime.Canonical{
		ID:              id,
		CinemaShortcode: "PC",
		Title:           title,
		NormTitle:       normTitle,
		Link:            "https://example.org/" + id,
		Datetime:        showtime.NewLocalTime(time.Date(2026, 9, 1, 19, 30, 0, 0, time.UTC)),
		Description:     "A synopsis.",
		LastUpdated:     time.Now().UTC(),
		Scraper:         "prince_charles",
	}
}

func TestRunnerIdentifiesPendingListings(t *testing.T) {
	store := newBatchStore(t,
		batchListing("show-a", "Barry Lyndon", "BARRY LYNDON"),
		batchListing("show-b", "An Obscure Short", "AN OBSCURE SHORT"),
	)
	searcher := &fakeSearcher{results: []tmdb.Result{
		{ID: 3175, Title: "Barry Lyndon", Overview: "A synopsis.", ReleaseDate: "1975-12-18"},
	}}
	resolver, _ := newTestResolver(t, searcher)
	runner, err := NewRunner(store, resolver, nil)
	if err != nil {
		t.Fatal(err)
	}

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Processed != 2 || summary.Matched != 1 || summary.NoMatch != 1 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}

	got, err := store.GetByID(context.Background(), "show-a")
	if err != nil {
		t.Fatal(err)
	}
	if got.TMDBID != 3175 {
		t.Errorf("tmdb_id = %d, want 3175", got.TMDBID)
	}

	// The matched row is resolved; a second pass only revisits the no-match
	// listing, and that comes straight from the cache.
	before := searcher.searches
	summary, err = runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Processed != 1 {
		t.Errorf("second pass processed = %d, want 1", summary.Processed)
	}
	if searcher.searches != before {
		t.Errorf("second pass hit the API %d more times", searcher.searches-before)
	}
}

func TestRunnerAbortsOnRateLimit(t *testing.T) {
	store := newBatchStore(t,
		batchListing("show-a", "Barry Lyndon", "BARRY LYNDON"),
		batchListing("show-b", "The Shining", "THE SHINING"),
	)
	searcher := &fakeSearcher{err: services.Wrap(services.ErrRateLimited, "tmdb", "search movies", "status 429", nil)}
	resolver, _ := newTestResolver(t, searcher)
	runner, err := NewRunner(store, resolver, nil)
	if err != nil {
		t.Fatal(err)
	}

	summary, err := runner.Run(context.Background())
	if !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("error = %v, want ErrRateLimited", err)
	}
	if summary.Processed != 1 {
		t.Errorf("processed = %d, want 1 (pass aborts on first rate limit)", summary.Processed)
	}
	if searcher.searches != 1 {
		t.Errorf("searches = %d, want 1", searcher.searches)
	}
}

func TestRunnerIsolatesRowFailures(t *testing.T) {
	store := newBatchStore(t,
		batchListing("show-a", "Barry Lyndon", "BARRY LYNDON"),
		batchListing("show-b", "The Shining", "THE SHINING"),
	)
	searcher := &flakySearcher{
		failQuery: "BARRY LYNDON",
		results: []tmdb.Result{
			{ID: 694, Title: "The Shining", Overview: "A synopsis.", ReleaseDate: "1980-05-23"},
		},
	}
	resolver, _ := newTestResolver(t, searcher)
	runner, err := NewRunner(store, resolver, nil)
	if err != nil {
		t.Fatal(err)
	}

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Failed != 1 || summary.Matched != 1 {
		t.Errorf("summary = %+v, want 1 failed and 1 matched", summary)
	}
}

func TestRunnerHonorsContextCancellation(t *testing.T) {
	store := newBatchStore(t, batchListing("show-a", "Barry Lyndon", "BARRY LYNDON"))
	resolver, _ := newTestResolver(t, &fakeSearcher{})
	runner, err := NewRunner(store, resolver, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := runner.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// flakySearcher fails one specific query and answers the rest.
type flakySearcher struct {
	failQuery string
	results   []tmdb.Result
}

func (f *flakySearcher) SearchMovieAllPages(_ context.Context, query string) ([]tmdb.Result, error) {
	if query == f.failQuery {
		return nil, services.Wrap(services.ErrTransient, "tmdb", "search movies", "status 500", nil)
	}
	return f.results, nil
}

func (f *flakySearcher) GetMovieDetails(_ context.Context, movieID int64) (*tmdb.Result, error) {
	return nil, services.ErrNotFound
}
