package scrape

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cinescrapers/internal/catalog"
	"cinescrapers/internal/showtime"
)

type stubScraper struct {
	name string
	raws []showtime.Raw
	err  error
}

func (s *stubScraper) Name() string { return s.name }

func (s *stubScraper) Scrape(_ context.Context) ([]showtime.Raw, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.raws, nil
}

func newRunnerStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "showtimes.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func rawListing(shortcode, title string, dt time.Time) showtime.Raw {
	return showtime.Raw{
		CinemaShortcode: shortcode,
		Title:           title,
		Link:            "https://example.org/" + shortcode,
		Datetime:        showtime.NewLocalTime(dt),
		Description:     "A synopsis.",
	}
}

func TestRunnerCommitsEachScrapersBatch(t *testing.T) {
	store := newRunnerStore(t)
	enricher := showtime.NewEnricher(nil)
	runner, err := NewRunner(store, enricher, 2, nil)
	if err != nil {
		t.Fatal(err)
	}

	when := time.Date(2026, 9, 1, 19, 30, 0, 0, time.UTC)
	scrapers := []Scraper{
		&stubScraper{name: "prince_charles", raws: []showtime.Raw{
			rawListing("PC", "Barry Lyndon", when),
			rawListing("PC", "The Shining", when.Add(3 * time.Hour)),
		}},
		&stubScraper{name: "ica", raws: []showtime.Raw{
			rawListing("IC", "Solaris", when),
		}},
	}

	outcomes, err := runner.Run(context.Background(), scrapers)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}
	if outcomes[0].Scraper != "prince_charles" || outcomes[0].Count != 2 || outcomes[0].Err != nil {
		t.Errorf("outcome[0] = %+v", outcomes[0])
	}
	if outcomes[1].Scraper != "ica" || outcomes[1].Count != 1 || outcomes[1].Err != nil {
		t.Errorf("outcome[1] = %+v", outcomes[1])
	}
	if outcomes[0].RunID == outcomes[1].RunID {
		t.Error("run ids should be unique per scraper run")
	}

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("store count = %d, want 3", count)
	}
}

func TestRunnerIsolatesScraperFailures(t *testing.T) {
	store := newRunnerStore(t)
	enricher := showtime.NewEnricher(nil)
	runner, err := NewRunner(store, enricher, 4, nil)
	if err != nil {
		t.Fatal(err)
	}

	when := time.Date(2026, 9, 1, 19, 30, 0, 0, time.UTC)
	boom := errors.New("site unreachable")
	scrapers := []Scraper{
		&stubScraper{name: "broken", err: boom},
		&stubScraper{name: "ica", raws: []showtime.Raw{rawListing("IC", "Solaris", when)}},
	}

	outcomes, err := runner.Run(context.Background(), scrapers)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcomes[0].Err == nil || !errors.Is(outcomes[0].Err, boom) {
		t.Errorf("outcome[0].Err = %v, want wrapped scrape failure", outcomes[0].Err)
	}
	if outcomes[1].Err != nil || outcomes[1].Count != 1 {
		t.Errorf("outcome[1] = %+v, healthy scraper should still land", outcomes[1])
	}

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("store count = %d, want 1", count)
	}
}

func TestRunnerSkipsUnenrichableListings(t *testing.T) {
	store := newRunnerStore(t)
	enricher := showtime.NewEnricher(nil)
	runner, err := NewRunner(store, enricher, 1, nil)
	if err != nil {
		t.Fatal(err)
	}

	when := time.Date(2026, 9, 1, 19, 30, 0, 0, time.UTC)
	scrapers := []Scraper{
		&stubScraper{name: "ica", raws: []showtime.Raw{
			rawListing("IC", "Solaris", when),
			rawListing("IC", "   ", when), // no title
		}},
	}

	outcomes, err := runner.Run(context.Background(), scrapers)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcomes[0].Err != nil {
		t.Errorf("outcome err = %v, want nil", outcomes[0].Err)
	}
	if outcomes[0].Count != 1 {
		t.Errorf("count = %d, want 1 (bad listing skipped)", outcomes[0].Count)
	}
}

func TestRunnerRescrapeIsIdempotent(t *testing.T) {
	store := newRunnerStore(t)
	enricher := showtime.NewEnricher(nil)
	runner, err := NewRunner(store, enricher, 1, nil)
	if err != nil {
		t.Fatal(err)
	}

	when := time.Date(2026, 9, 1, 19, 30, 0, 0, time.UTC)
	scrapers := []Scraper{
		&stubScraper{name: "ica", raws: []showtime.Raw{rawListing("IC", "Solaris", when)}},
	}

	for i := 0; i < 2; i++ {
		if _, err := runner.Run(context.Background(), scrapers); err != nil {
			t.Fatal(err)
		}
	}

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("store count = %d, want 1 after re-scrape", count)
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(&stubScraper{name: "ica"}); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register(&stubScraper{name: "prince_charles"}); err != nil {
		t.Fatal(err)
	}

	if err := registry.Register(&stubScraper{name: "ica"}); err == nil {
		t.Error("expected duplicate registration to fail")
	}

	names := registry.Names()
	if len(names) != 2 || names[0] != "ica" || names[1] != "prince_charles" {
		t.Errorf("names = %v", names)
	}

	selected, err := registry.Select([]string{"prince_charles"})
	if err != nil {
		t.Fatal(err)
	}
	if len(selected) != 1 || selected[0].Name() != "prince_charles" {
		t.Errorf("selected = %v", selected)
	}

	all, err := registry.Select(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("select all = %d scrapers, want 2", len(all))
	}

	if _, err := registry.Select([]string{"nonexistent"}); err == nil {
		t.Error("expected error for unknown scraper name")
	}
}
