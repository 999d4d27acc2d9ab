package testsupport

import (
	"context"
	"testing"
	"time"

	"cinescrapers/internal/catalog"
	"cinescrapers/internal/config"
	"cinescrapers/internal/showtime"
)

// MustOpenStore opens the catalog store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg.DatabasePath(), nil)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// SeedShowtime inserts one canonical showtime and returns it.
func SeedShowtime(t testing.TB, store *catalog.Store, id, shortcode, title string, dt time.Time) showtime.Canonical {
	t.Helper()

	record := showtime.Canonical{
		ID:              id,
		CinemaShortcode: shortcode,
		Title:           title,
		NormTitle:       title,
		Link:            "https://example.org/" + id,
		Datetime:        showtime.NewLocalTime(dt),
		Description:     "A synopsis.",
		LastUpdated:     time.Now().UTC(),
		Scraper:         "test",
	}
	if err := store.UpsertBatch(context.Background(), []showtime.Canonical{record}); err != nil {
		t.Fatalf("seed showtime: %v", err)
	}
	return record
}
