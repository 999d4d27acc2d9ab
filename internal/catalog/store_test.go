package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cinescrapers/internal/showtime"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "showtimes.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRecord(t *testing.T, id string, dt time.Time) showtime.Canonical {
	t.Helper()
	return showtime.Canonical{
		ID:              id,
		CinemaShortcode: "PC",
		Title:           "Barry Lyndon",
		NormTitle:       "BARRY LYNDON",
		Link:            "https://example.org/barry",
		Datetime:        showtime.NewLocalTime(dt),
		Description:     "Kubrick's period masterpiece.",
		LastUpdated:     time.Now().UTC(),
		Scraper:         "prince_charles",
	}
}

func TestUpsertInsertThenUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	when := time.Date(2026, 9, 1, 19, 30, 0, 0, time.UTC)

	original := testRecord(t, "show-x", when)
	if err := store.UpsertBatch(ctx, []showtime.Canonical{original}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	updated := original
	updated.Description = "A rewritten synopsis."
	updated.Link = "https://example.org/barry-70mm"
	if err := store.UpsertBatch(ctx, []showtime.Canonical{updated}); err != nil {
		t.Fatalf("update: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("row count = %d, want 1", count)
	}

	got, err := store.GetByID(ctx, original.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("record missing after upsert")
	}
	if got.Description != "A rewritten synopsis." {
		t.Errorf("description = %q, want updated value", got.Description)
	}
	if got.Link != "https://example.org/barry-70mm" {
		t.Errorf("link = %q, want updated value", got.Link)
	}
	if got.ID != original.ID {
		t.Errorf("id changed on upsert: %q", got.ID)
	}
}

func TestUpsertPreservesResolvedFilmID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	when := time.Date(2026, 9, 1, 19, 30, 0, 0, time.UTC)

	record := testRecord(t, "show-y", when)
	if err := store.UpsertBatch(ctx, []showtime.Canonical{record}); err != nil {
		t.Fatal(err)
	}
	if err := store.SetFilmID(ctx, record.ID, 3175); err != nil {
		t.Fatal(err)
	}

	// A later re-scrape of the same showing carries no film identity.
	if err := store.UpsertBatch(ctx, []showtime.Canonical{record}); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TMDBID != 3175 {
		t.Errorf("tmdb_id = %d after re-scrape, want 3175 preserved", got.TMDBID)
	}
}

func TestUpsertBatchAtomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	when := time.Date(2026, 9, 1, 19, 30, 0, 0, time.UTC)

	good := testRecord(t, "show-z", when)
	bad := testRecord(t, "", when) // missing id fails the batch
	if err := store.UpsertBatch(ctx, []showtime.Canonical{good, bad}); err == nil {
		t.Fatal("batch with invalid record should fail")
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("row count = %d after failed batch, want 0 (no partial commit)", count)
	}
}

func TestWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	records := []showtime.Canonical{
		testRecord(t, "show-a", today.AddDate(0, 0, -1).Add(19*time.Hour)),
		testRecord(t, "show-b", today.Add(20*time.Hour)),
		testRecord(t, "show-c", today.AddDate(0, 0, 45).Add(18*time.Hour)),
		testRecord(t, "show-d", today.AddDate(0, 0, 120).Add(21*time.Hour)),
	}
	if err := store.UpsertBatch(ctx, records); err != nil {
		t.Fatal(err)
	}

	got, err := store.Window(ctx, today, today.AddDate(0, 0, 90))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("window returned %d rows, want 2", len(got))
	}
	if got[0].ID != "show-b" || got[1].ID != "show-c" {
		t.Errorf("window rows = %s, %s; want today and +45d ordered ascending", got[0].ID, got[1].ID)
	}
}

func TestLatestUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	when := time.Date(2026, 9, 1, 19, 30, 0, 0, time.UTC)

	_, found, err := store.LatestUpdate(ctx, "prince_charles")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("LatestUpdate found rows in an empty catalog")
	}

	older := testRecord(t, "show-e", when)
	older.LastUpdated = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	newer := testRecord(t, "show-f", when.Add(2*time.Hour))
	newer.LastUpdated = time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	if err := store.UpsertBatch(ctx, []showtime.Canonical{older, newer}); err != nil {
		t.Fatal(err)
	}

	latest, found, err := store.LatestUpdate(ctx, "prince_charles")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("LatestUpdate found nothing")
	}
	if !latest.Equal(newer.LastUpdated) {
		t.Errorf("latest = %v, want %v", latest, newer.LastUpdated)
	}
}

func TestUnidentifiedAndSetFilmID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	when := time.Date(2026, 9, 1, 19, 30, 0, 0, time.UTC)

	a := testRecord(t, "show-g", when)
	b := testRecord(t, "show-h", when.Add(time.Hour))
	if err := store.UpsertBatch(ctx, []showtime.Canonical{a, b}); err != nil {
		t.Fatal(err)
	}

	unresolved, err := store.Unidentified(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(unresolved) != 2 {
		t.Fatalf("unidentified = %d, want 2", len(unresolved))
	}

	if err := store.SetFilmID(ctx, a.ID, 3175); err != nil {
		t.Fatal(err)
	}
	unresolved, err = store.Unidentified(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(unresolved) != 1 || unresolved[0].ID != b.ID {
		t.Errorf("unidentified after resolution = %+v, want only %s", unresolved, b.ID)
	}

	if err := store.SetFilmID(ctx, "missing", 1); err == nil {
		t.Error("SetFilmID on unknown row should fail")
	}
}

func TestScraperStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	when := time.Date(2026, 9, 1, 19, 30, 0, 0, time.UTC)

	a := testRecord(t, "show-i", when)
	b := testRecord(t, "show-j", when.Add(time.Hour))
	c := testRecord(t, "show-k", when.Add(2*time.Hour))
	c.Scraper = "rio"
	if err := store.UpsertBatch(ctx, []showtime.Canonical{a, b, c}); err != nil {
		t.Fatal(err)
	}

	if err := store.SetFilmID(ctx, a.ID, 3175); err != nil {
		t.Fatal(err)
	}

	stats, err := store.ScraperStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 2 {
		t.Fatalf("stats = %d entries, want 2", len(stats))
	}
	if stats[0].Scraper != "prince_charles" || stats[0].Showtimes != 2 || stats[0].Identified != 1 {
		t.Errorf("stats[0] = %+v", stats[0])
	}
	if stats[1].Scraper != "rio" || stats[1].Showtimes != 1 || stats[1].Identified != 0 {
		t.Errorf("stats[1] = %+v", stats[1])
	}
}

func TestSchemaReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "showtimes.db")
	store, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen existing database: %v", err)
	}
	_ = reopened.Close()
}
