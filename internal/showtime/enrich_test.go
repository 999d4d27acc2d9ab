package showtime

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func mustLocalTime(t *testing.T, value string) LocalTime {
	t.Helper()
	lt, err := ParseLocalTime(value)
	if err != nil {
		t.Fatal(err)
	}
	return lt
}

type fakeThumbnailer struct {
	ref   string
	err   error
	calls int
}

func (f *fakeThumbnailer) Thumbnail(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.ref, f.err
}

func testRaw(t *testing.T) Raw {
	return Raw{
		CinemaShortcode: "PC",
		Title:           "Barry Lyndon",
		Link:            "https://princecharlescinema.com/barry-lyndon",
		Datetime:        mustLocalTime(t, "2026-09-01T19:30:00"),
		Description:     "Kubrick's period masterpiece.",
		ImageSrc:        "https://example.org/barry.jpg",
	}
}

func TestEnrichBasics(t *testing.T) {
	e := NewEnricher(nil)
	got, err := e.Enrich(context.Background(), testRaw(t), "prince_charles")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if got.ID == "" || len(got.ID) != 32 {
		t.Errorf("ID = %q, want 32-character fingerprint", got.ID)
	}
	if got.NormTitle != "BARRY LYNDON" {
		t.Errorf("NormTitle = %q, want BARRY LYNDON", got.NormTitle)
	}
	if got.Scraper != "prince_charles" {
		t.Errorf("Scraper = %q", got.Scraper)
	}
	if got.LastUpdated.IsZero() {
		t.Error("LastUpdated not stamped")
	}
}

func TestEnrichIDDeterministic(t *testing.T) {
	e := NewEnricher(nil)
	a, err := e.Enrich(context.Background(), testRaw(t), "prince_charles")
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Enrich(context.Background(), testRaw(t), "prince_charles")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != b.ID {
		t.Errorf("ID unstable across runs: %q != %q", a.ID, b.ID)
	}
}

func TestEnrichIDIgnoresPayloadFields(t *testing.T) {
	e := NewEnricher(nil)
	base, err := e.Enrich(context.Background(), testRaw(t), "prince_charles")
	if err != nil {
		t.Fatal(err)
	}

	changed := testRaw(t)
	changed.Description = "A completely rewritten synopsis."
	changed.Link = "https://princecharlescinema.com/whats-on/barry-lyndon-70mm"
	changed.ImageSrc = ""
	got, err := e.Enrich(context.Background(), changed, "prince_charles")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != base.ID {
		t.Errorf("payload change altered ID: %q != %q", got.ID, base.ID)
	}
}

func TestEnrichIDSensitiveToIdentityTriple(t *testing.T) {
	e := NewEnricher(nil)
	base, err := e.Enrich(context.Background(), testRaw(t), "prince_charles")
	if err != nil {
		t.Fatal(err)
	}

	later := testRaw(t)
	later.Datetime = mustLocalTime(t, "2026-09-01T21:45:00")
	got, err := e.Enrich(context.Background(), later, "prince_charles")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID == base.ID {
		t.Error("different datetime produced identical ID")
	}
}

func TestEnrichAllCapsTitleCased(t *testing.T) {
	e := NewEnricher(nil)
	raw := testRaw(t)
	raw.Title = "BARRY LYNDON"
	got, err := e.Enrich(context.Background(), raw, "rio")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Barry Lyndon" {
		t.Errorf("Title = %q, want Barry Lyndon", got.Title)
	}
	// Mixed case passes through unchanged.
	raw.Title = "McCabe & Mrs. Miller"
	got, err = e.Enrich(context.Background(), raw, "rio")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "McCabe & Mrs. Miller" {
		t.Errorf("Title = %q, want unchanged", got.Title)
	}
}

func TestEnrichTruncatesDescription(t *testing.T) {
	e := NewEnricher(nil)
	raw := testRaw(t)
	raw.Description = strings.Repeat("x", 500)
	got, err := e.Enrich(context.Background(), raw, "rio")
	if err != nil {
		t.Fatal(err)
	}
	if len([]rune(got.Description)) != DescriptionLimit {
		t.Errorf("description length = %d, want %d", len([]rune(got.Description)), DescriptionLimit)
	}
}

func TestEnrichThumbnail(t *testing.T) {
	thumb := &fakeThumbnailer{ref: "abc123.jpg"}
	e := NewEnricher(nil, WithThumbnailer(thumb))
	got, err := e.Enrich(context.Background(), testRaw(t), "rio")
	if err != nil {
		t.Fatal(err)
	}
	if got.Thumbnail != "abc123.jpg" {
		t.Errorf("Thumbnail = %q", got.Thumbnail)
	}
	if thumb.calls != 1 {
		t.Errorf("thumbnailer calls = %d, want 1", thumb.calls)
	}
}

func TestEnrichThumbnailFailureNonFatal(t *testing.T) {
	thumb := &fakeThumbnailer{err: errors.New("fetch failed")}
	e := NewEnricher(nil, WithThumbnailer(thumb))
	got, err := e.Enrich(context.Background(), testRaw(t), "rio")
	if err != nil {
		t.Fatalf("thumbnail failure should not fail enrichment: %v", err)
	}
	if got.Thumbnail != "" {
		t.Errorf("Thumbnail = %q, want empty", got.Thumbnail)
	}
}

func TestEnrichClock(t *testing.T) {
	fixed := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	e := NewEnricher(nil, WithClock(func() time.Time { return fixed }))
	got, err := e.Enrich(context.Background(), testRaw(t), "rio")
	if err != nil {
		t.Fatal(err)
	}
	if !got.LastUpdated.Equal(fixed) {
		t.Errorf("LastUpdated = %v, want %v", got.LastUpdated, fixed)
	}
}

func TestExtractReleaseYear(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"Restored for its 1975 release", 1975},
		{"(2024, dir. Someone)", 2024},
		{"no year here", 0},
		{"the year 2099 is out of range", 0},
		{"1899 predates cinema's range here", 0},
	}
	for _, tt := range tests {
		if got := ExtractReleaseYear(tt.text); got != tt.want {
			t.Errorf("ExtractReleaseYear(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestLocalTimeRoundTrip(t *testing.T) {
	lt := mustLocalTime(t, "2026-09-01T19:30:00")
	data, err := lt.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"2026-09-01T19:30:00"` {
		t.Errorf("MarshalJSON = %s", data)
	}
	var parsed LocalTime
	if err := parsed.UnmarshalJSON(data); err != nil {
		t.Fatal(err)
	}
	if !parsed.Equal(lt.Time) {
		t.Errorf("round trip mismatch: %v != %v", parsed, lt)
	}
}
