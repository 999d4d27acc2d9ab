package showtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cinescrapers/internal/hashid"
	"cinescrapers/internal/logging"
	"cinescrapers/internal/titlenorm"
)

// Thumbnailer acquires a locally cached, square-cropped derivative of a
// source image and returns its reference. Implementations live outside this
// package; failures degrade to an absent thumbnail.
type Thumbnailer interface {
	Thumbnail(ctx context.Context, imageURL string) (string, error)
}

// Enricher converts raw scraped records into canonical ones. It makes the
// field contract explicit: every canonical field is computed here, in order,
// rather than assembled ad hoc at call sites.
type Enricher struct {
	thumbnailer Thumbnailer
	logger      *slog.Logger
	now         func() time.Time
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithThumbnailer supplies the thumbnail acquisition collaborator.
func WithThumbnailer(t Thumbnailer) EnricherOption {
	return func(e *Enricher) { e.thumbnailer = t }
}

// WithClock overrides the enrichment timestamp source.
func WithClock(now func() time.Time) EnricherOption {
	return func(e *Enricher) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEnricher builds an Enricher. The logger may be nil.
func NewEnricher(logger *slog.Logger, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		logger: logging.NewComponentLogger(logger, "enrich"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ID computes the stable showtime fingerprint from the identity triple. The
// raw title is used deliberately: the normalized title is a matching aid,
// never an identity component, so payload edits and normalization-rule
// changes leave ids untouched.
func ID(cinemaShortcode, rawTitle string, datetime LocalTime) string {
	return hashid.Hash(fmt.Sprintf("%s-%s-%s", cinemaShortcode, rawTitle, datetime))
}

// Enrich transforms a raw record into its canonical form on behalf of the
// named scraper. Thumbnail acquisition failure is non-fatal; title
// normalization failure is not.
func (e *Enricher) Enrich(ctx context.Context, raw Raw, scraper string) (Canonical, error) {
	if strings.TrimSpace(raw.CinemaShortcode) == "" {
		return Canonical{}, fmt.Errorf("enrich: cinema shortcode required")
	}
	if strings.TrimSpace(raw.Title) == "" {
		return Canonical{}, fmt.Errorf("enrich: title required")
	}

	id := ID(raw.CinemaShortcode, raw.Title, raw.Datetime)

	title := cleanTitleCase(raw.Title)
	normTitle, err := titlenorm.Normalize(title)
	if err != nil {
		return Canonical{}, fmt.Errorf("enrich %q: %w", raw.Title, err)
	}

	record := Canonical{
		ID:              id,
		CinemaShortcode: raw.CinemaShortcode,
		Title:           title,
		NormTitle:       normTitle,
		Link:            raw.Link,
		Datetime:        raw.Datetime,
		Description:     truncate(raw.Description, DescriptionLimit),
		ImageSrc:        raw.ImageSrc,
		ReleaseYear:     raw.ReleaseYear,
		LastUpdated:     e.now().UTC(),
		Scraper:         scraper,
	}

	if raw.ImageSrc != "" && e.thumbnailer != nil {
		ref, err := e.thumbnailer.Thumbnail(ctx, raw.ImageSrc)
		if err != nil {
			e.logger.Warn("thumbnail acquisition failed",
				logging.String("title", title),
				logging.String("image_src", raw.ImageSrc),
				logging.Error(err))
		} else {
			record.Thumbnail = ref
		}
	}

	return record, nil
}

// cleanTitleCase converts an entirely upper-case title to title case, a
// correction for cinemas whose CMS renders listings in all caps. Acronyms
// inside such titles lose their casing; that is an accepted trade-off.
func cleanTitleCase(title string) string {
	hasLetter := false
	for _, r := range title {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return title
			}
		}
	}
	if !hasLetter {
		return title
	}
	return cases.Title(language.Und).String(strings.ToLower(title))
}

// truncate hard-cuts s to limit runes. No word-boundary awareness: downstream
// consumers accommodate the exact cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
