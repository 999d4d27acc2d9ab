// Package export publishes the upcoming programme as compressed JSON
// artifacts suitable for a static site.
package export

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cinescrapers/internal/catalog"
	"cinescrapers/internal/cinema"
	"cinescrapers/internal/logging"
	"cinescrapers/internal/services"
	"cinescrapers/internal/showtime"
)

// Artifact filenames within the export directory.
const (
	ShowtimesFile = "showtimes.json.gz"
	CinemasFile   = "cinemas.json.gz"
)

// Result summarizes one export run.
type Result struct {
	Showtimes int
	Cinemas   int
	From      time.Time
	To        time.Time
	Dir       string
}

// Exporter writes the programme window to disk.
type Exporter struct {
	store    *catalog.Store
	registry *cinema.Registry
	dir      string
	days     int
	logger   *slog.Logger
	now      func() time.Time
}

// ExporterOption customizes exporter construction.
type ExporterOption func(*Exporter)

// WithClock overrides the wall clock used to anchor the window.
func WithClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// NewExporter creates an exporter covering days of programme starting today.
func NewExporter(store *catalog.Store, registry *cinema.Registry, dir string, days int, logger *slog.Logger, opts ...ExporterOption) (*Exporter, error) {
	if store == nil {
		return nil, errors.New("store required")
	}
	if registry == nil {
		return nil, errors.New("cinema registry required")
	}
	if dir == "" {
		return nil, errors.New("export directory required")
	}
	if days < 1 {
		return nil, fmt.Errorf("window must cover at least one day, got %d", days)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	e := &Exporter{
		store:    store,
		registry: registry,
		dir:      dir,
		days:     days,
		logger:   logging.NewComponentLogger(logger, "export"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run exports the window [start of today, today + days). Every showtime must
// reference a registered cinema; an unknown shortcode means the dataset is
// corrupt and the export fails rather than publishing a broken artifact.
func (e *Exporter) Run(ctx context.Context) (Result, error) {
	now := e.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, e.days)

	showtimes, err := e.store.Window(ctx, from, to)
	if err != nil {
		return Result{}, fmt.Errorf("load programme window: %w", err)
	}

	if err := e.validate(showtimes); err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create export directory: %w", err)
	}

	if err := writeGzipJSON(filepath.Join(e.dir, ShowtimesFile), showtimes); err != nil {
		return Result{}, fmt.Errorf("write showtimes artifact: %w", err)
	}

	cinemas := e.registry.All()
	if err := writeGzipJSON(filepath.Join(e.dir, CinemasFile), cinemas); err != nil {
		return Result{}, fmt.Errorf("write cinemas artifact: %w", err)
	}

	result := Result{
		Showtimes: len(showtimes),
		Cinemas:   len(cinemas),
		From:      from,
		To:        to,
		Dir:       e.dir,
	}

	e.logger.Info("export complete",
		logging.Int("showtimes", result.Showtimes),
		logging.Int("cinemas", result.Cinemas),
		logging.String("from", from.Format("2006-01-02")),
		logging.String("to", to.Format("2006-01-02")),
		logging.String("dir", e.dir))

	return result, nil
}

func (e *Exporter) validate(showtimes []showtime.Canonical) error {
	for _, s := range showtimes {
		if _, ok := e.registry.Lookup(s.CinemaShortcode); !ok {
			return services.Wrap(services.ErrValidation, "export", "validate programme",
				fmt.Sprintf("showtime %s references unknown cinema %q", s.ID, s.CinemaShortcode), nil)
		}
	}
	return nil
}

// writeGzipJSON marshals v and writes it gzip-compressed, atomically via a
// temp file.
func writeGzipJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	gz := gzip.NewWriter(f)
	if _, err := gz.Write(data); err != nil {
		gz.Close()
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("compress: %w", err)
	}
	if err := gz.Close(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("finish compression: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
