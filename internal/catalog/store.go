// Package catalog persists the canonical showtime catalog in SQLite and
// implements the upsert/reconciliation, staleness, and windowing queries.
package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"cinescrapers/internal/logging"
	"cinescrapers/internal/showtime"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; existing databases must be rebuilt from a fresh scrape.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open initializes or connects to the catalog database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:     db,
		path:   path,
		logger: logging.NewComponentLogger(logger, "catalog"),
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database %s has version %d, expected %d (delete the database and re-scrape)",
			ErrSchemaMismatch, filepath.Base(s.path), version, schemaVersion)
	}
	return nil
}

const showtimeColumns = `id, cinema_shortcode, title, norm_title, link, datetime,
    description, image_src, thumbnail, release_year, tmdb_id, last_updated, scraper`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShowtime(row rowScanner) (showtime.Canonical, error) {
	var (
		record      showtime.Canonical
		datetime    string
		imageSrc    sql.NullString
		thumbnail   sql.NullString
		releaseYear sql.NullInt64
		tmdbID      sql.NullInt64
		lastUpdated string
	)
	err := row.Scan(
		&record.ID,
		&record.CinemaShortcode,
		&record.Title,
		&record.NormTitle,
		&record.Link,
		&datetime,
		&record.Description,
		&imageSrc,
		&thumbnail,
		&releaseYear,
		&tmdbID,
		&lastUpdated,
		&record.Scraper,
	)
	if err != nil {
		return showtime.Canonical{}, err
	}

	parsedDatetime, err := showtime.ParseLocalTime(datetime)
	if err != nil {
		return showtime.Canonical{}, fmt.Errorf("row %s: %w", record.ID, err)
	}
	record.Datetime = parsedDatetime

	parsedUpdated, err := time.Parse(time.RFC3339Nano, lastUpdated)
	if err != nil {
		return showtime.Canonical{}, fmt.Errorf("row %s: parse last_updated: %w", record.ID, err)
	}
	record.LastUpdated = parsedUpdated

	record.ImageSrc = imageSrc.String
	record.Thumbnail = thumbnail.String
	record.ReleaseYear = int(releaseYear.Int64)
	record.TMDBID = tmdbID.Int64
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt64(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

// GetByID fetches a showtime by identifier, or nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*showtime.Canonical, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+showtimeColumns+` FROM showtimes WHERE id = ?`, id)
	record, err := scanShowtime(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get showtime: %w", err)
	}
	return &record, nil
}

// Count returns the total number of catalog rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM showtimes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count showtimes: %w", err)
	}
	return count, nil
}
