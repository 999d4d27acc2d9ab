package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cinescrapers/internal/showtime"
)

// Window returns showtimes whose datetime falls within [from, to), ordered by
// datetime ascending.
func (s *Store) Window(ctx context.Context, from, to time.Time) ([]showtime.Canonical, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+showtimeColumns+` FROM showtimes WHERE datetime >= ? AND datetime < ? ORDER BY datetime`,
		showtime.NewLocalTime(from).String(),
		showtime.NewLocalTime(to).String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query window: %w", err)
	}
	defer rows.Close()
	return collectShowtimes(rows)
}

// Unidentified returns showtimes with no resolved film identity, ordered by
// datetime so the resolver works nearest screenings first.
func (s *Store) Unidentified(ctx context.Context) ([]showtime.Canonical, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+showtimeColumns+` FROM showtimes WHERE tmdb_id IS NULL ORDER BY datetime`)
	if err != nil {
		return nil, fmt.Errorf("query unidentified: %w", err)
	}
	defer rows.Close()
	return collectShowtimes(rows)
}

// LatestUpdate reports the most recent upsert timestamp across rows produced
// by the named scraper. The boolean is false when the scraper has no rows.
func (s *Store) LatestUpdate(ctx context.Context, scraper string) (time.Time, bool, error) {
	var latest sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(last_updated) FROM showtimes WHERE scraper = ?`, scraper).Scan(&latest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, fmt.Errorf("query latest update: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, latest.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse latest update: %w", err)
	}
	return parsed, true, nil
}

// ScraperStat summarizes one collaborator's catalog contribution.
type ScraperStat struct {
	Scraper      string
	Showtimes    int
	Identified   int
	LastUpdated  time.Time
	HasShowtimes bool
}

// ScraperStats returns per-scraper row counts, identified-film counts, and
// latest update timestamps, ordered by scraper name.
func (s *Store) ScraperStats(ctx context.Context) ([]ScraperStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT scraper, COUNT(*), COUNT(tmdb_id), MAX(last_updated) FROM showtimes GROUP BY scraper ORDER BY scraper`)
	if err != nil {
		return nil, fmt.Errorf("query scraper stats: %w", err)
	}
	defer rows.Close()

	var stats []ScraperStat
	for rows.Next() {
		var (
			stat   ScraperStat
			latest sql.NullString
		)
		if err := rows.Scan(&stat.Scraper, &stat.Showtimes, &stat.Identified, &latest); err != nil {
			return nil, fmt.Errorf("scan scraper stat: %w", err)
		}
		if latest.Valid {
			parsed, err := time.Parse(time.RFC3339Nano, latest.String)
			if err != nil {
				return nil, fmt.Errorf("parse scraper stat timestamp: %w", err)
			}
			stat.LastUpdated = parsed
			stat.HasShowtimes = true
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

func collectShowtimes(rows *sql.Rows) ([]showtime.Canonical, error) {
	var records []showtime.Canonical
	for rows.Next() {
		record, err := scanShowtime(rows)
		if err != nil {
			return nil, fmt.Errorf("scan showtime: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
