package catalog

import (
	"context"
	"fmt"
	"time"

	"cinescrapers/internal/logging"
	"cinescrapers/internal/showtime"
)

// upsertSQL inserts a showtime or, on id conflict, overwrites the mutable
// payload fields. The identity triple (cinema, title, datetime) and any
// previously resolved tmdb_id are never touched by a re-scrape.
const upsertSQL = `
INSERT INTO showtimes (
    id, cinema_shortcode, title, norm_title, link, datetime,
    description, image_src, thumbnail, release_year, tmdb_id, last_updated, scraper
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    link = excluded.link,
    norm_title = excluded.norm_title,
    description = excluded.description,
    image_src = excluded.image_src,
    thumbnail = excluded.thumbnail,
    release_year = excluded.release_year,
    last_updated = excluded.last_updated,
    scraper = excluded.scraper`

// UpsertBatch applies one collaborator's scraped batch as a single
// transaction: either every record lands or none do.
func (s *Store) UpsertBatch(ctx context.Context, records []showtime.Canonical) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		if record.ID == "" {
			return fmt.Errorf("upsert: record %q has no id", record.Title)
		}
		_, err := stmt.ExecContext(ctx,
			record.ID,
			record.CinemaShortcode,
			record.Title,
			record.NormTitle,
			record.Link,
			record.Datetime.String(),
			record.Description,
			nullableString(record.ImageSrc),
			nullableString(record.Thumbnail),
			nullableInt64(int64(record.ReleaseYear)),
			nullableInt64(record.TMDBID),
			record.LastUpdated.UTC().Format(time.RFC3339Nano),
			record.Scraper,
		)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", record.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert tx: %w", err)
	}

	s.logger.Debug("applied showtime batch",
		logging.Int("records", len(records)),
		logging.String("scraper", records[0].Scraper))
	return nil
}

// SetFilmID records a resolved film identity on a showtime.
func (s *Store) SetFilmID(ctx context.Context, id string, tmdbID int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE showtimes SET tmdb_id = ? WHERE id = ?`, nullableInt64(tmdbID), id)
	if err != nil {
		return fmt.Errorf("set film id: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set film id: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("set film id: showtime %s not found", id)
	}
	return nil
}
