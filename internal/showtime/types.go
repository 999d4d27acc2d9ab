// Package showtime defines the raw and canonical showtime records and the
// enrichment step between them.
package showtime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the wall-clock serialization used everywhere a showtime
// datetime crosses a boundary (hashing, storage, export). Showtimes carry no
// timezone; each scraper resolves to the cinema's local time.
const TimeLayout = "2006-01-02T15:04:05"

// DescriptionLimit bounds stored description length. Downstream display
// assumes this cut.
const DescriptionLimit = 210

// LocalTime is a naive local wall-clock timestamp serialized with TimeLayout.
type LocalTime struct {
	time.Time
}

// NewLocalTime wraps t, dropping any sub-second precision.
func NewLocalTime(t time.Time) LocalTime {
	return LocalTime{t.Truncate(time.Second)}
}

// String renders the wall-clock form used for hashing, storage, and export.
func (lt LocalTime) String() string {
	return lt.Format(TimeLayout)
}

// MarshalJSON serializes without a timezone designator.
func (lt LocalTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(lt.String())), nil
}

// UnmarshalJSON accepts the wall-clock layout, tolerating the variants
// ParseLocalTime handles.
func (lt *LocalTime) UnmarshalJSON(data []byte) error {
	raw, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("unquote datetime: %w", err)
	}
	parsed, err := ParseLocalTime(raw)
	if err != nil {
		return err
	}
	*lt = parsed
	return nil
}

// ParseLocalTime parses the canonical wall-clock layout, tolerating a space
// separator and trailing zone designators from legacy feeds.
func ParseLocalTime(value string) (LocalTime, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{TimeLayout, "2006-01-02 15:04:05", time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return LocalTime{parsed}, nil
		}
	}
	return LocalTime{}, fmt.Errorf("parse datetime %q: want layout %s", value, TimeLayout)
}

// Raw is a showtime record as produced by a scraper collaborator. No
// uniqueness is guaranteed; the same logical showing may be re-scraped
// repeatedly.
type Raw struct {
	CinemaShortcode string    `json:"cinema_shortcode"`
	Title           string    `json:"title"`
	Link            string    `json:"link"`
	Datetime        LocalTime `json:"datetime"`
	Description     string    `json:"description"`
	ImageSrc        string    `json:"image_src,omitempty"`
	ReleaseYear     int       `json:"release_year,omitempty"`
}

// Canonical is the enriched, persisted showtime record.
type Canonical struct {
	ID              string    `json:"id"`
	CinemaShortcode string    `json:"cinema_shortcode"`
	Title           string    `json:"title"`
	NormTitle       string    `json:"norm_title"`
	Link            string    `json:"link"`
	Datetime        LocalTime `json:"datetime"`
	Description     string    `json:"description"`
	ImageSrc        string    `json:"image_src,omitempty"`
	Thumbnail       string    `json:"thumbnail,omitempty"`
	ReleaseYear     int       `json:"release_year,omitempty"`
	TMDBID          int64     `json:"tmdb_id,omitempty"`
	LastUpdated     time.Time `json:"last_updated"`
	Scraper         string    `json:"scraper"`
}

// releaseYearPattern matches plausible film years, 1900-2029.
var releaseYearPattern = regexp.MustCompile(`\b((19\d{2})|(20[0-2]\d))\b`)

// ExtractReleaseYear pulls the first plausible release year out of free-text,
// or zero when none is present. Scrapers use this on synopsis copy to supply
// the optional release-year hint.
func ExtractReleaseYear(text string) int {
	match := releaseYearPattern.FindString(text)
	if match == "" {
		return 0
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return year
}
