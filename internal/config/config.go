// Package config loads and validates the pipeline configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	ImageURL string `toml:"image_base_url"`
	Language string `toml:"language"`
}

// Embedder contains configuration for the optional image-embedding sidecar.
// When the URL is empty the image-similarity signal contributes nothing.
type Embedder struct {
	URL            string `toml:"url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Feed names a remote JSON showtime feed consumed by the built-in feed
// scraper.
type Feed struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// Scrape contains settings for collaborator scraper runs.
type Scrape struct {
	Workers         int    `toml:"workers"`
	StaleAfterHours int    `toml:"stale_after_hours"`
	WatchSchedule   string `toml:"watch_schedule"`
	Feeds           []Feed `toml:"feeds"`
}

// Config is the root configuration document.
type Config struct {
	DataDir    string `toml:"data_dir"`
	ExportDir  string `toml:"export_dir"`
	LogDir     string `toml:"log_dir"`
	LogLevel   string `toml:"log_level"`
	LogFormat  string `toml:"log_format"`
	WindowDays int    `toml:"window_days"`

	TMDB     TMDB     `toml:"tmdb"`
	Embedder Embedder `toml:"embedder"`
	Scrape   Scrape   `toml:"scrape"`
}

// Load reads configuration from path, falling back to the default location
// when path is empty. A missing file yields the defaults. Environment
// variables (optionally via a .env file) override secrets afterwards.
func Load(path string) (*Config, string, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		resolved = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults apply.
	case err != nil:
		return nil, resolved, fmt.Errorf("read config %s: %w", resolved, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, resolved, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	// .env is a developer convenience; its absence is not an error.
	_ = godotenv.Load()
	if key := strings.TrimSpace(os.Getenv("TMDB_API_KEY")); key != "" {
		cfg.TMDB.APIKey = key
	}

	cfg.applyFallbacks()
	return &cfg, resolved, nil
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cinescrapers.toml"
	}
	return filepath.Join(home, ".config", "cinescrapers", "config.toml")
}

// Validate checks settings that have no sensible fallback.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("data_dir must be set")
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("window_days must be positive, got %d", c.WindowDays)
	}
	if c.Scrape.Workers <= 0 {
		return fmt.Errorf("scrape.workers must be positive, got %d", c.Scrape.Workers)
	}
	if c.Scrape.StaleAfterHours <= 0 {
		return fmt.Errorf("scrape.stale_after_hours must be positive, got %d", c.Scrape.StaleAfterHours)
	}
	seen := make(map[string]struct{}, len(c.Scrape.Feeds))
	for _, feed := range c.Scrape.Feeds {
		if strings.TrimSpace(feed.Name) == "" || strings.TrimSpace(feed.URL) == "" {
			return fmt.Errorf("scrape feed entries need both name and url (got name=%q url=%q)", feed.Name, feed.URL)
		}
		if _, dup := seen[feed.Name]; dup {
			return fmt.Errorf("scrape feed %q defined twice", feed.Name)
		}
		seen[feed.Name] = struct{}{}
	}
	return nil
}

// RequireTMDB validates the settings the film identity resolver needs.
func (c *Config) RequireTMDB() error {
	if strings.TrimSpace(c.TMDB.APIKey) == "" {
		return errors.New("tmdb.api_key must be set (config file or TMDB_API_KEY)")
	}
	return nil
}

// EnsureDirectories creates every directory the pipeline writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.ThumbnailDir(), c.TMDBImageDir(), c.ExportDir, c.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath is the canonical catalog location.
func (c *Config) DatabasePath() string { return filepath.Join(c.DataDir, "showtimes.db") }

// ThumbnailDir holds locally cached square-cropped showtime images.
func (c *Config) ThumbnailDir() string { return filepath.Join(c.DataDir, "thumbnails") }

// TMDBImageDir caches candidate poster and backdrop downloads.
func (c *Config) TMDBImageDir() string { return filepath.Join(c.DataDir, "tmdb_images") }

// MatchCachePath is the persistent film match cache.
func (c *Config) MatchCachePath() string { return filepath.Join(c.DataDir, "film_matches.json") }

// LockPath guards mutating pipeline runs against concurrent instances.
func (c *Config) LockPath() string { return filepath.Join(c.DataDir, "cinescrapers.lock") }

// WriteSample writes the annotated sample config to path.
func WriteSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
