package config

import (
	"os"
	"path/filepath"
)

// Default returns the baseline configuration before file and environment
// overrides.
func Default() Config {
	dataDir := "cinescrapers-data"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".local", "share", "cinescrapers")
	}
	return Config{
		DataDir:    dataDir,
		ExportDir:  filepath.Join(dataDir, "export"),
		LogDir:     filepath.Join(dataDir, "logs"),
		LogLevel:   "info",
		LogFormat:  "console",
		WindowDays: 90,
		TMDB: TMDB{
			BaseURL:  "https://api.themoviedb.org/3",
			ImageURL: "https://image.tmdb.org/t/p/w500",
			Language: "en-GB",
		},
		Embedder: Embedder{
			RequestTimeout: 30,
		},
		Scrape: Scrape{
			Workers:         4,
			StaleAfterHours: 48,
			WatchSchedule:   "0 */6 * * *",
		},
	}
}

// applyFallbacks fills gaps a partial config file leaves behind.
func (c *Config) applyFallbacks() {
	defaults := Default()
	if c.DataDir == "" {
		c.DataDir = defaults.DataDir
	}
	if c.ExportDir == "" {
		c.ExportDir = filepath.Join(c.DataDir, "export")
	}
	if c.LogDir == "" {
		c.LogDir = filepath.Join(c.DataDir, "logs")
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaults.LogFormat
	}
	if c.WindowDays == 0 {
		c.WindowDays = defaults.WindowDays
	}
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaults.TMDB.BaseURL
	}
	if c.TMDB.ImageURL == "" {
		c.TMDB.ImageURL = defaults.TMDB.ImageURL
	}
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaults.TMDB.Language
	}
	if c.Embedder.RequestTimeout == 0 {
		c.Embedder.RequestTimeout = defaults.Embedder.RequestTimeout
	}
	if c.Scrape.Workers == 0 {
		c.Scrape.Workers = defaults.Scrape.Workers
	}
	if c.Scrape.StaleAfterHours == 0 {
		c.Scrape.StaleAfterHours = defaults.Scrape.StaleAfterHours
	}
	if c.Scrape.WatchSchedule == "" {
		c.Scrape.WatchSchedule = defaults.Scrape.WatchSchedule
	}
}
