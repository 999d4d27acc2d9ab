package filmid

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"cinescrapers/internal/hashid"
	"cinescrapers/internal/logging"
)

// Entry records the outcome of a resolution attempt against TMDB. A negative
// outcome (Matched false) is cached too, so unmatched listings are not
// re-searched on every run.
type Entry struct {
	Key       string    `json:"key"`
	TMDBID    int64     `json:"tmdb_id,omitempty"`
	Matched   bool      `json:"matched"`
	Title     string    `json:"title,omitempty"`
	Score     float64   `json:"score,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// CacheKey derives the cache key for a listing from the fields that feed the
// match decision. Any change to title, description, or artwork forces a fresh
// resolution.
func CacheKey(normTitle, description, thumbnail string) string {
	return hashid.Hash(normTitle + "\x00" + description + "\x00" + thumbnail)
}

// MatchCache provides thread-safe access to the persistent match cache.
type MatchCache struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMatchCache creates a cache backed by the given file. If path is empty,
// the cache is non-functional and every operation becomes a no-op. The cache
// file is created lazily on first Store call.
func NewMatchCache(path string, logger *slog.Logger) *MatchCache {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "matchcache")

	c := &MatchCache{
		path:    path,
		logger:  logger,
		entries: make(map[string]Entry),
	}

	if path == "" {
		return c
	}

	if err := c.load(); err != nil {
		logger.Warn("failed to load match cache; starting empty",
			logging.Error(err),
			logging.String("path", path))
	}

	return c
}

// Lookup returns the cached resolution for the given key if present.
func (c *MatchCache) Lookup(key string) (Entry, bool) {
	key = strings.TrimSpace(key)
	if key == "" || c.path == "" {
		return Entry{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[key]
	return entry, found
}

// Store adds or updates an entry and persists the cache to disk.
func (c *MatchCache) Store(entry Entry) error {
	entry.Key = strings.TrimSpace(entry.Key)
	if entry.Key == "" {
		return errors.New("cache key cannot be empty")
	}
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[entry.Key] = entry

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}

	c.logger.Debug("cached match result",
		logging.String("key", entry.Key),
		logging.Bool("matched", entry.Matched),
		logging.Int64("tmdb_id", entry.TMDBID),
		logging.String("title", entry.Title))

	return nil
}

// Count returns the number of cached entries.
func (c *MatchCache) Count() int {
	if c.path == "" {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Clear removes all entries and persists the empty cache.
func (c *MatchCache) Clear() error {
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}

	c.logger.Debug("cleared match cache")
	return nil
}

func (c *MatchCache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // fresh start
		}
		return fmt.Errorf("read cache file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}

	c.entries = make(map[string]Entry, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.Key) != "" {
			c.entries[entry.Key] = entry
		}
	}

	c.logger.Debug("loaded match cache",
		logging.Int("entry_count", len(c.entries)),
		logging.String("path", c.path))

	return nil
}

// save writes the cache to disk atomically.
func (c *MatchCache) save() error {
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}

	// Sort for deterministic output
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CheckedAt.After(entries[j].CheckedAt)
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
