package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"cinescrapers/internal/catalog"
	"cinescrapers/internal/config"
	"cinescrapers/internal/logging"
	"cinescrapers/internal/scrape"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewWithLogFile(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}, cfg.LogDir)
}

func (c *commandContext) openStore(logger *slog.Logger) (*catalog.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return catalog.Open(cfg.DatabasePath(), logger)
}

// acquireLock takes the pipeline-wide file lock that serializes mutating
// commands. The returned release func must be called when the command ends.
func (c *commandContext) acquireLock() (func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire pipeline lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another cinescrapers instance holds the lock at %s", cfg.LockPath())
	}
	return func() { _ = lock.Unlock() }, nil
}

// buildRegistry assembles the scraper registry from the configured feeds.
func (c *commandContext) buildRegistry() (*scrape.Registry, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	registry := scrape.NewRegistry()
	for _, feed := range cfg.Scrape.Feeds {
		scraper, err := scrape.NewFeedScraper(feed.Name, feed.URL)
		if err != nil {
			return nil, fmt.Errorf("configure feed %q: %w", feed.Name, err)
		}
		if err := registry.Register(scraper); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
