// Package scrape collects raw listings from cinema sources and lands them in
// the catalog as canonical showtimes.
package scrape

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"cinescrapers/internal/showtime"
)

// Scraper produces the raw listings for one cinema source. Implementations
// must be safe to call repeatedly; each Scrape call returns the full current
// programme for the source.
type Scraper interface {
	Name() string
	Scrape(ctx context.Context) ([]showtime.Raw, error)
}

// Registry holds the known scrapers keyed by name.
type Registry struct {
	mu       sync.RWMutex
	scrapers map[string]Scraper
}

// NewRegistry creates an empty scraper registry.
func NewRegistry() *Registry {
	return &Registry{scrapers: make(map[string]Scraper)}
}

// Register adds a scraper. Names must be unique.
func (r *Registry) Register(s Scraper) error {
	name := strings.TrimSpace(s.Name())
	if name == "" {
		return fmt.Errorf("scraper has no name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.scrapers[name]; exists {
		return fmt.Errorf("scraper %q already registered", name)
	}
	r.scrapers[name] = s
	return nil
}

// Get returns the named scraper.
func (r *Registry) Get(name string) (Scraper, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.scrapers[name]
	return s, ok
}

// Names returns all registered scraper names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.scrapers))
	for name := range r.scrapers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select resolves the requested names to scrapers. An empty request selects
// every registered scraper.
func (r *Registry) Select(names []string) ([]Scraper, error) {
	if len(names) == 0 {
		names = r.Names()
	}

	selected := make([]Scraper, 0, len(names))
	for _, name := range names {
		s, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown scraper %q", name)
		}
		selected = append(selected, s)
	}
	return selected, nil
}
