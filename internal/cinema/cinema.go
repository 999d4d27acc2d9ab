// Package cinema holds the static registry of cinemas the pipeline knows
// about. The registry is reference data: loaded once, validated at
// construction, never mutated at runtime.
package cinema

import (
	_ "embed"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

//go:embed cinemas.toml
var registryTOML []byte

// Cinema describes a single venue. Shortcode is the primary cross-reference
// key used by showtime records and scrapers.
type Cinema struct {
	Shortcode string  `toml:"shortcode" json:"shortcode"`
	Shortname string  `toml:"shortname" json:"shortname"`
	Name      string  `toml:"name" json:"name"`
	URL       string  `toml:"url" json:"url"`
	Address   string  `toml:"address" json:"address"`
	Phone     string  `toml:"phone" json:"phone,omitempty"`
	Latitude  float64 `toml:"latitude" json:"latitude"`
	Longitude float64 `toml:"longitude" json:"longitude"`

	// Postcode is derived from Address at registry construction.
	Postcode string `toml:"-" json:"postcode,omitempty"`
}

// Registry provides read-only lookup over the cinema set.
type Registry struct {
	cinemas []Cinema
	byCode  map[string]Cinema
}

type registryFile struct {
	Cinemas []Cinema `toml:"cinemas"`
}

// NewRegistry validates the supplied cinemas and derives postcodes. A cinema
// with an address that yields no postcode fails construction; the registry is
// hand-maintained data and a bad entry should be fixed, not skipped.
func NewRegistry(cinemas []Cinema) (*Registry, error) {
	byCode := make(map[string]Cinema, len(cinemas))
	out := make([]Cinema, 0, len(cinemas))
	for _, c := range cinemas {
		if c.Shortcode == "" {
			return nil, fmt.Errorf("cinema %q: shortcode required", c.Name)
		}
		if c.Name == "" {
			return nil, fmt.Errorf("cinema %q: name required", c.Shortcode)
		}
		if _, dup := byCode[c.Shortcode]; dup {
			return nil, fmt.Errorf("cinema shortcode %q defined twice", c.Shortcode)
		}
		if c.Address != "" {
			postcode, err := ExtractPostcode(c.Address)
			if err != nil {
				return nil, fmt.Errorf("cinema %q: %w", c.Shortcode, err)
			}
			c.Postcode = postcode
		}
		byCode[c.Shortcode] = c
		out = append(out, c)
	}
	return &Registry{cinemas: out, byCode: byCode}, nil
}

// Default loads the registry embedded in the binary.
func Default() (*Registry, error) {
	var file registryFile
	if err := toml.Unmarshal(registryTOML, &file); err != nil {
		return nil, fmt.Errorf("parse embedded cinema registry: %w", err)
	}
	return NewRegistry(file.Cinemas)
}

// Lookup returns the cinema registered under shortcode.
func (r *Registry) Lookup(shortcode string) (Cinema, bool) {
	c, ok := r.byCode[shortcode]
	return c, ok
}

// All returns every cinema in registry order.
func (r *Registry) All() []Cinema {
	out := make([]Cinema, len(r.cinemas))
	copy(out, r.cinemas)
	return out
}

// Len returns the number of registered cinemas.
func (r *Registry) Len() int {
	return len(r.cinemas)
}
