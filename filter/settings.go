// Package filter implements the geofilter: a versioned filter configuration
// and the decision engine that classifies incoming propagation reports
// against it.
//
// Filter Logic:
//   - Band must resolve and be enabled
//   - Both endpoint locators must be present and decodable
//   - The report is kept when either endpoint lies within the home radius;
//     the plotted position is the other endpoint
//
// Settings are immutable snapshots swapped atomically, so the ingest loop
// and the prune sweep always observe a complete, consistent configuration
// and never a torn mix of old radius and new band set.
package filter

import (
	"fmt"
	"sync/atomic"
	"time"

	"pskprop/geo"
	"pskprop/spot"
)

// Fallback home position used when the configured locator does not decode
// (Helsinki, KP20).
const (
	DefaultHomeLat = 60.1708
	DefaultHomeLon = 24.9375
)

// Settings is one immutable filter configuration version. Readers obtain a
// snapshot from Config.Current and must not mutate it; updates build a fresh
// Settings via Clone and publish it with Config.Swap.
type Settings struct {
	HomeLocator string
	HomeLat     float64
	HomeLon     float64
	RadiusKm    float64
	MaxAge      time.Duration
	MapType     string // opaque rendering hint, passed through to clients

	bands map[string]bool
}

// NewSettings builds a validated Settings snapshot. Unknown band labels are
// dropped; an empty band list enables every tracked band. A locator that does
// not decode falls back to the default home position.
func NewSettings(homeLocator string, radiusKm float64, age time.Duration, bands []string, mapType string) (*Settings, error) {
	if radiusKm <= 0 {
		return nil, fmt.Errorf("radius must be positive, got %v", radiusKm)
	}
	if age <= 0 {
		return nil, fmt.Errorf("age window must be positive, got %v", age)
	}
	s := &Settings{
		HomeLocator: homeLocator,
		HomeLat:     DefaultHomeLat,
		HomeLon:     DefaultHomeLon,
		RadiusKm:    radiusKm,
		MaxAge:      age,
		MapType:     mapType,
		bands:       make(map[string]bool),
	}
	if lat, lon, ok := geo.LocatorLatLon(homeLocator); ok {
		s.HomeLat, s.HomeLon = lat, lon
	}
	if len(bands) == 0 {
		bands = spot.SupportedBandNames()
	}
	for _, band := range bands {
		normalized := spot.NormalizeBand(band)
		if spot.IsValidBand(normalized) {
			s.bands[normalized] = true
		}
	}
	return s, nil
}

// BandEnabled reports whether the given canonical band name is enabled.
func (s *Settings) BandEnabled(band string) bool {
	return s.bands[band]
}

// Bands returns the enabled bands in frequency order.
func (s *Settings) Bands() []string {
	names := make([]string, 0, len(s.bands))
	for _, name := range spot.SupportedBandNames() {
		if s.bands[name] {
			names = append(names, name)
		}
	}
	return names
}

// Clone returns a deep copy safe to mutate before publishing.
func (s *Settings) Clone() *Settings {
	dup := *s
	dup.bands = make(map[string]bool, len(s.bands))
	for band, enabled := range s.bands {
		dup.bands[band] = enabled
	}
	return &dup
}

// SetBands replaces the enabled band set on an unpublished clone.
func (s *Settings) SetBands(bands []string) {
	s.bands = make(map[string]bool, len(bands))
	for _, band := range bands {
		normalized := spot.NormalizeBand(band)
		if spot.IsValidBand(normalized) {
			s.bands[normalized] = true
		}
	}
}

// SetHome repoints the home position on an unpublished clone. Returns false
// and leaves the clone untouched when the locator does not decode.
func (s *Settings) SetHome(locator string) bool {
	lat, lon, ok := geo.LocatorLatLon(locator)
	if !ok {
		return false
	}
	s.HomeLocator = locator
	s.HomeLat, s.HomeLon = lat, lon
	return true
}

// Config holds the current Settings behind an atomic pointer. Swaps publish
// a complete new version in one step; readers pay one atomic load.
type Config struct {
	current atomic.Pointer[Settings]
}

// NewConfig creates a Config publishing the given initial Settings.
func NewConfig(initial *Settings) *Config {
	c := &Config{}
	c.current.Store(initial)
	return c
}

// Current returns the live Settings snapshot.
func (c *Config) Current() *Settings {
	return c.current.Load()
}

// Swap publishes a new Settings version.
func (c *Config) Swap(next *Settings) {
	c.current.Store(next)
}
