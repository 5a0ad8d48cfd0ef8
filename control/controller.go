// Package control applies live filter reconfiguration. Each update is
// validated field by field, published as one atomic settings swap, and
// followed by the invalidation sequence: retained dots are cleared, the
// MQTT subscription set is re-diffed when the band set changed, and every
// subscriber receives an empty snapshot telling it to resume from live
// events.
package control

import (
	"sync"
	"time"

	"pskprop/filter"
	"pskprop/hub"
	"pskprop/spot"
	"pskprop/store"
)

// Feed is the subscription surface of the ingest client.
type Feed interface {
	SetBands(bands []string)
}

// Update is a partial reconfiguration request. Pointer fields distinguish
// "absent" from zero values; absent fields keep their current setting.
type Update struct {
	HomeLocator *string  `json:"home_locator"`
	RadiusKm    *float64 `json:"radius_km"`
	AgeMinutes  *int     `json:"age_minutes"`
	Bands       []string `json:"bands"`
	MapType     *string  `json:"map_type"`
}

// Result reports what an update did.
type Result struct {
	OK           bool `json:"ok"`
	Cleared      bool `json:"cleared"`
	BandsChanged bool `json:"bands_changed"`
}

// Controller serializes reconfiguration. A single mutex makes it the only
// writer of filter settings; readers everywhere else see either the full old
// version or the full new one.
type Controller struct {
	mu   sync.Mutex
	cfg  *filter.Config
	dots *store.Store
	hub  *hub.Hub
	feed Feed
}

// New wires a controller to the shared pipeline components.
func New(cfg *filter.Config, dots *store.Store, h *hub.Hub, feed Feed) *Controller {
	return &Controller{cfg: cfg, dots: dots, hub: h, feed: feed}
}

// Apply validates and applies a partial update. Invalid fields are skipped;
// the remaining valid fields still apply, together, in one settings swap.
// When anything changed the store is cleared and subscribers get an empty
// snapshot; the subscription set is touched only when the band set changed.
func (c *Controller) Apply(u Update) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.cfg.Current().Clone()
	changed := false
	bandsChanged := false

	if u.HomeLocator != nil && next.SetHome(*u.HomeLocator) {
		changed = true
	}
	if u.RadiusKm != nil && *u.RadiusKm > 0 {
		next.RadiusKm = *u.RadiusKm
		changed = true
	}
	if u.AgeMinutes != nil && *u.AgeMinutes > 0 {
		next.MaxAge = time.Duration(*u.AgeMinutes) * time.Minute
		changed = true
	}
	if u.Bands != nil {
		next.SetBands(u.Bands)
		changed = true
		bandsChanged = true
	}
	if u.MapType != nil {
		next.MapType = *u.MapType
		changed = true
	}

	if changed {
		c.cfg.Swap(next)
		c.dots.Clear()
		if bandsChanged && c.feed != nil {
			c.feed.SetBands(next.Bands())
		}
		c.hub.Broadcast(hub.TypeSnapshot, hub.SnapshotPayload{Dots: []*spot.Dot{}})
	}

	return Result{OK: true, Cleared: changed, BandsChanged: bandsChanged}
}
