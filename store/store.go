// Package store implements the bounded retention window for accepted dots.
// Dots are kept in insertion order with a hard capacity bound enforced on
// append and an age bound enforced by a periodic sweep. Eviction from the
// front relies on upstream timestamps being non-decreasing; the oldest dot is
// always the first element.
package store

import (
	"context"
	"sync"
	"time"

	"pskprop/spot"
)

// DefaultCapacity bounds the retention window when no explicit capacity is
// configured.
const DefaultCapacity = 20000

// SweepInterval is how often the age sweep runs.
const SweepInterval = 10 * time.Second

// Store is a thread-safe, insertion-ordered collection of dots. All
// synchronization is internal; callers never see the lock.
type Store struct {
	mu       sync.Mutex
	dots     []*spot.Dot
	capacity int
}

// New allocates a store holding at most capacity dots. Non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity}
}

// Append adds a dot, evicting the oldest when the capacity bound would be
// exceeded.
func (s *Store) Append(d *spot.Dot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.dots) >= s.capacity {
		overflow := len(s.dots) - s.capacity + 1
		s.dots = append(s.dots[:0], s.dots[overflow:]...)
	}
	s.dots = append(s.dots, d)
}

// Snapshot returns a copy of the current dots in insertion order. Used to
// seed newly connected subscribers.
func (s *Store) Snapshot() []*spot.Dot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make([]*spot.Dot, len(s.dots))
	copy(snap, s.dots)
	return snap
}

// Clear drops every retained dot. Called on reconfiguration.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dots = nil
}

// Len returns the number of retained dots.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dots)
}

// Prune removes dots older than now-maxAge from the front and returns how
// many were removed.
func (s *Store) Prune(now time.Time, maxAge time.Duration) int {
	cutoff := float64(now.UnixNano())/float64(time.Second) - maxAge.Seconds()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for removed < len(s.dots) && s.dots[removed].TS < cutoff {
		removed++
	}
	if removed > 0 {
		s.dots = append(s.dots[:0], s.dots[removed:]...)
	}
	return removed
}

// Sweep runs the periodic age eviction until ctx is done. maxAge is consulted
// on every pass so live reconfiguration takes effect without restarting the
// sweep. onPrune fires only after a pass that removed at least one dot,
// carrying the new total; callers use it to push a count notification to
// subscribers.
func (s *Store) Sweep(ctx context.Context, interval time.Duration, maxAge func() time.Duration, onPrune func(remaining int)) {
	if interval <= 0 {
		interval = SweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if s.Prune(now, maxAge()) > 0 && onPrune != nil {
				onPrune(s.Len())
			}
		}
	}
}
