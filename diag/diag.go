// Package diag tracks the pipeline's observable state: cumulative
// seen/accepted counters, per-reason drop counters, and a bounded ring of
// the most recent per-message decisions. Counters use atomics so per-message
// increments never contend on a mutex; only the recent ring takes a lock.
// Everything is mirrored into Prometheus collectors for /metrics.
package diag

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"pskprop/filter"
)

// RecentSize bounds the recent-decisions ring; oldest entries fall off first.
const RecentSize = 50

// Decision is one recent-ring entry summarizing a per-message outcome.
type Decision struct {
	Reason       string  `json:"reason"` // "ok", a drop reason, or "exception"
	Decision     string  `json:"decision,omitempty"`
	Band         string  `json:"band,omitempty"`
	SNR          *int    `json:"snr,omitempty"`
	DistSender   float64 `json:"dS,omitempty"`
	DistReceiver float64 `json:"dR,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Tracker holds the diagnostics for one pipeline instance.
type Tracker struct {
	seen     atomic.Uint64
	accepted atomic.Uint64
	drops    map[filter.Reason]*atomic.Uint64

	mu     sync.Mutex
	recent []Decision // ring, newest last

	registry      *prometheus.Registry
	seenTotal     prometheus.Counter
	acceptedTotal prometheus.Counter
	dropsTotal    *prometheus.CounterVec
}

// New creates a Tracker with zeroed counters. storeLen and subscribers feed
// the store-size and subscriber gauges lazily at scrape time.
func New(storeLen func() int, subscribers func() int) *Tracker {
	t := &Tracker{
		drops:    make(map[filter.Reason]*atomic.Uint64, len(filter.DropReasons)),
		registry: prometheus.NewRegistry(),
	}
	for _, reason := range filter.DropReasons {
		t.drops[reason] = &atomic.Uint64{}
	}

	t.seenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pskprop",
		Name:      "messages_seen_total",
		Help:      "Decoded messages received from the MQTT feed",
	})
	t.acceptedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pskprop",
		Name:      "dots_accepted_total",
		Help:      "Reports accepted and plotted as dots",
	})
	t.dropsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pskprop",
		Name:      "drops_total",
		Help:      "Reports dropped, by reason",
	}, []string{"reason"})
	t.registry.MustRegister(t.seenTotal, t.acceptedTotal, t.dropsTotal)
	if storeLen != nil {
		t.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "pskprop",
			Name:      "retained_dots",
			Help:      "Dots currently held in the retention store",
		}, func() float64 { return float64(storeLen()) }))
	}
	if subscribers != nil {
		t.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "pskprop",
			Name:      "subscribers",
			Help:      "Currently connected event-stream subscribers",
		}, func() float64 { return float64(subscribers()) }))
	}
	return t
}

// Registry returns the Prometheus registry backing /metrics.
func (t *Tracker) Registry() *prometheus.Registry {
	return t.registry
}

// IncrementSeen counts one successfully decoded inbound message.
func (t *Tracker) IncrementSeen() {
	t.seen.Add(1)
	t.seenTotal.Inc()
}

// RecordVerdict counts one classification outcome and appends its summary to
// the recent ring. Band-filtered drops are counted but not ring-logged; at
// full feed rate they would crowd out every other entry.
func (t *Tracker) RecordVerdict(v filter.Verdict) {
	if v.Accepted {
		t.accepted.Add(1)
		t.acceptedTotal.Inc()
		t.appendRecent(Decision{Reason: "ok", Decision: v.Decision, Band: v.Band, SNR: v.Dot.SNR})
		return
	}
	t.countDrop(v.Reason)
	switch v.Reason {
	case filter.ReasonBandFiltered:
	case filter.ReasonRadius:
		t.appendRecent(Decision{
			Reason:       string(v.Reason),
			DistSender:   roundTenth(v.DistSender),
			DistReceiver: roundTenth(v.DistReceiver),
		})
	default:
		t.appendRecent(Decision{Reason: string(v.Reason), Band: v.Band})
	}
}

// RecordException counts an unexpected per-message failure as a parse drop,
// keeping a truncated error text for inspection.
func (t *Tracker) RecordException(err error) {
	t.countDrop(filter.ReasonParse)
	text := err.Error()
	if len(text) > 200 {
		text = text[:200]
	}
	t.appendRecent(Decision{Reason: "exception", Error: text})
}

// Seen returns the cumulative decoded-message count.
func (t *Tracker) Seen() uint64 {
	return t.seen.Load()
}

// Accepted returns the cumulative accepted-dot count.
func (t *Tracker) Accepted() uint64 {
	return t.accepted.Load()
}

// DropCounts returns a copy of the per-reason drop counters.
func (t *Tracker) DropCounts() map[string]uint64 {
	counts := make(map[string]uint64, len(t.drops))
	for reason, counter := range t.drops {
		counts[string(reason)] = counter.Load()
	}
	return counts
}

// Recent returns the recent-decisions ring, oldest first.
func (t *Tracker) Recent() []Decision {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Decision, len(t.recent))
	copy(out, t.recent)
	return out
}

func (t *Tracker) countDrop(reason filter.Reason) {
	if counter, ok := t.drops[reason]; ok {
		counter.Add(1)
	}
	t.dropsTotal.WithLabelValues(string(reason)).Inc()
}

func (t *Tracker) appendRecent(d Decision) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.recent) >= RecentSize {
		t.recent = append(t.recent[:0], t.recent[1:]...)
	}
	t.recent = append(t.recent, d)
}

func roundTenth(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
