// Package spot defines the propagation-report domain types: the raw Report
// extracted from a PSKReporter MQTT message and the plottable Dot produced by
// the geofilter, plus the band table shared by both.
package spot

// Kind values identify which station's position a Dot plots.
const (
	KindSender   = "sender"
	KindReceiver = "receiver"
)

// Dot is one accepted propagation event: a single plotted position. Dots are
// immutable once created; the retention store owns them from append to
// eviction.
type Dot struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Band string  `json:"band"`
	SNR  *int    `json:"snr"` // nullable: not every report carries one
	TS   float64 `json:"ts"`  // seconds since epoch
	Kind string  `json:"kind"`
}
