package filter

import (
	"time"

	"pskprop/geo"
	"pskprop/spot"
)

// Reason categorizes why an inbound report was not retained.
type Reason string

const (
	ReasonParse        Reason = "parse"
	ReasonBandFiltered Reason = "band_filtered"
	ReasonMissingLoc   Reason = "missing_loc"
	ReasonGridInvalid  Reason = "grid_invalid"
	ReasonRadius       Reason = "radius"
)

// DropReasons lists every reason the engine can produce, in reporting order.
var DropReasons = []Reason{ReasonGridInvalid, ReasonMissingLoc, ReasonBandFiltered, ReasonRadius, ReasonParse}

// Verdict is the outcome of classifying one report. Accepted verdicts carry
// the Dot to retain and broadcast; rejected ones carry the drop reason.
// DistSender/DistReceiver are populated for radius drops so diagnostics can
// show how far outside the circle both endpoints were.
type Verdict struct {
	Accepted     bool
	Reason       Reason
	Dot          *spot.Dot
	Band         string
	Decision     string
	DistSender   float64
	DistReceiver float64
}

// Engine classifies reports against the current filter settings. Stateless
// apart from the Config reference; safe for concurrent use.
type Engine struct {
	cfg *Config
}

// NewEngine creates an Engine reading settings snapshots from cfg.
func NewEngine(cfg *Config) *Engine {
	return &Engine{cfg: cfg}
}

// Evaluate runs the decision sequence for one report. First failing rule
// wins and names the drop reason.
func (e *Engine) Evaluate(r *spot.Report, now time.Time) Verdict {
	settings := e.cfg.Current()

	band := r.Band()
	if band == "" || !settings.BandEnabled(band) {
		return Verdict{Reason: ReasonBandFiltered, Band: band}
	}
	if r.SenderLocator == "" || r.ReceiverLocator == "" {
		return Verdict{Reason: ReasonMissingLoc, Band: band}
	}
	senderLat, senderLon, senderOK := geo.LocatorLatLon(r.SenderLocator)
	receiverLat, receiverLon, receiverOK := geo.LocatorLatLon(r.ReceiverLocator)
	if !senderOK || !receiverOK {
		return Verdict{Reason: ReasonGridInvalid, Band: band}
	}

	distSender := geo.HaversineKm(settings.HomeLat, settings.HomeLon, senderLat, senderLon)
	distReceiver := geo.HaversineKm(settings.HomeLat, settings.HomeLon, receiverLat, receiverLon)

	dot := &spot.Dot{
		Band: band,
		SNR:  r.SNR,
		TS:   r.EventTime(float64(now.UnixNano()) / float64(time.Second)),
	}
	switch {
	case distReceiver <= settings.RadiusKm:
		// The receiver is local, so the sender's position is the new point.
		dot.Lat, dot.Lon, dot.Kind = senderLat, senderLon, spot.KindSender
		return Verdict{
			Accepted: true, Dot: dot, Band: band,
			Decision:   "receiver_in_radius -> plot_sender",
			DistSender: distSender, DistReceiver: distReceiver,
		}
	case distSender <= settings.RadiusKm:
		dot.Lat, dot.Lon, dot.Kind = receiverLat, receiverLon, spot.KindReceiver
		return Verdict{
			Accepted: true, Dot: dot, Band: band,
			Decision:   "sender_in_radius -> plot_receiver",
			DistSender: distSender, DistReceiver: distReceiver,
		}
	default:
		return Verdict{
			Reason: ReasonRadius, Band: band,
			DistSender: distSender, DistReceiver: distReceiver,
		}
	}
}
