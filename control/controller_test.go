package control

import (
	"reflect"
	"testing"
	"time"

	"pskprop/filter"
	"pskprop/hub"
	"pskprop/spot"
	"pskprop/store"
)

type fakeFeed struct {
	calls [][]string
}

func (f *fakeFeed) SetBands(bands []string) {
	f.calls = append(f.calls, bands)
}

type fixture struct {
	cfg  *filter.Config
	dots *store.Store
	hub  *hub.Hub
	feed *fakeFeed
	ctrl *Controller
}

func newFixture(t *testing.T, bands ...string) *fixture {
	t.Helper()
	settings, err := filter.NewSettings("KP20", 400, 15*time.Minute, bands, "aeqd")
	if err != nil {
		t.Fatalf("NewSettings: %v", err)
	}
	f := &fixture{
		cfg:  filter.NewConfig(settings),
		dots: store.New(0),
		hub:  hub.New(0),
		feed: &fakeFeed{},
	}
	f.ctrl = New(f.cfg, f.dots, f.hub, f.feed)
	return f
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

func TestApplyRadiusOnly(t *testing.T) {
	f := newFixture(t, "20m")
	f.dots.Append(&spot.Dot{Band: "20m", TS: 1})
	sub := f.hub.Register(nil)
	<-sub.C() // drain registration snapshot

	result := f.ctrl.Apply(Update{RadiusKm: floatPtr(250)})
	if !result.OK || !result.Cleared || result.BandsChanged {
		t.Fatalf("result = %+v, want ok+cleared without bands_changed", result)
	}
	if got := f.cfg.Current().RadiusKm; got != 250 {
		t.Fatalf("RadiusKm = %v, want 250", got)
	}
	if f.dots.Len() != 0 {
		t.Fatalf("store not cleared: %d dots", f.dots.Len())
	}
	if len(f.feed.calls) != 0 {
		t.Fatalf("subscription diff ran on radius-only change: %v", f.feed.calls)
	}
	msg := <-sub.C()
	if msg.Type != hub.TypeSnapshot {
		t.Fatalf("broadcast type = %q, want snapshot", msg.Type)
	}
	if dots := msg.Payload.(hub.SnapshotPayload).Dots; len(dots) != 0 {
		t.Fatalf("reset snapshot carries %d dots, want 0", len(dots))
	}
}

func TestApplyBandsResubscribes(t *testing.T) {
	f := newFixture(t, "20m")
	result := f.ctrl.Apply(Update{Bands: []string{"40m", "20m"}})
	if !result.Cleared || !result.BandsChanged {
		t.Fatalf("result = %+v, want cleared+bands_changed", result)
	}
	if len(f.feed.calls) != 1 {
		t.Fatalf("SetBands called %d times, want 1", len(f.feed.calls))
	}
	// Band list arrives in frequency order regardless of request order.
	if want := []string{"40m", "20m"}; !reflect.DeepEqual(f.feed.calls[0], want) {
		t.Fatalf("SetBands(%v), want %v", f.feed.calls[0], want)
	}
	if got := f.cfg.Current().Bands(); !reflect.DeepEqual(got, []string{"40m", "20m"}) {
		t.Fatalf("Bands() = %v, want [40m 20m]", got)
	}
}

func TestApplyHomeLocator(t *testing.T) {
	f := newFixture(t, "20m")
	result := f.ctrl.Apply(Update{HomeLocator: strPtr("JO65")})
	if !result.Cleared {
		t.Fatalf("result = %+v, want cleared", result)
	}
	settings := f.cfg.Current()
	if settings.HomeLocator != "JO65" || settings.HomeLat != 55.5 || settings.HomeLon != 13.0 {
		t.Fatalf("home = %q (%v, %v), want JO65 (55.5, 13)", settings.HomeLocator, settings.HomeLat, settings.HomeLon)
	}
}

func TestApplyInvalidFieldsSkippedValidApplied(t *testing.T) {
	f := newFixture(t, "20m")
	before := f.cfg.Current()
	result := f.ctrl.Apply(Update{
		HomeLocator: strPtr("not-a-grid"),
		RadiusKm:    floatPtr(-5),
		AgeMinutes:  intPtr(30),
	})
	if !result.Cleared {
		t.Fatalf("result = %+v, want cleared (age applied)", result)
	}
	after := f.cfg.Current()
	if after.HomeLocator != before.HomeLocator || after.RadiusKm != before.RadiusKm {
		t.Fatalf("invalid fields applied: %+v", after)
	}
	if after.MaxAge != 30*time.Minute {
		t.Fatalf("MaxAge = %v, want 30m", after.MaxAge)
	}
}

func TestApplyNoChange(t *testing.T) {
	f := newFixture(t, "20m")
	f.dots.Append(&spot.Dot{Band: "20m", TS: 1})
	sub := f.hub.Register(nil)
	<-sub.C()

	result := f.ctrl.Apply(Update{})
	if result.Cleared || result.BandsChanged || !result.OK {
		t.Fatalf("result = %+v, want ok with nothing changed", result)
	}
	if f.dots.Len() != 1 {
		t.Fatalf("store cleared on no-op update")
	}
	select {
	case msg := <-sub.C():
		t.Fatalf("unexpected broadcast %q on no-op update", msg.Type)
	default:
	}
}

func TestApplyAtomicVisibility(t *testing.T) {
	// A reader holding the old snapshot keeps a consistent pair of values;
	// the swap publishes radius and bands together.
	f := newFixture(t, "20m")
	old := f.cfg.Current()
	f.ctrl.Apply(Update{RadiusKm: floatPtr(100), Bands: []string{"40m"}})
	if old.RadiusKm != 400 || !old.BandEnabled("20m") {
		t.Fatalf("old snapshot mutated: %+v", old)
	}
	current := f.cfg.Current()
	if current.RadiusKm != 100 || !current.BandEnabled("40m") || current.BandEnabled("20m") {
		t.Fatalf("new snapshot incomplete: %+v", current)
	}
}

func TestApplyMapType(t *testing.T) {
	f := newFixture(t, "20m")
	result := f.ctrl.Apply(Update{MapType: strPtr("mercator")})
	if !result.Cleared {
		t.Fatalf("result = %+v, want cleared", result)
	}
	if got := f.cfg.Current().MapType; got != "mercator" {
		t.Fatalf("MapType = %q, want mercator", got)
	}
}
