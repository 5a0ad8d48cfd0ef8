package filter

import (
	"testing"
	"time"

	"pskprop/spot"
)

func testConfig(t *testing.T, bands ...string) *Config {
	t.Helper()
	settings, err := NewSettings("KP20", 400, 15*time.Minute, bands, "aeqd")
	if err != nil {
		t.Fatalf("NewSettings: %v", err)
	}
	return NewConfig(settings)
}

func snrString(v string) map[string]any {
	return map[string]any{
		"senderLocator":   "JO65",
		"receiverLocator": "KP20",
		"frequency":       float64(14_050_000),
		"snr":             v,
	}
}

func TestEvaluateReceiverInRadiusPlotsSender(t *testing.T) {
	// Receiver sits in the home square, sender is ~870 km out: the sender's
	// position is the interesting point.
	engine := NewEngine(testConfig(t, "20m"))
	report := spot.ExtractReport(snrString("-5"))
	verdict := engine.Evaluate(report, time.Now())
	if !verdict.Accepted {
		t.Fatalf("Evaluate rejected with %q, want accept", verdict.Reason)
	}
	if verdict.Dot.Kind != spot.KindSender {
		t.Fatalf("Kind = %q, want %q", verdict.Dot.Kind, spot.KindSender)
	}
	if verdict.Dot.Band != "20m" {
		t.Fatalf("Band = %q, want 20m", verdict.Dot.Band)
	}
	if verdict.Dot.SNR == nil || *verdict.Dot.SNR != -5 {
		t.Fatalf("SNR = %v, want -5", verdict.Dot.SNR)
	}
	// Plotted position must be the sender's decoded square (JO65 midpoint).
	if verdict.Dot.Lat != 55.5 || verdict.Dot.Lon != 13.0 {
		t.Fatalf("plotted (%v, %v), want sender square (55.5, 13)", verdict.Dot.Lat, verdict.Dot.Lon)
	}
	if verdict.Decision != "receiver_in_radius -> plot_sender" {
		t.Fatalf("Decision = %q", verdict.Decision)
	}
}

func TestEvaluateSenderInRadiusPlotsReceiver(t *testing.T) {
	engine := NewEngine(testConfig(t, "20m"))
	report := spot.ExtractReport(map[string]any{
		"senderLocator":   "KP20",
		"receiverLocator": "JO65",
		"frequency":       float64(14_050_000),
	})
	verdict := engine.Evaluate(report, time.Now())
	if !verdict.Accepted {
		t.Fatalf("Evaluate rejected with %q, want accept", verdict.Reason)
	}
	if verdict.Dot.Kind != spot.KindReceiver {
		t.Fatalf("Kind = %q, want %q", verdict.Dot.Kind, spot.KindReceiver)
	}
	if verdict.Dot.Lat != 55.5 || verdict.Dot.Lon != 13.0 {
		t.Fatalf("plotted (%v, %v), want receiver square (55.5, 13)", verdict.Dot.Lat, verdict.Dot.Lon)
	}
}

func TestEvaluateReceiverRuleWinsWhenBothLocal(t *testing.T) {
	// Both endpoints inside the radius: rule order says plot the sender.
	engine := NewEngine(testConfig(t, "20m"))
	report := spot.ExtractReport(map[string]any{
		"senderLocator":   "KP21",
		"receiverLocator": "KP20",
		"frequency":       float64(14_050_000),
	})
	verdict := engine.Evaluate(report, time.Now())
	if !verdict.Accepted || verdict.Dot.Kind != spot.KindSender {
		t.Fatalf("verdict = %+v, want accepted sender plot", verdict)
	}
}

func TestEvaluateBothOutOfRadius(t *testing.T) {
	engine := NewEngine(testConfig(t, "20m"))
	report := spot.ExtractReport(map[string]any{
		"senderLocator":   "FN31", // US east coast
		"receiverLocator": "JN48", // southern Germany
		"frequency":       float64(14_050_000),
	})
	verdict := engine.Evaluate(report, time.Now())
	if verdict.Accepted {
		t.Fatal("Evaluate accepted, want radius drop")
	}
	if verdict.Reason != ReasonRadius {
		t.Fatalf("Reason = %q, want %q", verdict.Reason, ReasonRadius)
	}
	if verdict.DistSender <= 400 || verdict.DistReceiver <= 400 {
		t.Fatalf("distances (%v, %v) should both exceed the radius", verdict.DistSender, verdict.DistReceiver)
	}
}

func TestEvaluateBandFiltered(t *testing.T) {
	engine := NewEngine(testConfig(t, "20m"))
	tests := []struct {
		name   string
		fields map[string]any
	}{
		{"disabled band label", map[string]any{
			"senderLocator": "JO65", "receiverLocator": "KP20", "band": "40m",
		}},
		{"disabled band frequency", map[string]any{
			"senderLocator": "JO65", "receiverLocator": "KP20", "frequency": float64(7_074_000),
		}},
		{"unresolvable band", map[string]any{
			"senderLocator": "JO65", "receiverLocator": "KP20", "band": "14mhz",
		}},
		{"no band at all", map[string]any{
			"senderLocator": "JO65", "receiverLocator": "KP20",
		}},
	}
	for _, tt := range tests {
		verdict := engine.Evaluate(spot.ExtractReport(tt.fields), time.Now())
		if verdict.Accepted || verdict.Reason != ReasonBandFiltered {
			t.Fatalf("%s: verdict = %+v, want band_filtered drop", tt.name, verdict)
		}
	}
}

func TestEvaluateMissingLocator(t *testing.T) {
	engine := NewEngine(testConfig(t, "20m"))
	verdict := engine.Evaluate(spot.ExtractReport(map[string]any{
		"receiverLocator": "KP20",
		"frequency":       float64(14_050_000),
	}), time.Now())
	if verdict.Reason != ReasonMissingLoc {
		t.Fatalf("Reason = %q, want %q", verdict.Reason, ReasonMissingLoc)
	}
}

func TestEvaluateInvalidGrid(t *testing.T) {
	engine := NewEngine(testConfig(t, "20m"))
	verdict := engine.Evaluate(spot.ExtractReport(map[string]any{
		"senderLocator":   "ZZ99",
		"receiverLocator": "KP20",
		"frequency":       float64(14_050_000),
	}), time.Now())
	if verdict.Reason != ReasonGridInvalid {
		t.Fatalf("Reason = %q, want %q", verdict.Reason, ReasonGridInvalid)
	}
}

func TestEvaluateTimestampResolution(t *testing.T) {
	engine := NewEngine(testConfig(t, "20m"))
	now := time.Now()

	fields := snrString("-5")
	fields["t"] = float64(1_700_000_000_500) // milliseconds
	verdict := engine.Evaluate(spot.ExtractReport(fields), now)
	if verdict.Dot.TS != 1_700_000_000.5 {
		t.Fatalf("TS = %v, want 1700000000.5", verdict.Dot.TS)
	}

	delete(fields, "t")
	verdict = engine.Evaluate(spot.ExtractReport(fields), now)
	nowUnix := float64(now.UnixNano()) / float64(time.Second)
	if diff := verdict.Dot.TS - nowUnix; diff < -0.001 || diff > 0.001 {
		t.Fatalf("TS = %v, want current time %v", verdict.Dot.TS, nowUnix)
	}
}
