package geo

import (
	"math"
	"testing"
)

func TestLocatorLatLonMidpoints(t *testing.T) {
	tests := []struct {
		locator  string
		lat, lon float64
	}{
		// field only: midpoint of a 10x20 degree cell
		{"KP", 65.0, 30.0},
		{"JJ", -5.0, -10.0},
		// square: midpoint of a 1x2 degree cell
		{"KP20", 60.5, 25.0},
		{"JO65", 55.5, 13.0},
		{"FN31", 41.5, -73.0},
		// subsquare: midpoint of a 2.5x5 minute cell
		{"KP20le", 60.1875, 24.9583333},
		// extended: midpoint of the smallest cell
		{"KP20LE55", 60.1895833, 24.9625},
	}
	for _, tt := range tests {
		lat, lon, ok := LocatorLatLon(tt.locator)
		if !ok {
			t.Fatalf("LocatorLatLon(%q) not ok", tt.locator)
		}
		if math.Abs(lat-tt.lat) > 1e-4 || math.Abs(lon-tt.lon) > 1e-4 {
			t.Fatalf("LocatorLatLon(%q) = (%v, %v), want (%v, %v)", tt.locator, lat, lon, tt.lat, tt.lon)
		}
	}
}

func TestLocatorLatLonWithinCell(t *testing.T) {
	// The decoded point must stay inside the cell named by the string.
	lat, lon, ok := LocatorLatLon("KP20")
	if !ok {
		t.Fatal("LocatorLatLon(KP20) not ok")
	}
	if lat < 60 || lat >= 61 {
		t.Fatalf("KP20 lat %v outside [60, 61)", lat)
	}
	if lon < 24 || lon >= 26 {
		t.Fatalf("KP20 lon %v outside [24, 26)", lon)
	}
}

func TestLocatorLatLonCaseAndWhitespace(t *testing.T) {
	upperLat, upperLon, ok := LocatorLatLon("KP20LE")
	if !ok {
		t.Fatal("LocatorLatLon(KP20LE) not ok")
	}
	lowerLat, lowerLon, ok := LocatorLatLon("  kp20le ")
	if !ok {
		t.Fatal("LocatorLatLon(kp20le) not ok")
	}
	if upperLat != lowerLat || upperLon != lowerLon {
		t.Fatalf("case-insensitive decode mismatch: (%v,%v) vs (%v,%v)", upperLat, upperLon, lowerLat, lowerLon)
	}
}

func TestLocatorLatLonInvalid(t *testing.T) {
	invalid := []string{
		"",
		"K",      // too short
		"KP2",    // odd length
		"KP20L",  // odd length
		"SP20",   // field out of A-R
		"KPX0",   // digit position holds a letter
		"KP2A",   // digit position holds a letter
		"KP20YZ", // subsquare out of A-X
		"KP20LE5A",
		"KP20LE55A", // too long
		"12",
	}
	for _, locator := range invalid {
		if _, _, ok := LocatorLatLon(locator); ok {
			t.Fatalf("LocatorLatLon(%q) ok, want invalid", locator)
		}
	}
}
