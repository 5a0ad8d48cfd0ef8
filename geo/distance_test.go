package geo

import (
	"math"
	"testing"
)

func TestHaversineKmKnownDistances(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
		tolerance              float64
	}{
		{"same point", 60.17, 24.94, 60.17, 24.94, 0, 0.001},
		{"helsinki to stockholm", 60.1708, 24.9375, 59.3293, 18.0686, 396, 5},
		{"helsinki to malmo", 60.1708, 24.9375, 55.605, 13.0038, 867, 10},
		{"equator quarter turn", 0, 0, 0, 90, 10007.5, 10},
	}
	for _, tt := range tests {
		got := HaversineKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
		if math.Abs(got-tt.wantKm) > tt.tolerance {
			t.Fatalf("%s: HaversineKm = %v, want %v ± %v", tt.name, got, tt.wantKm, tt.tolerance)
		}
	}
}

func TestHaversineKmSymmetry(t *testing.T) {
	forward := HaversineKm(60.5, 25.0, 55.5, 13.0)
	backward := HaversineKm(55.5, 13.0, 60.5, 25.0)
	if math.Abs(forward-backward) > 1e-9 {
		t.Fatalf("HaversineKm not symmetric: %v vs %v", forward, backward)
	}
}
