// Package geo provides the pure geodesy helpers used by the geofilter:
// Maidenhead locator decoding and great-circle distance.
package geo

import "strings"

const (
	fieldLonSize  = 20.0
	fieldLatSize  = 10.0
	squareLonSize = 2.0
	squareLatSize = 1.0
	subLonSize    = squareLonSize / 24.0
	subLatSize    = squareLatSize / 24.0
	extLonSize    = subLonSize / 10.0
	extLatSize    = subLatSize / 10.0
)

// LocatorLatLon decodes a Maidenhead grid locator of 2, 4, 6, or 8
// characters into the lat/lon of the cell midpoint. Precision not carried
// by the string resolves to the center of the smallest encoded cell.
// It returns false for empty, odd-length, or out-of-range input.
func LocatorLatLon(locator string) (lat float64, lon float64, ok bool) {
	g := strings.ToUpper(strings.TrimSpace(locator))
	if len(g) < 2 || len(g) > 8 || len(g)%2 != 0 {
		return 0, 0, false
	}

	a, b := g[0], g[1]
	if a < 'A' || a > 'R' || b < 'A' || b > 'R' {
		return 0, 0, false
	}
	lon = -180.0 + float64(a-'A')*fieldLonSize
	lat = -90.0 + float64(b-'A')*fieldLatSize
	cellLon, cellLat := fieldLonSize, fieldLatSize

	if len(g) >= 4 {
		d0, d1 := g[2], g[3]
		if d0 < '0' || d0 > '9' || d1 < '0' || d1 > '9' {
			return 0, 0, false
		}
		lon += float64(d0-'0') * squareLonSize
		lat += float64(d1-'0') * squareLatSize
		cellLon, cellLat = squareLonSize, squareLatSize
	}

	if len(g) >= 6 {
		s0, s1 := g[4], g[5]
		if s0 < 'A' || s0 > 'X' || s1 < 'A' || s1 > 'X' {
			return 0, 0, false
		}
		lon += float64(s0-'A') * subLonSize
		lat += float64(s1-'A') * subLatSize
		cellLon, cellLat = subLonSize, subLatSize
	}

	if len(g) == 8 {
		e0, e1 := g[6], g[7]
		if e0 < '0' || e0 > '9' || e1 < '0' || e1 > '9' {
			return 0, 0, false
		}
		lon += float64(e0-'0') * extLonSize
		lat += float64(e1-'0') * extLatSize
		cellLon, cellLat = extLonSize, extLatSize
	}

	lon += cellLon / 2
	lat += cellLat / 2
	return lat, lon, true
}
