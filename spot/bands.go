package spot

import "strings"

// BandInfo describes an amateur radio band by name and inclusive frequency
// range in Hz.
type BandInfo struct {
	Name string // canonical band name (e.g., "20m")
	Min  int64  // minimum frequency in Hz
	Max  int64  // maximum frequency in Hz
}

var bandTable = []BandInfo{
	{Name: "160m", Min: 1_800_000, Max: 2_000_000},
	{Name: "80m", Min: 3_500_000, Max: 4_000_000},
	{Name: "60m", Min: 5_000_000, Max: 5_500_000},
	{Name: "40m", Min: 7_000_000, Max: 7_300_000},
	{Name: "30m", Min: 10_100_000, Max: 10_150_000},
	{Name: "20m", Min: 14_000_000, Max: 14_350_000},
	{Name: "17m", Min: 18_068_000, Max: 18_168_000},
	{Name: "15m", Min: 21_000_000, Max: 21_450_000},
	{Name: "12m", Min: 24_890_000, Max: 24_990_000},
	{Name: "10m", Min: 28_000_000, Max: 29_700_000},
	{Name: "6m", Min: 50_000_000, Max: 54_000_000},
}

var bandLookup = func() map[string]BandInfo {
	m := make(map[string]BandInfo, len(bandTable))
	for _, entry := range bandTable {
		m[entry.Name] = entry
	}
	return m
}()

// BandColors maps band names to the hex colors handed to map clients.
// Opaque to the pipeline; served verbatim by the config endpoint.
var BandColors = map[string]string{
	"160m": "#8B4513",
	"80m":  "#4B0082",
	"40m":  "#00008B",
	"30m":  "#008B8B",
	"20m":  "#006400",
	"17m":  "#228B22",
	"15m":  "#8B8B00",
	"12m":  "#B8860B",
	"10m":  "#B22222",
	"6m":   "#2F4F4F",
}

// BandForFrequency maps a frequency in Hz to its band name, or "" when the
// frequency falls outside every tracked allocation.
func BandForFrequency(freqHz int64) string {
	if freqHz <= 0 {
		return ""
	}
	for _, entry := range bandTable {
		if freqHz >= entry.Min && freqHz <= entry.Max {
			return entry.Name
		}
	}
	return ""
}

// NormalizeBand returns the canonical lowercase band identifier for a label.
// Bare numbers get an "m" suffix ("20" -> "20m"); "MHz"-suffixed numerics
// carry no band information and normalize to "".
func NormalizeBand(label string) string {
	cleaned := strings.ToLower(strings.TrimSpace(label))
	if cleaned == "" {
		return ""
	}
	if strings.HasSuffix(cleaned, "m") && isDigits(cleaned[:len(cleaned)-1]) {
		return cleaned
	}
	if isDigits(cleaned) {
		return cleaned + "m"
	}
	if strings.HasSuffix(cleaned, "mhz") {
		return ""
	}
	return cleaned
}

// ResolveBand applies the band resolution policy: a frequency match wins
// outright; otherwise the textual label is normalized and accepted only when
// it names a tracked band. Returns "" when no band can be determined.
func ResolveBand(freqHz int64, label string) string {
	if name := BandForFrequency(freqHz); name != "" {
		return name
	}
	normalized := NormalizeBand(label)
	if _, ok := bandLookup[normalized]; ok {
		return normalized
	}
	return ""
}

// IsValidBand returns true if the provided label corresponds to a known band.
func IsValidBand(label string) bool {
	_, ok := bandLookup[NormalizeBand(label)]
	return ok
}

// SupportedBandNames returns the canonical names of all tracked bands in
// frequency order.
func SupportedBandNames() []string {
	names := make([]string, len(bandTable))
	for i, entry := range bandTable {
		names[i] = entry.Name
	}
	return names
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
