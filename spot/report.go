package spot

import (
	"math"
	"strconv"
	"strings"
)

// Field aliases seen across PSKReporter feed generations, in priority order.
// The first present, non-empty alias wins.
var (
	senderLocatorAliases   = []string{"senderLocator", "senderGrid", "sl"}
	receiverLocatorAliases = []string{"receiverLocator", "receiverGrid", "rl"}
	senderCallAliases      = []string{"senderCallsign", "sc"}
	receiverCallAliases    = []string{"receiverCallsign", "rc"}
	frequencyAliases       = []string{"frequency", "frequencyHz", "f"}
	bandAliases            = []string{"band", "b"}
	snrAliases             = []string{"sNR", "snr", "rp"}
	timestampAliases       = []string{"flowStartSeconds", "t"}
)

// Report is the transient candidate record extracted from one inbound
// message. Fields mirror the wire payload after alias resolution; nothing is
// validated here beyond type coercion.
type Report struct {
	SenderLocator   string
	ReceiverLocator string
	SenderCall      string
	ReceiverCall    string
	FrequencyHz     int64   // 0 when the message carried no usable frequency
	BandLabel       string  // raw label; resolve via ResolveBand
	SNR             *int    // nil when absent or unparseable
	Timestamp       float64 // raw epoch value (s or ms), 0 when absent
}

// ExtractReport canonicalizes a decoded JSON object into a Report, trying
// each field's historical alias spellings in fixed priority order.
func ExtractReport(fields map[string]any) *Report {
	return &Report{
		SenderLocator:   firstString(fields, senderLocatorAliases),
		ReceiverLocator: firstString(fields, receiverLocatorAliases),
		SenderCall:      firstString(fields, senderCallAliases),
		ReceiverCall:    firstString(fields, receiverCallAliases),
		FrequencyHz:     firstInt(fields, frequencyAliases),
		BandLabel:       firstString(fields, bandAliases),
		SNR:             ParseSNR(firstPresent(fields, snrAliases)),
		Timestamp:       firstFloat(fields, timestampAliases),
	}
}

// Band resolves the report's band per the frequency-first policy.
func (r *Report) Band() string {
	return ResolveBand(r.FrequencyHz, r.BandLabel)
}

// EventTime returns the report timestamp as seconds since epoch, treating
// values above two billion as milliseconds. Reports without a usable
// timestamp fall back to nowUnix.
func (r *Report) EventTime(nowUnix float64) float64 {
	if r.Timestamp <= 0 {
		return nowUnix
	}
	if r.Timestamp > 2_000_000_000 {
		return r.Timestamp / 1000.0
	}
	return r.Timestamp
}

// ParseSNR coerces a signal report to an integer dB value. String input may
// carry a typeset U+2212 minus. Returns nil when the value is absent or
// unparseable.
func ParseSNR(v any) *int {
	switch value := v.(type) {
	case nil:
		return nil
	case int:
		return intPtr(value)
	case int64:
		return intPtr(int(value))
	case float64:
		return intPtr(int(math.Round(value)))
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(value), "−", "-")
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil
		}
		return intPtr(int(math.Round(f)))
	default:
		return nil
	}
}

func intPtr(v int) *int { return &v }

// firstValue returns the first present, non-empty alias value. Empty strings
// and zero numbers count as absent so later aliases still get a chance.
func firstValue(fields map[string]any, aliases []string) any {
	for _, key := range aliases {
		v, ok := fields[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		if f, isNumber := v.(float64); isNumber && f == 0 {
			continue
		}
		return v
	}
	return nil
}

// firstPresent returns the first alias value that is present and non-nil.
// Unlike firstValue it keeps zero values: 0 dB is a real signal report.
func firstPresent(fields map[string]any, aliases []string) any {
	for _, key := range aliases {
		if v, ok := fields[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(fields map[string]any, aliases []string) string {
	switch v := firstValue(fields, aliases).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func firstInt(fields map[string]any, aliases []string) int64 {
	switch v := firstValue(fields, aliases).(type) {
	case float64:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func firstFloat(fields map[string]any, aliases []string) float64 {
	switch v := firstValue(fields, aliases).(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
