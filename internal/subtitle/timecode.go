package subtitle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseTimestamp converts an HH:MM:SS.mmm (or MM:SS.mmm) timestamp to
// seconds. Malformed input yields zero so one corrupt timestamp cannot abort
// an otherwise usable transcript.
func ParseTimestamp(ts string) float64 {
	fields := strings.Split(strings.TrimSpace(ts), ":")
	switch len(fields) {
	case 2:
		fields = append([]string{"0"}, fields...)
	case 3:
	default:
		return 0
	}
	hours, ok := parseUint(fields[0])
	if !ok {
		return 0
	}
	minutes, ok := parseUint(fields[1])
	if !ok {
		return 0
	}
	secPart, msPart, hasMillis := strings.Cut(fields[2], ".")
	seconds, ok := parseUint(secPart)
	if !ok {
		return 0
	}
	var millis uint64
	if hasMillis {
		if millis, ok = parseUint(msPart); !ok {
			return 0
		}
	}
	return float64(hours)*3600 + float64(minutes)*60 + float64(seconds) + float64(millis)/1000
}

// FormatTimestamp renders seconds as HH:MM:SS.mmm, rounded to the millisecond.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(math.Round(seconds * 1000))
	ms := total % 1000
	total /= 1000
	s := total % 60
	total /= 60
	m := total % 60
	h := total / 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// MinutesToSeconds converts a window size expressed in minutes.
func MinutesToSeconds(minutes float64) float64 {
	return minutes * 60
}

func parseUint(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
