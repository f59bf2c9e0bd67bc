package talna

import (
	"strconv"
	"strings"
)

// ParseDuration converts a suffixed duration literal ("15m", "1.5h", "500ms",
// "2d", "1w") to nanoseconds. It exists because talna timestamps and
// granularities are always raw int64 nanoseconds, and callers building
// queries interactively want to write "15m" rather than 900000000000.
func ParseDuration(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, newError(KindParseError, "empty duration")
	}

	unitLen := 1
	switch {
	case strings.HasSuffix(s, "ms"):
		unitLen = 2
	case strings.HasSuffix(s, "ns"), strings.HasSuffix(s, "us"):
		unitLen = 2
	case strings.HasSuffix(s, "s"), strings.HasSuffix(s, "m"), strings.HasSuffix(s, "h"),
		strings.HasSuffix(s, "d"), strings.HasSuffix(s, "w"):
		unitLen = 1
	default:
		return 0, newError(KindParseError, "duration must end in a unit suffix (ns, us, ms, s, m, h, d, w): "+s)
	}

	numPart := s[:len(s)-unitLen]
	unit := s[len(s)-unitLen:]

	n, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, newError(KindParseError, "invalid duration magnitude: "+s)
	}

	switch unit {
	case "ns":
		return nanos(n), nil
	case "us":
		return micros(n), nil
	case "ms":
		return millis(n), nil
	case "s":
		return seconds(n), nil
	case "m":
		return minutes(n), nil
	case "h":
		return hours(n), nil
	case "d":
		return days(n), nil
	case "w":
		return weeks(n), nil
	}
	return 0, newError(KindParseError, "unknown duration unit in: "+s)
}

func nanos(n float64) int64   { return int64(n) }
func micros(n float64) int64  { return nanos(n * 1_000) }
func millis(n float64) int64  { return micros(n * 1_000) }
func seconds(n float64) int64 { return millis(n * 1_000) }
func minutes(n float64) int64 { return seconds(n * 60) }
func hours(n float64) int64   { return minutes(n * 60) }
func days(n float64) int64    { return hours(n * 24) }
func weeks(n float64) int64   { return days(n * 7) }
