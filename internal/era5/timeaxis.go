package era5

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TZ=UTC date --date="1900-01-01 00:00:00" +%s
const unixSecs1900 = -2208988800

// Legacy ERA5 files count hours since 1900 and sometimes omit the units
// attribute altogether.
var (
	legacyStep  = time.Hour
	legacyEpoch = time.Unix(unixSecs1900, 0).UTC()
)

var epochLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseTimeUnits parses CF style units such as "hours since 1900-01-01
// 00:00:00.0" or "seconds since 1970-01-01".
func parseTimeUnits(units string) (time.Duration, time.Time, error) {
	units = strings.TrimSpace(units)
	if units == "" {
		return legacyStep, legacyEpoch, nil
	}
	unit, since, ok := strings.Cut(units, " since ")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("unsupported time units %q", units)
	}

	var step time.Duration
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "seconds", "second", "secs", "sec", "s":
		step = time.Second
	case "minutes", "minute", "mins", "min":
		step = time.Minute
	case "hours", "hour", "hrs", "hr", "h":
		step = time.Hour
	case "days", "day", "d":
		step = 24 * time.Hour
	default:
		return 0, time.Time{}, fmt.Errorf("unsupported time unit %q", unit)
	}

	since = strings.TrimSpace(since)
	since = strings.TrimSuffix(since, "Z")
	since = strings.TrimSuffix(since, " UTC")
	for _, layout := range epochLayouts {
		if epoch, err := time.ParseInLocation(layout, since, time.UTC); err == nil {
			return step, epoch, nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("unsupported time origin %q", since)
}

// decodeTimes converts raw offsets from the time coordinate into UTC
// timestamps.
func decodeTimes(raw []float64, units string) ([]time.Time, error) {
	step, epoch, err := parseTimeUnits(units)
	if err != nil {
		return nil, err
	}
	ts := make([]time.Time, len(raw))
	for i, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid time offset at index %d", i)
		}
		ts[i] = epoch.Add(time.Duration(math.Round(v * float64(step))))
	}
	return ts, nil
}
