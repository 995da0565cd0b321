package models

import (
	"fmt"
	"time"
)

// Candle datetime layouts accepted from data sources, most common first.
var candleTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// ParseCandleTime parses the datetime string of a candle.
func ParseCandleTime(s string) (time.Time, error) {
	for _, layout := range candleTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized candle datetime %q", s)
}

// IntervalDuration converts an interval label to its candle duration.
// Unknown labels fall back to one hour.
func IntervalDuration(interval string) time.Duration {
	switch interval {
	case "1min":
		return time.Minute
	case "5min":
		return 5 * time.Minute
	case "15min":
		return 15 * time.Minute
	case "30min":
		return 30 * time.Minute
	case "45min":
		return 45 * time.Minute
	case "1h":
		return time.Hour
	case "2h":
		return 2 * time.Hour
	case "4h":
		return 4 * time.Hour
	case "8h":
		return 8 * time.Hour
	case "1day":
		return 24 * time.Hour
	case "1week":
		return 7 * 24 * time.Hour
	default:
		return time.Hour
	}
}
