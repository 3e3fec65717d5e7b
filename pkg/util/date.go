package util

import (
	"strconv"
	"time"
)

// TimestampLayout is the canonical UTC representation used across the store
// and the API surface: second precision, Z suffix.
const TimestampLayout = "2006-01-02T15:04:05Z"

// FormatUTC renders t in the canonical UTC layout.
func FormatUTC(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTime tries the canonical layout, RFC3339, RFC3339Nano, and unix seconds.
// Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// NextHourBoundary returns the first full clock-hour boundary strictly after t.
// Entry at 12:30 accrues from 13:00; entry at exactly 12:00 accrues from 13:00.
func NextHourBoundary(t time.Time) time.Time {
	return t.Truncate(time.Hour).Add(time.Hour)
}
