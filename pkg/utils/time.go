package utils

import "time"

// Now returns the current time in UTC
func Now() time.Time {
	return time.Now().UTC()
}

// DayKey returns the UTC calendar date of t as a YYYY-MM-DD string.
// The daily quota tracker uses this as its rollover key.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// FormatISO8601 formats a time as an ISO8601/RFC3339 UTC string
func FormatISO8601(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
