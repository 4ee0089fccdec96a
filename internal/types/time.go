package types

import "time"

// LayoutISODate is the calendar date layout used by agreement parameters.
const LayoutISODate = "2006-01-02"

// LayoutChargeTimestamp renders instants the way the ledger expects them, e.g. 2025-06-01T00:00:00+00:00.
const LayoutChargeTimestamp = "2006-01-02T15:04:05-07:00"

// ParseTime parses timestamps such as 2025-06-01T08:22:44.126636Z.
func ParseTime(t string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, t)
}

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(d string) (time.Time, error) {
	return time.ParseInLocation(LayoutISODate, d, time.UTC)
}

// FormatChargeTimestamp formats t in UTC with an explicit +00:00 offset.
func FormatChargeTimestamp(t time.Time) string {
	return t.UTC().Format(LayoutChargeTimestamp)
}

// StartOfDay and EndOfDay bound a calendar day in UTC.
func StartOfDay(t time.Time) time.Time {
	return DateOf(t)
}

func EndOfDay(t time.Time) time.Time {
	return DateOf(t).Add(24*time.Hour - time.Second)
}
