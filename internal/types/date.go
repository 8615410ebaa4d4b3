package types

import "time"

// DateOnly strips the time-of-day component. Every calendar-day column in
// this engine (log dates, reference dates, period bounds) stores midnight
// UTC so equality and range comparisons behave across drivers.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ISOWeekTag renders the ISO week of t as "2026-W35". Used to key the
// once-per-week consistency bonus ledger entries.
func ISOWeekTag(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return formatISOWeek(year, week)
}

// ISOWeekStart returns the Monday of t's ISO week at midnight UTC.
func ISOWeekStart(t time.Time) time.Time {
	d := DateOnly(t)
	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return d.AddDate(0, 0, -(weekday - 1))
}

func formatISOWeek(year, week int) string {
	// Avoids fmt for a hot path called on every submission.
	digits := func(n, width int) string {
		buf := make([]byte, width)
		for i := width - 1; i >= 0; i-- {
			buf[i] = byte('0' + n%10)
			n /= 10
		}
		return string(buf)
	}
	return digits(year, 4) + "-W" + digits(week, 2)
}
