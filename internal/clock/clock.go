// Package clock assigns timestamps to logical days. A logical day starts at
// a fixed early-morning cutoff instead of midnight, so activity just after
// midnight still counts toward the previous day.
package clock

import "time"

// CutoffHour is the local hour at which a new logical day begins.
const CutoffHour = 6

// LogicalDay maps a timestamp to the midnight of its logical day, in the
// timestamp's location. Times before the cutoff hour belong to the previous
// calendar day.
func LogicalDay(t time.Time) time.Time {
	if t.Hour() < CutoffHour {
		t = t.AddDate(0, 0, -1)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Today returns the logical day containing now.
func Today(now time.Time) time.Time {
	return LogicalDay(now)
}

// WeekStart returns the Sunday that begins the logical week containing now.
func WeekStart(now time.Time) time.Time {
	day := LogicalDay(now)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// MonthStart returns the first day of the logical month containing now.
func MonthStart(now time.Time) time.Time {
	day := LogicalDay(now)
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
}

// SameDay reports whether two timestamps fall on the same logical day.
func SameDay(a, b time.Time) bool {
	return LogicalDay(a).Equal(LogicalDay(b))
}

// FormatDate renders a day as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
