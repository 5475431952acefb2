package pricing

import "time"

// NormalizeDueDate applies the one-shot load-time correction: a due date in
// the past (date-only comparison) silently advances to today plus the grace
// period. The corrected value is a working value only; it is persisted only
// if the user saves. On-time due dates pass through unchanged.
func NormalizeDueDate(due, now time.Time, graceDays int) (time.Time, bool) {
	dueDay := dateOnly(due)
	today := dateOnly(now)
	if dueDay.Before(today) {
		return today.AddDate(0, 0, graceDays), true
	}
	return due, false
}

func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
