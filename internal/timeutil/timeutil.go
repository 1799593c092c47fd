package timeutil

import "time"

// DateLayout defines the canonical date format (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// FormatDate formats a time as YYYY-MM-DD in its current location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ClampedSeconds returns the whole seconds between start and now, clamped to
// zero so clock skew never yields a negative duration.
func ClampedSeconds(start, now time.Time) int64 {
	if start.IsZero() || !now.After(start) {
		return 0
	}
	return int64(now.Sub(start).Seconds())
}
