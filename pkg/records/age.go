package records

import (
	"fmt"
	"time"
)

// FormatAge renders the time elapsed since t using the single largest
// non-zero unit (d, h, m, s), matching kubectl's coarse AGE column.
// A nil or zero t yields "".
func FormatAge(t *time.Time) string {
	return FormatAgeAt(t, time.Now())
}

// FormatAgeAt is FormatAge against an explicit "now".
func FormatAgeAt(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	d := now.Sub(*t)
	if d < 0 {
		d = 0
	}
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", int64(d/(24*time.Hour)))
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int64(d/time.Hour))
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int64(d/time.Minute))
	default:
		return fmt.Sprintf("%ds", int64(d/time.Second))
	}
}
