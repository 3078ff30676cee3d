package domain

import "time"

const displayTimeLayout = "2006-01-02 15:04:05"

// FormatTime renders a timestamp for operator-facing output. A missing
// timestamp renders as the Unix epoch instead of erroring.
func FormatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return time.Unix(0, 0).UTC().Format(displayTimeLayout)
	}
	return t.Format(displayTimeLayout)
}
