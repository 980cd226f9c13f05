package utils

import (
	"time"
)

const (
	DateOnly    = "2006-01-02"
	DateTime    = "2006-01-02 15:04"
	DateTimeSec = "2006-01-02 15:04:05"
	TimeOnly    = "15:04:05"
)

// TimeOrDash formats a time value using the given layout, or returns "-" if zero.
func TimeOrDash(t time.Time, layout string) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(layout)
}

// Elapsed rounds d to whole seconds for display.
func Elapsed(d time.Duration) string {
	return d.Round(time.Second).String()
}
