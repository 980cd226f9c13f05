package utils

import (
	"testing"
	"time"
)

func TestTimeOrDash(t *testing.T) {
	tests := []struct {
		name   string
		t      time.Time
		layout string
		want   string
	}{
		{"zero time", time.Time{}, DateTime, "-"},
		{"valid date", time.Date(2026, 2, 25, 14, 30, 0, 0, time.UTC), DateTime, "2026-02-25 14:30"},
		{"date only", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), DateOnly, "2026-01-01"},
		{"with seconds", time.Date(2026, 3, 15, 8, 45, 30, 0, time.UTC), DateTimeSec, "2026-03-15 08:45:30"},
		{"time only", time.Date(2026, 1, 1, 9, 5, 12, 0, time.UTC), TimeOnly, "09:05:12"},
	}

	for _, tt := range tests {
		got := TimeOrDash(tt.t, tt.layout)
		if got != tt.want {
			t.Errorf("TimeOrDash(%v, %q) = %q, want %q", tt.t, tt.layout, got, tt.want)
		}
	}
}

func TestElapsed(t *testing.T) {
	got := Elapsed(3*time.Minute + 4*time.Second + 600*time.Millisecond)
	if got != "3m5s" {
		t.Errorf("Elapsed = %q, want 3m5s", got)
	}
}
