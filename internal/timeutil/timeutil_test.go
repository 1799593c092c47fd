package timeutil

import (
	"testing"
	"time"
)

func TestFormatDate(t *testing.T) {
	ts := time.Date(2026, 8, 9, 23, 59, 0, 0, time.UTC)
	if got := FormatDate(ts); got != "2026-08-09" {
		t.Fatalf("FormatDate = %q", got)
	}
}

func TestClampedSeconds(t *testing.T) {
	start := time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		start time.Time
		now   time.Time
		want  int64
	}{
		{"normal elapsed", start, start.Add(95 * time.Second), 95},
		{"sub-second truncates", start, start.Add(1500 * time.Millisecond), 1},
		{"zero start", time.Time{}, start, 0},
		{"clock skew clamps", start, start.Add(-time.Minute), 0},
		{"equal times", start, start, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampedSeconds(tt.start, tt.now); got != tt.want {
				t.Fatalf("ClampedSeconds = %d, want %d", got, tt.want)
			}
		})
	}
}
