package stage

import (
	"testing"
	"time"
)

func TestRenderCountdown(t *testing.T) {
	tests := []struct {
		name      string
		remaining time.Duration
		wantTime  string
		wantUnit  string
	}{
		{"years dominate", 2*365*24*time.Hour + 12*time.Hour, "2", "years"},
		{"one year exactly", 365 * 24 * time.Hour, "1", "years"},
		{"months under a year", 45 * 24 * time.Hour, "1", "months"},
		{"days under a month", 3 * 24 * time.Hour, "3", "days"},
		{"hours under a day", 5 * time.Hour, "5", "hours"},
		{"minutes under an hour", 30 * time.Minute, "30", "minutes"},
		{"sub-minute floors to one minute", 30 * time.Second, "1", "minutes"},
		{"one second floors to one minute", time.Second, "1", "minutes"},
		{"zero floors to one minute", 0, "1", "minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderCountdown(tt.remaining)
			if got.Time != tt.wantTime || got.Unit != tt.wantUnit {
				t.Errorf("RenderCountdown(%v) = %s %s, expected %s %s",
					tt.remaining, got.Time, got.Unit, tt.wantTime, tt.wantUnit)
			}
		})
	}
}
