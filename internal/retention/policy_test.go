package retention

import (
	"testing"
	"time"

	"github.com/danielfett/miqro-rutos-sms/internal/sms"
)

const dateLayout = time.ANSIC

func recordAged(t *testing.T, now time.Time, age time.Duration) sms.Record {
	t.Helper()
	return sms.Record{Date: now.Add(-age).Format(dateLayout)}
}

func TestShouldDelete(t *testing.T) {
	now := time.Date(2023, time.March, 10, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name   string
		maxAge time.Duration
		rec    sms.Record
		want   bool
	}{
		{"two days old, one day max", 24 * time.Hour, recordAged(t, now, 48 * time.Hour), true},
		{"one hour old, one day max", 24 * time.Hour, recordAged(t, now, time.Hour), false},
		{"disabled policy, very old", 0, recordAged(t, now, 365 * 24 * time.Hour), false},
		{"exactly at max age", 24 * time.Hour, recordAged(t, now, 24 * time.Hour), false},
		{"unparseable date", 24 * time.Hour, sms.Record{Date: "not a date"}, false},
		{"missing date", 24 * time.Hour, sms.Record{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.maxAge)
			if got := p.ShouldDelete(tt.rec, now); got != tt.want {
				t.Errorf("ShouldDelete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnabled(t *testing.T) {
	if New(0).Enabled() {
		t.Error("zero policy should be disabled")
	}
	if !New(time.Hour).Enabled() {
		t.Error("policy with max age should be enabled")
	}
}
