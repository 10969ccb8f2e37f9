// Package retention decides when messages are old enough to be deleted from
// the device.
package retention

import (
	"time"

	"github.com/danielfett/miqro-rutos-sms/internal/sms"
)

// Policy holds the configured maximum message age. The zero value is a
// disabled policy that never deletes anything.
type Policy struct {
	maxAge time.Duration
}

// New creates a policy. maxAge <= 0 disables deletion entirely.
func New(maxAge time.Duration) Policy {
	return Policy{maxAge: maxAge}
}

// Enabled reports whether the policy can ever request a deletion.
func (p Policy) Enabled() bool {
	return p.maxAge > 0
}

// ShouldDelete reports whether rec is due for deletion at time now.
// A record whose date is missing or malformed is never due: deletion is
// conservative, an undated message stays on the device.
func (p Policy) ShouldDelete(rec sms.Record, now time.Time) bool {
	if p.maxAge <= 0 {
		return false
	}
	received, err := rec.ReceivedAt()
	if err != nil {
		return false
	}
	return now.Sub(received) > p.maxAge
}
