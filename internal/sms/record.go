package sms

import "time"

// dateLayout is the fixed format the device prints in sms_list output,
// e.g. "Wed Dec 28 17:19:31 2022". It matches time.ANSIC, which also
// tolerates space-padded single-digit days.
const dateLayout = time.ANSIC

// Record is one inbound SMS as reported by the device's sms_list endpoint.
// All fields are kept as the raw post-colon substrings; the device index is
// reused after deletion and is not unique over time.
type Record struct {
	Index  string `json:"index"`
	Date   string `json:"date"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
	Status string `json:"status"`
}

// Identity derives the deduplication key for the record. The index alone is
// unusable because the device reuses indices after deletion; combining it
// with the raw date and sender makes collisions between distinct messages
// very unlikely while staying cheap to compute.
func (r Record) Identity() string {
	return r.Index + r.Date + r.Sender
}

// ReceivedAt parses the record's date in the device's local time. Returns an
// error for an absent or malformed date; callers treat such records as
// undated rather than failing.
func (r Record) ReceivedAt() (time.Time, error) {
	return time.ParseInLocation(dateLayout, r.Date, time.Local)
}
