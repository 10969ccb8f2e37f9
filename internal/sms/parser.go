package sms

import "strings"

// block accumulates field lines for the message currently being read.
// A "Status:" line closes the block; a separator line discards it.
type block struct {
	index, date, sender, text, status string
}

func (b *block) reset() {
	*b = block{}
}

func (b *block) record() Record {
	return Record{
		Index:  b.index,
		Date:   b.date,
		Sender: b.sender,
		Text:   b.text,
		Status: b.status,
	}
}

// ParseList converts the raw sms_list response into records, in input order.
//
// The input is a sequence of blocks like
//
//	Index: 4
//	Date: Wed Dec 28 17:19:31 2022
//	Sender: Tarifinfo
//	Text: some message body
//	Status: read
//	------------------------------
//
// Each recognized "Field: " prefix overwrites that field's slot for the
// current block. The "Status:" line closes the block and emits a record
// built from whatever slots are filled (missing ones stay empty). A run of
// dashes discards any half-read block, so a trailing block without a
// "Status:" line is dropped rather than emitted or bled into the next one.
// Unrecognized lines (blank lines, continuation text) are ignored.
//
// ParseList never fails: malformed input yields fewer or emptier records,
// never an error.
func ParseList(raw string) []Record {
	var (
		records []Record
		cur     block
	)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, "Index: "):
			cur.index = strings.SplitN(line, ": ", 2)[1]
		case strings.HasPrefix(line, "Date: "):
			cur.date = strings.SplitN(line, ": ", 2)[1]
		case strings.HasPrefix(line, "Sender: "):
			cur.sender = strings.SplitN(line, ": ", 2)[1]
		case strings.HasPrefix(line, "Text: "):
			cur.text = strings.SplitN(line, ": ", 2)[1]
		case strings.HasPrefix(line, "Status: "):
			cur.status = strings.SplitN(line, ": ", 2)[1]
			records = append(records, cur.record())
			cur.reset()
		case isSeparator(line):
			cur.reset()
		}
	}

	return records
}

// isSeparator reports whether the line is a run of dashes (the block
// delimiter in sms_list output).
func isSeparator(line string) bool {
	if len(line) == 0 {
		return false
	}
	for _, c := range line {
		if c != '-' {
			return false
		}
	}
	return true
}
