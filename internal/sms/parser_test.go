package sms

import (
	"reflect"
	"testing"
)

const sampleList = `Index: 4
Date: Wed Dec 28 17:19:31 2022
Sender: Tarifinfo
Text: Mit der inkludierten Roaming-Option surfen Sie in der EU wie Zuhause.
Status: read
------------------------------
Index: 5
Date: Wed Dec 28 17:18:32 2022
Sender: Tarifinfo
Text:  <part_missing>  <part_missing> res Kontingents
Status: read
------------------------------
`

func TestParseListTwoBlocks(t *testing.T) {
	records := ParseList(sampleList)

	want := []Record{
		{
			Index:  "4",
			Date:   "Wed Dec 28 17:19:31 2022",
			Sender: "Tarifinfo",
			Text:   "Mit der inkludierten Roaming-Option surfen Sie in der EU wie Zuhause.",
			Status: "read",
		},
		{
			Index:  "5",
			Date:   "Wed Dec 28 17:18:32 2022",
			Sender: "Tarifinfo",
			Text:   " <part_missing>  <part_missing> res Kontingents",
			Status: "read",
		},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("ParseList() = %+v, want %+v", records, want)
	}
}

func TestParseListIdempotent(t *testing.T) {
	first := ParseList(sampleList)
	second := ParseList(sampleList)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("parsing twice differs: %+v vs %+v", first, second)
	}
}

func TestParseListOrderPreserved(t *testing.T) {
	records := ParseList(sampleList)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Index != "4" || records[1].Index != "5" {
		t.Errorf("order = [%s %s], want [4 5]", records[0].Index, records[1].Index)
	}
}

func TestParseListUnterminatedTrailingBlock(t *testing.T) {
	raw := sampleList + `Index: 6
Date: Thu Dec 29 08:00:00 2022
Sender: someone
Text: never finished
`
	records := ParseList(raw)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (trailing block without Status must be dropped)", len(records))
	}
}

func TestParseListSeparatorStopsBleed(t *testing.T) {
	// A status-less block followed by a separator must not leak its fields
	// into the next block.
	raw := `Index: 1
Date: Wed Dec 28 17:19:31 2022
Sender: ghost
Text: dropped
------------------------------
Index: 2
Status: unread
`
	records := ParseList(raw)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.Index != "2" || rec.Sender != "" || rec.Text != "" || rec.Date != "" {
		t.Errorf("fields bled across separator: %+v", rec)
	}
	if rec.Status != "unread" {
		t.Errorf("Status = %q, want unread", rec.Status)
	}
}

func TestParseListStatusClosesAndResets(t *testing.T) {
	// No separator between blocks: closing on Status alone must still reset
	// the accumulator for the next block.
	raw := `Index: 1
Sender: a
Status: read
Index: 2
Status: unread
`
	records := ParseList(raw)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[1].Sender != "" {
		t.Errorf("second record Sender = %q, want empty (reset on close)", records[1].Sender)
	}
}

func TestParseListStatusOnlyBlock(t *testing.T) {
	records := ParseList("Status: read\n")
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	want := Record{Status: "read"}
	if records[0] != want {
		t.Errorf("record = %+v, want %+v", records[0], want)
	}
}

func TestParseListFieldOverwriteWithinBlock(t *testing.T) {
	raw := `Index: 1
Index: 2
Status: read
`
	records := ParseList(raw)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Index != "2" {
		t.Errorf("Index = %q, want 2 (later line overwrites)", records[0].Index)
	}
}

func TestParseListIgnoresUnrecognizedLines(t *testing.T) {
	raw := `garbage line
Index: 7

continuation of a multi-line text body
Status: read
`
	records := ParseList(raw)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Index != "7" || records[0].Text != "" {
		t.Errorf("record = %+v", records[0])
	}
}

func TestParseListColonSpaceInValue(t *testing.T) {
	raw := "Text: note: see below\nStatus: read\n"
	records := ParseList(raw)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Text != "note: see below" {
		t.Errorf("Text = %q, want value split on first colon-space only", records[0].Text)
	}
}

func TestParseListEmptyInput(t *testing.T) {
	for _, raw := range []string{"", "\n", "------------------------------\n"} {
		if records := ParseList(raw); len(records) != 0 {
			t.Errorf("ParseList(%q) = %+v, want none", raw, records)
		}
	}
}

func TestParseListCRLF(t *testing.T) {
	raw := "Index: 3\r\nStatus: read\r\n"
	records := ParseList(raw)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Index != "3" || records[0].Status != "read" {
		t.Errorf("record = %+v (CR must be stripped)", records[0])
	}
}

func TestIsSeparator(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"------------------------------", true},
		{"---", true},
		{"-", true},
		{"", false},
		{"-- -", false},
		{"Index: 1", false},
	}
	for _, tt := range tests {
		if got := isSeparator(tt.line); got != tt.want {
			t.Errorf("isSeparator(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
