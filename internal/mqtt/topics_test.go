package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/danielfett/miqro-rutos-sms/internal/bus"
	"github.com/danielfett/miqro-rutos-sms/internal/outbox"
	"github.com/danielfett/miqro-rutos-sms/internal/sms"
)

func TestCommandEvent(t *testing.T) {
	tests := []struct {
		name     string
		topic    string
		payload  string
		wantKind string
		wantOK   bool
	}{
		{"send single", "rutos_sms/send/single/0037060000001", "hello", "cmd.send_single", true},
		{"send group", "rutos_sms/send/group/alerts", "disk full", "cmd.send_group", true},
		{"delete", "rutos_sms/delete", "5", "cmd.delete", true},
		{"empty number", "rutos_sms/send/single/", "hi", "", false},
		{"empty group", "rutos_sms/send/group/", "hi", "", false},
		{"nested suffix", "rutos_sms/send/single/123/extra", "hi", "", false},
		{"foreign prefix", "other/send/single/123", "hi", "", false},
		{"unknown command", "rutos_sms/reboot", "now", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt, ok := commandEvent("rutos_sms", tt.topic, []byte(tt.payload))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if evt.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", evt.Kind, tt.wantKind)
			}
		})
	}
}

func TestCommandEventPayloads(t *testing.T) {
	evt, ok := commandEvent("p", "p/send/single/123", []byte("hi there"))
	if !ok {
		t.Fatal("not recognized")
	}
	cmd := evt.Payload.(outbox.SendCommand)
	if cmd.To != "123" || cmd.Text != "hi there" {
		t.Errorf("cmd = %+v", cmd)
	}

	evt, ok = commandEvent("p", "p/delete", []byte("7"))
	if !ok {
		t.Fatal("not recognized")
	}
	if index := evt.Payload.(string); index != "7" {
		t.Errorf("index = %q, want 7", index)
	}
}

func TestPublicationReceived(t *testing.T) {
	rec := sms.Record{
		Index:  "4",
		Date:   "Wed Dec 28 17:19:31 2022",
		Sender: "Tarifinfo",
		Text:   "hello",
		Status: "read",
	}
	topic, payload, ok := publication("rutos_sms", bus.Event{
		Kind:      "sms.received",
		Timestamp: time.Now(),
		Payload:   rec,
	})
	if !ok {
		t.Fatal("not published")
	}
	if topic != "rutos_sms/received" {
		t.Errorf("topic = %q, want rutos_sms/received", topic)
	}

	var decoded map[string]string
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	want := map[string]string{
		"index":  "4",
		"date":   "Wed Dec 28 17:19:31 2022",
		"sender": "Tarifinfo",
		"text":   "hello",
		"status": "read",
	}
	for k, v := range want {
		if decoded[k] != v {
			t.Errorf("payload[%s] = %q, want %q", k, decoded[k], v)
		}
	}
}

func TestPublicationSendResults(t *testing.T) {
	tests := []struct {
		kind      string
		wantTopic string
	}{
		{"sms.sent_single", "p/sent/single/123"},
		{"sms.sent_group", "p/sent/group/123"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			topic, payload, ok := publication("p", bus.Event{
				Kind:    tt.kind,
				Payload: outbox.SendResult{To: "123", Response: "OK\n"},
			})
			if !ok {
				t.Fatal("not published")
			}
			if topic != tt.wantTopic {
				t.Errorf("topic = %q, want %q", topic, tt.wantTopic)
			}
			if string(payload) != "OK\n" {
				t.Errorf("payload = %q, want raw response verbatim", payload)
			}
		})
	}
}

func TestPublicationDeleted(t *testing.T) {
	topic, payload, ok := publication("p", bus.Event{Kind: "sms.deleted", Payload: "GONE"})
	if !ok {
		t.Fatal("not published")
	}
	if topic != "p/deleted" || string(payload) != "GONE" {
		t.Errorf("got %q %q", topic, payload)
	}
}

func TestPublicationIgnoresOtherEvents(t *testing.T) {
	events := []bus.Event{
		{Kind: "bridge.status_changed", Payload: "x"},
		{Kind: "sms.received", Payload: "not a record"},
		{Kind: "sms.deleted", Payload: 42},
	}
	for _, evt := range events {
		if _, _, ok := publication("p", evt); ok {
			t.Errorf("publication(%q with %T payload) = true, want false", evt.Kind, evt.Payload)
		}
	}
}

func TestCommandFilters(t *testing.T) {
	filters := commandFilters("rutos_sms")
	want := []string{
		"rutos_sms/send/single/+",
		"rutos_sms/send/group/+",
		"rutos_sms/delete",
	}
	if len(filters) != len(want) {
		t.Fatalf("got %d filters, want %d", len(filters), len(want))
	}
	for i := range want {
		if filters[i] != want[i] {
			t.Errorf("filter[%d] = %q, want %q", i, filters[i], want[i])
		}
	}
}
