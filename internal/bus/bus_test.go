package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("sms.", 10)
	defer unsub()

	b.Publish(Event{Kind: "sms.received", Timestamp: time.Now(), Payload: "test"})

	select {
	case evt := <-ch:
		if evt.Kind != "sms.received" {
			t.Errorf("got kind %q, want sms.received", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPrefixFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("cmd.", 10)
	defer unsub()

	b.Publish(Event{Kind: "sms.received"})
	b.Publish(Event{Kind: "cmd.delete"})

	select {
	case evt := <-ch:
		if evt.Kind != "cmd.delete" {
			t.Errorf("got kind %q, want cmd.delete", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("sms.", 10)
	unsub()

	b.Publish(Event{Kind: "sms.received"})

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("sms.", 1)
	defer unsub()

	b.Publish(Event{Kind: "sms.one"})
	// Dropped: buffer is full and delivery never blocks.
	b.Publish(Event{Kind: "sms.two"})

	evt := <-ch
	if evt.Kind != "sms.one" {
		t.Errorf("got %q, want sms.one", evt.Kind)
	}
}
