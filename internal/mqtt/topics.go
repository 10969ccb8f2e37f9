package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/danielfett/miqro-rutos-sms/internal/bus"
	"github.com/danielfett/miqro-rutos-sms/internal/outbox"
	"github.com/danielfett/miqro-rutos-sms/internal/sms"
)

// Broker topic layout, all under a configurable prefix:
//
//	<prefix>/send/single/<number>  in   payload = message text
//	<prefix>/send/group/<group>    in   payload = message text
//	<prefix>/delete                in   payload = device message index
//	<prefix>/received              out  payload = JSON record
//	<prefix>/sent/single/<number>  out  payload = raw device response
//	<prefix>/sent/group/<group>    out  payload = raw device response
//	<prefix>/deleted               out  payload = raw device response

// commandFilters returns the subscription filters for inbound commands.
func commandFilters(prefix string) []string {
	return []string{
		prefix + "/send/single/+",
		prefix + "/send/group/+",
		prefix + "/delete",
	}
}

// commandEvent decodes an inbound broker message into a cmd.* bus event.
// Returns false for topics outside the command vocabulary, including send
// topics with an empty recipient suffix.
func commandEvent(prefix, topic string, payload []byte) (bus.Event, bool) {
	rest, ok := strings.CutPrefix(topic, prefix+"/")
	if !ok {
		return bus.Event{}, false
	}

	now := time.Now()
	switch {
	case strings.HasPrefix(rest, "send/single/"):
		number := strings.TrimPrefix(rest, "send/single/")
		if number == "" || strings.Contains(number, "/") {
			return bus.Event{}, false
		}
		return bus.Event{
			Kind:      "cmd.send_single",
			Timestamp: now,
			Payload:   outbox.SendCommand{To: number, Text: string(payload)},
		}, true
	case strings.HasPrefix(rest, "send/group/"):
		group := strings.TrimPrefix(rest, "send/group/")
		if group == "" || strings.Contains(group, "/") {
			return bus.Event{}, false
		}
		return bus.Event{
			Kind:      "cmd.send_group",
			Timestamp: now,
			Payload:   outbox.SendCommand{To: group, Text: string(payload)},
		}, true
	case rest == "delete":
		return bus.Event{
			Kind:      "cmd.delete",
			Timestamp: now,
			Payload:   string(payload),
		}, true
	}
	return bus.Event{}, false
}

// publication maps an internal sms.* event onto its broker topic and
// payload. Returns false for events that have no broker representation.
func publication(prefix string, evt bus.Event) (topic string, payload []byte, ok bool) {
	switch evt.Kind {
	case "sms.received":
		rec, isRec := evt.Payload.(sms.Record)
		if !isRec {
			return "", nil, false
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return "", nil, false
		}
		return prefix + "/received", data, true
	case "sms.sent_single":
		res, isRes := evt.Payload.(outbox.SendResult)
		if !isRes {
			return "", nil, false
		}
		return prefix + "/sent/single/" + res.To, []byte(res.Response), true
	case "sms.sent_group":
		res, isRes := evt.Payload.(outbox.SendResult)
		if !isRes {
			return "", nil, false
		}
		return prefix + "/sent/group/" + res.To, []byte(res.Response), true
	case "sms.deleted":
		resp, isStr := evt.Payload.(string)
		if !isStr {
			return "", nil, false
		}
		return prefix + "/deleted", []byte(resp), true
	}
	return "", nil, false
}
