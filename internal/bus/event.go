package bus

import "time"

// Event is a domain event published on the in-process bus.
// Kind uses dotted namespaces ("sms.received", "cmd.delete", ...).
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
