package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/danielfett/miqro-rutos-sms/internal/bus"
)

// State represents a bridge runtime state.
type State string

const (
	Booting    State = "BOOTING"
	Connecting State = "CONNECTING" // establishing the broker connection
	Ready      State = "READY"      // connected, polling the device
	Degraded   State = "DEGRADED"   // running, but the last device poll failed
	Error      State = "ERROR"
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Booting:    {Connecting, Error},
	Connecting: {Ready, Error},
	Ready:      {Degraded, Connecting, Error},
	Degraded:   {Ready, Connecting, Error},
	Error:      {Booting},
}

// Machine tracks and enforces bridge runtime state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a state machine starting in Booting.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{current: Booting, bus: b}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns an error if the
// transition is invalid; the state is unchanged in that case.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      "bridge.status_changed",
			Timestamp: time.Now(),
			Payload:   StatusChange{From: from, To: to},
		})
	}
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
