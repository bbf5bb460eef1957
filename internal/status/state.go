// Package status tracks the health of a session's refresh cycle.
package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/jobdesk/internal/bus"
)

// State is the health of a session.
type State string

const (
	Booting         State = "BOOTING"
	Unauthenticated State = "UNAUTHENTICATED"
	Connecting      State = "CONNECTING"
	Ready           State = "READY"
	Degraded        State = "DEGRADED"
	Stopped         State = "STOPPED"
)

var validTransitions = map[State][]State{
	Booting:         {Unauthenticated, Connecting, Stopped},
	Unauthenticated: {Connecting, Stopped},
	Connecting:      {Ready, Degraded, Unauthenticated, Stopped},
	Ready:           {Degraded, Unauthenticated, Stopped},
	Degraded:        {Ready, Unauthenticated, Stopped},
	Stopped:         {Booting},
}

// Machine enforces state transitions and announces them on the bus.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a machine in the Booting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Booting,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Serving reports whether the session is answering with fresh data.
func (m *Machine) Serving() bool {
	return m.Current() == Ready
}

// Transition moves to the given state or returns an error if the move is
// not allowed.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitionLocked(to)
}

// Settle records the outcome of a refresh: Ready on success, Degraded on
// failure. Staying in the same state is not an error.
func (m *Machine) Settle(refreshErr error) error {
	to := Ready
	if refreshErr != nil {
		to = Degraded
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == to {
		return nil
	}
	return m.transitionLocked(to)
}

func (m *Machine) transitionLocked(to State) error {
	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:    bus.KindStatusChanged,
			Payload: StatusChange{From: from, To: to},
		})
	}
	return nil
}

// StatusChange is the payload of session.status_changed.
type StatusChange struct {
	From State
	To   State
}
