package stream

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// State represents the lifecycle state of the audio-push session.
type State int

const (
	// Idle indicates no session exists.
	Idle State = iota
	// Preparing indicates transport preparation is in progress.
	Preparing
	// Connecting indicates the initial connection attempt is in flight.
	Connecting
	// Streaming indicates the session is live and publishing.
	Streaming
	// Interrupted indicates streaming is suspended by an external cause.
	Interrupted
	// Reconnecting indicates recovery from an interruption is in progress.
	Reconnecting
	// Failed indicates the session ended in a terminal failure.
	Failed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Preparing:
		return "preparing"
	case Connecting:
		return "connecting"
	case Streaming:
		return "streaming"
	case Interrupted:
		return "interrupted"
	case Reconnecting:
		return "reconnecting"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// transitions is the set of valid lifecycle edges. Any pair not listed here
// is rejected; self-transitions are always accepted as no-ops. Streaming may
// enter Reconnecting directly: a dropped publish connection retries without
// an interruption owning the session.
var transitions = map[State][]State{
	Idle:         {Connecting},
	Connecting:   {Streaming, Failed, Interrupted},
	Streaming:    {Interrupted, Reconnecting, Failed, Idle},
	Interrupted:  {Reconnecting, Failed, Idle},
	Reconnecting: {Streaming, Interrupted, Failed, Idle},
	Failed:       {Idle},
}

// Observer receives lifecycle change notifications.
type Observer func(from, to State)

// Machine is the authoritative lifecycle state machine.
//
// State is mutated only through Transition, which validates the requested
// edge against the transition table. A rejected transition is reported to
// the caller as false rather than an error: signal delivery is inherently
// racy with respect to the state it reflects, so callers treat rejection as
// "the state already moved on".
type Machine struct {
	mu        sync.Mutex
	state     State
	observers []Observer
}

// NewMachine creates a machine in the Idle state.
func NewMachine() *Machine {
	return &Machine{state: Idle}
}

// Current returns the current lifecycle state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers an observer for lifecycle changes.
//
// Observers are invoked after the internal lock has been released, on the
// goroutine that requested the transition, so an observer may itself request
// a transition without deadlocking. Observers must not block.
func (m *Machine) Subscribe(obs Observer) {
	if obs == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, obs)
}

// Transition moves the machine to the requested state if the edge is valid.
//
// A transition to the current state succeeds without notifying observers.
// Returns false when the edge is not in the table; the state is unchanged.
func (m *Machine) Transition(to State) bool {
	m.mu.Lock()
	from := m.state

	if to == from {
		m.mu.Unlock()
		return true
	}

	if !validEdge(from, to) {
		m.mu.Unlock()
		logrus.WithFields(logrus.Fields{
			"function": "Transition",
			"from":     from.String(),
			"to":       to.String(),
		}).Debug("Rejected lifecycle transition")
		return false
	}

	m.state = to
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Transition",
		"from":     from.String(),
		"to":       to.String(),
	}).Info("Lifecycle state changed")

	for _, obs := range observers {
		obs(from, to)
	}
	return true
}

func validEdge(from, to State) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
