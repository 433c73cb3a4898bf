// Package session implements the foreground/background session state
// machine. Session boundaries are derived lazily from wall-clock deltas at
// the moment of a foreground signal; no timers run while backgrounded.
package session

import "time"

// State is the machine's current lifecycle phase.
type State int

const (
	// Active means the host application is foregrounded.
	Active State = iota
	// Backgrounded means the host is in the background since a known time.
	Backgrounded
	// Terminal means a terminate signal was observed. No transitions
	// occur after Terminal.
	Terminal
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Backgrounded:
		return "backgrounded"
	case Terminal:
		return "terminal"
	}
	return "unknown"
}

// Machine tracks foreground/background transitions for one tracker
// lifetime. It is not safe for concurrent use; the owning tracker
// serializes access.
type Machine struct {
	state   State
	since   time.Time
	timeout time.Duration
}

// NewMachine starts Active. Construction is the start of the first session;
// the caller is responsible for emitting the session-start event.
func NewMachine(timeout time.Duration) *Machine {
	return &Machine{state: Active, timeout: timeout}
}

// State returns the current phase.
func (m *Machine) State() State { return m.state }

// Background records the transition into the background. Repeated background
// signals keep the earliest timestamp so the threshold measures the full
// backgrounded span.
func (m *Machine) Background(now time.Time) {
	if m.state != Active {
		return
	}
	m.state = Backgrounded
	m.since = now
}

// Foreground returns the machine to Active. It reports true when the time
// spent backgrounded exceeded the timeout, which the caller must treat as a
// session boundary. A foreground signal while already Active is a no-op.
func (m *Machine) Foreground(now time.Time) (boundary bool) {
	if m.state != Backgrounded {
		return false
	}
	boundary = now.Sub(m.since) > m.timeout
	m.state = Active
	m.since = time.Time{}
	return boundary
}

// Terminate freezes the machine. It reports true on the first call so the
// caller runs termination actions exactly once.
func (m *Machine) Terminate() bool {
	if m.state == Terminal {
		return false
	}
	m.state = Terminal
	return true
}
