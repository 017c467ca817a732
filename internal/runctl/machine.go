// Package runctl tracks the simulation run lifecycle as observed over the
// stream and drives which console controls are usable at any moment.
package runctl

import (
	"fmt"
	"sync"
)

// State is the lifecycle phase of the remote run.
type State int

const (
	// Idle means no run has been observed yet.
	Idle State = iota
	// Running means the run is advancing turns.
	Running
	// Paused means the server halted the run between actors.
	Paused
	// Ended means the run finished; only restart can leave this state.
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Controls reports which console actions are currently permitted. Start and
// Stop are never both enabled while a run is live; restart is always an
// option once a run has been observed.
type Controls struct {
	Start   bool
	Stop    bool
	Restart bool
	Say     bool
}

// Machine is the client-side mirror of the server's run lifecycle. Stream
// frames move it authoritatively; control requests move it optimistically
// and roll back on failure.
type Machine struct {
	mu sync.Mutex

	state        State
	startPending bool
	stopPending  bool
	awaiting     string
	pauseActor   string
	pauseRound   int
}

func NewMachine() *Machine {
	return &Machine{state: Idle}
}

// State returns the current lifecycle phase.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// AdoptHello aligns the machine with the snapshot's paused flag. A hello
// clears any in-flight optimistic transition since the server's word wins.
func (m *Machine) AdoptHello(paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startPending = false
	m.stopPending = false
	if paused {
		m.state = Paused
	} else if m.state == Idle || m.state == Ended {
		// A live stream with an unpaused snapshot means the run is going.
		m.state = Running
	} else if m.state == Paused {
		m.state = Running
	}
}

// BeginStart optimistically enters Running and returns the prior state so a
// failed control request can roll back.
func (m *Machine) BeginStart() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	prior := m.state
	m.state = Running
	m.startPending = true
	return prior
}

// Rollback restores the state captured by BeginStart after a failed request.
func (m *Machine) Rollback(prior State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = prior
	m.startPending = false
}

// ConfirmStart settles an optimistic start. resumed reports whether the
// server treated the request as a resume of a paused run; in that case the
// pause context left behind by the pause frame is stale and is dropped.
func (m *Machine) ConfirmStart(resumed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startPending = false
	m.state = Running
	if resumed {
		m.pauseActor = ""
		m.pauseRound = 0
	}
}

// RequestStop marks a stop as requested; the run stays live until the server
// reports the pause. Returns false when no stoppable run exists.
func (m *Machine) RequestStop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Running || m.stopPending {
		return false
	}
	m.stopPending = true
	return true
}

// StopPending reports whether a stop request awaits server confirmation.
func (m *Machine) StopPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopPending
}

// BeginRestart resets the machine to a fresh pending run.
func (m *Machine) BeginRestart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Idle
	m.startPending = true
	m.stopPending = false
	m.awaiting = ""
	m.pauseActor = ""
	m.pauseRound = 0
}

// ServerPaused records an authoritative pause frame.
func (m *Machine) ServerPaused(afterActor string, round int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Paused
	m.stopPending = false
	m.startPending = false
	m.pauseActor = afterActor
	m.pauseRound = round
}

// ServerResumed records an authoritative resume frame.
func (m *Machine) ServerResumed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Running
	m.startPending = false
	m.pauseActor = ""
	m.pauseRound = 0
}

// ServerEnded records the terminal frame. Any awaited input is moot, and a
// dead run's pause context has nothing left to describe.
func (m *Machine) ServerEnded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Ended
	m.startPending = false
	m.stopPending = false
	m.awaiting = ""
	m.pauseActor = ""
	m.pauseRound = 0
}

// SetAwaitingInput records that the server is blocked on text from the named
// player character.
func (m *Machine) SetAwaitingInput(actor string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.awaiting = actor
}

// ClearAwaitingInput releases the input gate.
func (m *Machine) ClearAwaitingInput() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.awaiting = ""
}

// AwaitingInput returns the actor the server is waiting on, or "".
func (m *Machine) AwaitingInput() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.awaiting
}

// PauseContext returns the actor and round recorded by the last pause frame.
func (m *Machine) PauseContext() (string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseActor, m.pauseRound
}

// Controls derives the permitted console actions from the current state.
func (m *Machine) Controls() Controls {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := Controls{Restart: true}
	switch m.state {
	case Idle:
		c.Start = !m.startPending
	case Running:
		c.Stop = !m.stopPending
		c.Say = m.awaiting != ""
	case Paused:
		c.Start = !m.startPending
		c.Say = m.awaiting != ""
	case Ended:
		// A new run can be started from the terminal state.
		c.Start = !m.startPending
	}
	return c
}

// StatusLabel renders the one-line status shown in the console header.
func (m *Machine) StatusLabel() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.stopPending:
		return "running (stop requested)"
	case m.startPending && m.state == Idle:
		return "starting"
	case m.state == Paused && m.pauseActor != "":
		return fmt.Sprintf("paused after %s (round %d)", m.pauseActor, m.pauseRound)
	default:
		return m.state.String()
	}
}
