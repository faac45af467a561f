package provider

import "fmt"

// StateCode is the normalized instance state.
type StateCode int

// Normalized instance states.
const (
	StateNone         StateCode = -1
	StatePending      StateCode = 0
	StateRunning      StateCode = 16
	StateShuttingDown StateCode = 32
	StateTerminated   StateCode = 48
	StateStopping     StateCode = 64
	StateStopped      StateCode = 80
)

var stateNames = map[StateCode]string{
	StateNone:         "none",
	StatePending:      "pending",
	StateRunning:      "running",
	StateShuttingDown: "shutting-down",
	StateTerminated:   "terminated",
	StateStopping:     "stopping",
	StateStopped:      "stopped",
}

// String returns the provider-neutral state name.
func (s StateCode) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Label returns the name shown in status output. Stopped instances read "off".
func (s StateCode) Label() string {
	if s == StateStopped {
		return "off"
	}
	return s.String()
}

// DesiredState is the convergence target implied by an action.
type DesiredState int

// Convergence targets.
const (
	DesiredNone DesiredState = iota
	DesiredRunning
	DesiredStopped
	DesiredTerminated
)

// State returns the state code an instance must report to satisfy d.
// DesiredNone maps to StateNone, which no instance ever reports.
func (d DesiredState) State() StateCode {
	switch d {
	case DesiredRunning:
		return StateRunning
	case DesiredStopped:
		return StateStopped
	case DesiredTerminated:
		return StateTerminated
	default:
		return StateNone
	}
}

// Label returns the status label of the target state.
func (d DesiredState) Label() string {
	return d.State().Label()
}

// Satisfied reports whether an instance in state s has reached d.
func (d DesiredState) Satisfied(s StateCode) bool {
	return d != DesiredNone && s == d.State()
}

func (d DesiredState) String() string {
	if d == DesiredNone {
		return "none"
	}
	return d.State().String()
}
