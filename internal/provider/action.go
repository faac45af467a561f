package provider

import (
	"slices"
	"strings"
)

// Action is one of the lifecycle verbs accepted from the caller.
type Action string

// Accepted actions. The names are matched exactly and case-sensitively.
const (
	ActionStatus     Action = "status"
	ActionFullStatus Action = "fullstatus"
	ActionStart      Action = "start"
	ActionStop       Action = "stop"
	ActionRestart    Action = "restart"
	ActionKill       Action = "kill"
)

var allActions = []Action{
	ActionStatus,
	ActionFullStatus,
	ActionStart,
	ActionStop,
	ActionRestart,
	ActionKill,
}

// Actions returns the accepted actions in their documented order.
func Actions() []Action {
	return slices.Clone(allActions)
}

// ParseAction validates name against the action vocabulary.
func ParseAction(name string) (Action, error) {
	a := Action(name)
	if !a.Valid() {
		return "", Errorf(KindAction, "unknown action '%s' (expected one of %s)", name, actionList())
	}
	return a, nil
}

// Valid reports whether a belongs to the action vocabulary.
func (a Action) Valid() bool {
	return slices.Contains(allActions, a)
}

// Converges reports whether the action has a convergence target.
func (a Action) Converges() bool {
	return a.DesiredState() != DesiredNone
}

// ReadOnly reports whether the action only describes instances.
func (a Action) ReadOnly() bool {
	return a == ActionStatus || a == ActionFullStatus
}

// DesiredState returns the target state of the action.
func (a Action) DesiredState() DesiredState {
	switch a {
	case ActionStart, ActionRestart:
		return DesiredRunning
	case ActionStop:
		return DesiredStopped
	case ActionKill:
		return DesiredTerminated
	default:
		return DesiredNone
	}
}

func actionList() string {
	names := make([]string, len(allActions))
	for i, a := range allActions {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}
