package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateCode_Label(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state StateCode
		label string
	}{
		{StatePending, "pending"},
		{StateRunning, "running"},
		{StateShuttingDown, "shutting-down"},
		{StateTerminated, "terminated"},
		{StateStopping, "stopping"},
		{StateStopped, "off"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.label, tt.state.Label())
		})
	}
}

func TestStateCode_StoppedStringIsNotLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "state(99)", StateCode(99).String())
}

func TestActionDesiredStateLabel_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		action  string
		desired DesiredState
		label   string
	}{
		{"status", DesiredNone, "none"},
		{"fullstatus", DesiredNone, "none"},
		{"start", DesiredRunning, "running"},
		{"restart", DesiredRunning, "running"},
		{"stop", DesiredStopped, "off"},
		{"kill", DesiredTerminated, "terminated"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			t.Parallel()

			a, err := ParseAction(tt.action)
			assert.NoError(t, err)
			assert.Equal(t, tt.desired, a.DesiredState())
			assert.Equal(t, tt.label, a.DesiredState().Label())

			// Parsing the action again yields the same target.
			again, err := ParseAction(string(a))
			assert.NoError(t, err)
			assert.Equal(t, a.DesiredState(), again.DesiredState())
		})
	}
}

func TestDesiredState_Satisfied(t *testing.T) {
	t.Parallel()

	assert.True(t, DesiredRunning.Satisfied(StateRunning))
	assert.False(t, DesiredRunning.Satisfied(StatePending))
	assert.True(t, DesiredStopped.Satisfied(StateStopped))
	assert.False(t, DesiredStopped.Satisfied(StateStopping))
	assert.True(t, DesiredTerminated.Satisfied(StateTerminated))
	assert.False(t, DesiredNone.Satisfied(StateNone))
}
