package courier

import (
	"testing"
)

func TestState_Transitions(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateConnecting, true},
		{StateIdle, StateConnected, false},
		{StateConnecting, StateAuthenticating, true},
		{StateAuthenticating, StateConnected, true},
		{StateConnected, StateReconnecting, true},
		{StateReconnecting, StateConnecting, true},
		{StateConnected, StateDisconnecting, true},
		{StateDisconnecting, StateIdle, true},
		{StateDisconnecting, StateConnecting, false},
		{StateConnected, StateConnecting, false},
		{StateAuthenticating, StateFailed, true},
		{StateFailed, StateConnecting, true},
		{StateFailed, StateConnected, false},
	}
	for _, tt := range tests {
		if got := tt.from.canTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestState_String(t *testing.T) {
	if s := StateReconnecting.String(); s != "reconnecting" {
		t.Errorf("String() = %q", s)
	}
	if s := State(42).String(); s != "State(42)" {
		t.Errorf("String() = %q", s)
	}
}
