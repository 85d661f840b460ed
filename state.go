package courier

import "fmt"

// State of the connection state machine.
//
//	Idle → Connecting → Authenticating → Connected → Disconnecting → Idle
//	Connected → Reconnecting → Connecting
//	Connecting, Authenticating → Reconnecting (failed attempt, waiting out the backoff)
//	any → Failed
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateAuthenticating
	StateConnected
	StateDisconnecting
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

var transitions = map[State][]State{
	StateIdle:           {StateConnecting},
	StateConnecting:     {StateConnecting, StateAuthenticating, StateReconnecting, StateDisconnecting, StateFailed},
	StateAuthenticating: {StateConnecting, StateConnected, StateReconnecting, StateDisconnecting, StateFailed},
	StateConnected:      {StateReconnecting, StateDisconnecting, StateFailed},
	StateReconnecting:   {StateReconnecting, StateConnecting, StateDisconnecting, StateFailed},
	StateDisconnecting:  {StateIdle},
	StateFailed:         {StateConnecting, StateDisconnecting},
}

// canTransition reports whether the machine may move from s to next.
func (s State) canTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
