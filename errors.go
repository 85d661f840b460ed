package courier

import (
	"errors"
	"fmt"

	"github.com/golang-io/courier/packet"
	"github.com/golang-io/courier/store"
)

var (
	ErrInvalidState        = errors.New("courier: operation not valid in the current state")
	ErrNotConnected        = errors.New("courier: client not connected")
	ErrInvalidQoS          = errors.New("courier: invalid qos")
	ErrInvalidTopic        = errors.New("courier: invalid topic")
	ErrNoServers           = errors.New("courier: no server uris")
	ErrInvalidServer       = errors.New("courier: invalid server uri")
	ErrInvalidKeepAlive    = errors.New("courier: keep alive must be whole seconds between 1s and 65535s")
	ErrDisconnectRequested = errors.New("courier: disconnect requested")
	ErrPacketIDExhausted   = errors.New("courier: no free packet identifier")
	ErrClosed              = errors.New("courier: client closed")
	ErrUnexpectedPacket    = errors.New("courier: unexpected packet")

	ErrAuthRejectedRetryable = errors.New("courier: authentication rejected, retrying with refreshed credentials")
	ErrAuthRejectedTerminal  = errors.New("courier: authentication rejected")
	ErrConnectionRefused     = errors.New("courier: connection refused")

	// ErrStoreFull is returned by Publish when the pending store is at capacity.
	ErrStoreFull = store.ErrStoreFull
	// ErrMalformedPacket matches codec errors that ended a connection.
	ErrMalformedPacket error = packet.ErrMalformedPacket
)

// TransportError is a socket, TLS or websocket failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("courier: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TimeoutError reports a bounded wait that expired: the CONNACK after CONNECT
// or the PINGRESP after PINGREQ. It is handled as a transport failure.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("courier: timeout waiting for %s", e.Op)
}

func (e *TimeoutError) Timeout() bool {
	return true
}

// AuthRejectedError is a CONNACK with return code 4 or 5, or an Authenticator
// that could not refresh credentials.
type AuthRejectedError struct {
	Code     packet.ReasonCode
	Terminal bool
	Err      error // set when the Authenticator itself failed
}

func (e *AuthRejectedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("courier: authenticator: %v", e.Err)
	}
	if e.Terminal {
		return fmt.Sprintf("courier: authentication rejected: %v", e.Code)
	}
	return fmt.Sprintf("courier: authentication rejected, refreshing: %v", e.Code)
}

func (e *AuthRejectedError) Is(target error) bool {
	switch target {
	case ErrAuthRejectedTerminal:
		return e.Terminal
	case ErrAuthRejectedRetryable:
		return !e.Terminal
	}
	return false
}

func (e *AuthRejectedError) Unwrap() error {
	return e.Err
}

// ConnectRejectedError is a CONNACK refusal unrelated to credentials.
// Only "server unavailable" is temporary.
type ConnectRejectedError struct {
	Code packet.ReasonCode
}

func (e *ConnectRejectedError) Error() string {
	return fmt.Sprintf("courier: connection refused: %v", e.Code)
}

func (e *ConnectRejectedError) Is(target error) bool {
	return target == ErrConnectionRefused
}

func (e *ConnectRejectedError) Temporary() bool {
	return e.Code == packet.ErrServerUnavailable
}

// terminal reports whether err ends the reconnect loop in StateFailed.
func terminal(err error) bool {
	var rejected *ConnectRejectedError
	if errors.As(err, &rejected) {
		return !rejected.Temporary()
	}
	return errors.Is(err, ErrAuthRejectedTerminal)
}
