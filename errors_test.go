package courier

import (
	"errors"
	"fmt"
	"testing"

	"github.com/golang-io/courier/packet"
	"github.com/stretchr/testify/assert"
)

func TestErrors_Terminal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transport", &TransportError{Op: "read", Err: errors.New("reset")}, false},
		{"timeout", &TimeoutError{Op: "connack"}, false},
		{"server unavailable", &ConnectRejectedError{Code: packet.ErrServerUnavailable}, false},
		{"protocol version", &ConnectRejectedError{Code: packet.ErrUnacceptableProtocolVersion}, true},
		{"identifier", &ConnectRejectedError{Code: packet.ErrIdentifierRejected}, true},
		{"auth retry", &AuthRejectedError{Code: packet.ErrNotAuthorized}, false},
		{"auth terminal", &AuthRejectedError{Code: packet.ErrBadUsernameOrPassword, Terminal: true}, true},
		{"wrapped", fmt.Errorf("attempt: %w", &AuthRejectedError{Terminal: true}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, terminal(tt.err))
		})
	}
}

func TestErrors_Is(t *testing.T) {
	retry := &AuthRejectedError{Code: packet.ErrNotAuthorized}
	assert.ErrorIs(t, retry, ErrAuthRejectedRetryable)
	assert.NotErrorIs(t, retry, ErrAuthRejectedTerminal)

	cause := errors.New("token endpoint down")
	final := &AuthRejectedError{Code: packet.ErrNotAuthorized, Terminal: true, Err: cause}
	assert.ErrorIs(t, final, ErrAuthRejectedTerminal)
	assert.ErrorIs(t, final, cause)

	assert.ErrorIs(t, &ConnectRejectedError{Code: packet.ErrIdentifierRejected}, ErrConnectionRefused)

	var timeout interface{ Timeout() bool }
	assert.ErrorAs(t, fmt.Errorf("x: %w", &TimeoutError{Op: "pingresp"}), &timeout)
	assert.True(t, timeout.Timeout())
}
