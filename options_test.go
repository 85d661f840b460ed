package courier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServerURI(t *testing.T) {
	tests := []struct {
		in   string
		want ServerURI
		addr string
	}{
		{"tcp://broker.local", ServerURI{Scheme: "tcp", Host: "broker.local"}, "broker.local:1883"},
		{"mqtt://10.0.0.1:1884", ServerURI{Scheme: "mqtt", Host: "10.0.0.1", Port: 1884}, "10.0.0.1:1884"},
		{"ssl://broker.local", ServerURI{Scheme: "ssl", Host: "broker.local"}, "broker.local:8883"},
		{"mqtts://broker.local", ServerURI{Scheme: "mqtts", Host: "broker.local"}, "broker.local:8883"},
		{"ws://broker.local/ws", ServerURI{Scheme: "ws", Host: "broker.local", Path: "/ws"}, "broker.local:80"},
		{"wss://[::1]:9443/mqtt", ServerURI{Scheme: "wss", Host: "::1", Port: 9443, Path: "/mqtt"}, "[::1]:9443"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseServerURI(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.addr, got.Addr())
		})
	}

	for _, bad := range []string{"http://x", "tcp://", "tcp://x:99999", "tcp://x:abc", "::"} {
		_, err := ParseServerURI(bad)
		assert.ErrorIs(t, err, ErrInvalidServer, bad)
	}
}

func TestConnectOptions_Validate(t *testing.T) {
	ok := ConnectOptions{ServerURIs: []ServerURI{{Scheme: "tcp", Host: "x"}}, KeepAlive: 60 * time.Second}
	require.NoError(t, ok.Validate())

	longest := ok
	longest.KeepAlive = 65535 * time.Second
	assert.NoError(t, longest.Validate())

	pass := ok
	pass.Password = "secret"
	assert.Error(t, pass.Validate(), "password without user name")

	pass.Username = "user"
	assert.NoError(t, pass.Validate())
}

func TestOptions_Defaults(t *testing.T) {
	o := newOptions()
	assert.Equal(t, 10*time.Second, o.ConnectTimeout)
	assert.Equal(t, 5*time.Second, o.WriteTimeout)
	assert.Equal(t, Backoff{Base: time.Second, Max: 2 * time.Minute}, o.Backoff)
	assert.IsType(t, passthrough{}, o.Authenticator)

	o = newOptions(WithPingTimeout(time.Second), WithPendingTTL(time.Hour))
	assert.Equal(t, time.Second, o.PingTimeout)
	assert.Equal(t, time.Hour, o.PendingTTL)
}
