package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-io/courier"
	"github.com/golang-io/courier/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("config/dev.yaml")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.KeepAlive)
	assert.Equal(t, []courier.Subscription{{TopicFilter: "courier/#", QoS: courier.AtLeastOnce}}, cfg.Subscribe)
	assert.Equal(t, time.Second, cfg.Publish.Interval)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())

	opts, err := cfg.ConnectOptions()
	require.NoError(t, err)
	require.Len(t, opts.ServerURIs, 2)
	assert.Equal(t, "ws", opts.ServerURIs[1].Scheme)
	assert.Equal(t, "/mqtt", opts.ServerURIs[1].Path)
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("servers: [tcp://localhost]\n"))
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.KeepAlive)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())

	_, err = cfg.ConnectOptions()
	assert.NoError(t, err)

	st, err := cfg.OpenStore()
	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, st)
	assert.NoError(t, st.Close())
}

func TestParseConfig_Invalid(t *testing.T) {
	cfg, err := ParseConfig([]byte("servers: [http://localhost]\n"))
	require.NoError(t, err)
	_, err = cfg.ConnectOptions()
	assert.ErrorIs(t, err, courier.ErrInvalidServer)

	_, err = ParseConfig([]byte("keepAlive: [1, 2]"))
	assert.Error(t, err)

	cfg, err = ParseConfig([]byte("store: {eviction: newest}"))
	require.NoError(t, err)
	_, err = cfg.OpenStore()
	assert.Error(t, err)
}

func TestConfig_BadgerStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pending")
	cfg, err := ParseConfig([]byte("store: {dir: \"" + dir + "\", capacity: 10}"))
	require.NoError(t, err)

	st, err := cfg.OpenStore()
	require.NoError(t, err)
	assert.IsType(t, &store.Badger{}, st)
	require.NoError(t, st.Close())

	_, err = os.Stat(dir)
	assert.NoError(t, err)
}
