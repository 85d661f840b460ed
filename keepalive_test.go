package courier

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPinger struct {
	n atomic.Int32
}

func (p *countingPinger) OnDue() { p.n.Add(1) }

func TestTimerPingSender(t *testing.T) {
	s := NewTimerPingSender()
	p := &countingPinger{}

	s.Start(p, 20*time.Millisecond)
	require.Eventually(t, func() bool { return p.n.Load() >= 2 }, time.Second, 5*time.Millisecond)

	s.Stop()
	// a tick may already be in flight
	time.Sleep(15 * time.Millisecond)
	stopped := p.n.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, p.n.Load())

	s.Stop()
}

func TestKeepAlive_OfflineIsNoop(t *testing.T) {
	c, _ := newTestClient(t)
	c.KeepAlive().OnDue()

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Nil(t, c.pingTimer)
	assert.Equal(t, StateIdle, c.state)
}
