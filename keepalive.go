package courier

import (
	"sync"
	"time"

	"github.com/golang-io/courier/packet"
)

// Pinger is the entry point for every keep-alive trigger. OnDue may be called
// at any time and from any goroutine; it decides whether a PINGREQ is needed.
type Pinger interface {
	OnDue()
}

// PingSender schedules calls to Pinger.OnDue while a connection is up. Start
// is called after each ConnectSuccess with the negotiated keep-alive interval
// and Stop when the connection ends.
type PingSender interface {
	Start(p Pinger, interval time.Duration)
	Stop()
}

// TimerPingSender calls OnDue every half interval from an in-process ticker.
type TimerPingSender struct {
	mu   sync.Mutex
	stop chan struct{}
}

func NewTimerPingSender() *TimerPingSender {
	return &TimerPingSender{}
}

func (s *TimerPingSender) Start(p Pinger, interval time.Duration) {
	s.Stop()
	period := interval / 2
	if period <= 0 {
		period = interval
	}
	stop := make(chan struct{})
	s.mu.Lock()
	s.stop = stop
	s.mu.Unlock()

	go func() {
		tick := time.NewTicker(period)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				p.OnDue()
			}
		}
	}()
}

func (s *TimerPingSender) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// keepAlive is the Client's Pinger.
type keepAlive struct {
	c *Client
}

// OnDue sends a PINGREQ unless the client is offline, a ping is already
// outstanding, or a packet went out within the last half interval.
func (k keepAlive) OnDue() {
	c := k.c
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.conn
	if c.state != StateConnected || t == nil || c.pingTimer != nil {
		return
	}
	interval := c.connectOptions.KeepAlive
	if c.now().Sub(t.lastActivity()) < interval/2 {
		return
	}
	if err := t.send(&packet.PINGREQ{}); err != nil {
		return
	}
	timeout := c.options.PingTimeout
	if timeout <= 0 {
		timeout = interval / 2
	}
	c.log.Debug().Dur("timeout", timeout).Msg("pingreq sent")
	c.pingTimer = time.AfterFunc(timeout, func() { c.pingExpired(t) })
}

// pingExpired ends t when its PINGRESP did not arrive in time.
func (c *Client) pingExpired(t *transport) {
	c.mu.Lock()
	if c.conn != t || c.pingTimer == nil {
		c.mu.Unlock()
		return
	}
	c.pingTimer = nil
	c.mu.Unlock()

	stat.PingTimeouts.Inc()
	c.log.Warn().Str("server", t.server.String()).Msg("pingresp timeout")
	t.close(&TimeoutError{Op: "pingresp"})
}

// pingResp disarms the ping timer. Called with c.mu held.
func (c *Client) pingResp() {
	if c.pingTimer != nil {
		c.pingTimer.Stop()
		c.pingTimer = nil
	}
}
