// Package mqtttest runs a small in-process MQTT v3.1.1 broker for tests. It
// records every packet it receives and can be told to refuse CONNECTs, swallow
// PINGREQs, hold acknowledgements or drop connections.
package mqtttest

import (
	"errors"
	"io"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-io/courier/packet"
	"github.com/golang-io/courier/topic"
	"github.com/rs/zerolog"
	"golang.org/x/net/websocket"
)

const size = 64 << 10

// Broker is the test broker. All methods are safe for concurrent use.
type Broker struct {
	ln  net.Listener
	web *http.Server
	log zerolog.Logger

	// connack decides the return code for a CONNECT, 0 accepts.
	connack atomic.Pointer[func(*packet.CONNECT) byte]

	ignorePing atomic.Bool
	holdAcks   atomic.Bool
	silent     atomic.Bool

	mu       sync.Mutex
	next     uint64
	conns    map[*conn]struct{}
	received []packet.Packet
	subs     *topic.Trie[*conn]
	refuse   map[string]bool
	changed  chan struct{}
	wg       sync.WaitGroup
	closed   bool
}

// conn is one client connection on the broker side.
type conn struct {
	id       uint64
	broker   *Broker
	rwc      net.Conn
	ClientID string

	mu      sync.Mutex
	filters []string
	lastID  uint16
}

// NewBroker starts a broker on 127.0.0.1 with a random port. It is closed
// when the test ends.
func NewBroker(t testing.TB) *Broker {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("mqtttest: listen: %v", err)
	}
	b := &Broker{
		ln:      ln,
		log:     zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.InfoLevel).With().Str("component", "broker").Logger(),
		conns:   make(map[*conn]struct{}),
		subs:    topic.NewTrie[*conn](),
		refuse:  make(map[string]bool),
		changed: make(chan struct{}),
	}
	b.wg.Add(1)
	go b.serve(ln)
	t.Cleanup(b.Close)
	return b
}

// Host returns the listening host.
func (b *Broker) Host() string {
	return b.ln.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the TCP listening port.
func (b *Broker) Port() int {
	return b.ln.Addr().(*net.TCPAddr).Port
}

// ListenWebsocket also serves MQTT over websocket on /mqtt and returns its port.
func (b *Broker) ListenWebsocket(t testing.TB) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("mqtttest: listen websocket: %v", err)
	}
	ws := websocket.Server{
		Handshake: func(cfg *websocket.Config, _ *http.Request) error {
			cfg.Protocol = []string{"mqtt"}
			return nil
		},
		Handler: func(ws *websocket.Conn) {
			ws.PayloadType = websocket.BinaryFrame
			b.wg.Add(1)
			b.serveConn(ws)
		},
	}
	mux := http.NewServeMux()
	mux.Handle("/mqtt", ws)
	srv := &http.Server{Handler: mux}
	b.mu.Lock()
	b.web = srv
	b.mu.Unlock()
	go func() { _ = srv.Serve(ln) }()
	return ln.Addr().(*net.TCPAddr).Port
}

// SetConnack installs the CONNECT decision. nil accepts everything.
func (b *Broker) SetConnack(fn func(*packet.CONNECT) byte) {
	if fn == nil {
		b.connack.Store(nil)
		return
	}
	b.connack.Store(&fn)
}

// SetIgnorePing makes the broker swallow PINGREQ.
func (b *Broker) SetIgnorePing(ignore bool) {
	b.ignorePing.Store(ignore)
}

// SetSilent makes the broker read CONNECT and never answer it.
func (b *Broker) SetSilent(silent bool) {
	b.silent.Store(silent)
}

// SetHoldAcks stops the broker from answering PUBLISH, PUBREC and PUBREL. Use Send to ack by hand.
func (b *Broker) SetHoldAcks(hold bool) {
	b.holdAcks.Store(hold)
}

// RefuseFilter makes SUBSCRIBE for filter fail with return code 0x80.
func (b *Broker) RefuseFilter(filter string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refuse[filter] = true
}

// Connections returns the number of open client connections.
func (b *Broker) Connections() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

// DropAll closes every client connection without DISCONNECT.
func (b *Broker) DropAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.conns {
		_ = c.rwc.Close()
	}
}

// Send writes pkt to every open connection.
func (b *Broker) Send(pkt packet.Packet) {
	for _, c := range b.snapshot() {
		c.send(pkt)
	}
}

// SendRaw writes b as is to every open connection.
func (b *Broker) SendRaw(p []byte) {
	for _, c := range b.snapshot() {
		c.mu.Lock()
		if _, err := c.rwc.Write(p); err != nil {
			b.log.Debug().Err(err).Uint64("conn", c.id).Msg("send raw")
		}
		c.mu.Unlock()
	}
}

// Publish routes a message to the subscribed connections the way a broker would.
func (b *Broker) Publish(name string, payload []byte, qos byte) {
	b.route(&packet.Message{TopicName: name, Content: payload}, qos)
}

// Received returns the packets of the given kind received so far, in order.
// Kind 0 returns all of them.
func (b *Broker) Received(kind byte) []packet.Packet {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []packet.Packet
	for _, pkt := range b.received {
		if kind == 0 || pkt.Kind() == kind {
			out = append(out, pkt)
		}
	}
	return out
}

// WaitFor blocks until n packets of kind were received and returns them.
func (b *Broker) WaitFor(t testing.TB, kind byte, n int, timeout time.Duration) []packet.Packet {
	t.Helper()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		b.mu.Lock()
		changed := b.changed
		b.mu.Unlock()
		if got := b.Received(kind); len(got) >= n {
			return got
		}
		select {
		case <-changed:
		case <-deadline.C:
			t.Fatalf("mqtttest: waiting for %d %s packets, got %d", n, packet.Kind[kind], len(b.Received(kind)))
			return nil
		}
	}
}

// Close stops the listeners and closes every connection.
func (b *Broker) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	web := b.web
	b.mu.Unlock()

	_ = b.ln.Close()
	if web != nil {
		_ = web.Close()
	}
	b.DropAll()
	b.wg.Wait()
}

func (b *Broker) serve(ln net.Listener) {
	defer b.wg.Done()
	for {
		rwc, err := ln.Accept()
		if err != nil {
			return
		}
		b.wg.Add(1)
		go b.serveConn(rwc)
	}
}

func (b *Broker) snapshot() []*conn {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*conn, 0, len(b.conns))
	for c := range b.conns {
		out = append(out, c)
	}
	return out
}

func (b *Broker) record(pkt packet.Packet) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.received = append(b.received, pkt)
	close(b.changed)
	b.changed = make(chan struct{})
}

func (b *Broker) route(msg *packet.Message, qos byte) {
	for _, c := range b.subs.Match(msg.TopicName) {
		pub := &packet.PUBLISH{FixedHeader: &packet.FixedHeader{QoS: qos}, Message: msg}
		if qos > 0 {
			pub.PacketID = c.packetID()
		}
		c.send(pub)
	}
}

func (b *Broker) serveConn(rwc net.Conn) {
	b.mu.Lock()
	b.next++
	c := &conn{id: b.next, broker: b, rwc: rwc}
	b.conns[c] = struct{}{}
	b.mu.Unlock()

	defer func() {
		if err := recover(); err != nil {
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			b.log.Error().Interface("panic", err).Bytes("stack", buf).Msg("panic serving connection")
		}
		c.mu.Lock()
		for _, f := range c.filters {
			b.subs.Remove(f, c.id)
		}
		c.mu.Unlock()
		b.mu.Lock()
		delete(b.conns, c)
		b.mu.Unlock()
		_ = rwc.Close()
		b.wg.Done()
	}()

	for {
		pkt, err := packet.Unpack(rwc)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				b.log.Debug().Err(err).Str("client_id", c.ClientID).Msg("read packet")
			}
			return
		}
		b.record(pkt)
		if !c.serveMQTT(pkt) {
			return
		}
	}
}

func (c *conn) packetID() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastID++
	if c.lastID == 0 {
		c.lastID = 1
	}
	return c.lastID
}

func (c *conn) send(pkt packet.Packet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := pkt.Pack(c.rwc); err != nil {
		c.broker.log.Debug().Err(err).Uint64("conn", c.id).Msg("send packet")
	}
}

// serveMQTT answers one packet and reports whether the connection stays open.
func (c *conn) serveMQTT(req packet.Packet) bool {
	b := c.broker
	switch rpkt := req.(type) {
	case *packet.CONNECT:
		c.ClientID = rpkt.ClientID
		if b.silent.Load() {
			return true
		}
		code := byte(0)
		if fn := b.connack.Load(); fn != nil {
			code = (*fn)(rpkt)
		}
		c.send(&packet.CONNACK{ConnectReturnCode: packet.ConnackCode(code)})
		b.log.Debug().Str("client_id", c.ClientID).Uint8("code", code).Msg("client connect")
		return code == 0
	case *packet.PUBLISH:
		switch rpkt.QoS {
		case 0:
			b.route(rpkt.Message, 0)
		case 1:
			b.route(rpkt.Message, 1)
			if !b.holdAcks.Load() {
				c.send(&packet.PUBACK{PacketID: rpkt.PacketID})
			}
		case 2:
			b.route(rpkt.Message, 2)
			if !b.holdAcks.Load() {
				c.send(&packet.PUBREC{PacketID: rpkt.PacketID})
			}
		}
	case *packet.PUBREL:
		if !b.holdAcks.Load() {
			c.send(&packet.PUBCOMP{PacketID: rpkt.PacketID})
		}
	case *packet.PUBREC:
		if !b.holdAcks.Load() {
			c.send(&packet.PUBREL{PacketID: rpkt.PacketID})
		}
	case *packet.PUBACK, *packet.PUBCOMP:
	case *packet.SUBSCRIBE:
		var reasons []packet.ReasonCode
		for _, sub := range rpkt.Subscriptions {
			b.mu.Lock()
			refused := b.refuse[sub.TopicFilter]
			b.mu.Unlock()
			if refused || topic.ValidateFilter(sub.TopicFilter) != nil {
				reasons = append(reasons, packet.ErrSubscribeFailure)
				continue
			}
			b.subs.Add(sub.TopicFilter, c.id, c)
			c.mu.Lock()
			c.filters = append(c.filters, sub.TopicFilter)
			c.mu.Unlock()
			reasons = append(reasons, packet.ReasonCode{Code: sub.MaximumQoS})
		}
		c.send(&packet.SUBACK{PacketID: rpkt.PacketID, ReasonCode: reasons})
	case *packet.UNSUBSCRIBE:
		for _, f := range rpkt.TopicFilters {
			b.subs.Remove(f, c.id)
		}
		c.send(&packet.UNSUBACK{PacketID: rpkt.PacketID})
	case *packet.PINGREQ:
		if !b.ignorePing.Load() {
			c.send(&packet.PINGRESP{})
		}
	case *packet.DISCONNECT:
		return false
	default:
		b.log.Warn().Str("client_id", c.ClientID).Str("kind", packet.Kind[req.Kind()]).Msg("unexpected packet")
		return false
	}
	return true
}

// Addr returns host:port of the TCP listener.
func (b *Broker) Addr() string {
	return net.JoinHostPort(b.Host(), strconv.Itoa(b.Port()))
}
