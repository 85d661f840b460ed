package courier

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-io/courier/packet"
	"github.com/rs/zerolog"
	"golang.org/x/net/websocket"
	"golang.org/x/sync/errgroup"
)

// dial opens the byte stream to server.
func (c *Client) dial(ctx context.Context, server ServerURI) (net.Conn, error) {
	addr := server.Addr()
	switch server.Scheme {
	case "ws", "wss":
		return c.dialWebsocket(ctx, server, addr)
	case "ssl", "tls", "mqtts":
		cfg := c.options.TLSClientConfig.Clone()
		if cfg == nil {
			cfg = &tls.Config{}
		}
		if cfg.ServerName == "" {
			cfg.ServerName = server.Host
		}
		if c.options.DialContext == nil {
			d := &tls.Dialer{NetDialer: &net.Dialer{}, Config: cfg}
			return d.DialContext(ctx, "tcp", addr)
		}
		raw, err := c.dialTCP(ctx, addr)
		if err != nil {
			return nil, err
		}
		conn := tls.Client(raw, cfg)
		if err := conn.HandshakeContext(ctx); err != nil {
			raw.Close()
			return nil, err
		}
		return conn, nil
	default:
		return c.dialTCP(ctx, addr)
	}
}

func (c *Client) dialTCP(ctx context.Context, addr string) (net.Conn, error) {
	// 用户自定义拨号优先
	if c.options.DialContext != nil {
		conn, err := c.options.DialContext(ctx, "tcp", addr)
		if conn == nil && err == nil {
			err = errors.New("courier: DialContext hook returned (nil, nil)")
		}
		return conn, err
	}
	return (&net.Dialer{}).DialContext(ctx, "tcp", addr)
}

func (c *Client) dialWebsocket(ctx context.Context, server ServerURI, addr string) (net.Conn, error) {
	// 构造 WebSocket URL，默认路径 /mqtt
	path := server.Path
	if path == "" {
		path = "/mqtt"
	}
	loc := &url.URL{Scheme: server.Scheme, Host: addr, Path: path}
	originScheme := "http"
	if server.Scheme == "wss" {
		originScheme = "https"
	}
	origin := &url.URL{Scheme: originScheme, Host: addr}

	cfg, err := websocket.NewConfig(loc.String(), origin.String())
	if err != nil {
		return nil, err
	}
	// 协商 mqtt 子协议，二进制帧
	cfg.Protocol = []string{"mqtt"}
	if server.Scheme == "wss" {
		cfg.TlsConfig = c.options.TLSClientConfig
	}
	ws, err := cfg.DialContext(ctx)
	if err != nil {
		return nil, err
	}
	ws.PayloadType = websocket.BinaryFrame
	return ws, nil
}

// transport is one live connection. The read loop is the only reader; the
// write loop is the only writer after the handshake. send only queues.
type transport struct {
	conn   net.Conn
	server ServerURI
	log    zerolog.Logger
	now    func() time.Time

	writeTimeout time.Duration

	dec packet.Decoder

	mu     sync.Mutex
	outbox [][]byte
	signal chan struct{}

	writeMu   sync.Mutex
	lastWrite atomic.Int64

	once   sync.Once
	closed chan struct{}
	cause  error
}

func newTransport(conn net.Conn, server ServerURI, log zerolog.Logger, now func() time.Time, writeTimeout time.Duration) *transport {
	t := &transport{
		conn:         conn,
		server:       server,
		log:          log,
		now:          now,
		writeTimeout: writeTimeout,
		signal:       make(chan struct{}, 1),
		closed:       make(chan struct{}),
	}
	t.lastWrite.Store(now().UnixNano())
	return t
}

// handshake writes CONNECT and waits up to timeout for the CONNACK.
// Cancelling ctx closes the connection.
func (t *transport) handshake(ctx context.Context, connect *packet.CONNECT, timeout time.Duration) (*packet.CONNACK, error) {
	stop := context.AfterFunc(ctx, func() { t.close(ctx.Err()) })
	defer stop()

	b, err := packet.Encode(connect)
	if err != nil {
		return nil, err
	}
	if err := t.write(b); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	_ = t.conn.SetReadDeadline(deadline)
	defer t.conn.SetReadDeadline(time.Time{})

	buf := make([]byte, 512)
	for {
		pkt, err := t.dec.Next()
		if err == nil {
			connack, ok := pkt.(*packet.CONNACK)
			if !ok {
				return nil, ErrUnexpectedPacket
			}
			stat.PacketReceived.Inc()
			return connack, nil
		}
		if !errors.Is(err, packet.ErrIncomplete) {
			return nil, err
		}
		n, err := t.conn.Read(buf)
		if n > 0 {
			stat.ByteReceived.Add(float64(n))
			t.dec.Write(buf[:n])
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return nil, &TimeoutError{Op: "connack"}
			}
			return nil, &TransportError{Op: "read", Err: err}
		}
	}
}

// send queues pkt for the write loop. It never blocks on the network.
func (t *transport) send(pkt packet.Packet) error {
	b, err := packet.Encode(pkt)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	select {
	case <-t.closed:
		return ErrNotConnected
	default:
	}
	t.outbox = append(t.outbox, b)
	select {
	case t.signal <- struct{}{}:
	default:
	}
	return nil
}

func (t *transport) write(b []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if t.writeTimeout > 0 {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	}
	n, err := t.conn.Write(b)
	stat.ByteSent.Add(float64(n))
	if err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	stat.PacketSent.Inc()
	t.lastWrite.Store(t.now().UnixNano())
	return nil
}

// lastActivity is when a packet was last written.
func (t *transport) lastActivity() time.Time {
	return time.Unix(0, t.lastWrite.Load())
}

// run serves the connection until it fails or ctx ends and returns the first cause.
func (t *transport) run(ctx context.Context, handle func(packet.Packet) error) error {
	group := errgroup.Group{}
	group.Go(func() error {
		return t.readLoop(handle)
	})
	group.Go(func() error {
		return t.writeLoop()
	})
	group.Go(func() error {
		select {
		case <-ctx.Done():
			t.close(ctx.Err())
		case <-t.closed:
		}
		return nil
	})
	_ = group.Wait()
	return t.err()
}

func (t *transport) readLoop(handle func(packet.Packet) error) error {
	dispatch := func() error {
		for pkt, err := range t.dec.Packets() {
			if err != nil {
				return t.close(err)
			}
			stat.PacketReceived.Inc()
			if err := handle(pkt); err != nil {
				return t.close(err)
			}
		}
		return nil
	}
	// bytes that arrived with the CONNACK
	if err := dispatch(); err != nil {
		return err
	}

	buf := make([]byte, 4096)
	for {
		n, err := t.conn.Read(buf)
		if n > 0 {
			stat.ByteReceived.Add(float64(n))
			t.dec.Write(buf[:n])
			if err := dispatch(); err != nil {
				return err
			}
		}
		if err != nil {
			return t.close(&TransportError{Op: "read", Err: err})
		}
	}
}

func (t *transport) writeLoop() error {
	for {
		select {
		case <-t.closed:
			return nil
		case <-t.signal:
		}
		t.mu.Lock()
		batch := t.outbox
		t.outbox = nil
		t.mu.Unlock()

		for _, b := range batch {
			if err := t.write(b); err != nil {
				return t.close(err)
			}
		}
	}
}

// close shuts the connection once and records the first cause.
func (t *transport) close(cause error) error {
	t.once.Do(func() {
		t.mu.Lock()
		t.cause = cause
		t.outbox = nil
		close(t.closed)
		t.mu.Unlock()
		if err := t.conn.Close(); err != nil {
			t.log.Debug().Err(err).Str("server", t.server.String()).Msg("close connection")
		}
	})
	return t.err()
}

func (t *transport) err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cause
}

// disconnect writes DISCONNECT if the connection is still usable, then closes it.
func (t *transport) disconnect() {
	select {
	case <-t.closed:
		return
	default:
	}
	if b, err := packet.Encode(&packet.DISCONNECT{}); err == nil {
		t.writeMu.Lock()
		_ = t.conn.SetWriteDeadline(time.Now().Add(time.Second))
		_, _ = t.conn.Write(b)
		t.writeMu.Unlock()
	}
	t.close(ErrDisconnectRequested)
}

func (t *transport) done() <-chan struct{} {
	return t.closed
}
