package courier

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/golang-io/courier/packet"
	"github.com/golang-io/courier/store"
	"github.com/golang-io/courier/topic"
	"github.com/rs/zerolog"
)

// A Client keeps one MQTT session alive. It is safe for concurrent use by
// multiple goroutines.
//
// Connect starts a supervisor goroutine that dials, authenticates, serves the
// connection and reconnects with exponential backoff until Disconnect, or
// until the broker refuses the client for good. Progress is reported through
// the EventHandler, never through return values.
type Client struct {
	options Options
	now     func() time.Time

	store      store.Store
	router     *router
	inbound    *InFight
	events     *mailbox[func()]
	pingSender PingSender

	mu             sync.Mutex
	log            zerolog.Logger
	state          State
	connectOptions ConnectOptions
	conn           *transport
	cancel         context.CancelFunc
	done           chan struct{}
	pingTimer      *time.Timer
	closed         bool

	subs   map[string]QoS
	unsubs map[string]struct{} // removed while offline, owed an UNSUBSCRIBE
	pubs   map[uint16]*store.PendingMessage
	ctrl   map[uint16]control
	lastID uint16
}

// control is an outstanding SUBSCRIBE or UNSUBSCRIBE.
type control struct {
	unsubscribe bool
	filters     []string
}

// New creates an idle client. Pending messages already in the store are
// loaded and resent after the first successful connect.
func New(opts ...Option) (*Client, error) {
	options := newOptions(opts...)
	log := options.Logger.With().Str("component", "courier").Logger()

	c := &Client{
		options:    options,
		now:        time.Now,
		store:      options.Store,
		router:     newRouter(log),
		inbound:    newInFight(),
		pingSender: options.PingSender,
		log:        log,
		subs:       make(map[string]QoS),
		unsubs:     make(map[string]struct{}),
		pubs:       make(map[uint16]*store.PendingMessage),
		ctrl:       make(map[uint16]control),
	}
	if c.store == nil {
		mem, err := store.NewMemory(store.Config{})
		if err != nil {
			return nil, err
		}
		c.store = mem
	}
	if c.pingSender == nil {
		c.pingSender = NewTimerPingSender()
	}
	if err := c.reconcile(); err != nil {
		return nil, err
	}
	c.events = newMailbox(log, func(f func()) { f() })

	log.Debug().Int("pending", len(c.pubs)).Msg("client created")
	return c, nil
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// KeepAlive returns the Pinger for external schedulers.
func (c *Client) KeepAlive() Pinger {
	return keepAlive{c: c}
}

// Connect validates opts and starts connecting in the background. It is only
// valid while Idle or Failed.
func (c *Client) Connect(opts ConnectOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.state != StateIdle && c.state != StateFailed {
		return ErrInvalidState
	}
	if opts.ClientID == "" {
		opts.ClientID = newClientID()
	}
	if opts.CleanSession {
		if err := c.store.Clear(); err != nil {
			return fmt.Errorf("courier: clear store: %w", err)
		}
		clear(c.pubs)
		clear(c.ctrl)
		clear(c.unsubs)
		c.inbound.Reset()
		c.pendingChanged()
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.connectOptions = opts
	c.log = c.options.Logger.With().Str("component", "courier").Str("client_id", opts.ClientID).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel, c.done = cancel, make(chan struct{})
	c.setState(StateConnecting)
	go c.supervise(ctx, c.done)
	return nil
}

// Disconnect ends the session: pending reconnects and authentication retries
// are cancelled, DISCONNECT is sent if connected and the client returns to
// Idle with a single Disconnected event. It does nothing while Idle.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if c.state == StateIdle || c.state == StateDisconnecting {
		c.mu.Unlock()
		return nil
	}
	c.setState(StateDisconnecting)
	cancel, done, t := c.cancel, c.done, c.conn
	c.mu.Unlock()

	if t != nil {
		t.disconnect()
	}
	cancel()
	<-done

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = nil
	c.pingResp()
	c.setState(StateIdle)
	c.emit(Event{Kind: EventDisconnected, Reason: ErrDisconnectRequested})
	return nil
}

// Close disconnects and releases the listeners, the event mailbox and the store.
func (c *Client) Close() error {
	if err := c.Disconnect(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.router.close()
	c.events.close()
	return c.store.Close()
}

// Publish sends a message. QoS 0 requires a live connection. QoS 1 and 2
// messages are stored first and sent now or after the next connect; only a
// full store fails them.
func (c *Client) Publish(name string, payload []byte, qos QoS, retained bool) error {
	if !qos.valid() {
		return ErrInvalidQoS
	}
	if err := topic.ValidateName(name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTopic, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if qos == AtMostOnce {
		if c.state != StateConnected || c.conn == nil {
			return ErrNotConnected
		}
		pub := &packet.PUBLISH{
			FixedHeader: &packet.FixedHeader{Retain: b2u(retained)},
			Message:     &packet.Message{TopicName: name, Content: payload},
		}
		return c.conn.send(pub)
	}

	id, err := c.allocID()
	if err != nil {
		return err
	}
	msg := &store.PendingMessage{
		PacketID: id,
		Topic:    name,
		Payload:  append([]byte(nil), payload...),
		QoS:      byte(qos),
		Retained: retained,
		Enqueued: c.now(),
	}
	if msg.ID, err = c.store.Enqueue(*msg); err != nil {
		return err
	}
	c.pubs[id] = msg
	c.pendingChanged()
	c.log.Debug().Str("topic", name).Uint16("packet_id", id).Stringer("qos", qos).Msg("client publish")

	if c.state == StateConnected && c.conn != nil {
		c.transmit(c.conn, msg)
	}
	return nil
}

// Subscribe adds the filters to the session. They are sent now if connected
// and with every later connect.
func (c *Client) Subscribe(subs ...Subscription) error {
	for _, s := range subs {
		if !s.QoS.valid() {
			return ErrInvalidQoS
		}
		if err := topic.ValidateFilter(s.TopicFilter); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTopic, err)
		}
	}
	if len(subs) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	filters := make([]string, 0, len(subs))
	for _, s := range subs {
		c.subs[s.TopicFilter] = s.QoS
		delete(c.unsubs, s.TopicFilter)
		filters = append(filters, s.TopicFilter)
	}
	if c.state == StateConnected && c.conn != nil {
		// the set is replayed on the next connect
		if err := c.sendSubscribe(c.conn, filters); err != nil {
			c.log.Debug().Err(err).Strs("topics", filters).Msg("subscribe send failed")
		}
	}
	return nil
}

// Unsubscribe removes the filters from the session.
func (c *Client) Unsubscribe(filters ...string) error {
	for _, f := range filters {
		if err := topic.ValidateFilter(f); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTopic, err)
		}
	}
	if len(filters) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	for _, f := range filters {
		delete(c.subs, f)
	}
	if c.state == StateConnected && c.conn != nil {
		err := c.sendUnsubscribe(c.conn, slices.Clone(filters))
		if err == nil {
			return nil
		}
		// owed on the next connect
		c.log.Debug().Err(err).Strs("topics", filters).Msg("unsubscribe send failed")
	}
	for _, f := range filters {
		c.unsubs[f] = struct{}{}
	}
	return nil
}

// AddMessageListener registers l for messages matching filter. The returned
// func removes it.
func (c *Client) AddMessageListener(filter string, l MessageListener) (func(), error) {
	remove, err := c.router.add(filter, l)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTopic, err)
	}
	return remove, nil
}

// AddGlobalMessageListener registers l for every inbound message.
func (c *Client) AddGlobalMessageListener(l MessageListener) func() {
	return c.router.addGlobal(l)
}

// supervise owns the connect/serve/backoff loop of one Connect call.
func (c *Client) supervise(ctx context.Context, done chan struct{}) {
	defer close(done)

	c.mu.Lock()
	servers := slices.Clone(c.connectOptions.ServerURIs)
	log := c.log
	c.mu.Unlock()

	bo := newReconnectBackoff(c.options.Backoff)
	force := false
	next := 0
	for {
		server := servers[next%len(servers)]
		t, err := c.establish(ctx, server, force)
		if ctx.Err() != nil {
			if t != nil {
				t.close(ctx.Err())
			}
			return
		}
		if err == nil {
			force = false
			bo.Reset()
			cause := c.serve(ctx, t)
			if !c.connectionLost(ctx, t, cause) {
				return
			}
		} else {
			stat.ConnectFailures.Inc()
			log.Warn().Err(err).Str("server", server.String()).Bool("force_refresh", force).Msg("client connect failed")
			if terminal(err) {
				c.fail(ctx, server, err)
				return
			}
			if !c.transition(ctx, c.State(), Event{Kind: EventConnectFailure, Reason: err, Server: server}) {
				return
			}
			var rejected *AuthRejectedError
			if errors.As(err, &rejected) {
				force = true
				continue
			}
			next++
		}

		attempt, delay := bo.Next()
		stat.Reconnects.Inc()
		if !c.transition(ctx, StateReconnecting, Event{Kind: EventReconnecting, Attempt: attempt, Delay: delay, Server: server}) {
			return
		}
		log.Info().Int("attempt", attempt).Dur("delay", delay).Msg("client reconnecting")
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// establish dials server, runs the Authenticator and completes CONNECT/CONNACK.
func (c *Client) establish(ctx context.Context, server ServerURI, force bool) (*transport, error) {
	if !c.transition(ctx, StateConnecting) {
		return nil, ErrDisconnectRequested
	}
	stat.ConnectAttempts.Inc()

	c.mu.Lock()
	opts, log := c.connectOptions, c.log
	c.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(ctx, c.options.ConnectTimeout)
	defer cancel()
	conn, err := c.dial(dialCtx, server)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &TimeoutError{Op: "dial"}
		}
		return nil, &TransportError{Op: "dial", Err: err}
	}
	t := newTransport(conn, server, log, c.now, c.options.WriteTimeout)

	if !c.transition(ctx, StateAuthenticating) {
		t.close(ErrDisconnectRequested)
		return nil, ErrDisconnectRequested
	}
	authed, err := c.options.Authenticator.Authenticate(opts, force)
	if ctx.Err() != nil {
		// Disconnect came in while authenticating, no CONNECT goes out
		t.close(ctx.Err())
		return nil, ctx.Err()
	}
	if err == nil {
		if authed.ClientID == "" {
			authed.ClientID = opts.ClientID
		}
		err = authed.Validate()
	}
	if err != nil {
		t.close(err)
		if force {
			return nil, &AuthRejectedError{Code: packet.ErrNotAuthorized, Terminal: true, Err: err}
		}
		return nil, fmt.Errorf("courier: authenticator: %w", err)
	}

	connect := &packet.CONNECT{
		CleanSession: authed.CleanSession,
		KeepAlive:    uint16(authed.KeepAlive / time.Second),
		ClientID:     authed.ClientID,
		Username:     authed.Username,
		Password:     authed.Password,
	}
	connack, err := t.handshake(ctx, connect, c.options.ConnectTimeout)
	if err != nil {
		t.close(err)
		return nil, err
	}
	switch code := connack.ConnectReturnCode; code.Code {
	case packet.Accepted.Code:
		c.mu.Lock()
		c.connectOptions = authed
		c.mu.Unlock()
		log.Info().Str("server", server.String()).Uint8("session_present", connack.SessionPresent).Msg("client connected successfully")
		return t, nil
	case packet.ErrBadUsernameOrPassword.Code, packet.ErrNotAuthorized.Code:
		t.close(code)
		return nil, &AuthRejectedError{Code: code, Terminal: force}
	default:
		t.close(code)
		return nil, &ConnectRejectedError{Code: code}
	}
}

// serve installs t as the live connection and blocks until it ends.
func (c *Client) serve(ctx context.Context, t *transport) error {
	c.mu.Lock()
	if ctx.Err() != nil || c.state == StateDisconnecting {
		c.mu.Unlock()
		t.close(ErrDisconnectRequested)
		return ErrDisconnectRequested
	}
	c.conn = t
	c.setState(StateConnected)
	c.emit(Event{Kind: EventConnectSuccess, Server: t.server})
	c.resume(t)
	interval := c.connectOptions.KeepAlive
	c.mu.Unlock()

	stat.Connected.Inc()
	defer stat.Connected.Dec()

	c.pingSender.Start(keepAlive{c: c}, interval)
	err := t.run(ctx, func(pkt packet.Packet) error {
		return c.handle(t, pkt)
	})
	c.pingSender.Stop()

	c.mu.Lock()
	if c.conn == t {
		c.conn = nil
	}
	c.pingResp()
	c.mu.Unlock()
	return err
}

// connectionLost reports a dropped connection and reports whether to reconnect.
func (c *Client) connectionLost(ctx context.Context, t *transport, cause error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil || c.state == StateDisconnecting {
		return false
	}
	c.log.Warn().Err(cause).Str("server", t.server.String()).Msg("client connection lost")
	c.setState(StateReconnecting)
	c.emit(Event{Kind: EventDisconnected, Reason: cause, Server: t.server})
	return true
}

// fail moves to Failed after a refusal that retrying cannot fix.
func (c *Client) fail(ctx context.Context, server ServerURI, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil || c.state == StateDisconnecting {
		return
	}
	c.setState(StateFailed)
	c.emit(Event{Kind: EventConnectFailure, Reason: err, Server: server})
	if h := c.options.AuthFailureHandler; h != nil && errors.Is(err, ErrAuthRejectedTerminal) {
		c.events.put(func() { h.HandleAuthFailure(err) })
	}
}

// transition moves to next and queues events, unless Disconnect took over.
func (c *Client) transition(ctx context.Context, next State, events ...Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil || c.state == StateDisconnecting {
		return false
	}
	c.setState(next)
	for _, ev := range events {
		c.emit(ev)
	}
	return true
}

// setState is called with c.mu held.
func (c *Client) setState(next State) {
	if c.state == next {
		return
	}
	if !c.state.canTransition(next) {
		c.log.Error().Stringer("from", c.state).Stringer("to", next).Msg("unexpected state transition")
	}
	c.log.Debug().Stringer("from", c.state).Stringer("to", next).Msg("state")
	c.state = next
}

// emit queues ev for the EventHandler. Called with c.mu held so events keep
// the order of the transitions that caused them.
func (c *Client) emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = c.now()
	}
	h := c.options.EventHandler
	if h == nil {
		return
	}
	c.events.put(func() { h.OnEvent(ev) })
}

// resume restores the session on a new connection. Called with c.mu held.
func (c *Client) resume(t *transport) {
	// SUBACK/UNSUBACK of the old connection will never come.
	for id, ctl := range c.ctrl {
		if ctl.unsubscribe {
			for _, f := range ctl.filters {
				if _, ok := c.subs[f]; !ok {
					c.unsubs[f] = struct{}{}
				}
			}
		}
		delete(c.ctrl, id)
	}
	if !c.connectOptions.CleanSession && len(c.unsubs) > 0 {
		if err := c.sendUnsubscribe(t, slices.Sorted(maps.Keys(c.unsubs))); err != nil {
			c.log.Warn().Err(err).Msg("client unsubscribe failed")
		}
	}
	clear(c.unsubs)
	if len(c.subs) > 0 {
		if err := c.sendSubscribe(t, slices.Sorted(maps.Keys(c.subs))); err != nil {
			c.log.Warn().Err(err).Msg("client subscribe failed")
		}
	}
	c.replay(t)
}

// replay resends every pending message in enqueue order.
func (c *Client) replay(t *transport) {
	msgs, err := c.store.AllPending()
	if err != nil {
		c.log.Error().Err(err).Msg("load pending messages")
		return
	}
	clear(c.pubs)
	for i := range msgs {
		m := &msgs[i]
		if ttl := c.options.PendingTTL; ttl > 0 && c.now().Sub(m.Enqueued) > ttl {
			c.log.Info().Str("topic", m.Topic).Uint64("id", m.ID).Msg("pending message expired")
			if err := c.store.Ack(m.ID); err != nil {
				c.log.Error().Err(err).Uint64("id", m.ID).Msg("drop expired message")
			}
			continue
		}
		c.pubs[m.PacketID] = m
		c.transmit(t, m)
	}
	c.pendingChanged()
}

// transmit writes the next packet m is owed: PUBREL once released, PUBLISH otherwise.
func (c *Client) transmit(t *transport, m *store.PendingMessage) {
	if m.Released {
		if err := t.send(&packet.PUBREL{PacketID: m.PacketID}); err != nil {
			c.log.Debug().Err(err).Uint16("packet_id", m.PacketID).Msg("pubrel send failed")
		}
		return
	}
	pub := &packet.PUBLISH{
		FixedHeader: &packet.FixedHeader{QoS: m.QoS, Retain: b2u(m.Retained)},
		PacketID:    m.PacketID,
		Message:     &packet.Message{TopicName: m.Topic, Content: m.Payload},
	}
	if m.Sent {
		pub.Dup = 1
		m.Retries++
	}
	if err := t.send(pub); err != nil {
		c.log.Debug().Err(err).Uint16("packet_id", m.PacketID).Msg("publish send failed")
		return
	}
	m.Sent = true
	if err := c.store.Update(*m); err != nil {
		c.log.Error().Err(err).Uint64("id", m.ID).Msg("update pending message")
	}
}

func (c *Client) sendSubscribe(t *transport, filters []string) error {
	id, err := c.allocID()
	if err != nil {
		return err
	}
	sub := &packet.SUBSCRIBE{PacketID: id}
	for _, f := range filters {
		sub.Subscriptions = append(sub.Subscriptions, packet.Subscription{TopicFilter: f, MaximumQoS: byte(c.subs[f])})
	}
	c.ctrl[id] = control{filters: filters}
	c.log.Info().Strs("topics", filters).Uint16("packet_id", id).Msg("client subscribe")
	return t.send(sub)
}

func (c *Client) sendUnsubscribe(t *transport, filters []string) error {
	id, err := c.allocID()
	if err != nil {
		return err
	}
	c.ctrl[id] = control{unsubscribe: true, filters: filters}
	c.log.Info().Strs("topics", filters).Uint16("packet_id", id).Msg("client unsubscribe")
	return t.send(&packet.UNSUBSCRIBE{PacketID: id, TopicFilters: filters})
}

// handle is called by the read loop for every inbound packet, in order.
func (c *Client) handle(t *transport, pkt packet.Packet) error {
	switch p := pkt.(type) {
	case *packet.PUBLISH:
		return c.receive(t, p)
	case *packet.PUBREL:
		c.inbound.Get(p.PacketID)
		return t.send(&packet.PUBCOMP{PacketID: p.PacketID})
	case *packet.PUBACK:
		c.complete(p.PacketID, 1)
	case *packet.PUBCOMP:
		c.complete(p.PacketID, 2)
	case *packet.PUBREC:
		return c.released(t, p.PacketID)
	case *packet.SUBACK:
		c.subacked(p)
	case *packet.UNSUBACK:
		c.mu.Lock()
		delete(c.ctrl, p.PacketID)
		c.mu.Unlock()
	case *packet.PINGRESP:
		c.mu.Lock()
		c.pingResp()
		c.mu.Unlock()
	default:
		return fmt.Errorf("%w: %s", ErrUnexpectedPacket, packet.Kind[pkt.Kind()])
	}
	return nil
}

func (c *Client) receive(t *transport, p *packet.PUBLISH) error {
	msg := Message{
		Topic:     p.Message.TopicName,
		Payload:   p.Message.Content,
		QoS:       QoS(p.QoS),
		Retained:  p.Retain == 1,
		Duplicate: p.Dup == 1,
		PacketID:  p.PacketID,
	}
	switch msg.QoS {
	case AtMostOnce:
		c.deliver(msg)
	case AtLeastOnce:
		c.deliver(msg)
		return t.send(&packet.PUBACK{PacketID: p.PacketID})
	case ExactlyOnce:
		if c.inbound.Put(p.PacketID, msg.Topic) {
			c.deliver(msg)
		}
		return t.send(&packet.PUBREC{PacketID: p.PacketID})
	}
	return nil
}

func (c *Client) deliver(msg Message) {
	n := c.router.dispatch(msg)
	stat.MessagesDelivered.Add(float64(n))
}

// complete finishes the handshake of an outbound publish.
func (c *Client) complete(id uint16, qos byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.pubs[id]
	if !ok || m.QoS != qos {
		c.log.Debug().Uint16("packet_id", id).Msg("ack for unknown packet")
		return
	}
	delete(c.pubs, id)
	if err := c.store.Ack(m.ID); err != nil {
		c.log.Error().Err(err).Uint64("id", m.ID).Msg("ack pending message")
	}
	c.pendingChanged()
}

// released handles PUBREC: the broker owns the message, PUBREL is owed until PUBCOMP.
func (c *Client) released(t *transport, id uint16) error {
	c.mu.Lock()
	if m, ok := c.pubs[id]; ok && m.QoS == 2 && !m.Released {
		m.Released = true
		if err := c.store.Update(*m); err != nil {
			c.log.Error().Err(err).Uint64("id", m.ID).Msg("update pending message")
		}
	}
	c.mu.Unlock()
	return t.send(&packet.PUBREL{PacketID: id})
}

func (c *Client) subacked(p *packet.SUBACK) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ctl, ok := c.ctrl[p.PacketID]
	if !ok || ctl.unsubscribe {
		return
	}
	delete(c.ctrl, p.PacketID)
	for i, code := range p.ReasonCode {
		if i >= len(ctl.filters) {
			break
		}
		if code.Code == packet.ErrSubscribeFailure.Code {
			delete(c.subs, ctl.filters[i])
			c.log.Warn().Str("topic", ctl.filters[i]).Msg("client subscribe failed")
		}
	}
}

// allocID returns a packet identifier not used by any pending publish or
// outstanding SUBSCRIBE/UNSUBSCRIBE. Called with c.mu held.
func (c *Client) allocID() (uint16, error) {
	if id, ok := c.nextFree(); ok {
		return id, nil
	}
	// evicted messages still hold their identifiers until we look again
	if err := c.reconcile(); err != nil {
		return 0, err
	}
	if id, ok := c.nextFree(); ok {
		return id, nil
	}
	return 0, ErrPacketIDExhausted
}

func (c *Client) nextFree() (uint16, bool) {
	id := c.lastID
	for range 0xFFFF {
		id++
		if id == 0 {
			id = 1
		}
		if _, ok := c.pubs[id]; ok {
			continue
		}
		if _, ok := c.ctrl[id]; ok {
			continue
		}
		c.lastID = id
		return id, true
	}
	return 0, false
}

// reconcile rebuilds the outbound window from the store.
func (c *Client) reconcile() error {
	msgs, err := c.store.AllPending()
	if err != nil {
		return fmt.Errorf("courier: load pending messages: %w", err)
	}
	before := len(c.pubs)
	clear(c.pubs)
	for i := range msgs {
		c.pubs[msgs[i].PacketID] = &msgs[i]
	}
	if evicted := before - len(c.pubs); evicted > 0 {
		stat.Evicted.Add(float64(evicted))
	}
	c.pendingChanged()
	return nil
}

func (c *Client) pendingChanged() {
	stat.Pending.Set(float64(len(c.pubs)))
}

func b2u(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
