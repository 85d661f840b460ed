package courier

import (
	"fmt"
	"time"
)

// EventKind discriminates Event.
type EventKind int

const (
	// EventConnectSuccess follows every CONNACK that accepted the connection.
	EventConnectSuccess EventKind = iota + 1
	// EventConnectFailure follows every connection attempt that did not reach StateConnected.
	EventConnectFailure
	// EventDisconnected follows the loss of an established connection, or Disconnect.
	EventDisconnected
	// EventReconnecting precedes each backoff wait; Attempt counts from 1.
	EventReconnecting
)

func (k EventKind) String() string {
	switch k {
	case EventConnectSuccess:
		return "ConnectSuccess"
	case EventConnectFailure:
		return "ConnectFailure"
	case EventDisconnected:
		return "Disconnected"
	case EventReconnecting:
		return "Reconnecting"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is a connectivity change. Reason is set for ConnectFailure and
// Disconnected; Attempt and Delay for Reconnecting.
type Event struct {
	Kind    EventKind
	Reason  error
	Attempt int
	Delay   time.Duration
	Server  ServerURI
	Time    time.Time
}

func (e Event) String() string {
	switch e.Kind {
	case EventConnectFailure, EventDisconnected:
		return fmt.Sprintf("%s(%v)", e.Kind, e.Reason)
	case EventReconnecting:
		return fmt.Sprintf("%s(%d)", e.Kind, e.Attempt)
	}
	return e.Kind.String()
}

// EventHandler receives connectivity events in order on a dedicated goroutine.
type EventHandler interface {
	OnEvent(Event)
}

type EventHandlerFunc func(Event)

func (f EventHandlerFunc) OnEvent(e Event) { f(e) }

// Authenticator is called before every CONNECT. forceRefresh is set after the
// broker rejected the previous credentials; the returned options, if accepted,
// are used for all later attempts.
//
// Authenticate runs on the connection goroutine. Disconnect and Close wait for
// it to return, so it should bound its own work with a timeout.
type Authenticator interface {
	Authenticate(opts ConnectOptions, forceRefresh bool) (ConnectOptions, error)
}

type AuthenticatorFunc func(opts ConnectOptions, forceRefresh bool) (ConnectOptions, error)

func (f AuthenticatorFunc) Authenticate(opts ConnectOptions, forceRefresh bool) (ConnectOptions, error) {
	return f(opts, forceRefresh)
}

// passthrough returns the options unchanged.
type passthrough struct{}

func (passthrough) Authenticate(opts ConnectOptions, _ bool) (ConnectOptions, error) {
	return opts, nil
}

// AuthFailureHandler is notified once for every terminal authentication rejection.
type AuthFailureHandler interface {
	HandleAuthFailure(err error)
}

type AuthFailureHandlerFunc func(err error)

func (f AuthFailureHandlerFunc) HandleAuthFailure(err error) { f(err) }

// Message is an inbound application message.
type Message struct {
	Topic     string
	Payload   []byte
	QoS       QoS
	Retained  bool
	Duplicate bool
	// PacketID is zero for QoS 0. Listeners may dedupe QoS 1 redeliveries with it.
	PacketID uint16
}

func (m Message) String() string {
	return fmt.Sprintf("%s # %s", m.Topic, m.Payload)
}

// MessageListener receives inbound messages on its own goroutine.
type MessageListener interface {
	OnMessageReceived(Message)
}

type MessageListenerFunc func(Message)

func (f MessageListenerFunc) OnMessageReceived(m Message) { f(m) }
