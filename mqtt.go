// Package courier is an MQTT v3.1.1 client session engine. A Client keeps one
// broker connection alive across network loss, authenticates through a
// caller-supplied Authenticator, schedules keep-alive pings, persists
// outbound QoS 1/2 messages until acknowledged and dispatches inbound
// messages to registered listeners.
package courier

import "fmt"

const (
	CONNECT     byte = 0x1
	CONNACK     byte = 0x2
	PUBLISH     byte = 0x3
	PUBACK      byte = 0x4
	PUBREC      byte = 0x5
	PUBREL      byte = 0x6
	PUBCOMP     byte = 0x7
	SUBSCRIBE   byte = 0x8
	SUBACK      byte = 0x9
	UNSUBSCRIBE byte = 0xA
	UNSUBACK    byte = 0xB
	PINGREQ     byte = 0xC
	PINGRESP    byte = 0xD
	DISCONNECT  byte = 0xE
)

// QoS is the MQTT delivery guarantee.
type QoS byte

const (
	AtMostOnce  QoS = 0
	AtLeastOnce QoS = 1
	ExactlyOnce QoS = 2
)

func (q QoS) String() string {
	switch q {
	case AtMostOnce:
		return "QoS0"
	case AtLeastOnce:
		return "QoS1"
	case ExactlyOnce:
		return "QoS2"
	}
	return fmt.Sprintf("QoS(%d)", byte(q))
}

func (q QoS) valid() bool {
	return q <= ExactlyOnce
}
