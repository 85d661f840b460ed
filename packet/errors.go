package packet

import (
	"errors"
	"fmt"
)

// ReasonCode is a one byte result carried by CONNACK and SUBACK.
// MQTT v3.1.1: 3.2.2.3 Connect Return code, 3.9.3 Payload
type ReasonCode struct {
	Code   uint8  // 错误码值
	Reason string // 原因描述
}

// Error 实现error接口，返回格式化的错误信息
func (rc ReasonCode) Error() string {
	return fmt.Sprintf("%d:%s", rc.Code, rc.Reason)
}

var (
	// CONNACK return codes.
	Accepted                       = ReasonCode{Code: 0x00, Reason: "connection accepted"}
	ErrUnacceptableProtocolVersion = ReasonCode{Code: 0x01, Reason: "unacceptable protocol version"}
	ErrIdentifierRejected          = ReasonCode{Code: 0x02, Reason: "identifier rejected"}
	ErrServerUnavailable           = ReasonCode{Code: 0x03, Reason: "server unavailable"}
	ErrBadUsernameOrPassword       = ReasonCode{Code: 0x04, Reason: "bad user name or password"}
	ErrNotAuthorized               = ReasonCode{Code: 0x05, Reason: "not authorized"}

	// SUBACK return codes.
	CodeGrantedQos0     = ReasonCode{Code: 0x00, Reason: "granted qos 0"}
	CodeGrantedQos1     = ReasonCode{Code: 0x01, Reason: "granted qos 1"}
	CodeGrantedQos2     = ReasonCode{Code: 0x02, Reason: "granted qos 2"}
	ErrSubscribeFailure = ReasonCode{Code: 0x80, Reason: "subscribe failure"}

	ErrMalformedPacket = ReasonCode{Code: 0x81, Reason: "malformed packet"}
	ErrPacketTooLarge  = ReasonCode{Code: 0x95, Reason: "packet too large"}
)

var (
	// ErrIncomplete reports that the buffered bytes do not hold a whole packet yet.
	ErrIncomplete = errors.New("packet: incomplete packet")

	// ErrStringTooLong is returned on encode when a length-prefixed field exceeds 65535 bytes.
	ErrStringTooLong = errors.New("packet: string field exceeds 65535 bytes")
)

var connackCodes = map[uint8]ReasonCode{
	0x00: Accepted,
	0x01: ErrUnacceptableProtocolVersion,
	0x02: ErrIdentifierRejected,
	0x03: ErrServerUnavailable,
	0x04: ErrBadUsernameOrPassword,
	0x05: ErrNotAuthorized,
}

// ConnackCode returns the named CONNACK return code for c.
func ConnackCode(c uint8) ReasonCode {
	if rc, ok := connackCodes[c]; ok {
		return rc
	}
	return ReasonCode{Code: c, Reason: "unknown return code"}
}

// MalformedPacketError describes a frame that violates the wire format.
// errors.Is(err, ErrMalformedPacket) reports true for it.
type MalformedPacketError struct {
	Kind   byte
	Reason string
}

func (e *MalformedPacketError) Error() string {
	return fmt.Sprintf("malformed packet: %s: %s", Kind[e.Kind&0x0F], e.Reason)
}

func (e *MalformedPacketError) Is(target error) bool {
	rc, ok := target.(ReasonCode)
	return ok && rc == ErrMalformedPacket
}

func malformed(kind byte, reason string) error {
	return &MalformedPacketError{Kind: kind, Reason: reason}
}
