package packet

import (
	"bytes"
	"encoding/binary"
	"io"
)

const (
	VERSION311 byte = 0x4

	max1 = 0x7F      // 127
	max2 = 0x3FFF    // 16383
	max3 = 0x1FFFFF  // 2097151
	max4 = 0xFFFFFFF // 268435455

	// MaxStringLength is the largest length-prefixed field a packet can carry.
	MaxStringLength = 0xFFFF

	KB = 1024 * 1
	MB = 1024 * KB
)

// Kind Control packet types. Position: byte 1, bits 7-4
var Kind = map[byte]string{
	0x0: "[0x0]RESERVED",    // Forbidden
	0x1: "[0x1]CONNECT",     // Client to Server 客户端请求连接服务端
	0x2: "[0x2]CONNACK",     // Server to Client 连接报文确认
	0x3: "[0x3]PUBLISH",     // Client to Server or Server to Client Publish message
	0x4: "[0x4]PUBACK",      // Publish acknowledgment
	0x5: "[0x5]PUBREC",      // Publish received (assured delivery part 1)
	0x6: "[0x6]PUBREL",      // Publish release (assured delivery part 2)
	0x7: "[0x7]PUBCOMP",     // Publish complete (assured delivery part 3)
	0x8: "[0x8]SUBSCRIBE",   // Client to Server Client subscribe request
	0x9: "[0x9]SUBACK",      // Server to Client Subscribe acknowledgment
	0xA: "[0xA]UNSUBSCRIBE", // Client to Server Unsubscribe request
	0xB: "[0xB]UNSUBACK",    // Server to Client Unsubscribe acknowledgment
	0xC: "[0xC]PINGREQ",     // Client to Server PING request
	0xD: "[0xD]PINGRESP",    // Server to Client PING response
	0xE: "[0xE]DISCONNECT",  // Client to Server Client is disconnecting
	0xF: "[0xF]RESERVED",    // Forbidden in 3.1.1
}

// encodeLength 剩余长度编码, 1-4 bytes.
func encodeLength[T ~uint32 | ~int | ~int64](v T) ([]byte, error) {
	if v < 0 || v > max4 {
		return nil, ErrPacketTooLarge
	}
	result := make([]byte, 0, 4)
	for {
		enc := byte(v % 128)
		v = v / 128
		if v > 0 { // if there are more data to encode, set the top bit of this byte
			enc |= 128
		}
		result = append(result, enc)
		if v == 0 {
			return result, nil
		}
	}
}

// decodeLength reads a variable byte integer. A fifth continuation byte is malformed.
func decodeLength(r io.Reader) (uint32, error) {
	vbi, b := uint32(0), make([]byte, 1)
	for i := 0; ; i++ {
		if i == 4 {
			return 0, malformed(0, "remaining length exceeds 4 bytes")
		}
		if _, err := io.ReadFull(r, b); err != nil {
			return 0, err
		}
		vbi |= uint32(b[0]&127) << (7 * i)
		if b[0]&128 == 0 {
			return vbi, nil
		}
	}
}

// lengthOfLength returns how many bytes the remaining length field occupies.
func lengthOfLength(v uint32) int {
	switch {
	case v <= max1:
		return 1
	case v <= max2:
		return 2
	case v <= max3:
		return 3
	default:
		return 4
	}
}

// s2b insert length into content
func s2b[T string | []byte](s T) ([]byte, error) {
	if len(s) > MaxStringLength {
		return nil, ErrStringTooLong
	}
	b := make([]byte, 2, 2+len(s))
	binary.BigEndian.PutUint16(b, uint16(len(s)))
	return append(b, s...), nil
}

func i2b(i uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, i)
	return b
}

func readByte(kind byte, b *bytes.Buffer, field string) (byte, error) {
	c, err := b.ReadByte()
	if err != nil {
		return 0, malformed(kind, "missing "+field)
	}
	return c, nil
}

func readUint16(kind byte, b *bytes.Buffer, field string) (uint16, error) {
	if b.Len() < 2 {
		return 0, malformed(kind, "missing "+field)
	}
	return binary.BigEndian.Uint16(b.Next(2)), nil
}

// decodeUTF8 reads a length-prefixed field. The result never aliases the buffer.
func decodeUTF8[T []byte | string](kind byte, b *bytes.Buffer, field string) (T, error) {
	var zero T
	n, err := readUint16(kind, b, field+" length")
	if err != nil {
		return zero, err
	}
	if b.Len() < int(n) {
		return zero, malformed(kind, "truncated "+field)
	}
	return T(bytes.Clone(b.Next(int(n)))), nil
}
