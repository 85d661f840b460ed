package packet

import (
	"fmt"
	"io"
)

// FixedHeader contains the values of the fixed header portion of the MQTT pkt.
// Each MQTT Control Packet contains a fixed header.
// Bit 		| 7 | 6 |	5	4	3	2	1	0
// byte1    | MQTT Control Packet type | Flags specific to each MQTT Control Packet type|
// byte2...	|    Remaining Length
type FixedHeader struct {
	// Kind MQTT Control Packet type
	// Position: byte 1, bits 7-4.
	Kind byte `json:"Kind,omitempty"`

	// Dup position: byte 1, bit 3.
	Dup uint8 `json:"Dup,omitempty"` // indicates if the packet was already sent at an earlier time.

	// QoS position: byte1, bits 2-1.
	QoS uint8 `json:"QoS,omitempty"`

	// Retain position: byte1, bit 0.
	Retain uint8 `json:"Retain,omitempty"`

	// RemainingLength position: starts at byte 2.
	RemainingLength uint32 `json:"RemainingLength,omitempty"`
}

func (pkt *FixedHeader) String() string {
	return fmt.Sprintf("%s: Len=%d", Kind[pkt.Kind], pkt.RemainingLength)
}

func (pkt *FixedHeader) Pack(w io.Writer) error {
	b := make([]byte, 1, 5)

	b[0] |= pkt.Kind << 4
	b[0] |= pkt.Dup << 3
	b[0] |= pkt.QoS << 1
	b[0] |= pkt.Retain
	enc, err := encodeLength(pkt.RemainingLength)
	if err != nil {
		return err
	}

	b = append(b, enc...)
	_, err = w.Write(b)
	return err
}

func (pkt *FixedHeader) Unpack(r io.Reader) error {
	b := []uint8{0x00}
	if _, err := io.ReadFull(r, b); err != nil {
		return err
	}
	if err := pkt.parse(b[0]); err != nil {
		return err
	}
	var err error
	pkt.RemainingLength, err = decodeLength(r)
	return err
}

// parse 解析第一个字节, 表格 2.2 中标记为"保留"的标志位必须设置为表格中列出的值 [MQTT-2.2.2-1]
func (pkt *FixedHeader) parse(b byte) error {
	pkt.Kind = b >> 4
	pkt.Dup = b & 0b00001000 >> 3
	pkt.QoS = b & 0b00000110 >> 1
	pkt.Retain = b & 0b00000001

	switch pkt.Kind {
	case 0x0, 0xF:
		return malformed(pkt.Kind, "reserved packet type")
	case 0x3:
		if pkt.QoS > 2 {
			return malformed(pkt.Kind, "qos 3")
		}
		if pkt.QoS == 0 && pkt.Dup != 0 {
			return malformed(pkt.Kind, "dup set on qos 0")
		}
	case 0x6, 0x8, 0xA:
		if pkt.Dup != 0 || pkt.QoS != 1 || pkt.Retain != 0 {
			return malformed(pkt.Kind, "flags must be 0010")
		}
	default:
		if pkt.Dup != 0 || pkt.QoS != 0 || pkt.Retain != 0 {
			return malformed(pkt.Kind, "flags must be 0000")
		}
	}
	return nil
}
