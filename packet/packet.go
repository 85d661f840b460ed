package packet

import (
	"bytes"
	"io"
)

// Packet 定义了MQTT控制报文的通用接口
//
// MQTT v3.1.1 (OASIS Standard, 29 October 2014), 2.1 Structure of an MQTT Control Packet:
// 每个MQTT控制报文都包含固定报头, 某些报文还包含可变报头和载荷.
type Packet interface {
	// Kind 返回报文的类型标识符, 固定报头第1字节的bits 7-4.
	Kind() byte

	// Unpack parses the variable header and payload. The fixed header is
	// already populated. Values must not alias the buffer.
	Unpack(*bytes.Buffer) error

	// Pack writes the whole packet, fixed header included.
	Pack(io.Writer) error
}

// NewPacket returns an empty packet of the kind named by fixed.
func NewPacket(fixed *FixedHeader) (Packet, error) {
	switch fixed.Kind {
	case 0x1:
		return &CONNECT{FixedHeader: fixed}, nil
	case 0x2:
		return &CONNACK{FixedHeader: fixed}, nil
	case 0x3:
		return &PUBLISH{FixedHeader: fixed}, nil
	case 0x4:
		return &PUBACK{FixedHeader: fixed}, nil
	case 0x5:
		return &PUBREC{FixedHeader: fixed}, nil
	case 0x6:
		return &PUBREL{FixedHeader: fixed}, nil
	case 0x7:
		return &PUBCOMP{FixedHeader: fixed}, nil
	case 0x8:
		return &SUBSCRIBE{FixedHeader: fixed}, nil
	case 0x9:
		return &SUBACK{FixedHeader: fixed}, nil
	case 0xA:
		return &UNSUBSCRIBE{FixedHeader: fixed}, nil
	case 0xB:
		return &UNSUBACK{FixedHeader: fixed}, nil
	case 0xC:
		return &PINGREQ{FixedHeader: fixed}, nil
	case 0xD:
		return &PINGRESP{FixedHeader: fixed}, nil
	case 0xE:
		return &DISCONNECT{FixedHeader: fixed}, nil
	default:
		return nil, malformed(fixed.Kind, "reserved packet type")
	}
}

// Unpack 从读取器解析一个完整的MQTT控制报文, blocking until it is read.
func Unpack(r io.Reader) (Packet, error) {
	fixed := &FixedHeader{}
	if err := fixed.Unpack(r); err != nil {
		return nil, err
	}

	buf := GetBuffer()
	defer PutBuffer(buf)

	buf.Grow(int(fixed.RemainingLength))
	if _, err := io.CopyN(buf, r, int64(fixed.RemainingLength)); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return unpackBody(fixed, buf)
}

// Encode returns the wire form of pkt.
func Encode(pkt Packet) ([]byte, error) {
	var b bytes.Buffer
	if err := pkt.Pack(&b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Decode parses one packet from the front of b and reports how many bytes it used.
// If b holds only part of a packet it returns ErrIncomplete and consumes nothing.
func Decode(b []byte) (Packet, int, error) {
	if len(b) < 2 {
		return nil, 0, ErrIncomplete
	}
	fixed := &FixedHeader{}
	if err := fixed.parse(b[0]); err != nil {
		return nil, 0, err
	}
	rl, n, err := peekLength(b[1:])
	if err != nil {
		return nil, 0, err
	}
	fixed.RemainingLength = rl
	total := 1 + n + int(rl)
	if len(b) < total {
		return nil, 0, ErrIncomplete
	}
	pkt, err := unpackBody(fixed, bytes.NewBuffer(b[1+n:total]))
	return pkt, total, err
}

// peekLength decodes the remaining length at the front of b without consuming it.
func peekLength(b []byte) (uint32, int, error) {
	vbi := uint32(0)
	for i := 0; i < 4; i++ {
		if i == len(b) {
			return 0, 0, ErrIncomplete
		}
		vbi |= uint32(b[i]&127) << (7 * i)
		if b[i]&128 == 0 {
			return vbi, i + 1, nil
		}
	}
	return 0, 0, malformed(0, "remaining length exceeds 4 bytes")
}

func unpackBody(fixed *FixedHeader, buf *bytes.Buffer) (Packet, error) {
	pkt, err := NewPacket(fixed)
	if err != nil {
		return nil, err
	}
	if err := pkt.Unpack(buf); err != nil {
		return nil, err
	}
	if buf.Len() != 0 {
		return nil, malformed(fixed.Kind, "unexpected trailing bytes")
	}
	return pkt, nil
}

// header makes sure the fixed header exists and carries the right kind and reserved flags.
func header(fh **FixedHeader, kind byte) *FixedHeader {
	if *fh == nil {
		*fh = &FixedHeader{}
	}
	h := *fh
	h.Kind = kind
	switch kind {
	case 0x3:
	case 0x6, 0x8, 0xA:
		h.Dup, h.QoS, h.Retain = 0, 1, 0
	default:
		h.Dup, h.QoS, h.Retain = 0, 0, 0
	}
	return h
}

// write 写入固定报头和报文体
func write(w io.Writer, fh *FixedHeader, body *bytes.Buffer) error {
	if body.Len() > max4 {
		return ErrPacketTooLarge
	}
	fh.RemainingLength = uint32(body.Len())
	if err := fh.Pack(w); err != nil {
		return err
	}
	_, err := body.WriteTo(w)
	return err
}
