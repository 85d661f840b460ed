package packet

import (
	"bytes"
	"io"
)

// PINGREQ - PING request. 无可变报头和载荷.
type PINGREQ struct {
	*FixedHeader
}

func (pkt *PINGREQ) Kind() byte {
	return 0xC
}

func (pkt *PINGREQ) String() string {
	return Kind[0xC]
}

func (pkt *PINGREQ) Pack(w io.Writer) error {
	buf := GetBuffer()
	defer PutBuffer(buf)
	return write(w, header(&pkt.FixedHeader, 0xC), buf)
}

func (pkt *PINGREQ) Unpack(_ *bytes.Buffer) error {
	return nil
}
