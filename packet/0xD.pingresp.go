package packet

import (
	"bytes"
	"io"
)

// PINGRESP - PING response. 无可变报头和载荷.
type PINGRESP struct {
	*FixedHeader
}

func (pkt *PINGRESP) Kind() byte {
	return 0xD
}

func (pkt *PINGRESP) String() string {
	return Kind[0xD]
}

func (pkt *PINGRESP) Pack(w io.Writer) error {
	buf := GetBuffer()
	defer PutBuffer(buf)
	return write(w, header(&pkt.FixedHeader, 0xD), buf)
}

func (pkt *PINGRESP) Unpack(_ *bytes.Buffer) error {
	return nil
}
