package packet

import (
	"bytes"
	"io"
)

// DISCONNECT - Disconnect notification. 无可变报头和载荷.
type DISCONNECT struct {
	*FixedHeader
}

func (pkt *DISCONNECT) Kind() byte {
	return 0xE
}

func (pkt *DISCONNECT) String() string {
	return Kind[0xE]
}

func (pkt *DISCONNECT) Pack(w io.Writer) error {
	buf := GetBuffer()
	defer PutBuffer(buf)
	return write(w, header(&pkt.FixedHeader, 0xE), buf)
}

func (pkt *DISCONNECT) Unpack(_ *bytes.Buffer) error {
	return nil
}
