package packet

import (
	"bytes"
	"fmt"
	"io"
)

// CONNACK - Acknowledge connection request
type CONNACK struct {
	*FixedHeader

	// SessionPresent is bit 0 of the connect acknowledge flags.
	SessionPresent uint8

	ConnectReturnCode ReasonCode `json:"ConnectReturnCode,omitempty"`
}

func (pkt *CONNACK) Kind() byte {
	return 0x2
}

func (pkt *CONNACK) String() string {
	return fmt.Sprintf("[0x2]ConnectReturnCode=%d", pkt.ConnectReturnCode.Code)
}

func (pkt *CONNACK) Pack(w io.Writer) error {
	fh := header(&pkt.FixedHeader, 0x2)
	buf := GetBuffer()
	defer PutBuffer(buf)

	buf.WriteByte(pkt.SessionPresent & 0x01)
	buf.WriteByte(pkt.ConnectReturnCode.Code)
	return write(w, fh, buf)
}

func (pkt *CONNACK) Unpack(buf *bytes.Buffer) error {
	flags, err := readByte(0x2, buf, "acknowledge flags")
	if err != nil {
		return err
	}
	if flags&0xFE != 0 {
		return malformed(0x2, "reserved acknowledge flags")
	}
	pkt.SessionPresent = flags
	code, err := readByte(0x2, buf, "return code")
	if err != nil {
		return err
	}
	pkt.ConnectReturnCode = ConnackCode(code)
	return nil
}
