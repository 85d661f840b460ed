package packet

import (
	"bytes"
	"fmt"
	"io"
)

// PUBACK - Publish acknowledgement (QoS 1)
type PUBACK struct {
	*FixedHeader `json:"FixedHeader,omitempty"`

	PacketID uint16 `json:"PacketID,omitempty"`
}

func (pkt *PUBACK) Kind() byte {
	return 0x4
}

func (pkt *PUBACK) String() string {
	return fmt.Sprintf("[0x4]PUBACK PacketID=%d", pkt.PacketID)
}

func (pkt *PUBACK) Pack(w io.Writer) error {
	return packID(w, header(&pkt.FixedHeader, 0x4), pkt.PacketID)
}

func (pkt *PUBACK) Unpack(buf *bytes.Buffer) (err error) {
	pkt.PacketID, err = unpackID(0x4, buf)
	return err
}

// packID writes a packet whose variable header is only the packet identifier.
func packID(w io.Writer, fh *FixedHeader, id uint16) error {
	buf := GetBuffer()
	defer PutBuffer(buf)
	buf.Write(i2b(id))
	return write(w, fh, buf)
}

func unpackID(kind byte, buf *bytes.Buffer) (uint16, error) {
	id, err := readUint16(kind, buf, "packet identifier")
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, malformed(kind, "packet identifier 0")
	}
	return id, nil
}
