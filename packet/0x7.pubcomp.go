package packet

import (
	"bytes"
	"fmt"
	"io"
)

// PUBCOMP - Publish complete (QoS 2 publish received, part 3)
type PUBCOMP struct {
	*FixedHeader `json:"FixedHeader,omitempty"`

	PacketID uint16 `json:"PacketID,omitempty"`
}

func (pkt *PUBCOMP) Kind() byte {
	return 0x7
}

func (pkt *PUBCOMP) String() string {
	return fmt.Sprintf("[0x7]PUBCOMP PacketID=%d", pkt.PacketID)
}

func (pkt *PUBCOMP) Pack(w io.Writer) error {
	return packID(w, header(&pkt.FixedHeader, 0x7), pkt.PacketID)
}

func (pkt *PUBCOMP) Unpack(buf *bytes.Buffer) (err error) {
	pkt.PacketID, err = unpackID(0x7, buf)
	return err
}
