package packet

import (
	"bytes"
	"fmt"
	"io"
)

// PUBREL - Publish release (QoS 2 publish received, part 2)
type PUBREL struct {
	*FixedHeader `json:"FixedHeader,omitempty"`

	PacketID uint16 `json:"PacketID,omitempty"`
}

func (pkt *PUBREL) Kind() byte {
	return 0x6
}

func (pkt *PUBREL) String() string {
	return fmt.Sprintf("[0x6]PUBREL PacketID=%d", pkt.PacketID)
}

func (pkt *PUBREL) Pack(w io.Writer) error {
	return packID(w, header(&pkt.FixedHeader, 0x6), pkt.PacketID)
}

func (pkt *PUBREL) Unpack(buf *bytes.Buffer) (err error) {
	pkt.PacketID, err = unpackID(0x6, buf)
	return err
}
