package packet

import (
	"bytes"
	"fmt"
	"io"
)

// PUBREC - Publish received (QoS 2 publish received, part 1)
type PUBREC struct {
	*FixedHeader `json:"FixedHeader,omitempty"`

	PacketID uint16 `json:"PacketID,omitempty"`
}

func (pkt *PUBREC) Kind() byte {
	return 0x5
}

func (pkt *PUBREC) String() string {
	return fmt.Sprintf("[0x5]PUBREC PacketID=%d", pkt.PacketID)
}

func (pkt *PUBREC) Pack(w io.Writer) error {
	return packID(w, header(&pkt.FixedHeader, 0x5), pkt.PacketID)
}

func (pkt *PUBREC) Unpack(buf *bytes.Buffer) (err error) {
	pkt.PacketID, err = unpackID(0x5, buf)
	return err
}
