package packet

import (
	"bytes"
	"fmt"
	"io"
)

// UNSUBACK - Unsubscribe acknowledgement
type UNSUBACK struct {
	*FixedHeader `json:"FixedHeader,omitempty"`

	PacketID uint16 `json:"PacketID,omitempty"`
}

func (pkt *UNSUBACK) Kind() byte {
	return 0xB
}

func (pkt *UNSUBACK) String() string {
	return fmt.Sprintf("[0xB]UNSUBACK PacketID=%d", pkt.PacketID)
}

func (pkt *UNSUBACK) Pack(w io.Writer) error {
	return packID(w, header(&pkt.FixedHeader, 0xB), pkt.PacketID)
}

func (pkt *UNSUBACK) Unpack(buf *bytes.Buffer) (err error) {
	pkt.PacketID, err = unpackID(0xB, buf)
	return err
}
