package packet

import (
	"bytes"
	"fmt"
	"io"
)

// UNSUBSCRIBE - Unsubscribe from topics
type UNSUBSCRIBE struct {
	*FixedHeader

	PacketID uint16

	TopicFilters []string
}

func (pkt *UNSUBSCRIBE) Kind() byte {
	return 0xA
}

func (pkt *UNSUBSCRIBE) String() string {
	return fmt.Sprintf("[0xA]UNSUBSCRIBE PacketID=%d, TopicFilters=%v", pkt.PacketID, pkt.TopicFilters)
}

func (pkt *UNSUBSCRIBE) Pack(w io.Writer) error {
	fh := header(&pkt.FixedHeader, 0xA)
	if len(pkt.TopicFilters) == 0 {
		return malformed(0xA, "no topic filters")
	}

	buf := GetBuffer()
	defer PutBuffer(buf)
	buf.Write(i2b(pkt.PacketID))

	for _, filter := range pkt.TopicFilters {
		if filter == "" {
			return malformed(0xA, "empty topic filter")
		}
		b, err := s2b(filter)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return write(w, fh, buf)
}

func (pkt *UNSUBSCRIBE) Unpack(buf *bytes.Buffer) (err error) {
	if pkt.PacketID, err = unpackID(0xA, buf); err != nil {
		return err
	}
	for buf.Len() != 0 {
		filter, err := decodeUTF8[string](0xA, buf, "topic filter")
		if err != nil {
			return err
		}
		pkt.TopicFilters = append(pkt.TopicFilters, filter)
	}
	if len(pkt.TopicFilters) == 0 {
		return malformed(0xA, "no topic filters")
	}
	return nil
}
