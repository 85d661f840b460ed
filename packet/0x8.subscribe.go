package packet

import (
	"bytes"
	"fmt"
	"io"
)

// SUBSCRIBE - Subscribe to topics
//
// 固定报头: DUP=0, QoS=1, RETAIN=0
// 载荷: 主题过滤器列表, 每个包含主题过滤器和QoS
type SUBSCRIBE struct {
	*FixedHeader `json:"FixedHeader,omitempty"`

	PacketID uint16 `json:"PacketID,omitempty"`

	Subscriptions []Subscription `json:"Subscription,omitempty"`
}

func (pkt *SUBSCRIBE) Kind() byte {
	return 0x8
}

func (pkt *SUBSCRIBE) String() string {
	return fmt.Sprintf("[0x8]SUBSCRIBE PacketID=%d, Subscriptions=%v", pkt.PacketID, pkt.Subscriptions)
}

func (pkt *SUBSCRIBE) Pack(w io.Writer) error {
	fh := header(&pkt.FixedHeader, 0x8)
	if len(pkt.Subscriptions) == 0 {
		return malformed(0x8, "no topic filters")
	}
	buf := GetBuffer()
	defer PutBuffer(buf)
	buf.Write(i2b(pkt.PacketID))

	for _, subscription := range pkt.Subscriptions {
		if subscription.TopicFilter == "" {
			return malformed(0x8, "empty topic filter")
		}
		if subscription.MaximumQoS > 2 {
			return malformed(0x8, "requested qos out of range")
		}
		b, err := s2b(subscription.TopicFilter)
		if err != nil {
			return err
		}
		buf.Write(b)
		buf.WriteByte(subscription.MaximumQoS)
	}
	return write(w, fh, buf)
}

func (pkt *SUBSCRIBE) Unpack(buf *bytes.Buffer) (err error) {
	if pkt.PacketID, err = unpackID(0x8, buf); err != nil {
		return err
	}
	for buf.Len() != 0 {
		subscription := Subscription{}
		if subscription.TopicFilter, err = decodeUTF8[string](0x8, buf, "topic filter"); err != nil {
			return err
		}
		options, err := readByte(0x8, buf, "requested qos")
		if err != nil {
			return err
		}
		// 3.8.3.1: the upper 6 bits are reserved
		if options&0b11111100 != 0 || options > 2 {
			return malformed(0x8, "requested qos")
		}
		subscription.MaximumQoS = options
		pkt.Subscriptions = append(pkt.Subscriptions, subscription)
	}
	if len(pkt.Subscriptions) == 0 {
		return malformed(0x8, "no topic filters")
	}
	return nil
}

// Subscription is a topic filter and the maximum QoS requested for it.
type Subscription struct {
	TopicFilter string

	MaximumQoS uint8
}

func (s Subscription) String() string {
	return fmt.Sprintf("%s@%d", s.TopicFilter, s.MaximumQoS)
}
