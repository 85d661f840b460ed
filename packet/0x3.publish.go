package packet

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// PUBLISH - Publish message
//
// 固定报头: 标志位包含DUP、QoS、RETAIN
// 可变报头: 主题名、报文标识符(QoS>0时)
// 载荷: 应用消息
type PUBLISH struct {
	*FixedHeader `json:"FixedHeader,omitempty"`

	PacketID uint16 `json:"PacketID,omitempty"`

	Message *Message `json:"message,omitempty"`
}

func (pkt *PUBLISH) Kind() byte {
	return 0x3
}

func (pkt *PUBLISH) String() string {
	return fmt.Sprintf("[0x3]PUBLISH PacketID=%d, QoS=%d, Dup=%d, Topic=%s", pkt.PacketID, pkt.QoS, pkt.Dup, pkt.Message.TopicName)
}

func (pkt *PUBLISH) Pack(w io.Writer) error {
	fh := header(&pkt.FixedHeader, 0x3)
	if fh.QoS > 2 {
		return malformed(0x3, "qos 3")
	}
	if pkt.Message == nil || pkt.Message.TopicName == "" {
		return malformed(0x3, "empty topic name")
	}
	if strings.ContainsAny(pkt.Message.TopicName, "+#") {
		return malformed(0x3, "wildcard in topic name")
	}
	if fh.QoS == 0 {
		fh.Dup = 0
	}

	buf := GetBuffer()
	defer PutBuffer(buf)
	topic, err := s2b(pkt.Message.TopicName)
	if err != nil {
		return err
	}
	buf.Write(topic)
	if fh.QoS != 0 {
		if pkt.PacketID == 0 {
			return malformed(0x3, "packet identifier 0")
		}
		buf.Write(i2b(pkt.PacketID))
	}
	buf.Write(pkt.Message.Content)
	return write(w, fh, buf)
}

func (pkt *PUBLISH) Unpack(buf *bytes.Buffer) error {
	topic, err := decodeUTF8[string](0x3, buf, "topic name")
	if err != nil {
		return err
	}
	if topic == "" {
		return malformed(0x3, "empty topic name")
	}
	if strings.ContainsAny(topic, "+#") {
		return malformed(0x3, "wildcard in topic name")
	}
	pkt.Message = &Message{TopicName: topic}
	if pkt.QoS != 0 {
		if pkt.PacketID, err = readUint16(0x3, buf, "packet identifier"); err != nil {
			return err
		}
		if pkt.PacketID == 0 {
			return malformed(0x3, "packet identifier 0")
		}
	}
	pkt.Message.Content = bytes.Clone(buf.Next(buf.Len()))
	return nil
}

// Message is an application message: a topic name and its payload.
type Message struct {
	TopicName string

	Content []byte
}

func (m *Message) String() string {
	return fmt.Sprintf("%s # %s", m.TopicName, m.Content)
}
