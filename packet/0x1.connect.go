package packet

import (
	"bytes"
	"fmt"
	"io"
)

// NAME 协议名, 3.1.2.1 Protocol Name
var NAME = []byte{0x00, 0x04, 'M', 'Q', 'T', 'T'}

// CONNECT - Client requests a connection to a Server
//
// 可变报头: 协议名、协议级别、连接标志、保持连接
// 载荷: 客户端ID、遗嘱信息(可选)、用户名密码(可选)
type CONNECT struct {
	*FixedHeader

	CleanSession bool

	// KeepAlive in seconds, 0 disables the keep alive mechanism.
	KeepAlive uint16

	ClientID string `json:"ClientID,omitempty"`

	// Will is sent by the server when the connection is lost without DISCONNECT.
	Will       *Message `json:"Will,omitempty"`
	WillQoS    uint8
	WillRetain bool

	Username string `json:"Username,omitempty"`
	Password string `json:"-"`
}

func (pkt *CONNECT) Kind() byte {
	return 0x1
}

func (pkt *CONNECT) String() string {
	return fmt.Sprintf("[0x1]CONNECT ClientID=%s, KeepAlive=%d, CleanSession=%v", pkt.ClientID, pkt.KeepAlive, pkt.CleanSession)
}

func (pkt *CONNECT) Pack(w io.Writer) error {
	fh := header(&pkt.FixedHeader, 0x1)
	buf := GetBuffer()
	defer PutBuffer(buf)

	// 3.1.2.9: password flag requires the user name flag
	if pkt.Password != "" && pkt.Username == "" {
		return malformed(0x1, "password without user name")
	}
	if pkt.WillQoS > 2 {
		return malformed(0x1, "will qos out of range")
	}

	buf.Write(NAME)
	buf.WriteByte(VERSION311)

	flag := uint8(0)
	if pkt.Username != "" {
		flag |= 1 << 7
	}
	if pkt.Password != "" {
		flag |= 1 << 6
	}
	if pkt.Will != nil {
		flag |= 1 << 2
		flag |= pkt.WillQoS << 3
		if pkt.WillRetain {
			flag |= 1 << 5
		}
	}
	if pkt.CleanSession {
		flag |= 1 << 1
	}
	buf.WriteByte(flag)
	buf.Write(i2b(pkt.KeepAlive))

	fields := []string{pkt.ClientID}
	if pkt.Will != nil {
		fields = append(fields, pkt.Will.TopicName, string(pkt.Will.Content))
	}
	if pkt.Username != "" {
		fields = append(fields, pkt.Username)
	}
	if pkt.Password != "" {
		fields = append(fields, pkt.Password)
	}
	for _, f := range fields {
		b, err := s2b(f)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return write(w, fh, buf)
}

func (pkt *CONNECT) Unpack(buf *bytes.Buffer) error {
	if buf.Len() < len(NAME) || !bytes.Equal(buf.Next(len(NAME)), NAME) {
		return malformed(0x1, "protocol name")
	}
	level, err := readByte(0x1, buf, "protocol level")
	if err != nil {
		return err
	}
	if level != VERSION311 {
		return malformed(0x1, fmt.Sprintf("protocol level %d", level))
	}
	flag, err := readByte(0x1, buf, "connect flags")
	if err != nil {
		return err
	}
	if flag&0x01 != 0 {
		return malformed(0x1, "reserved connect flag")
	}
	pkt.CleanSession = flag&(1<<1) != 0
	willFlag := flag&(1<<2) != 0
	pkt.WillQoS = flag & 0b00011000 >> 3
	pkt.WillRetain = flag&(1<<5) != 0
	if !willFlag && (pkt.WillQoS != 0 || pkt.WillRetain) {
		return malformed(0x1, "will flags without will")
	}
	if pkt.WillQoS > 2 {
		return malformed(0x1, "will qos out of range")
	}
	userFlag, passFlag := flag&(1<<7) != 0, flag&(1<<6) != 0
	if passFlag && !userFlag {
		return malformed(0x1, "password without user name")
	}

	if pkt.KeepAlive, err = readUint16(0x1, buf, "keep alive"); err != nil {
		return err
	}
	if pkt.ClientID, err = decodeUTF8[string](0x1, buf, "client id"); err != nil {
		return err
	}
	if willFlag {
		pkt.Will = &Message{}
		if pkt.Will.TopicName, err = decodeUTF8[string](0x1, buf, "will topic"); err != nil {
			return err
		}
		if pkt.Will.Content, err = decodeUTF8[[]byte](0x1, buf, "will message"); err != nil {
			return err
		}
	}
	if userFlag {
		if pkt.Username, err = decodeUTF8[string](0x1, buf, "user name"); err != nil {
			return err
		}
	}
	if passFlag {
		if pkt.Password, err = decodeUTF8[string](0x1, buf, "password"); err != nil {
			return err
		}
	}
	return nil
}
