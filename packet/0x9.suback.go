package packet

import (
	"bytes"
	"fmt"
	"io"
)

// SUBACK - Subscribe acknowledgement
//
// 载荷: 返回码列表, 对应每个主题过滤器的订阅结果. 0x80 表示订阅失败.
type SUBACK struct {
	*FixedHeader `json:"FixedHeader,omitempty"`

	PacketID uint16 `json:"PacketID,omitempty"`

	ReasonCode []ReasonCode `json:"ReasonCode,omitempty"`
}

func (pkt *SUBACK) Kind() byte {
	return 0x9
}

func (pkt *SUBACK) String() string {
	return fmt.Sprintf("[0x9]SUBACK PacketID=%d, ReasonCode=%v", pkt.PacketID, pkt.ReasonCode)
}

func (pkt *SUBACK) Pack(w io.Writer) error {
	fh := header(&pkt.FixedHeader, 0x9)
	if len(pkt.ReasonCode) == 0 {
		return malformed(0x9, "no return codes")
	}
	buf := GetBuffer()
	defer PutBuffer(buf)
	buf.Write(i2b(pkt.PacketID))
	for _, reason := range pkt.ReasonCode {
		buf.WriteByte(reason.Code)
	}
	return write(w, fh, buf)
}

func (pkt *SUBACK) Unpack(buf *bytes.Buffer) (err error) {
	if pkt.PacketID, err = unpackID(0x9, buf); err != nil {
		return err
	}
	for buf.Len() != 0 {
		code, _ := buf.ReadByte()
		switch code {
		case 0x00:
			pkt.ReasonCode = append(pkt.ReasonCode, CodeGrantedQos0)
		case 0x01:
			pkt.ReasonCode = append(pkt.ReasonCode, CodeGrantedQos1)
		case 0x02:
			pkt.ReasonCode = append(pkt.ReasonCode, CodeGrantedQos2)
		case 0x80:
			pkt.ReasonCode = append(pkt.ReasonCode, ErrSubscribeFailure)
		default:
			return malformed(0x9, fmt.Sprintf("return code 0x%02x", code))
		}
	}
	if len(pkt.ReasonCode) == 0 {
		return malformed(0x9, "no return codes")
	}
	return nil
}
