package packet

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestKindMap(t *testing.T) {
	for kind := byte(0x0); kind <= 0xF; kind++ {
		if name, exists := Kind[kind]; !exists || name == "" {
			t.Errorf("Kind map missing entry for %d", kind)
		}
	}
}

// TestEncodeDecodeLength 剩余长度编码边界值, 2.2.3 Remaining Length
func TestEncodeDecodeLength(t *testing.T) {
	testCases := []struct {
		length   uint32
		expected []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{16383, []byte{0xFF, 0x7F}},
		{16384, []byte{0x80, 0x80, 0x01}},
		{2097151, []byte{0xFF, 0xFF, 0x7F}},
		{2097152, []byte{0x80, 0x80, 0x80, 0x01}},
		{268435455, []byte{0xFF, 0xFF, 0xFF, 0x7F}},
	}

	for _, tc := range testCases {
		encoded, err := encodeLength(tc.length)
		if err != nil {
			t.Errorf("encodeLength(%d) error: %v", tc.length, err)
			continue
		}
		if !bytes.Equal(encoded, tc.expected) {
			t.Errorf("encodeLength(%d) = %x, want %x", tc.length, encoded, tc.expected)
		}
		if n := lengthOfLength(tc.length); n != len(tc.expected) {
			t.Errorf("lengthOfLength(%d) = %d, want %d", tc.length, n, len(tc.expected))
		}
		decoded, err := decodeLength(bytes.NewReader(encoded))
		if err != nil {
			t.Errorf("decodeLength(%x) error: %v", encoded, err)
			continue
		}
		if decoded != tc.length {
			t.Errorf("decodeLength(%x) = %d, want %d", encoded, decoded, tc.length)
		}
	}

	if _, err := encodeLength(uint32(268435456)); !errors.Is(err, ErrPacketTooLarge) {
		t.Errorf("encodeLength(268435456) error = %v, want ErrPacketTooLarge", err)
	}
	if _, err := decodeLength(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x01})); !errors.Is(err, ErrMalformedPacket) {
		t.Errorf("five byte remaining length error = %v, want ErrMalformedPacket", err)
	}
}

// TestEncode 每种报文的线上字节
func TestEncode(t *testing.T) {
	testCases := []struct {
		name     string
		pkt      Packet
		expected []byte
	}{
		{
			name:     "CONNECT",
			pkt:      &CONNECT{ClientID: "a", KeepAlive: 30},
			expected: []byte{0x10, 0x0D, 0x00, 0x04, 'M', 'Q', 'T', 'T', 0x04, 0x00, 0x00, 0x1E, 0x00, 0x01, 'a'},
		},
		{
			name:     "CONNACK",
			pkt:      &CONNACK{ConnectReturnCode: Accepted},
			expected: []byte{0x20, 0x02, 0x00, 0x00},
		},
		{
			name: "PUBLISH_QoS1",
			pkt: &PUBLISH{
				FixedHeader: &FixedHeader{QoS: 1},
				PacketID:    10,
				Message:     &Message{TopicName: "a/b", Content: []byte("hi")},
			},
			expected: []byte{0x32, 0x09, 0x00, 0x03, 'a', '/', 'b', 0x00, 0x0A, 'h', 'i'},
		},
		{
			name:     "PUBACK",
			pkt:      &PUBACK{PacketID: 7},
			expected: []byte{0x40, 0x02, 0x00, 0x07},
		},
		{
			name:     "PUBREC",
			pkt:      &PUBREC{PacketID: 7},
			expected: []byte{0x50, 0x02, 0x00, 0x07},
		},
		{
			name:     "PUBREL",
			pkt:      &PUBREL{PacketID: 7},
			expected: []byte{0x62, 0x02, 0x00, 0x07},
		},
		{
			name:     "PUBCOMP",
			pkt:      &PUBCOMP{PacketID: 7},
			expected: []byte{0x70, 0x02, 0x00, 0x07},
		},
		{
			name:     "SUBSCRIBE",
			pkt:      &SUBSCRIBE{PacketID: 1, Subscriptions: []Subscription{{TopicFilter: "a/#", MaximumQoS: 1}}},
			expected: []byte{0x82, 0x08, 0x00, 0x01, 0x00, 0x03, 'a', '/', '#', 0x01},
		},
		{
			name:     "SUBACK",
			pkt:      &SUBACK{PacketID: 1, ReasonCode: []ReasonCode{CodeGrantedQos1, ErrSubscribeFailure}},
			expected: []byte{0x90, 0x04, 0x00, 0x01, 0x01, 0x80},
		},
		{
			name:     "UNSUBSCRIBE",
			pkt:      &UNSUBSCRIBE{PacketID: 2, TopicFilters: []string{"a"}},
			expected: []byte{0xA2, 0x05, 0x00, 0x02, 0x00, 0x01, 'a'},
		},
		{
			name:     "UNSUBACK",
			pkt:      &UNSUBACK{PacketID: 2},
			expected: []byte{0xB0, 0x02, 0x00, 0x02},
		},
		{name: "PINGREQ", pkt: &PINGREQ{}, expected: []byte{0xC0, 0x00}},
		{name: "PINGRESP", pkt: &PINGRESP{}, expected: []byte{0xD0, 0x00}},
		{name: "DISCONNECT", pkt: &DISCONNECT{}, expected: []byte{0xE0, 0x00}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Encode(tc.pkt)
			if err != nil {
				t.Fatalf("Encode() error: %v", err)
			}
			if !bytes.Equal(b, tc.expected) {
				t.Errorf("Encode() = %x, want %x", b, tc.expected)
			}

			pkt, n, err := Decode(b)
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if n != len(b) {
				t.Errorf("Decode() consumed %d, want %d", n, len(b))
			}
			if pkt.Kind() != tc.pkt.Kind() {
				t.Errorf("Decode() kind = %d, want %d", pkt.Kind(), tc.pkt.Kind())
			}

			again, err := Encode(pkt)
			if err != nil {
				t.Fatalf("re-Encode() error: %v", err)
			}
			if !bytes.Equal(again, b) {
				t.Errorf("re-Encode() = %x, want %x", again, b)
			}

			read, err := Unpack(bytes.NewReader(b))
			if err != nil {
				t.Fatalf("Unpack() error: %v", err)
			}
			if read.Kind() != tc.pkt.Kind() {
				t.Errorf("Unpack() kind = %d, want %d", read.Kind(), tc.pkt.Kind())
			}
		})
	}
}

func TestDecode_Incomplete(t *testing.T) {
	b, err := Encode(&PUBLISH{Message: &Message{TopicName: "a/b", Content: []byte("payload")}})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < len(b); i++ {
		pkt, n, err := Decode(b[:i])
		if !errors.Is(err, ErrIncomplete) || n != 0 || pkt != nil {
			t.Errorf("Decode(b[:%d]) = %v, %d, %v; want nil, 0, ErrIncomplete", i, pkt, n, err)
		}
	}

	// trailing bytes belong to the next packet
	pkt, n, err := Decode(append(b, 0xC0))
	if err != nil || n != len(b) || pkt.Kind() != 0x3 {
		t.Errorf("Decode() = %v, %d, %v; want PUBLISH, %d, nil", pkt, n, err, len(b))
	}
}

func TestDecode_Malformed(t *testing.T) {
	testCases := []struct {
		name  string
		bytes []byte
	}{
		{"ReservedType0", []byte{0x00, 0x00}},
		{"ReservedType15", []byte{0xF0, 0x00}},
		{"PublishQoS3", []byte{0x36, 0x05, 0x00, 0x01, 'a', 0x00, 0x01}},
		{"PublishDupQoS0", []byte{0x38, 0x03, 0x00, 0x01, 'a'}},
		{"PubrelFlags", []byte{0x60, 0x02, 0x00, 0x01}},
		{"SubscribeFlags", []byte{0x80, 0x06, 0x00, 0x01, 0x00, 0x01, 'a', 0x00}},
		{"PubackFlags", []byte{0x41, 0x02, 0x00, 0x01}},
		{"RemainingLengthTooLong", []byte{0x30, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}},
		{"TruncatedTopic", []byte{0x30, 0x02, 0x00, 0x05}},
		{"PacketIDZero", []byte{0x40, 0x02, 0x00, 0x00}},
		{"PubackTrailingBytes", []byte{0x40, 0x03, 0x00, 0x01, 0x00}},
		{"ConnackReservedFlags", []byte{0x20, 0x02, 0x02, 0x00}},
		{"SubackBadCode", []byte{0x90, 0x03, 0x00, 0x01, 0x03}},
		{"SubscribeReservedQoSBits", []byte{0x82, 0x06, 0x00, 0x01, 0x00, 0x01, 'a', 0x04}},
		{"SubscribeNoFilters", []byte{0x82, 0x02, 0x00, 0x01}},
		{"ConnectProtocolName", []byte{0x10, 0x0D, 0x00, 0x04, 'M', 'Q', 'I', 's', 0x04, 0x00, 0x00, 0x1E, 0x00, 0x01, 'a'}},
		{"ConnectReservedFlag", []byte{0x10, 0x0D, 0x00, 0x04, 'M', 'Q', 'T', 'T', 0x04, 0x01, 0x00, 0x1E, 0x00, 0x01, 'a'}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Decode(tc.bytes)
			if !errors.Is(err, ErrMalformedPacket) {
				t.Errorf("Decode(%x) error = %v, want ErrMalformedPacket", tc.bytes, err)
			}
			var mpe *MalformedPacketError
			if !errors.As(err, &mpe) {
				t.Errorf("Decode(%x) error %T is not *MalformedPacketError", tc.bytes, err)
			}
		})
	}
}

func TestUnpack_ShortRead(t *testing.T) {
	_, err := Unpack(bytes.NewReader([]byte{0x30, 0x09, 0x00, 0x03, 'a'}))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Unpack() error = %v, want io.ErrUnexpectedEOF", err)
	}
	_, err = Unpack(bytes.NewReader(nil))
	if !errors.Is(err, io.EOF) {
		t.Errorf("Unpack() error = %v, want io.EOF", err)
	}
}

func TestEncode_StringTooLong(t *testing.T) {
	long := strings.Repeat("x", MaxStringLength+1)
	testCases := []struct {
		name string
		pkt  Packet
	}{
		{"Topic", &PUBLISH{Message: &Message{TopicName: long}}},
		{"ClientID", &CONNECT{ClientID: long}},
		{"Username", &CONNECT{ClientID: "a", Username: long}},
		{"Filter", &SUBSCRIBE{PacketID: 1, Subscriptions: []Subscription{{TopicFilter: long}}}},
		{"Unsubscribe", &UNSUBSCRIBE{PacketID: 1, TopicFilters: []string{long}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Encode(tc.pkt); !errors.Is(err, ErrStringTooLong) {
				t.Errorf("Encode() error = %v, want ErrStringTooLong", err)
			}
		})
	}

	limit := strings.Repeat("x", MaxStringLength)
	if _, err := Encode(&PUBLISH{Message: &Message{TopicName: limit}}); err != nil {
		t.Errorf("Encode() with a 65535 byte topic error: %v", err)
	}
}

func TestConnackCode(t *testing.T) {
	for code, want := range connackCodes {
		if got := ConnackCode(code); got != want {
			t.Errorf("ConnackCode(%d) = %v, want %v", code, got, want)
		}
	}
	if got := ConnackCode(9); got.Code != 9 {
		t.Errorf("ConnackCode(9).Code = %d", got.Code)
	}
}
