package packet

import (
	"bytes"
	"errors"
	"testing"
)

func TestFixedHeader_Unpack(t *testing.T) {
	testCases := []struct {
		name     string
		bytes    []byte
		expected FixedHeader
		wantErr  bool
	}{
		{"PUBLISH", []byte{0x3D, 0x05}, FixedHeader{Kind: 0x3, Dup: 1, QoS: 2, Retain: 1, RemainingLength: 5}, false},
		{"PUBREL", []byte{0x62, 0x02}, FixedHeader{Kind: 0x6, QoS: 1, RemainingLength: 2}, false},
		{"PINGREQ", []byte{0xC0, 0x00}, FixedHeader{Kind: 0xC}, false},
		{"LongLength", []byte{0x30, 0x80, 0x01}, FixedHeader{Kind: 0x3, RemainingLength: 128}, false},
		{"PINGREQFlags", []byte{0xC1, 0x00}, FixedHeader{}, true},
		{"UNSUBSCRIBEFlags", []byte{0xA0, 0x00}, FixedHeader{}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var fh FixedHeader
			err := fh.Unpack(bytes.NewReader(tc.bytes))
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedPacket) {
					t.Errorf("Unpack() error = %v, want ErrMalformedPacket", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unpack() error: %v", err)
			}
			if fh != tc.expected {
				t.Errorf("Unpack() = %+v, want %+v", fh, tc.expected)
			}

			var buf bytes.Buffer
			if err := fh.Pack(&buf); err != nil {
				t.Fatalf("Pack() error: %v", err)
			}
			if !bytes.Equal(buf.Bytes(), tc.bytes) {
				t.Errorf("Pack() = %x, want %x", buf.Bytes(), tc.bytes)
			}
		})
	}
}

func TestFixedHeader_String(t *testing.T) {
	fh := &FixedHeader{Kind: 0x3, RemainingLength: 5}
	if got := fh.String(); got != "[0x3]PUBLISH: Len=5" {
		t.Errorf("String() = %s", got)
	}
}
