package packet

import (
	"bytes"
	"testing"

	"github.com/eclipse/paho.mqtt.golang/packets"
)

// 与 paho 的编解码互通

func TestPaho_ReadOurs(t *testing.T) {
	testCases := []struct {
		name  string
		pkt   Packet
		check func(t *testing.T, cp packets.ControlPacket)
	}{
		{
			name: "CONNECT",
			pkt:  &CONNECT{ClientID: "courier", KeepAlive: 30, CleanSession: true, Username: "u", Password: "p"},
			check: func(t *testing.T, cp packets.ControlPacket) {
				c := cp.(*packets.ConnectPacket)
				if c.ProtocolName != "MQTT" || c.ProtocolVersion != 4 || c.ClientIdentifier != "courier" ||
					c.Keepalive != 30 || !c.CleanSession || c.Username != "u" || string(c.Password) != "p" {
					t.Errorf("paho read %s", c)
				}
			},
		},
		{
			name: "PUBLISH",
			pkt:  &PUBLISH{FixedHeader: &FixedHeader{QoS: 2, Retain: 1}, PacketID: 9, Message: &Message{TopicName: "a/b", Content: []byte("v")}},
			check: func(t *testing.T, cp packets.ControlPacket) {
				p := cp.(*packets.PublishPacket)
				if p.TopicName != "a/b" || p.MessageID != 9 || p.Qos != 2 || !p.Retain || string(p.Payload) != "v" {
					t.Errorf("paho read %s", p)
				}
			},
		},
		{
			name: "SUBSCRIBE",
			pkt:  &SUBSCRIBE{PacketID: 5, Subscriptions: []Subscription{{TopicFilter: "#", MaximumQoS: 1}, {TopicFilter: "a/+", MaximumQoS: 0}}},
			check: func(t *testing.T, cp packets.ControlPacket) {
				s := cp.(*packets.SubscribePacket)
				if s.MessageID != 5 || len(s.Topics) != 2 || s.Topics[0] != "#" || s.Qoss[0] != 1 || s.Topics[1] != "a/+" {
					t.Errorf("paho read %s", s)
				}
			},
		},
		{
			name: "UNSUBSCRIBE",
			pkt:  &UNSUBSCRIBE{PacketID: 6, TopicFilters: []string{"a/+"}},
			check: func(t *testing.T, cp packets.ControlPacket) {
				u := cp.(*packets.UnsubscribePacket)
				if u.MessageID != 6 || len(u.Topics) != 1 || u.Topics[0] != "a/+" {
					t.Errorf("paho read %s", u)
				}
			},
		},
		{
			name: "PUBREL",
			pkt:  &PUBREL{PacketID: 7},
			check: func(t *testing.T, cp packets.ControlPacket) {
				if r := cp.(*packets.PubrelPacket); r.MessageID != 7 {
					t.Errorf("paho read %s", r)
				}
			},
		},
		{
			name: "PINGREQ",
			pkt:  &PINGREQ{},
			check: func(t *testing.T, cp packets.ControlPacket) {
				if _, ok := cp.(*packets.PingreqPacket); !ok {
					t.Errorf("paho read %T", cp)
				}
			},
		},
		{
			name: "DISCONNECT",
			pkt:  &DISCONNECT{},
			check: func(t *testing.T, cp packets.ControlPacket) {
				if _, ok := cp.(*packets.DisconnectPacket); !ok {
					t.Errorf("paho read %T", cp)
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Encode(tc.pkt)
			if err != nil {
				t.Fatal(err)
			}
			cp, err := packets.ReadPacket(bytes.NewReader(b))
			if err != nil {
				t.Fatalf("packets.ReadPacket() error: %v", err)
			}
			tc.check(t, cp)
		})
	}
}

func TestPaho_WriteTheirs(t *testing.T) {
	connack := packets.NewControlPacket(packets.Connack).(*packets.ConnackPacket)
	connack.SessionPresent = true
	connack.ReturnCode = packets.ErrRefusedNotAuthorised

	publish := packets.NewControlPacket(packets.Publish).(*packets.PublishPacket)
	publish.TopicName = "x/y"
	publish.Qos = 1
	publish.MessageID = 11
	publish.Payload = []byte("payload")

	suback := packets.NewControlPacket(packets.Suback).(*packets.SubackPacket)
	suback.MessageID = 12
	suback.ReturnCodes = []byte{0x01, 0x80}

	pubrec := packets.NewControlPacket(packets.Pubrec).(*packets.PubrecPacket)
	pubrec.MessageID = 13

	pingresp := packets.NewControlPacket(packets.Pingresp)

	var b bytes.Buffer
	for _, cp := range []packets.ControlPacket{connack, publish, suback, pubrec, pingresp} {
		if err := cp.Write(&b); err != nil {
			t.Fatal(err)
		}
	}

	var d Decoder
	d.Write(b.Bytes())
	var got []Packet
	for pkt, err := range d.Packets() {
		if err != nil {
			t.Fatalf("Packets() error: %v", err)
		}
		got = append(got, pkt)
	}
	if len(got) != 5 {
		t.Fatalf("decoded %d packets, want 5", len(got))
	}
	if c := got[0].(*CONNACK); c.SessionPresent != 1 || c.ConnectReturnCode != ErrNotAuthorized {
		t.Errorf("CONNACK = %s", c)
	}
	if p := got[1].(*PUBLISH); p.Message.TopicName != "x/y" || p.QoS != 1 || p.PacketID != 11 || string(p.Message.Content) != "payload" {
		t.Errorf("PUBLISH = %s", p)
	}
	if s := got[2].(*SUBACK); s.PacketID != 12 || len(s.ReasonCode) != 2 || s.ReasonCode[1] != ErrSubscribeFailure {
		t.Errorf("SUBACK = %s", s)
	}
	if r := got[3].(*PUBREC); r.PacketID != 13 {
		t.Errorf("PUBREC = %s", r)
	}
	if _, ok := got[4].(*PINGRESP); !ok {
		t.Errorf("got %T, want *PINGRESP", got[4])
	}
}
