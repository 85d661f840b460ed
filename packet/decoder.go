package packet

import (
	"errors"
	"iter"
)

// Decoder 流式解码器: accumulates bytes from a stream and yields whole packets.
// A frame split across writes is held until the rest arrives.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	buf []byte
	err error
}

// Write appends stream bytes. It never fails.
func (d *Decoder) Write(p []byte) (int, error) {
	d.buf = append(d.buf, p...)
	return len(p), nil
}

// Next returns the next whole packet, or ErrIncomplete if the buffer holds only
// part of one. After a malformed packet the decoder keeps returning that error
// until Reset, as the stream position can no longer be trusted.
func (d *Decoder) Next() (Packet, error) {
	if d.err != nil {
		return nil, d.err
	}
	pkt, n, err := Decode(d.buf)
	if errors.Is(err, ErrIncomplete) {
		return nil, err
	}
	if err != nil {
		d.err = err
		return nil, err
	}
	d.buf = d.buf[n:]
	if len(d.buf) == 0 {
		d.buf = d.buf[:0:0]
	}
	return pkt, nil
}

// Packets yields every whole packet currently buffered. The sequence ends
// quietly when only a partial frame remains and may be ranged over again after
// the next Write. A malformed packet is yielded as an error and ends the sequence.
func (d *Decoder) Packets() iter.Seq2[Packet, error] {
	return func(yield func(Packet, error) bool) {
		for {
			pkt, err := d.Next()
			if errors.Is(err, ErrIncomplete) {
				return
			}
			if !yield(pkt, err) || err != nil {
				return
			}
		}
	}
}

// Buffered returns the number of bytes waiting for the rest of their frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Reset drops buffered bytes and any sticky error.
func (d *Decoder) Reset() {
	d.buf, d.err = nil, nil
}
