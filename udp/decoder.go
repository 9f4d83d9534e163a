// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package udp

import (
	"errors"
	"fmt"
	"io"
)

// Decoder reads (and validates) CEP packets from an underlying data source.
type Decoder struct {
	r io.Reader

	buf []byte
	err error
	n   int // number of decoded packets
}

// NewDecoder creates a decoder that reads and validates data from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   r,
		buf: make([]byte, HeaderLen),
	}
}

// Decode reads the next packet from the stream.
// Decode returns io.EOF when the stream is exhausted on a packet
// boundary, and io.ErrUnexpectedEOF on a truncated packet.
func (dec *Decoder) Decode(pkt *Packet) error {
	if dec.err != nil {
		return dec.err
	}

	dec.load(HeaderLen)
	if dec.err != nil {
		if errors.Is(dec.err, io.EOF) {
			return dec.err
		}
		return fmt.Errorf("udp: could not read header of packet %d: %w", dec.n, dec.err)
	}

	err := pkt.Header.decode(dec.buf[:HeaderLen])
	if err != nil {
		dec.err = err
		return fmt.Errorf("udp: could not decode header of packet %d: %w", dec.n, err)
	}

	n := pkt.Header.PayloadLen()
	if cap(pkt.Payload) < n {
		pkt.Payload = make([]byte, n)
	}
	pkt.Payload = pkt.Payload[:n]

	dec.read(pkt.Payload)
	if dec.err != nil {
		if errors.Is(dec.err, io.EOF) {
			dec.err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("udp: could not read payload of packet %d: %w", dec.n, dec.err)
	}

	dec.n++
	return nil
}

func (dec *Decoder) read(p []byte) {
	if dec.err != nil {
		return
	}
	_, dec.err = io.ReadFull(dec.r, p)
}

func (dec *Decoder) load(n int) {
	if dec.err != nil {
		return
	}
	if cap(dec.buf) < n {
		dec.buf = append(dec.buf[:len(dec.buf)], make([]byte, n-cap(dec.buf))...)
	}
	dec.buf = dec.buf[:n]
	_, dec.err = io.ReadFull(dec.r, dec.buf[:n])
}
