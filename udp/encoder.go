// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package udp

import (
	"fmt"
	"io"
)

// Packet is a CEP packet: a header and its payload.
type Packet struct {
	Header  Header
	Payload []byte
}

// Encoder writes CEP packets to an output stream.
type Encoder struct {
	w   io.Writer
	buf []byte
	err error
}

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:   w,
		buf: make([]byte, HeaderLen),
	}
}

// Encode writes the packet header followed by its payload.
// The payload length must match the header beamlet count.
func (enc *Encoder) Encode(pkt *Packet) error {
	if pkt == nil {
		return nil
	}
	if enc.err != nil {
		return enc.err
	}

	if got, want := len(pkt.Payload), pkt.Header.PayloadLen(); got != want {
		return fmt.Errorf("udp: invalid payload length (got=%d, want=%d)", got, want)
	}

	err := pkt.Header.encode(enc.buf[:HeaderLen])
	if err != nil {
		return fmt.Errorf("udp: could not encode header: %w", err)
	}

	enc.write(enc.buf[:HeaderLen])
	if enc.err != nil {
		return fmt.Errorf("udp: could not write header: %w", enc.err)
	}

	enc.write(pkt.Payload)
	if enc.err != nil {
		return fmt.Errorf("udp: could not write payload: %w", enc.err)
	}

	return nil
}

func (enc *Encoder) write(p []byte) {
	if enc.err != nil {
		return
	}
	_, enc.err = enc.w.Write(p)
}
