// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package udp describes and handles packets in the LOFAR CEP UDP format.
package udp // import "github.com/go-lpc/cep/udp"

import (
	"errors"
)

const (
	HeaderLen     = 16  // size of a CEP packet header, in bytes
	Version       = 3   // RSP version written in generated headers
	NumTimeSlices = 16  // time samples per beamlet per packet
	NumPols       = 4   // bytes per time sample (Xr, Xi, Yr, Yi)
	MaxBeamlets   = 244 // max number of beamlets per packet, any bitmode

	Station = 6848 // station identifier written in generated headers
)

const (
	configMarker = 0xaa // configuration byte
	clockBit     = 0x80 // source byte 1: 200MHz clock
	replayBit    = 0x80 // source byte 2: replayed packet
	errorBit     = 0x40 // source byte 1: RSP error
	bitModeMask  = 0x03 // source byte 2: bitmode code
)

var (
	// ErrConfig reports an invalid generation configuration.
	ErrConfig = errors.New("invalid configuration")

	// ErrIO reports a failure to create or write an output sink.
	ErrIO = errors.New("i/o error")
)

// PayloadLen returns the size in bytes of the payload of a packet
// holding n beamlets.
func PayloadLen(n int) int {
	return n * NumTimeSlices * NumPols
}

// PacketLen returns the size in bytes of a packet holding n beamlets.
func PacketLen(n int) int {
	return HeaderLen + PayloadLen(n)
}
