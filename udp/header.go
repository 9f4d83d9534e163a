// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package udp

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Header is the fixed-size header of a CEP packet.
type Header struct {
	Version    uint8
	Clock      Clock
	BitMode    BitMode
	Replay     bool // packet reconstructed in place of a dropped one
	Config     uint8
	Station    uint16
	Beamlets   uint8
	TimeSlices uint8
	Timestamp  int32 // seconds since the Unix epoch
	Sequence   int32 // sample offset within the current second
}

// NewHeader creates a validated header for a generated packet.
func NewHeader(bm BitMode, clk Clock, beamlets int, replay bool, timestamp, sequence int32) (Header, error) {
	hdr := Header{
		Version:    Version,
		Clock:      clk,
		BitMode:    bm,
		Replay:     replay,
		Config:     configMarker,
		Station:    Station,
		Beamlets:   uint8(beamlets),
		TimeSlices: NumTimeSlices,
		Timestamp:  timestamp,
		Sequence:   sequence,
	}

	err := bm.CheckBeamlets(beamlets)
	if err != nil {
		return hdr, err
	}

	err = hdr.Validate()
	if err != nil {
		return hdr, err
	}
	return hdr, nil
}

// Validate checks the header fields are consistent with the CEP format.
func (hdr Header) Validate() error {
	if hdr.Version < Version {
		return fmt.Errorf("udp: invalid RSP version %d", hdr.Version)
	}
	if hdr.TimeSlices != NumTimeSlices {
		return fmt.Errorf("udp: invalid number of time slices %d", hdr.TimeSlices)
	}
	err := hdr.BitMode.CheckBeamlets(int(hdr.Beamlets))
	if err != nil {
		return err
	}
	sps, err := hdr.Clock.SamplesPerSecond()
	if err != nil {
		return err
	}
	if hdr.Sequence < 0 || hdr.Sequence >= sps {
		return fmt.Errorf(
			"udp: sequence %d out of range [0, %d) for clock %v",
			hdr.Sequence, sps, hdr.Clock,
		)
	}
	return nil
}

// PayloadLen returns the size of the payload following the header.
func (hdr Header) PayloadLen() int {
	return PayloadLen(int(hdr.Beamlets))
}

// Time returns the time of the first sample of the packet.
func (hdr Header) Time() time.Time {
	sps, err := hdr.Clock.SamplesPerSecond()
	if err != nil || sps == 0 {
		return time.Unix(int64(hdr.Timestamp), 0).UTC()
	}
	ns := int64(hdr.Sequence) * int64(time.Second) / int64(sps)
	return time.Unix(int64(hdr.Timestamp), ns).UTC()
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (hdr Header) MarshalBinary() ([]byte, error) {
	p := make([]byte, HeaderLen)
	err := hdr.encode(p)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (hdr *Header) UnmarshalBinary(p []byte) error {
	return hdr.decode(p)
}

func (hdr Header) encode(p []byte) error {
	if len(p) < HeaderLen {
		return fmt.Errorf("udp: header buffer too small (%d < %d)", len(p), HeaderLen)
	}

	src, err := SourceBytes(hdr.BitMode, hdr.Clock, int(hdr.Beamlets), hdr.Replay)
	if err != nil {
		return err
	}

	p[0] = hdr.Version
	p[1] = src[0]
	p[2] = src[1]
	p[3] = hdr.Config
	binary.LittleEndian.PutUint16(p[4:6], hdr.Station)
	p[6] = hdr.Beamlets
	p[7] = hdr.TimeSlices
	binary.LittleEndian.PutUint32(p[8:12], uint32(hdr.Timestamp))
	binary.LittleEndian.PutUint32(p[12:16], uint32(hdr.Sequence))
	return nil
}

func (hdr *Header) decode(p []byte) error {
	if len(p) < HeaderLen {
		return fmt.Errorf("udp: header buffer too small (%d < %d)", len(p), HeaderLen)
	}

	if p[1]&errorBit != 0 {
		return fmt.Errorf("udp: RSP error bit is set (src=0x%02x)", p[1])
	}
	bm, err := bitModeFrom(p[2] & bitModeMask)
	if err != nil {
		return err
	}

	hdr.Version = p[0]
	hdr.Clock = Clock160
	if p[1]&clockBit != 0 {
		hdr.Clock = Clock200
	}
	hdr.BitMode = bm
	hdr.Replay = p[2]&replayBit != 0
	hdr.Config = p[3]
	hdr.Station = binary.LittleEndian.Uint16(p[4:6])
	hdr.Beamlets = p[6]
	hdr.TimeSlices = p[7]
	hdr.Timestamp = int32(binary.LittleEndian.Uint32(p[8:12]))
	hdr.Sequence = int32(binary.LittleEndian.Uint32(p[12:16]))

	return hdr.Validate()
}
