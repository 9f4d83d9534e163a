// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package udp

import (
	"fmt"
)

// Clock is a station sampling clock, in MHz.
type Clock uint16

const (
	Clock160 Clock = 160
	Clock200 Clock = 200
)

// SamplesPerSecond returns the number of samples per wall-clock second
// for the clock, ie the value at which the header sequence counter wraps
// into the timestamp.
//
// The 200MHz clock runs at 195312.5 samples/s; the table holds the
// maximum sequence value accepted by station readers (195313).
func (clk Clock) SamplesPerSecond() (int32, error) {
	switch clk {
	case Clock160:
		return 156250, nil
	case Clock200:
		return 195313, nil
	}
	return 0, fmt.Errorf("udp: invalid clock %dMHz: %w", clk, ErrConfig)
}

func (clk Clock) String() string {
	return fmt.Sprintf("%dMHz", uint16(clk))
}

// BitMode is the number of bits per sample.
type BitMode uint8

const (
	BitMode4  BitMode = 4
	BitMode8  BitMode = 8
	BitMode16 BitMode = 16
)

// MaxBeamlets returns the maximum number of beamlets a packet can hold
// in the bitmode. Halving the sample width doubles the beamlet count.
func (bm BitMode) MaxBeamlets() (int, error) {
	switch bm {
	case BitMode4:
		return MaxBeamlets, nil
	case BitMode8:
		return MaxBeamlets / 2, nil
	case BitMode16:
		return MaxBeamlets / 4, nil
	}
	return 0, fmt.Errorf("udp: invalid bitmode %d: %w", bm, ErrConfig)
}

// code returns the on-wire bitmode code.
func (bm BitMode) code() (uint8, error) {
	switch bm {
	case BitMode16:
		return 0, nil
	case BitMode8:
		return 1, nil
	case BitMode4:
		return 2, nil
	}
	return 0, fmt.Errorf("udp: invalid bitmode %d: %w", bm, ErrConfig)
}

func bitModeFrom(code uint8) (BitMode, error) {
	switch code {
	case 0:
		return BitMode16, nil
	case 1:
		return BitMode8, nil
	case 2:
		return BitMode4, nil
	}
	return 0, fmt.Errorf("udp: invalid bitmode code %d", code)
}

// CheckBeamlets returns an error if n beamlets can not be encoded in
// the bitmode.
func (bm BitMode) CheckBeamlets(n int) error {
	max, err := bm.MaxBeamlets()
	if err != nil {
		return err
	}
	if n < 1 || n > max {
		return fmt.Errorf(
			"udp: bitmode %d supports 1 to %d beamlets (got=%d): %w",
			bm, max, n, ErrConfig,
		)
	}
	return nil
}

// SourceBytes returns the two header source bytes for a packet in the
// given bitmode and clock.
// The first byte carries the clock bit, the second one the bitmode code
// and, for replayed packets, the replay bit.
func SourceBytes(bm BitMode, clk Clock, beamlets int, replay bool) ([2]byte, error) {
	var src [2]byte

	_, err := clk.SamplesPerSecond()
	if err != nil {
		return src, err
	}
	err = bm.CheckBeamlets(beamlets)
	if err != nil {
		return src, err
	}
	code, err := bm.code()
	if err != nil {
		return src, err
	}

	if clk == Clock200 {
		src[0] = clockBit
	}
	src[1] = code
	if replay {
		src[1] |= replayBit
	}
	return src, nil
}
