// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package udp

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestTables(t *testing.T) {
	for _, tc := range []struct {
		clk  Clock
		want int32
		err  error
	}{
		{Clock160, 156250, nil},
		{Clock200, 195313, nil},
		{Clock(100), 0, ErrConfig},
	} {
		t.Run(tc.clk.String(), func(t *testing.T) {
			got, err := tc.clk.SamplesPerSecond()
			if !errors.Is(err, tc.err) {
				t.Fatalf("invalid error: got=%v, want=%v", err, tc.err)
			}
			if got != tc.want {
				t.Fatalf("invalid samples/s: got=%d, want=%d", got, tc.want)
			}
		})
	}

	for _, tc := range []struct {
		bm   BitMode
		max  int
		code uint8
		err  error
	}{
		{BitMode4, 244, 2, nil},
		{BitMode8, 122, 1, nil},
		{BitMode16, 61, 0, nil},
		{BitMode(12), 0, 0, ErrConfig},
	} {
		max, err := tc.bm.MaxBeamlets()
		if !errors.Is(err, tc.err) {
			t.Fatalf("bitmode=%d: invalid error: got=%v, want=%v", tc.bm, err, tc.err)
		}
		if got, want := max, tc.max; got != want {
			t.Fatalf("bitmode=%d: invalid max beamlets: got=%d, want=%d", tc.bm, got, want)
		}
		code, err := tc.bm.code()
		if !errors.Is(err, tc.err) {
			t.Fatalf("bitmode=%d: invalid error: got=%v, want=%v", tc.bm, err, tc.err)
		}
		if got, want := code, tc.code; got != want {
			t.Fatalf("bitmode=%d: invalid code: got=%d, want=%d", tc.bm, got, want)
		}
		if tc.err != nil {
			continue
		}
		if max > MaxBeamlets {
			t.Fatalf("bitmode=%d: max beamlets %d above packet limit %d", tc.bm, max, MaxBeamlets)
		}
		if max > math.MaxUint8 {
			t.Fatalf("bitmode=%d: max beamlets %d does not fit the header", tc.bm, max)
		}
		bm, err := bitModeFrom(code)
		if err != nil {
			t.Fatalf("could not decode bitmode code %d: %+v", code, err)
		}
		if bm != tc.bm {
			t.Fatalf("invalid bitmode round-trip: got=%d, want=%d", bm, tc.bm)
		}
	}

	if got, want := MaxBeamlets, 244; got != want {
		t.Fatalf("invalid max beamlets: got=%d, want=%d", got, want)
	}
}

func TestSourceBytes(t *testing.T) {
	for _, tc := range []struct {
		name     string
		bm       BitMode
		clk      Clock
		beamlets int
		replay   bool
		want     [2]byte
		err      error
	}{
		{"8bit-200", BitMode8, Clock200, 122, false, [2]byte{0x80, 0x01}, nil},
		{"8bit-200-replay", BitMode8, Clock200, 122, true, [2]byte{0x80, 0x81}, nil},
		{"4bit-160", BitMode4, Clock160, 244, false, [2]byte{0x00, 0x02}, nil},
		{"16bit-160-replay", BitMode16, Clock160, 1, true, [2]byte{0x00, 0x80}, nil},
		{"too-many-beamlets", BitMode16, Clock200, 62, false, [2]byte{}, ErrConfig},
		{"no-beamlet", BitMode8, Clock200, 0, false, [2]byte{}, ErrConfig},
		{"bad-clock", BitMode8, Clock(150), 10, false, [2]byte{}, ErrConfig},
		{"bad-bitmode", BitMode(2), Clock200, 10, false, [2]byte{}, ErrConfig},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SourceBytes(tc.bm, tc.clk, tc.beamlets, tc.replay)
			if !errors.Is(err, tc.err) {
				t.Fatalf("invalid error: got=%v, want=%v", err, tc.err)
			}
			if got != tc.want {
				t.Fatalf("invalid source bytes: got=%#v, want=%#v", got, tc.want)
			}
		})
	}
}

func TestHeaderWireFormat(t *testing.T) {
	hdr, err := NewHeader(BitMode8, Clock200, 122, false, 0x5f5e1000, 0x10)
	if err != nil {
		t.Fatalf("could not create header: %+v", err)
	}

	raw, err := hdr.MarshalBinary()
	if err != nil {
		t.Fatalf("could not marshal header: %+v", err)
	}

	want := []byte{
		3, 0x80, 0x01, 0xaa, 0xc0, 0x1a, 122, 16,
		0x00, 0x10, 0x5e, 0x5f,
		0x10, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(raw, want) {
		t.Fatalf("invalid header bytes:\ngot= %x\nwant=%x", raw, want)
	}

	hdr.Replay = true
	replay, err := hdr.MarshalBinary()
	if err != nil {
		t.Fatalf("could not marshal replay header: %+v", err)
	}
	for i := range raw {
		switch i {
		case 2:
			if got, want := replay[i], raw[i]|0x80; got != want {
				t.Fatalf("invalid replay selector: got=0x%02x, want=0x%02x", got, want)
			}
		default:
			if replay[i] != raw[i] {
				t.Fatalf("replay header differs at byte %d: got=0x%02x, want=0x%02x", i, replay[i], raw[i])
			}
		}
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var (
			bm       = rapid.SampledFrom([]BitMode{BitMode4, BitMode8, BitMode16}).Draw(t, "bitmode")
			clk      = rapid.SampledFrom([]Clock{Clock160, Clock200}).Draw(t, "clock")
			max, _   = bm.MaxBeamlets()
			sps, _   = clk.SamplesPerSecond()
			beamlets = rapid.IntRange(1, max).Draw(t, "beamlets")
			replay   = rapid.Bool().Draw(t, "replay")
			ts       = rapid.Int32().Draw(t, "timestamp")
			seq      = rapid.Int32Range(0, sps-1).Draw(t, "sequence")
		)

		want, err := NewHeader(bm, clk, beamlets, replay, ts, seq)
		if err != nil {
			t.Fatalf("could not create header: %+v", err)
		}

		raw, err := want.MarshalBinary()
		if err != nil {
			t.Fatalf("could not marshal header: %+v", err)
		}
		if got, want := len(raw), HeaderLen; got != want {
			t.Fatalf("invalid header size: got=%d, want=%d", got, want)
		}

		var got Header
		err = got.UnmarshalBinary(raw)
		if err != nil {
			t.Fatalf("could not unmarshal header: %+v", err)
		}

		if got != want {
			t.Fatalf("invalid header round-trip:\ngot= %#v\nwant=%#v", got, want)
		}
	})
}

func TestHeaderInvalid(t *testing.T) {
	valid := []byte{
		3, 0x80, 0x01, 0xaa, 0xc0, 0x1a, 122, 16,
		0, 0, 0, 0,
		0, 0, 0, 0,
	}
	for _, tc := range []struct {
		name  string
		patch func(p []byte) []byte
	}{
		{"short", func(p []byte) []byte { return p[:HeaderLen-1] }},
		{"old-version", func(p []byte) []byte { p[0] = 2; return p }},
		{"error-bit", func(p []byte) []byte { p[1] |= 0x40; return p }},
		{"bitmode-3", func(p []byte) []byte { p[2] = 0x03; return p }},
		{"time-slices", func(p []byte) []byte { p[7] = 8; return p }},
		{"beamlets", func(p []byte) []byte { p[6] = 123; return p }},
		{"sequence", func(p []byte) []byte { p[12], p[13], p[14] = 0x11, 0xfb, 0x02; return p }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			raw := tc.patch(append([]byte(nil), valid...))
			var hdr Header
			err := hdr.UnmarshalBinary(raw)
			if err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestHeaderTime(t *testing.T) {
	hdr := Header{
		Clock:     Clock160,
		Timestamp: 1600000000,
		Sequence:  78125,
	}
	if got, want := hdr.Time(), time.Unix(1600000000, 5e8).UTC(); !got.Equal(want) {
		t.Fatalf("invalid time: got=%v, want=%v", got, want)
	}
}
