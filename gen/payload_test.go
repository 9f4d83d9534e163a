// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/go-lpc/cep/udp"
)

func TestCounting(t *testing.T) {
	ctx := Context{Index: 3, Sequence: 48, Beamlets: 1, BitMode: udp.BitMode8}
	dst := make([]byte, udp.PayloadLen(ctx.Beamlets))
	Counting{}.Generate(dst, ctx)

	for i, v := range dst {
		want := byte((48+i)%256 - 128)
		if v != want {
			t.Fatalf("invalid payload[%d]: got=%d, want=%d", i, v, want)
		}
	}
	if got, want := int8(dst[0]), int8(48-128); got != want {
		t.Fatalf("invalid first sample: got=%d, want=%d", got, want)
	}

	again := make([]byte, len(dst))
	Counting{}.Generate(again, ctx)
	if !bytes.Equal(dst, again) {
		t.Fatalf("counting generator is not deterministic")
	}

	ctx.Sequence += 16
	Counting{}.Generate(again, ctx)
	if bytes.Equal(dst, again) {
		t.Fatalf("counting payload does not depend on the sequence counter")
	}
}

func TestStructured(t *testing.T) {
	const beamlets = 3
	ctx := Context{Beamlets: beamlets, BitMode: udp.BitMode8}
	dst := make([]byte, udp.PayloadLen(beamlets))
	for i := range dst {
		dst[i] = 0xff
	}
	Structured{}.Generate(dst, ctx)

	for b := 0; b < beamlets; b++ {
		for ts := 0; ts < udp.NumTimeSlices; ts++ {
			off := (b*udp.NumTimeSlices + ts) * udp.NumPols
			got := dst[off : off+udp.NumPols]
			want := bytes.Repeat([]byte{byte(ts)}, udp.NumPols)
			if !bytes.Equal(got, want) {
				t.Fatalf("invalid quadruple (beamlet=%d, slice=%d): got=%v, want=%v", b, ts, got, want)
			}
		}
	}

	// independent of the packet.
	other := make([]byte, len(dst))
	Structured{}.Generate(other, Context{Index: 42, Sequence: 672, Beamlets: beamlets})
	if !bytes.Equal(dst, other) {
		t.Fatalf("structured payload depends on the packet")
	}
}

func TestGeneratorByName(t *testing.T) {
	if got, want := GeneratorNames(), []string{"counting", "structured"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid generator names: got=%q, want=%q", got, want)
	}

	for _, name := range GeneratorNames() {
		g, err := GeneratorByName(name)
		if err != nil {
			t.Fatalf("could not retrieve generator %q: %+v", name, err)
		}
		if g == nil {
			t.Fatalf("nil generator %q", name)
		}
	}

	_, err := GeneratorByName("sine")
	if !errors.Is(err, udp.ErrConfig) {
		t.Fatalf("invalid error: got=%+v, want=%+v", err, udp.ErrConfig)
	}
}

func TestGeneratorFunc(t *testing.T) {
	var ctxs []Context
	g := GeneratorFunc(func(dst []byte, ctx Context) {
		ctxs = append(ctxs, ctx)
		for i := range dst {
			dst[i] = byte(ctx.Index)
		}
	})

	cfg := NewConfig(
		WithPackets(6),
		WithBeamlets(2),
		WithBitMode(udp.BitMode16),
		WithGenerator(g),
		WithReference(RepeatLast),
	)
	drops, err := NewDropSet(cfg.Packets, 1, 4)
	if err != nil {
		t.Fatalf("could not create drop set: %+v", err)
	}

	var primary, reference bytes.Buffer
	_, err = Generate(cfg, drops, &primary, &reference, nil)
	if err != nil {
		t.Fatalf("could not generate streams: %+v", err)
	}

	// replayed packets are never generated.
	var idx []int
	for _, ctx := range ctxs {
		idx = append(idx, ctx.Index)
		if got, want := ctx.Sequence, int32(16*ctx.Index); got != want {
			t.Fatalf("invalid sequence for packet %d: got=%d, want=%d", ctx.Index, got, want)
		}
		if ctx.Beamlets != 2 || ctx.BitMode != udp.BitMode16 {
			t.Fatalf("invalid context: %+v", ctx)
		}
	}
	if got, want := idx, []int{0, 2, 3, 5, 0, 2, 3, 5}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid generated packets: got=%v, want=%v", got, want)
	}

	refs := decodeAll(t, reference.Bytes())
	for i, want := range []byte{0, 0, 2, 3, 3, 5} {
		if got := refs[i].Payload[0]; got != want {
			t.Fatalf("invalid payload for packet %d: got=%d, want=%d", i, got, want)
		}
	}
}
