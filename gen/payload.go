// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen

import (
	"fmt"
	"sort"

	"github.com/go-lpc/cep/udp"
)

// Context describes the packet a payload is generated for.
type Context struct {
	Index    int   // logical packet index
	Sequence int32 // header sequence counter
	Beamlets int
	BitMode  udp.BitMode
}

// Generator fills packet payloads.
type Generator interface {
	// Generate fills all of dst.
	// len(dst) is udp.PayloadLen(ctx.Beamlets).
	Generate(dst []byte, ctx Context)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(dst []byte, ctx Context)

func (f GeneratorFunc) Generate(dst []byte, ctx Context) { f(dst, ctx) }

// Counting generates a signed 8-bit wrapping counter, seeded with the
// packet sequence counter:
//
//	dst[i] = ((seq + i) % 256) - 128
type Counting struct{}

func (Counting) Generate(dst []byte, ctx Context) {
	off := int(ctx.Sequence)
	for i := range dst {
		dst[i] = byte((off+i)%256 - 128)
	}
}

// Structured generates, for every beamlet, a ramp over the time slices
// of the packet: the 4 bytes of time slice t hold t%256.
type Structured struct{}

func (Structured) Generate(dst []byte, ctx Context) {
	const run = udp.NumTimeSlices * udp.NumPols // bytes per beamlet
	for i := range dst {
		t := (i % run) / udp.NumPols
		dst[i] = byte(t % 256)
	}
}

var generators = map[string]Generator{
	"counting":   Counting{},
	"structured": Structured{},
}

// GeneratorByName returns the named payload generator.
func GeneratorByName(name string) (Generator, error) {
	g, ok := generators[name]
	if !ok {
		return nil, fmt.Errorf("gen: unknown payload generator %q (want one of %q): %w",
			name, GeneratorNames(), udp.ErrConfig,
		)
	}
	return g, nil
}

// GeneratorNames returns the sorted names of the registered generators.
func GeneratorNames() []string {
	names := make([]string, 0, len(generators))
	for k := range generators {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
