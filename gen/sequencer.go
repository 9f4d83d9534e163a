// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen

import (
	"fmt"

	"github.com/go-lpc/cep/udp"
)

// Sequencer tracks the (timestamp, sequence) counters of a stream.
// The sequence always stays in [0, samples-per-second).
type Sequencer struct {
	sps int64
	ts  int32
	seq int32
}

// NewSequencer returns a sequencer for the clock, starting at
// (timestamp, 0).
func NewSequencer(clk udp.Clock, timestamp int32) (*Sequencer, error) {
	sps, err := clk.SamplesPerSecond()
	if err != nil {
		return nil, fmt.Errorf("gen: could not create sequencer: %w", err)
	}
	return &Sequencer{sps: int64(sps), ts: timestamp}, nil
}

func (s *Sequencer) Timestamp() int32 { return s.ts }
func (s *Sequencer) Sequence() int32  { return s.seq }

// Advance moves the counters by delta packet slots, carrying whole
// seconds into the timestamp.
func (s *Sequencer) Advance(delta int) {
	if delta < 0 {
		panic(fmt.Errorf("gen: negative sequencer delta %d", delta))
	}
	v := int64(s.seq) + int64(udp.NumTimeSlices)*int64(delta)
	s.ts += int32(v / s.sps)
	s.seq = int32(v % s.sps)
}

// Deltas returns the indices of the packets retained out of n logical
// packets, and for each of them the number of slots up to the next
// retained packet. The last retained packet is assigned a delta of 1.
func Deltas(n int, drops DropSet) (retained, deltas []int) {
	retained = make([]int, 0, n)
	for i := 0; i < n; i++ {
		if drops.Has(i) {
			continue
		}
		retained = append(retained, i)
	}

	deltas = make([]int, len(retained))
	for i := range retained {
		if i+1 == len(retained) {
			deltas[i] = 1
			break
		}
		deltas[i] = retained[i+1] - retained[i]
	}
	return retained, deltas
}
