// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen

import (
	"fmt"
	"io"
	"log"

	"github.com/go-lpc/cep/udp"
)

// Stats summarizes a generated stream.
type Stats struct {
	Packets int64 // number of packets
	Replays int64 // number of replayed packets
	Bytes   int64 // number of bytes written
}

// Result summarizes a generation run.
type Result struct {
	Primary   Stats
	Reference Stats // zero if no reference stream was requested
}

// Generate writes the primary stream of cfg to primary, omitting the
// dropped packets.
// If reference is not nil, a second pass writes every logical packet to
// reference, dropped ones being replaced by replay packets according
// to cfg.Policy.
//
// Buffered packets are flushed to both sinks on return, even on error.
func Generate(cfg Config, drops DropSet, primary, reference io.Writer, msg *log.Logger) (res Result, err error) {
	err = cfg.Validate()
	if err != nil {
		return res, err
	}
	if msg == nil {
		msg = log.New(io.Discard, "", 0)
	}
	for _, i := range drops.idx {
		if i >= cfg.Packets {
			return res, fmt.Errorf(
				"gen: dropped packet index %d out of range [0, %d): %w",
				i, cfg.Packets, udp.ErrConfig,
			)
		}
	}

	res.Primary, err = runPass(cfg, drops, primary, false, msg)
	if err != nil {
		return res, fmt.Errorf("gen: could not generate primary stream: %w", err)
	}

	if reference == nil {
		return res, nil
	}

	res.Reference, err = runPass(cfg, drops, reference, true, msg)
	if err != nil {
		return res, fmt.Errorf("gen: could not generate reference stream: %w", err)
	}

	return res, nil
}

// pass drives a sequencer over a stream, emitting packets to a writer.
type pass struct {
	name string
	cfg  Config
	seq  *Sequencer
	w    *Writer
	msg  *log.Logger

	pkt  udp.Packet
	last []byte // last generated payload
	zero []byte
	prev bool // whether last holds a generated payload

	replays int64
}

func runPass(cfg Config, drops DropSet, sink io.Writer, replay bool, msg *log.Logger) (stats Stats, err error) {
	seq, err := NewSequencer(cfg.Clock, cfg.Timestamp)
	if err != nil {
		return stats, err
	}

	p := &pass{
		name: "primary",
		cfg:  cfg,
		seq:  seq,
		w:    NewWriter(sink, cfg.BufferDepth),
		msg:  msg,
		last: make([]byte, udp.PayloadLen(cfg.Beamlets)),
		zero: make([]byte, udp.PayloadLen(cfg.Beamlets)),
	}
	if replay {
		p.name = "reference"
	}

	defer func() {
		e := p.w.Flush()
		if e != nil && err == nil {
			err = e
		}
		stats = Stats{
			Packets: p.w.Packets(),
			Replays: p.replays,
			Bytes:   p.w.Bytes(),
		}
	}()

	switch {
	case replay:
		err = p.healed(drops)
	default:
		err = p.lossy(drops)
	}
	return stats, err
}

// lossy emits the retained packets, jumping the counters over the
// dropped slots.
func (p *pass) lossy(drops DropSet) error {
	retained, deltas := Deltas(p.cfg.Packets, drops)
	if len(retained) == 0 {
		return nil
	}

	// leading drops.
	p.seq.Advance(retained[0])

	for i, idx := range retained {
		err := p.emit(idx, false)
		if err != nil {
			return err
		}
		p.seq.Advance(deltas[i])
	}
	return nil
}

// healed emits one packet per logical slot, replaying the dropped ones.
func (p *pass) healed(drops DropSet) error {
	for idx := 0; idx < p.cfg.Packets; idx++ {
		err := p.emit(idx, drops.Has(idx))
		if err != nil {
			return err
		}
		p.seq.Advance(1)
	}
	return nil
}

func (p *pass) emit(idx int, replay bool) error {
	hdr, err := udp.NewHeader(
		p.cfg.BitMode, p.cfg.Clock, p.cfg.Beamlets, replay,
		p.seq.Timestamp(), p.seq.Sequence(),
	)
	if err != nil {
		return fmt.Errorf("could not create header of packet %d: %w", idx, err)
	}

	p.pkt.Header = hdr
	switch {
	case !replay:
		p.cfg.Generator.Generate(p.last, Context{
			Index:    idx,
			Sequence: hdr.Sequence,
			Beamlets: p.cfg.Beamlets,
			BitMode:  p.cfg.BitMode,
		})
		p.prev = true
		p.pkt.Payload = p.last
	case p.cfg.Policy == RepeatLast && p.prev:
		p.pkt.Payload = p.last
	default:
		p.pkt.Payload = p.zero
	}

	err = p.w.WritePacket(&p.pkt)
	if err != nil {
		return err
	}
	if replay {
		p.replays++
	}

	if n := p.w.Packets(); n%int64(p.cfg.BufferDepth) == 0 {
		p.msg.Printf("%s: wrote %d packets (logical index %d)...", p.name, n, idx)
	}
	return nil
}
