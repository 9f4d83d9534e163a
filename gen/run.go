// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"log"
	"os"

	"github.com/go-lpc/cep/internal/xpcap"
	"github.com/go-lpc/cep/udp"
)

// Outputs describes the files written by a run.
type Outputs struct {
	Primary   string
	Reference string // empty when no reference was requested
	Drops     DropSet
	Result    Result

	PrimaryDigest   Digest
	ReferenceDigest Digest
}

// Digest summarizes the content of an output file.
type Digest struct {
	Size   int64  // number of bytes written to the file
	SHA256 string // hex-encoded SHA-256 of the file content
}

// Run generates the files described by plan.
//
// The plan, drop set and output paths are all validated before any
// file is created. Existing files are never overwritten.
// If generation fails midway, partially written files are left on disk.
func Run(plan Plan, msg *log.Logger) (out Outputs, err error) {
	if msg == nil {
		msg = log.New(io.Discard, "", 0)
	}

	cfg, err := plan.Config()
	if err != nil {
		return out, err
	}
	err = plan.validFormat()
	if err != nil {
		return out, err
	}
	if plan.Format == FormatPCAP && (plan.Port < 0 || plan.Port >= xpcap.MaxPorts) {
		return out, fmt.Errorf("gen: invalid station port %d: %w", plan.Port, udp.ErrConfig)
	}

	out.Drops, err = plan.DropSet()
	if err != nil {
		return out, err
	}

	out.Primary = plan.Output
	if cfg.Reference {
		out.Reference = ReferenceName(plan.Output)
	}

	for _, fname := range []string{out.Primary, out.Reference} {
		if fname == "" {
			continue
		}
		err = checkAbsent(fname)
		if err != nil {
			return out, err
		}
	}

	msg.Printf(
		"generating %d packets (%d dropped), bitmode=%d beamlets=%d clock=%v -> %q",
		cfg.Packets, out.Drops.Len(), cfg.BitMode, cfg.Beamlets, cfg.Clock, out.Primary,
	)

	primary, err := openSink(plan, cfg, out.Primary)
	if err != nil {
		return out, err
	}
	defer func() {
		e := primary.Close()
		if e != nil && err == nil {
			err = fmt.Errorf("gen: could not close %q: %w: %w", out.Primary, udp.ErrIO, e)
		}
	}()

	var reference *sink
	if out.Reference != "" {
		reference, err = openSink(plan, cfg, out.Reference)
		if err != nil {
			return out, err
		}
		defer func() {
			e := reference.Close()
			if e != nil && err == nil {
				err = fmt.Errorf("gen: could not close %q: %w: %w", out.Reference, udp.ErrIO, e)
			}
		}()
	}

	var rw io.Writer
	if reference != nil {
		rw = reference
	}

	out.Result, err = Generate(cfg, out.Drops, primary, rw, msg)
	if err != nil {
		return out, err
	}

	out.PrimaryDigest = primary.digest()
	if reference != nil {
		out.ReferenceDigest = reference.digest()
	}

	msg.Printf("primary:   %d packets, %d bytes", out.Result.Primary.Packets, out.Result.Primary.Bytes)
	if out.Reference != "" {
		msg.Printf("reference: %d packets (%d replayed, %v), %d bytes",
			out.Result.Reference.Packets, out.Result.Reference.Replays,
			cfg.Policy, out.Result.Reference.Bytes,
		)
	}

	return out, nil
}

// sink is an output file, possibly framed as a pcap capture.
// It keeps a running SHA-256 of everything written to the file.
type sink struct {
	f *os.File
	w io.Writer
	h hash.Hash
	n int64 // number of bytes written to the file
}

func openSink(plan Plan, cfg Config, fname string) (*sink, error) {
	f, err := Create(fname)
	if err != nil {
		return nil, err
	}

	s := &sink{f: f, h: sha256.New()}
	s.w = io.MultiWriter(f, s.h, (*counter)(&s.n))
	if plan.Format == FormatPCAP {
		s.w, err = xpcap.NewWriter(s.w, plan.Port, cfg.PacketLen())
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("gen: could not create pcap sink %q: %w: %w", fname, udp.ErrIO, err)
		}
	}
	return s, nil
}

func (s *sink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s *sink) Close() error {
	return s.f.Close()
}

func (s *sink) digest() Digest {
	return Digest{
		Size:   s.n,
		SHA256: hex.EncodeToString(s.h.Sum(nil)),
	}
}

type counter int64

func (c *counter) Write(p []byte) (int, error) {
	*c += counter(len(p))
	return len(p), nil
}
