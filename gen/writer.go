// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-lpc/cep/udp"
)

// Writer buffers encoded packets and flushes them to an underlying
// sink every depth packets.
type Writer struct {
	w     io.Writer
	buf   *bytes.Buffer
	enc   *udp.Encoder
	depth int

	nbuf int   // number of buffered packets
	npkt int64 // number of packets written, buffered ones included
	nout int64 // number of bytes flushed to the sink
	err  error
}

// NewWriter returns a writer flushing to w every depth packets.
func NewWriter(w io.Writer, depth int) *Writer {
	if depth <= 0 {
		depth = 1
	}
	buf := new(bytes.Buffer)
	return &Writer{
		w:     w,
		buf:   buf,
		enc:   udp.NewEncoder(buf),
		depth: depth,
	}
}

// WritePacket encodes pkt into the buffer, flushing it when full.
func (w *Writer) WritePacket(pkt *udp.Packet) error {
	if w.err != nil {
		return w.err
	}

	err := w.enc.Encode(pkt)
	if err != nil {
		w.err = fmt.Errorf("gen: could not encode packet %d: %w", w.npkt, err)
		return w.err
	}
	w.nbuf++
	w.npkt++

	if w.nbuf < w.depth {
		return nil
	}
	return w.Flush()
}

// Flush writes all buffered packets to the sink.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if w.buf.Len() == 0 {
		return nil
	}

	n, err := w.w.Write(w.buf.Bytes())
	w.nout += int64(n)
	w.buf.Reset()
	w.nbuf = 0
	if err != nil {
		w.err = fmt.Errorf("gen: could not flush packets: %w: %w", udp.ErrIO, err)
		return w.err
	}
	return nil
}

// Packets returns the number of packets written so far.
func (w *Writer) Packets() int64 { return w.npkt }

// Bytes returns the number of bytes flushed to the sink so far.
func (w *Writer) Bytes() int64 { return w.nout }

// Create creates the named output file.
// Create refuses to overwrite an existing file.
func Create(fname string) (*os.File, error) {
	f, err := os.OpenFile(fname, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("gen: could not create output file %q: %w: %w", fname, udp.ErrIO, err)
	}
	return f, nil
}

// checkAbsent returns an error if fname already exists.
func checkAbsent(fname string) error {
	_, err := os.Lstat(fname)
	switch {
	case err == nil:
		return fmt.Errorf("gen: output file %q already exists: %w: %w", fname, udp.ErrIO, fs.ErrExist)
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("gen: could not stat output file %q: %w: %w", fname, udp.ErrIO, err)
	}
}

// ReferenceName returns the name of the reference file associated with
// the primary output file fname: a ".reference" segment is inserted
// before the file extension.
func ReferenceName(fname string) string {
	return insertSegment(fname, "reference")
}

func insertSegment(fname, seg string) string {
	var (
		dir  = filepath.Dir(fname)
		base = filepath.Base(fname)
		ext  = filepath.Ext(base)
		stem = strings.TrimSuffix(base, ext)
	)
	return filepath.Join(dir, stem+"."+seg+ext)
}
