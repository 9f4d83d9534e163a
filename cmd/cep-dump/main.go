// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// cep-dump decodes and displays raw LOFAR CEP packet files.
//
// Usage: cep-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> cep-dump -n 3 ./debug.raw
//	=== ./debug.raw ===
//	pkt=     0 ts=1600000000 seq=     0 bm=8 beamlets=122 clock=200MHz
//	pkt=     1 ts=1600000000 seq=    16 bm=8 beamlets=122 clock=200MHz
//	pkt=     2 ts=1600000000 seq=    48 bm=8 beamlets=122 clock=200MHz gap=1
//	[...]
//	packets:     127
//	replays:       0
//	gaps:          1
//	missing:       1
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/cep/internal/mmap"
	"github.com/go-lpc/cep/udp"
	"go-hep.org/x/hep/hbook"
)

func main() {
	log.SetPrefix("cep-dump: ")
	log.SetFlags(0)

	var (
		nmax  = flag.Int("n", 0, "max number of packets to display per file (0: all)")
		quiet = flag.Bool("q", false, "only display the summary of each file")
		hist  = flag.String("hist", "", "path to a YODA file to store histograms of sequence steps and samples")
	)

	flag.Usage = func() {
		fmt.Printf(`cep-dump decodes and displays raw LOFAR CEP packet files.

Usage: cep-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> cep-dump -n 3 ./debug.raw
 === ./debug.raw ===
 pkt=     0 ts=1600000000 seq=     0 bm=8 beamlets=122 clock=200MHz
 pkt=     1 ts=1600000000 seq=    16 bm=8 beamlets=122 clock=200MHz
 pkt=     2 ts=1600000000 seq=    48 bm=8 beamlets=122 clock=200MHz gap=1
 [...]
 packets:     127
 replays:       0
 gaps:          1
 missing:       1

`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing path to input CEP file")
	}

	var hs *hists
	if *hist != "" {
		hs = newHists()
	}

	for _, fname := range flag.Args() {
		err := process(os.Stdout, fname, *nmax, *quiet, hs)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}

	if hs != nil {
		err := hs.save(*hist)
		if err != nil {
			log.Fatalf("could not save histograms: %+v", err)
		}
	}
}

// summary holds the statistics of a packet file.
type summary struct {
	packets int
	replays int
	gaps    int
	missing int64 // number of missing packet slots
}

func process(w io.Writer, fname string, nmax int, quiet bool, hs *hists) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	h, err := mmap.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer h.Close()

	var (
		dec  = udp.NewDecoder(io.NewSectionReader(h, 0, int64(h.Len())))
		pkt  udp.Packet
		sum  summary
		prev int64 = -1 // absolute sample index of the previous packet
	)

	fmt.Fprintf(wbuf, "=== %s ===\n", fname)
loop:
	for {
		err := dec.Decode(&pkt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break loop
			}
			return fmt.Errorf("could not decode packet: %w", err)
		}

		cur, err := sampleOf(pkt.Header)
		if err != nil {
			return fmt.Errorf("could not locate packet %d: %w", sum.packets, err)
		}
		gap := int64(0)
		if prev >= 0 {
			step := (cur - prev) / udp.NumTimeSlices
			gap = step - 1
			hs.fillStep(step)
		}
		if gap != 0 {
			sum.gaps++
			sum.missing += gap
		}
		prev = cur

		if pkt.Header.Replay {
			sum.replays++
		}
		hs.fillSamples(pkt.Payload)

		if !quiet && (nmax <= 0 || sum.packets < nmax) {
			fmt.Fprintf(wbuf, "pkt=% 6d ts=%d seq=% 6d bm=%d beamlets=%d clock=%v",
				sum.packets, pkt.Header.Timestamp, pkt.Header.Sequence,
				pkt.Header.BitMode, pkt.Header.Beamlets, pkt.Header.Clock,
			)
			if pkt.Header.Replay {
				fmt.Fprintf(wbuf, " replay")
			}
			if gap != 0 {
				fmt.Fprintf(wbuf, " gap=%d", gap)
			}
			fmt.Fprintf(wbuf, "\n")
		}
		sum.packets++
	}

	if !quiet && nmax > 0 && sum.packets > nmax {
		fmt.Fprintf(wbuf, "[...]\n")
	}
	fmt.Fprintf(wbuf, "packets: % 7d\n", sum.packets)
	fmt.Fprintf(wbuf, "replays: % 7d\n", sum.replays)
	fmt.Fprintf(wbuf, "gaps:    % 7d\n", sum.gaps)
	fmt.Fprintf(wbuf, "missing: % 7d\n", sum.missing)

	return nil
}

// sampleOf returns the absolute sample index of the first time slice
// of a packet.
func sampleOf(hdr udp.Header) (int64, error) {
	sps, err := hdr.Clock.SamplesPerSecond()
	if err != nil {
		return 0, err
	}
	return int64(hdr.Timestamp)*int64(sps) + int64(hdr.Sequence), nil
}

type hists struct {
	steps   *hbook.H1D // distance between consecutive packets, in packet slots
	samples *hbook.H1D // payload bytes, as signed samples
}

func newHists() *hists {
	hs := &hists{
		steps:   hbook.NewH1D(32, 0, 32),
		samples: hbook.NewH1D(256, -128, 128),
	}
	hs.steps.Annotation()["name"] = "steps"
	hs.steps.Annotation()["title"] = "sequence steps (packet slots)"
	hs.samples.Annotation()["name"] = "samples"
	hs.samples.Annotation()["title"] = "payload samples"
	return hs
}

func (hs *hists) fillStep(step int64) {
	if hs == nil {
		return
	}
	hs.steps.Fill(float64(step), 1)
}

func (hs *hists) fillSamples(p []byte) {
	if hs == nil {
		return
	}
	for _, v := range p {
		hs.samples.Fill(float64(int8(v)), 1)
	}
}

func (hs *hists) save(fname string) error {
	f, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("could not create histogram file: %w", err)
	}
	defer f.Close()

	for _, h := range []*hbook.H1D{hs.steps, hs.samples} {
		raw, err := h.MarshalYODA()
		if err != nil {
			return fmt.Errorf("could not marshal histogram %q to YODA: %w", h.Name(), err)
		}
		_, err = f.Write(raw)
		if err != nil {
			return fmt.Errorf("could not write histogram %q: %w", h.Name(), err)
		}
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close histogram file: %w", err)
	}
	return nil
}
