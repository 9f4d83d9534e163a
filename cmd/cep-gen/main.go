// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command cep-gen generates synthetic LOFAR CEP packet files, with
// simulated packet loss, and their loss-less reference counterparts.
//
// Usage: cep-gen [OPTIONS]
//
// Example:
//
//	$> cep-gen -n 1024 -d "[10, 20:25]" -e -o ./out.raw
//	cep-gen: generating 1024 packets (7 dropped), bitmode=8 beamlets=122 clock=200MHz -> "./out.raw"
//	cep-gen: primary:   1017 packets, 7957008 bytes
//	cep-gen: reference: 1024 packets (7 replayed, repeat-last), 8011776 bytes
package main // import "github.com/go-lpc/cep/cmd/cep-gen"

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-lpc/cep"
	"github.com/go-lpc/cep/gen"
	"github.com/go-lpc/cep/internal/xpcap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	msg = log.New(os.Stdout, "cep-gen: ", 0)
)

func main() {
	xmain(os.Args[1:])
}

func xmain(args []string) {
	var (
		fset = flag.NewFlagSet("cep-gen", flag.ExitOnError)
		cli  = gen.DefaultPlan()

		cfg   = fset.String("cfg", "", "path to a YAML generation plan (explicit flags take precedence)")
		ports = fset.Int("ports", 1, "number of station ports to generate (one file per port)")
		logf  = fset.String("log", "", "path to a log file (rotated)")
		mfest = fset.Bool("manifest", false, "write a YAML manifest next to each primary file")
		vers  = fset.Bool("version", false, "print version and exit")
	)

	fset.IntVar(&cli.Packets, "n", cli.Packets, "number of logical packets to generate (dropped ones included)")
	fset.StringVar(&cli.Drops, "d", cli.Drops, "packets to drop: list of indices and inclusive ranges ([1, 5:7]), or [maxlen, count] with -r")
	fset.BoolVar(&cli.Random, "r", cli.Random, "draw random clusters of dropped packets")
	fset.Uint64Var(&cli.Seed, "seed", cli.Seed, "seed of the random drops")
	fset.IntVar(&cli.Beamlets, "b", cli.Beamlets, "number of beamlets")
	fset.IntVar(&cli.Clock, "c", cli.Clock, "station clock in MHz (160 or 200)")
	fset.IntVar(&cli.BitMode, "l", cli.BitMode, "bits per sample (4, 8 or 16)")
	fset.Int64Var(&cli.Time, "t", cli.Time, "initial unix timestamp (0: now)")
	fset.IntVar(&cli.Buffer, "w", cli.Buffer, "number of packets buffered between writes")
	fset.StringVar(&cli.Generator, "g", cli.Generator, fmt.Sprintf("payload generator %q", gen.GeneratorNames()))
	fset.StringVar(&cli.Output, "o", cli.Output, "path to the primary output file")
	fset.StringVar(&cli.Format, "fmt", cli.Format, "output format (raw or pcap)")
	fset.IntVar(&cli.Port, "port", cli.Port, "station port of the pcap datagrams, with -ports=1")
	fset.BoolVar(&cli.Reference, "e", cli.Reference, "also generate a reference file with dropped packets replayed")
	fset.BoolVar(&cli.Zero, "z", cli.Zero, "replay dropped packets with zeros instead of the last payload")

	fset.Usage = func() {
		fmt.Printf(`Usage: cep-gen [OPTIONS]

ex:
 $> cep-gen -n 1024 -d "[10, 20:25]" -e -o ./out.raw
 $> cep-gen -n 100000 -r -d "[16, 20]" -seed 42 -e -z -o ./out.raw
 $> cep-gen -cfg ./plan.yaml -ports 4 -fmt pcap -o ./out.pcap

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if *vers {
		v, sum := cep.Version()
		fmt.Printf("cep-gen %s %s\n", v, sum)
		return
	}

	if fset.NArg() != 0 {
		fset.Usage()
		msg.Fatalf("unexpected arguments %q", fset.Args())
	}

	plan, err := planFrom(fset, cli, *cfg)
	if err != nil {
		msg.Fatalf("could not create generation plan: %+v", err)
	}

	if *logf != "" {
		rotator := &lumberjack.Logger{
			Filename:   *logf,
			MaxSize:    10, // MB
			MaxBackups: 3,
		}
		defer rotator.Close()
		msg.SetOutput(io.MultiWriter(os.Stdout, rotator))
	}

	err = process(msg, plan, *ports, *mfest)
	if err != nil {
		msg.Fatalf("could not generate packets: %+v", err)
	}
}

// planFrom returns the plan loaded from the cfg file, if any, updated
// with the flags explicitly set on the command line.
func planFrom(fset *flag.FlagSet, cli gen.Plan, cfg string) (gen.Plan, error) {
	if cfg == "" {
		return cli, nil
	}

	plan, err := gen.LoadPlan(cfg)
	if err != nil {
		return plan, err
	}

	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "n":
			plan.Packets = cli.Packets
		case "d":
			plan.Drops = cli.Drops
		case "r":
			plan.Random = cli.Random
		case "seed":
			plan.Seed = cli.Seed
		case "b":
			plan.Beamlets = cli.Beamlets
		case "c":
			plan.Clock = cli.Clock
		case "l":
			plan.BitMode = cli.BitMode
		case "t":
			plan.Time = cli.Time
		case "w":
			plan.Buffer = cli.Buffer
		case "g":
			plan.Generator = cli.Generator
		case "o":
			plan.Output = cli.Output
		case "fmt":
			plan.Format = cli.Format
		case "port":
			plan.Port = cli.Port
		case "e":
			plan.Reference = cli.Reference
		case "z":
			plan.Zero = cli.Zero
		}
	})
	return plan, nil
}

func process(msg *log.Logger, plan gen.Plan, ports int, manifest bool) error {
	if ports < 1 || ports > xpcap.MaxPorts {
		return fmt.Errorf("invalid number of ports %d (want 1 to %d)", ports, xpcap.MaxPorts)
	}

	if plan.Time == 0 {
		// same initial timestamp for all ports.
		cfg, err := plan.Config()
		if err != nil {
			return fmt.Errorf("invalid generation plan: %w", err)
		}
		plan.Time = int64(cfg.Timestamp)
	}

	if ports == 1 {
		return generate(msg, plan, manifest)
	}

	var grp errgroup.Group
	for i := 0; i < ports; i++ {
		var (
			port = i
			p    = plan
			out  = log.New(msg.Writer(), fmt.Sprintf("%sport-%d: ", msg.Prefix(), port), msg.Flags())
		)
		p.Output = outFileFrom(plan.Output, port)
		p.Port = port
		p.Seed = plan.Seed + uint64(port)
		grp.Go(func() error {
			err := generate(out, p, manifest)
			if err != nil {
				return fmt.Errorf("port %d: %w", port, err)
			}
			return nil
		})
	}
	return grp.Wait()
}

func generate(msg *log.Logger, plan gen.Plan, manifest bool) error {
	out, err := gen.Run(plan, msg)
	if err != nil {
		return err
	}

	if !manifest {
		return nil
	}

	version, _ := cep.Version()
	m, err := gen.NewManifest(plan, out, version)
	if err != nil {
		return fmt.Errorf("could not create manifest: %w", err)
	}

	fname := gen.ManifestName(plan.Output)
	err = m.WriteFile(fname)
	if err != nil {
		return fmt.Errorf("could not write manifest: %w", err)
	}
	msg.Printf("manifest:  %q (run %s)", fname, m.RunID)
	return nil
}

func outFileFrom(fname string, port int) string {
	var (
		dir  = filepath.Dir(fname)
		base = filepath.Base(fname)
		ext  = filepath.Ext(base)
		name = strings.TrimSuffix(base, ext) + fmt.Sprintf("-%03d%s", port, ext)
	)
	return filepath.Join(dir, name)
}
