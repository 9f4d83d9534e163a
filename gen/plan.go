// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-lpc/cep/udp"
	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatRaw  = "raw"  // concatenated CEP packets
	FormatPCAP = "pcap" // CEP packets in UDP datagrams of a pcap capture
)

// Plan is the user-facing description of a generation run, as read
// from a YAML file or from command-line flags.
type Plan struct {
	Output    string `yaml:"output"`
	Format    string `yaml:"format"`
	Port      int    `yaml:"port"`
	Packets   int    `yaml:"packets"`
	Drops     string `yaml:"drops"`
	Random    bool   `yaml:"random"`
	Seed      uint64 `yaml:"seed"`
	Beamlets  int    `yaml:"beamlets"`
	Clock     int    `yaml:"clock"`
	BitMode   int    `yaml:"bitmode"`
	Time      int64  `yaml:"time"` // initial timestamp; 0 means now
	Buffer    int    `yaml:"buffer"`
	Generator string `yaml:"generator"`
	Reference bool   `yaml:"reference"`
	Zero      bool   `yaml:"zero"`
}

// DefaultPlan returns the plan of a 128 packets, loss-less, 8-bit,
// 122 beamlets, 200MHz stream.
func DefaultPlan() Plan {
	return Plan{
		Output:    "./debug.raw",
		Format:    FormatRaw,
		Packets:   128,
		Drops:     "[]",
		Beamlets:  122,
		Clock:     int(udp.Clock200),
		BitMode:   int(udp.BitMode8),
		Buffer:    10000,
		Generator: "structured",
	}
}

// LoadPlan reads a YAML plan. Fields missing from the file keep
// their DefaultPlan value.
func LoadPlan(fname string) (Plan, error) {
	plan := DefaultPlan()

	f, err := os.Open(fname)
	if err != nil {
		return plan, fmt.Errorf("gen: could not open plan: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	err = dec.Decode(&plan)
	if err != nil {
		return plan, fmt.Errorf("gen: could not decode plan %q: %w: %w", fname, udp.ErrConfig, err)
	}
	return plan, nil
}

// Config returns the generation configuration described by the plan.
func (plan Plan) Config() (Config, error) {
	g, err := GeneratorByName(plan.Generator)
	if err != nil {
		return Config{}, err
	}

	ts := plan.Time
	if ts == 0 {
		ts = time.Now().Unix()
	}
	if ts < math.MinInt32 || ts > math.MaxInt32 {
		return Config{}, fmt.Errorf("gen: initial time %d does not fit a CEP timestamp: %w", ts, udp.ErrConfig)
	}

	if plan.BitMode < 0 || plan.BitMode > math.MaxUint8 {
		return Config{}, fmt.Errorf("gen: invalid bitmode %d: %w", plan.BitMode, udp.ErrConfig)
	}
	if plan.Clock < 0 || plan.Clock > math.MaxUint16 {
		return Config{}, fmt.Errorf("gen: invalid clock %d: %w", plan.Clock, udp.ErrConfig)
	}

	policy := RepeatLast
	if plan.Zero {
		policy = ZeroFill
	}

	cfg := NewConfig(
		WithPackets(plan.Packets),
		WithBitMode(udp.BitMode(plan.BitMode)),
		WithBeamlets(plan.Beamlets),
		WithClock(udp.Clock(plan.Clock)),
		WithTimestamp(int32(ts)),
		WithBufferDepth(plan.Buffer),
		WithGenerator(g),
	)
	if plan.Reference {
		WithReference(policy)(&cfg)
	}

	err = cfg.Validate()
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DropSet resolves the drop specification of the plan.
// Random drop sets are seeded with plan.Seed.
func (plan Plan) DropSet() (DropSet, error) {
	return ResolveDrops(plan.Drops, plan.Random, plan.Packets, rand.NewSource(plan.Seed))
}

func (plan Plan) validFormat() error {
	switch plan.Format {
	case FormatRaw, FormatPCAP:
		return nil
	}
	return fmt.Errorf("gen: invalid output format %q: %w", plan.Format, udp.ErrConfig)
}
