// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gen generates synthetic streams of LOFAR CEP packets,
// with simulated packet loss, to be used as decoder test fixtures.
package gen // import "github.com/go-lpc/cep/gen"

import (
	"fmt"

	"github.com/go-lpc/cep/udp"
)

// Policy selects how dropped packets are replayed in a reference stream.
type Policy uint8

const (
	RepeatLast Policy = iota // replay the last generated payload
	ZeroFill                 // replay an all-zero payload
)

func (p Policy) String() string {
	switch p {
	case RepeatLast:
		return "repeat-last"
	case ZeroFill:
		return "zero-fill"
	}
	return fmt.Sprintf("Policy(%d)", uint8(p))
}

// Epoch is the default initial timestamp of generated streams
// (2008-01-01, the earliest timestamp station readers accept).
const Epoch = 1199145600

// Config describes a generation run.
type Config struct {
	Packets     int // number of logical packets, dropped ones included
	BitMode     udp.BitMode
	Beamlets    int
	Clock       udp.Clock
	Timestamp   int32 // timestamp of the first logical packet
	BufferDepth int   // number of packets buffered between flushes
	Generator   Generator
	Reference   bool // whether to generate a reference stream
	Policy      Policy
}

// Option configures a generation run.
type Option func(cfg *Config)

// NewConfig returns a configuration with the default station settings
// (8-bit, 122 beamlets, 200MHz), modified by the provided options.
func NewConfig(opts ...Option) Config {
	cfg := Config{
		Packets:     128,
		BitMode:     udp.BitMode8,
		Beamlets:    122,
		Clock:       udp.Clock200,
		Timestamp:   Epoch,
		BufferDepth: 10000,
		Generator:   Structured{},
		Policy:      RepeatLast,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func WithPackets(n int) Option {
	return func(cfg *Config) {
		cfg.Packets = n
	}
}

func WithBitMode(bm udp.BitMode) Option {
	return func(cfg *Config) {
		cfg.BitMode = bm
	}
}

func WithBeamlets(n int) Option {
	return func(cfg *Config) {
		cfg.Beamlets = n
	}
}

func WithClock(clk udp.Clock) Option {
	return func(cfg *Config) {
		cfg.Clock = clk
	}
}

func WithTimestamp(ts int32) Option {
	return func(cfg *Config) {
		cfg.Timestamp = ts
	}
}

func WithBufferDepth(n int) Option {
	return func(cfg *Config) {
		cfg.BufferDepth = n
	}
}

func WithGenerator(g Generator) Option {
	return func(cfg *Config) {
		cfg.Generator = g
	}
}

// WithReference enables the generation of a reference stream where
// dropped packets are replayed according to the policy.
func WithReference(p Policy) Option {
	return func(cfg *Config) {
		cfg.Reference = true
		cfg.Policy = p
	}
}

// Validate checks the configuration describes a stream that can be encoded.
func (cfg Config) Validate() error {
	if cfg.Packets <= 0 {
		return fmt.Errorf("gen: invalid number of packets %d: %w", cfg.Packets, udp.ErrConfig)
	}
	if cfg.BufferDepth <= 0 {
		return fmt.Errorf("gen: invalid buffer depth %d: %w", cfg.BufferDepth, udp.ErrConfig)
	}
	if cfg.Generator == nil {
		return fmt.Errorf("gen: no payload generator: %w", udp.ErrConfig)
	}
	switch cfg.Policy {
	case RepeatLast, ZeroFill:
	default:
		return fmt.Errorf("gen: invalid replay policy %v: %w", cfg.Policy, udp.ErrConfig)
	}
	_, err := udp.SourceBytes(cfg.BitMode, cfg.Clock, cfg.Beamlets, false)
	if err != nil {
		return fmt.Errorf("gen: invalid packet layout: %w", err)
	}
	return nil
}

// PacketLen returns the size in bytes of the packets of the stream.
func (cfg Config) PacketLen() int {
	return udp.PacketLen(cfg.Beamlets)
}
