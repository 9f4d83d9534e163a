// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-lpc/cep/udp"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Manifest describes the files produced by a run, so fixtures can be
// traced back to the plan that generated them.
type Manifest struct {
	RunID   string    `yaml:"run_id"`
	Version string    `yaml:"version,omitempty"`
	Created time.Time `yaml:"created"`
	Plan    Plan      `yaml:"plan"`
	Drops   []int     `yaml:"drops,flow"`
	Files   []File    `yaml:"files"`
}

// File describes one output file of a run.
type File struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"` // primary or reference
	Packets int64  `yaml:"packets"`
	Replays int64  `yaml:"replays"`
	Size    int64  `yaml:"size"`
	SHA256  string `yaml:"sha256"`
}

// NewManifest builds the manifest of a completed run from the digests
// of its output files.
func NewManifest(plan Plan, out Outputs, version string) (Manifest, error) {
	m := Manifest{
		RunID:   uuid.NewString(),
		Version: version,
		Created: time.Now().UTC(),
		Plan:    plan,
		Drops:   out.Drops.Indices(),
	}

	for _, f := range []struct {
		name   string
		kind   string
		stats  Stats
		digest Digest
	}{
		{out.Primary, "primary", out.Result.Primary, out.PrimaryDigest},
		{out.Reference, "reference", out.Result.Reference, out.ReferenceDigest},
	} {
		if f.name == "" {
			continue
		}
		if f.digest.SHA256 == "" {
			return m, fmt.Errorf("gen: no digest for output file %q", f.name)
		}
		m.Files = append(m.Files, File{
			Name:    filepath.Base(f.name),
			Kind:    f.kind,
			Packets: f.stats.Packets,
			Replays: f.stats.Replays,
			Size:    f.digest.Size,
			SHA256:  f.digest.SHA256,
		})
	}
	return m, nil
}

// WriteFile writes the manifest as YAML. Existing files are not
// overwritten.
func (m Manifest) WriteFile(fname string) error {
	raw, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("gen: could not encode manifest: %w", err)
	}

	f, err := Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(raw)
	if err != nil {
		return fmt.Errorf("gen: could not write manifest %q: %w: %w", fname, udp.ErrIO, err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("gen: could not close manifest %q: %w: %w", fname, udp.ErrIO, err)
	}
	return nil
}

// ReadManifest reads a YAML manifest.
func ReadManifest(fname string) (Manifest, error) {
	var m Manifest
	raw, err := os.ReadFile(fname)
	if err != nil {
		return m, fmt.Errorf("gen: could not read manifest: %w", err)
	}
	err = yaml.Unmarshal(raw, &m)
	if err != nil {
		return m, fmt.Errorf("gen: could not decode manifest %q: %w", fname, err)
	}
	return m, nil
}

// ManifestName returns the name of the manifest of the primary output
// file fname.
func ManifestName(fname string) string {
	var (
		ext  = filepath.Ext(fname)
		stem = strings.TrimSuffix(fname, ext)
	)
	return stem + ".manifest.yaml"
}
