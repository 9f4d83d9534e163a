// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cep holds tools to generate and inspect synthetic LOFAR CEP
// packet streams, used as test fixtures for station data readers.
//
// The udp package encodes and decodes CEP packets, the gen package
// generates (lossy) packet streams and their reference counterparts.
package cep // import "github.com/go-lpc/cep"

import (
	"fmt"
	"runtime/debug"
)

const root = "github.com/go-lpc/cep"

// Version returns the version of cep and its checksum.
// The returned values are only valid in binaries built with module support.
//
// Binaries of this module report the main module version or, for
// development builds, the VCS revision they were built from
// ("devel-<rev>", with a trailing "*" for modified trees).
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return versionOf(b)
}

func versionOf(b *debug.BuildInfo) (version, sum string) {
	if b == nil {
		return "", ""
	}

	if b.Main.Path == root {
		return mainVersion(b)
	}

	for _, m := range b.Deps {
		if m.Path != root {
			continue
		}
		if m.Replace != nil {
			switch {
			case m.Replace.Version != "" && m.Replace.Path != "":
				return fmt.Sprintf("%s %s", m.Replace.Path, m.Replace.Version), m.Replace.Sum
			case m.Replace.Version != "":
				return m.Replace.Version, m.Replace.Sum
			case m.Replace.Path != "":
				return m.Replace.Path, m.Replace.Sum
			default:
				return m.Version + "*", ""
			}
		}
		return m.Version, m.Sum
	}
	return "", ""
}

func mainVersion(b *debug.BuildInfo) (version, sum string) {
	version = b.Main.Version
	if version != "" && version != "(devel)" {
		return version, b.Main.Sum
	}

	var (
		rev   string
		dirty bool
	)
	for _, kv := range b.Settings {
		switch kv.Key {
		case "vcs.revision":
			rev = kv.Value
		case "vcs.modified":
			dirty = kv.Value == "true"
		}
	}
	if rev == "" {
		return version, ""
	}

	const short = 12
	if len(rev) > short {
		rev = rev[:short]
	}
	version = "devel-" + rev
	if dirty {
		version += "*"
	}
	return version, ""
}
