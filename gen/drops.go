// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-lpc/cep/udp"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// DropSet is the sorted set of logical packet indices omitted from a
// primary stream.
type DropSet struct {
	idx []int
}

// NewDropSet creates a drop set for a stream of n packets.
// Duplicate indices coalesce.
func NewDropSet(n int, indices ...int) (DropSet, error) {
	set := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i < 0 || i >= n {
			return DropSet{}, fmt.Errorf(
				"gen: dropped packet index %d out of range [0, %d): %w",
				i, n, udp.ErrConfig,
			)
		}
		set[i] = struct{}{}
	}
	return dropSetFrom(set), nil
}

func dropSetFrom(set map[int]struct{}) DropSet {
	if len(set) == 0 {
		return DropSet{}
	}
	idx := make([]int, 0, len(set))
	for i := range set {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return DropSet{idx: idx}
}

// Len returns the number of dropped packets.
func (ds DropSet) Len() int { return len(ds.idx) }

// Has returns whether packet i is dropped.
func (ds DropSet) Has(i int) bool {
	j := sort.SearchInts(ds.idx, i)
	return j < len(ds.idx) && ds.idx[j] == i
}

// Indices returns the sorted dropped indices.
func (ds DropSet) Indices() []int {
	if len(ds.idx) == 0 {
		return nil
	}
	return append([]int(nil), ds.idx...)
}

// ResolveDrops computes the drop set of a stream of n packets from a
// drop specification.
// In explicit mode, expr lists indices and inclusive ranges (see ParseDrops).
// In random mode, expr holds exactly two integers, the maximum cluster
// length and the number of clusters (see RandomDrops).
func ResolveDrops(expr string, random bool, n int, src rand.Source) (DropSet, error) {
	if !random {
		return ParseDrops(expr, n)
	}

	spans, err := parseSpans(expr)
	if err != nil {
		return DropSet{}, err
	}
	params := make([]int, 0, len(spans))
	for _, sp := range spans {
		if sp.beg != sp.end {
			return DropSet{}, fmt.Errorf(
				"gen: random drops parameters must be integers (got range %d:%d): %w",
				sp.beg, sp.end, udp.ErrConfig,
			)
		}
		params = append(params, sp.beg)
	}
	return RandomDrops(params, n, src)
}

// ParseDrops parses an explicit drop specification for a stream of
// n packets.
// The specification is a comma separated list, optionally enclosed in
// brackets, of indices (5) and inclusive ranges (3:7).
// Indices and range bounds are checked against [0, n) before any range
// is expanded.
func ParseDrops(expr string, n int) (DropSet, error) {
	spans, err := parseSpans(expr)
	if err != nil {
		return DropSet{}, err
	}

	for _, sp := range spans {
		switch {
		case sp.beg == sp.end && (sp.beg < 0 || sp.beg >= n):
			return DropSet{}, fmt.Errorf(
				"gen: dropped packet index %d out of range [0, %d): %w",
				sp.beg, n, udp.ErrConfig,
			)
		case sp.beg < 0 || sp.end >= n:
			return DropSet{}, fmt.Errorf(
				"gen: dropped packets range %d:%d out of range [0, %d): %w",
				sp.beg, sp.end, n, udp.ErrConfig,
			)
		}
	}

	set := make(map[int]struct{})
	for _, sp := range spans {
		for i := sp.beg; i <= sp.end; i++ {
			set[i] = struct{}{}
		}
	}
	return dropSetFrom(set), nil
}

// span is a range of packet indices: [beg, end] when parsed from a drop
// expression, [beg, end) for random clusters.
type span struct {
	beg, end int
}

func parseSpans(expr string) ([]span, error) {
	expr = strings.TrimSpace(expr)
	expr = strings.TrimPrefix(expr, "[")
	expr = strings.TrimSuffix(expr, "]")
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}

	var spans []span
	for _, tok := range strings.Split(expr, ",") {
		tok = strings.TrimSpace(tok)
		if !strings.Contains(tok, ":") {
			v, err := parseIndex(tok)
			if err != nil {
				return nil, err
			}
			spans = append(spans, span{v, v})
			continue
		}

		toks := strings.Split(tok, ":")
		if len(toks) != 2 {
			return nil, fmt.Errorf("gen: invalid drop range %q: %w", tok, udp.ErrConfig)
		}
		beg, err := parseIndex(toks[0])
		if err != nil {
			return nil, err
		}
		end, err := parseIndex(toks[1])
		if err != nil {
			return nil, err
		}
		if beg > end {
			return nil, fmt.Errorf("gen: invalid drop range %q (%d > %d): %w",
				tok, beg, end, udp.ErrConfig,
			)
		}
		spans = append(spans, span{beg, end})
	}
	return spans, nil
}

func parseIndex(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("gen: invalid drop index %q: %w", s, udp.ErrConfig)
	}
	return v, nil
}

// RandomDrops generates a drop set of clusters for a stream of n packets.
// params holds the maximum cluster length and the number of clusters.
// Cluster starts are drawn uniformly from [0, n) and cluster lengths
// from [0, maxLen). Overlapping clusters coalesce and clusters are
// clipped to the stream.
// The number of clusters may not exceed n.
func RandomDrops(params []int, n int, src rand.Source) (DropSet, error) {
	if len(params) != 2 {
		return DropSet{}, fmt.Errorf(
			"gen: random drops need 2 parameters (max cluster length, cluster count), got %d: %w",
			len(params), udp.ErrConfig,
		)
	}
	maxLen, count := params[0], params[1]
	switch {
	case maxLen < 1:
		return DropSet{}, fmt.Errorf("gen: invalid max cluster length %d: %w", maxLen, udp.ErrConfig)
	case count < 0:
		return DropSet{}, fmt.Errorf("gen: invalid cluster count %d: %w", count, udp.ErrConfig)
	case n <= 0:
		return DropSet{}, fmt.Errorf("gen: invalid number of packets %d: %w", n, udp.ErrConfig)
	case count > n:
		return DropSet{}, fmt.Errorf(
			"gen: cluster count %d exceeds the number of packets %d: %w",
			count, n, udp.ErrConfig,
		)
	}

	var (
		ustart = distuv.Uniform{Min: 0, Max: float64(n), Src: src}
		ulen   = distuv.Uniform{Min: 0, Max: float64(maxLen), Src: src}
		starts = make([]int, count)
		lens   = make([]int, count)
	)
	for i := range starts {
		starts[i] = int(ustart.Rand())
	}
	for i := range lens {
		lens[i] = int(ulen.Rand())
	}

	// clusters are clipped to the stream, then merged.
	spans := make([]span, 0, count)
	for i, beg := range starts {
		end := n
		if lens[i] < n-beg {
			end = beg + lens[i]
		}
		if end > beg {
			spans = append(spans, span{beg, end})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].beg < spans[j].beg })

	var (
		idx  []int
		next = 0 // first index not yet dropped
	)
	for _, sp := range spans {
		beg := sp.beg
		if beg < next {
			beg = next
		}
		for i := beg; i < sp.end; i++ {
			idx = append(idx, i)
		}
		if sp.end > next {
			next = sp.end
		}
	}

	return DropSet{idx: idx}, nil
}
