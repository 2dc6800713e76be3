// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchid defines the stable identity of a benchmark and the
// throughput unit attached to its measurements.
package benchid

import (
	"fmt"
	"strings"
)

// An ID identifies one benchmark within a run. At least one of Function
// or Value must be non-empty.
type ID struct {
	Group    string // e.g. the package or suite under test
	Function string // e.g. the benchmarked function's name
	Value    string // e.g. a sub-benchmark parameter such as "size=1024"
}

// Title returns the human-readable form of id. It may contain any Unicode
// text and is never used as a filesystem path component.
func (id ID) Title() string {
	var parts []string
	if id.Group != "" {
		parts = append(parts, id.Group)
	}
	if id.Function != "" {
		parts = append(parts, id.Function)
	}
	if id.Value != "" {
		parts = append(parts, id.Value)
	}
	return strings.Join(parts, "/")
}

// Valid reports whether id carries enough identity to be usable: at least
// one of Function or Value must be set.
func (id ID) Valid() bool {
	return id.Function != "" || id.Value != ""
}

// safeDirChar maps characters that are unsafe or surprising in a
// filesystem path component to an underscore. It is deliberately
// conservative: anything not a letter, digit, dash, underscore, or dot is
// replaced, so the result is safe on Windows, macOS, and Linux alike.
func safeDirChar(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return r
	case r == '-' || r == '_' || r == '.':
		return r
	default:
		return '_'
	}
}

// BaseDirName returns the filesystem-safe projection of id's title, before
// any run-level disambiguation. Two distinct titles may legitimately
// collide on this projection; the registry (see package benchrun) is
// responsible for appending a disambiguating suffix.
func (id ID) BaseDirName() string {
	title := id.Title()
	if title == "" {
		title = "benchmark"
	}
	return strings.Map(safeDirChar, title)
}

// A ThroughputKind names the unit family of a Throughput value.
type ThroughputKind int

const (
	BytesBinary  ThroughputKind = iota // powers of 1024 (KiB, MiB, ...)
	BytesDecimal                       // powers of 1000 (KB, MB, ...)
	Bits
	Elements
)

// Throughput describes how much work one iteration of a benchmark
// performs, for presentation only — it never participates in the
// statistical analysis itself.
type Throughput struct {
	Kind  ThroughputKind
	Count uint64 // non-negative count of units processed per iteration
}

// PerSecond returns the number of Throughput units processed per second,
// given the per-iteration time in nanoseconds (typically the slope
// estimate from benchmath.Regression). It is a pure arithmetic helper;
// turning the result into a formatted string (e.g. "102.4 GB/s") is a
// presentation concern outside the core.
func (t Throughput) PerSecond(nsPerIter float64) float64 {
	if nsPerIter <= 0 {
		return 0
	}
	return float64(t.Count) / (nsPerIter * 1e-9)
}

func (k ThroughputKind) String() string {
	switch k {
	case BytesBinary:
		return "bytes-binary"
	case BytesDecimal:
		return "bytes-decimal"
	case Bits:
		return "bits"
	case Elements:
		return "elements"
	default:
		return fmt.Sprintf("ThroughputKind(%d)", int(k))
	}
}
