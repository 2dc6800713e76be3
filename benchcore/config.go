// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchcore is the analyzer: it combines the sample, outlier,
// regression, and bootstrap layers (packages benchmath and bootstrap)
// with the measurement driver (benchrun) and the baseline store
// (benchstore) to compute a benchmark's absolute and (when a baseline
// exists) relative statistics, classify the result, and persist it.
package benchcore

import (
	"errors"
	"fmt"

	"github.com/go-bench/benchkit/benchrun"
)

// ErrConfigOutOfRange is returned by Config.Validate for any field
// outside its documented domain.
var ErrConfigOutOfRange = errors.New("benchcore: config field out of range")

// Config recognizes the options spec.md §3 documents, each with a
// testable effect on measurement or analysis. It is validated once at
// construction time, mirroring benchmath.Thresholds/DefaultThresholds:
// extend it by adding fields, not by versioning the type.
type Config struct {
	// ConfidenceLevel is the width of every reported confidence
	// interval. Must be in (0, 1).
	ConfidenceLevel float64

	// SignificanceLevel is alpha for the t-test used to label a
	// change significant. Must be in (0, 1).
	SignificanceLevel float64

	// NoiseThreshold is the relative-change magnitude below which a
	// significant result is downgraded to "within noise". Must be
	// >= 0.
	NoiseThreshold float64

	// NResamples is the bootstrap replicate count R. Must be >= 1.
	// The two-sample bootstrap internally uses ceil(sqrt(R))^2
	// resample pairs (see package bootstrap).
	NResamples int

	// SampleSize is the number of measurement batches to collect.
	// Must be >= 10.
	SampleSize int

	// WarmUpTime and MeasurementTime are target phase durations in
	// nanoseconds. WarmUpTime must be > 0. MeasurementTime must be
	// > 0 (math.MaxFloat64 passes validation; since the schedule's
	// per-batch step grows with MeasurementTime, it then produces
	// extremely large batch iteration counts).
	WarmUpTime      float64
	MeasurementTime float64

	// QuickMode stops measurement once the slope CI half-width
	// relative to its point estimate falls at or below
	// SignificanceLevel, rather than always collecting SampleSize
	// batches.
	QuickMode bool
}

// DefaultConfig contains reasonable defaults, analogous to
// benchmath.DefaultThresholds.
var DefaultConfig = Config{
	ConfidenceLevel:   0.95,
	SignificanceLevel: 0.05,
	NoiseThreshold:    0.01,
	NResamples:        100_000,
	SampleSize:        100,
	WarmUpTime:        3e9,
	MeasurementTime:   5e9,
	QuickMode:         false,
}

// Validate rejects any field outside its documented domain. Per
// spec.md's open-question resolution, SampleSize < 10 is rejected here
// rather than silently bumped.
func (c Config) Validate() error {
	switch {
	case !(c.ConfidenceLevel > 0 && c.ConfidenceLevel < 1):
		return fmt.Errorf("%w: confidence_level = %v, want (0, 1)", ErrConfigOutOfRange, c.ConfidenceLevel)
	case !(c.SignificanceLevel > 0 && c.SignificanceLevel < 1):
		return fmt.Errorf("%w: significance_level = %v, want (0, 1)", ErrConfigOutOfRange, c.SignificanceLevel)
	case c.NoiseThreshold < 0:
		return fmt.Errorf("%w: noise_threshold = %v, want >= 0", ErrConfigOutOfRange, c.NoiseThreshold)
	case c.NResamples < 1:
		return fmt.Errorf("%w: nresamples = %v, want >= 1", ErrConfigOutOfRange, c.NResamples)
	case c.SampleSize < 10:
		return fmt.Errorf("%w: sample_size = %v, want >= 10", ErrConfigOutOfRange, c.SampleSize)
	case c.WarmUpTime <= 0:
		return fmt.Errorf("%w: warm_up_time = %v, want > 0", ErrConfigOutOfRange, c.WarmUpTime)
	case c.MeasurementTime <= 0:
		return fmt.Errorf("%w: measurement_time = %v, want > 0", ErrConfigOutOfRange, c.MeasurementTime)
	}
	return nil
}

// Clone returns a copy of c, for per-group overrides (see
// SPEC_FULL.md §13).
func (c Config) Clone() Config { return c }

// Override returns a copy of c with fn applied, letting a benchmark
// group narrow the ambient config for one of its members without
// mutating the shared value.
func (c Config) Override(fn func(*Config)) Config {
	cp := c.Clone()
	fn(&cp)
	return cp
}

// Schedule projects the measurement-relevant fields of c into a
// benchrun.Schedule.
func (c Config) Schedule() benchrun.Schedule {
	return benchrun.Schedule{
		WarmUpTime:         c.WarmUpTime,
		MeasurementTime:    c.MeasurementTime,
		SampleSize:         c.SampleSize,
		QuickMode:          c.QuickMode,
		QuickModeThreshold: c.SignificanceLevel,
	}
}
