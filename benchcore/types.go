// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchcore

import (
	"github.com/go-bench/benchkit/benchid"
	"github.com/go-bench/benchkit/benchmath"
	"github.com/go-bench/benchkit/benchrun"
)

// An Estimate is a point estimate with its standard error and
// confidence interval. Invariants: Lower <= Point <= Upper and
// 0 < Level < 1.
type Estimate struct {
	Point      float64
	StdError   float64
	Lower      float64
	Upper      float64
	Level      float64
}

// Statistic names the five quantities an Estimate can summarize.
type Statistic int

const (
	Mean Statistic = iota
	Median
	MedianAbsDev
	StdDev
	Slope
)

func (s Statistic) String() string {
	switch s {
	case Mean:
		return "mean"
	case Median:
		return "median"
	case MedianAbsDev:
		return "median_abs_dev"
	case StdDev:
		return "std_dev"
	case Slope:
		return "slope"
	default:
		return "unknown"
	}
}

// Estimates maps each of the five statistics to its Estimate.
type Estimates map[Statistic]Estimate

// ComparisonData is the result of comparing a fresh measurement against
// a stored baseline.
type ComparisonData struct {
	PValue    float64
	TValue    float64

	// RelativeEstimates holds the relative change (new/base - 1) for
	// Mean and Median.
	RelativeEstimates map[Statistic]Estimate

	// RelativeDistributions holds the raw bootstrap distributions
	// backing RelativeEstimates, keyed the same way.
	RelativeDistributions map[Statistic][]float64

	SignificanceThreshold float64
	NoiseThreshold        float64

	BaseIterCounts  []float64
	BaseSampleTimes []float64
	BaseAvgTimes    []float64
	BaseEstimates   Estimates

	// Classification is the five-way verdict from spec.md §4.7.
	Classification Classification
}

// Classification is the five-way verdict of comparing a fresh
// measurement to its baseline.
type Classification int

const (
	NoChangeDetected Classification = iota
	WithinNoise
	Improved
	Regressed
	ChangedUncertainDirection
)

func (c Classification) String() string {
	switch c {
	case NoChangeDetected:
		return "no change detected"
	case WithinNoise:
		return "within noise"
	case Improved:
		return "improved"
	case Regressed:
		return "regressed"
	case ChangedUncertainDirection:
		return "changed but uncertain direction"
	default:
		return "unknown"
	}
}

// MeasurementData is one benchmark's complete new-run payload.
type MeasurementData struct {
	ID benchid.ID

	IterCounts []float64
	SampleTimes []float64
	AvgTimes    []float64

	OutlierLabels []benchmath.OutlierLabel
	OutlierCounts benchmath.OutlierCounts
	Fences        benchmath.Fences

	Estimates    Estimates
	Distributions map[Statistic][]float64

	Throughput *benchid.Throughput

	// Comparison is nil when no baseline existed for this benchmark.
	Comparison *ComparisonData
}

// A Reporter observes the lifecycle of a single benchmark's analysis.
// Events arrive in the order listed in spec.md §6; reporters must not
// mutate the data passed to them. Multiple reporters are fanned out by
// Analyzer, which delivers each of its own events to every entry of its
// Reporters slice in order.
//
// BenchmarkStart, WarmUp, MeasurementStart, and GroupComplete are the
// driver's and registry's own events, embedded from benchrun.Reporter rather than
// redeclared, so that the same interface value satisfies both the
// lower-level packages and this one.
type Reporter interface {
	benchrun.Reporter

	Analysis(id benchid.ID)
	MeasurementComplete(id benchid.ID, data *MeasurementData)
}

// NopReporter implements Reporter with no-op methods, useful as an
// embeddable base for reporters that only care about a subset of events.
type NopReporter struct {
	benchrun.NopReporter
}

func (NopReporter) Analysis(benchid.ID)                              {}
func (NopReporter) MeasurementComplete(benchid.ID, *MeasurementData) {}
