// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchrun

import (
	"errors"
	"math"

	"github.com/go-bench/benchkit/benchid"
	"github.com/go-bench/benchkit/benchmath"
	"github.com/go-bench/benchkit/bootstrap"
)

// ErrRoutineDidNotIterate is a fatal programmer error: the benched
// routine returned without calling any of the Bencher's Iter* methods.
var ErrRoutineDidNotIterate = errors.New("benchrun: routine never called an Iter method on its Bencher")

// ErrClockNonMonotonic is a fatal error raised when the platform clock
// reports a zero or negative elapsed time for a batch and again for its
// one retry (see retryIfZero below).
var ErrClockNonMonotonic = errors.New("benchrun: platform clock stepped backward across a retried batch")

// Schedule configures the warm-up and measurement phases.
type Schedule struct {
	// WarmUpTime is the minimum wall-clock duration (nanoseconds) of
	// the warm-up phase. Warm-up is a floor, not a target: it runs at
	// least this long, possibly one batch more.
	WarmUpTime float64

	// MeasurementTime is the target wall-clock duration (nanoseconds)
	// of the measurement phase. It is a target, not a hard deadline:
	// the schedule is sized to approximate it, but the driver does
	// not abort a running batch to stay under it.
	MeasurementTime float64

	// SampleSize is N, the number of measurement batches to collect
	// (in the absence of quick-mode early termination). Must be >= 10.
	SampleSize int

	// QuickMode, if true, stops measuring once at least 10 batches
	// have been collected and the slope's bootstrap CI half-width
	// relative to its point estimate falls at or below
	// QuickModeThreshold.
	QuickMode          bool
	QuickModeThreshold float64 // typically the configured significance_level
}

// Driver runs the warm-up and measurement phases for one benchmark,
// strictly on the calling goroutine: the benched routine always runs on
// the thread that controls the clock, so the harness introduces no
// scheduling interference of its own.
type Driver struct {
	clock Clock

	// Reporter receives the BenchmarkStart, WarmUp, and MeasurementStart
	// phase-boundary events as the driver reaches them. Optional; nil
	// means silent.
	Reporter Reporter
}

// NewDriver returns a Driver using the platform's monotonic clock.
func NewDriver() *Driver {
	return &Driver{clock: DefaultClock}
}

// NewDriverWithClock returns a Driver using an explicit Clock, primarily
// for tests that need deterministic timing.
func NewDriverWithClock(clock Clock) *Driver {
	return &Driver{clock: clock}
}

// reporter returns d.Reporter, or a no-op sink if none was configured.
func (d *Driver) reporter() Reporter {
	if d.Reporter != nil {
		return d.Reporter
	}
	return NopReporter{}
}

// WarmUp grows the iteration count starting at 1, doubling after every
// batch, until the cumulative elapsed wall time exceeds sched.WarmUpTime.
// It returns the last batch's elapsed time and iteration count, which
// calibrate the measurement schedule; the warm-up measurements
// themselves are discarded. It fires BenchmarkStart on entry and WarmUp
// once the phase completes, per spec.md §6's reporter event order.
func (d *Driver) WarmUp(id benchid.ID, routine Routine, input any, sched Schedule) (elapsedLastBatch float64, itersLastBatch uint64, err error) {
	d.reporter().BenchmarkStart(id)

	iters := uint64(1)
	var cumulative float64
	for {
		b := newBencher(d.clock, iters)
		routine(b, input)
		if !b.called {
			return 0, 0, ErrRoutineDidNotIterate
		}
		elapsed, err := retryIfZero(d, routine, input, b)
		if err != nil {
			return 0, 0, err
		}
		cumulative += elapsed
		if cumulative > sched.WarmUpTime {
			d.reporter().WarmUp(id, sched.WarmUpTime)
			return elapsed, iters, nil
		}
		iters *= 2
	}
}

// retryIfZero handles the "clock reports zero elapsed for a whole
// batch" edge case (spec open question: fatal after one retry). It
// returns b's elapsed time, retrying the exact same batch size once if
// the first attempt measured zero or less.
func retryIfZero(d *Driver, routine Routine, input any, b *Bencher) (float64, error) {
	if b.Elapsed > 0 {
		return b.Elapsed, nil
	}
	retry := newBencher(d.clock, b.Iters)
	routine(retry, input)
	if !retry.called {
		return 0, ErrRoutineDidNotIterate
	}
	if retry.Elapsed <= 0 {
		return 0, ErrClockNonMonotonic
	}
	return retry.Elapsed, nil
}

// BuildSchedule designs the N-batch arithmetic-progression schedule
// d, 2d, ..., N*d described in spec.md §4.6, from the warm-up's mean
// execution-time estimate.
func BuildSchedule(elapsedLastBatch float64, itersLastBatch uint64, sched Schedule) []uint64 {
	met := elapsedLastBatch / float64(itersLastBatch)
	n := sched.SampleSize
	totalRuns := float64(n) * float64(n+1) / 2
	d := math.Ceil(sched.MeasurementTime / (met * totalRuns))
	if d < 1 {
		d = 1
	}
	batches := make([]uint64, n)
	for i := 0; i < n; i++ {
		batches[i] = uint64(d) * uint64(i+1)
	}
	return batches
}

// RawPairs is the measurement phase's output: one (iters, elapsed) pair
// per collected batch, in the order they were measured.
type RawPairs struct {
	Iters   []float64
	Elapsed []float64
}

// Measure runs routine once per scheduled batch size, recording the
// (iters, elapsed) pair for each. If sched.QuickMode is set, it stops
// early once at least 10 batches are collected and the slope's
// bootstrap CI half-width, relative to the slope point estimate, falls
// at or below sched.QuickModeThreshold. It fires MeasurementStart on
// entry, before the first batch runs.
func (d *Driver) Measure(id benchid.ID, routine Routine, input any, batches []uint64, sched Schedule) (RawPairs, error) {
	var totalIters uint64
	for _, iters := range batches {
		totalIters += iters
	}
	d.reporter().MeasurementStart(id, len(batches), sched.MeasurementTime, totalIters)

	var out RawPairs
	for i, iters := range batches {
		b := newBencher(d.clock, iters)
		routine(b, input)
		if !b.called {
			return RawPairs{}, ErrRoutineDidNotIterate
		}
		elapsed, err := retryIfZero(d, routine, input, b)
		if err != nil {
			return RawPairs{}, err
		}
		out.Iters = append(out.Iters, float64(iters))
		out.Elapsed = append(out.Elapsed, elapsed)

		if sched.QuickMode && i+1 >= 10 && i+1 < len(batches) {
			if quickModeConverged(out, sched.QuickModeThreshold) {
				break
			}
		}
	}
	return out, nil
}

// quickModeConverged bootstraps the slope's confidence interval over
// the batches collected so far and reports whether its relative
// half-width has fallen at or below threshold.
func quickModeConverged(pairs RawPairs, threshold float64) bool {
	reg, err := benchmath.NewRegression(pairs.Iters, pairs.Elapsed)
	if err != nil {
		return false
	}
	point := reg.Slope()
	if point == 0 {
		return false
	}
	stat := benchmath.SlopeStatistic(pairs.Iters, pairs.Elapsed)
	dist := bootstrap.OneSample(len(pairs.Iters), bootstrap.Options{Resamples: 2000}, func(idx []int) []float64 {
		return []float64{stat(idx)}
	})
	lo, hi := bootstrap.ConfidenceInterval(dist[0], 0.95)
	halfWidth := (hi - lo) / 2
	return halfWidth/math.Abs(point) <= threshold
}
