// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchrun drives the warm-up and measurement phases of a
// benchmark, invoking a user-supplied routine and collecting the
// (iters, elapsed_ns) pairs the statistics layer needs, and maintains
// the per-run registry of benchmark identities.
package benchrun

import "time"

// Clock reads a monotonic wall-clock in nanoseconds. Consecutive reads on
// the same goroutine must be non-decreasing; time.Since on a time.Now
// value uses the standard library's monotonic reading and satisfies this
// on every supported platform, so the default Clock wraps it directly.
type Clock interface {
	Now() int64
}

type monotonicClock struct{}

// clockBase is the time.Now reading that monotonicClock measures from.
var clockBase = time.Now()

func (monotonicClock) Now() int64 { return int64(time.Since(clockBase)) }

// DefaultClock is the platform's monotonic wall-clock.
var DefaultClock Clock = monotonicClock{}

// A Bencher is handed to the benched routine. Exactly one of its Iter*
// methods must be called per invocation of the routine; the driver reads
// Iters and Elapsed back out afterward.
type Bencher struct {
	clock Clock

	// Iters is the number of inner iterations the routine was asked
	// to perform for this batch.
	Iters uint64

	// Elapsed is the timed duration of the batch in nanoseconds,
	// populated by whichever Iter* method was called.
	Elapsed float64

	called bool
}

func newBencher(clock Clock, iters uint64) *Bencher {
	return &Bencher{clock: clock, Iters: iters}
}

// Called reports whether one of the Iter* methods has been invoked. The
// driver treats a Bencher that was never called as a fatal programmer
// error (see ErrRoutineDidNotIterate).
func (b *Bencher) Called() bool { return b.called }

// Iter runs f exactly b.Iters times, with the clock started immediately
// before the loop and stopped immediately after. f returns nothing;
// keeping its work from being optimized away is left to f itself, and
// benchrun does not concern itself with how that is achieved.
func (b *Bencher) Iter(f func()) {
	b.called = true
	start := b.clock.Now()
	for i := uint64(0); i < b.Iters; i++ {
		f()
	}
	b.Elapsed = float64(b.clock.Now() - start)
}

// IterWithSetup runs, for each of b.Iters inner iterations, setup()
// followed by routine(input) — both inside the timed region. Use this
// only when the setup cost is part of what's being measured; otherwise
// prefer IterBatched.
func (b *Bencher) IterWithSetup(setup func() any, routine func(input any)) {
	b.called = true
	start := b.clock.Now()
	for i := uint64(0); i < b.Iters; i++ {
		routine(setup())
	}
	b.Elapsed = float64(b.clock.Now() - start)
}

// IterBatched produces b.Iters inputs by calling setup once, entirely
// outside the timed region, then times a single pass of routine
// consuming them.
func (b *Bencher) IterBatched(setup func(batchSize uint64) []any, routine func(inputs []any)) {
	b.called = true
	inputs := setup(b.Iters)
	start := b.clock.Now()
	routine(inputs)
	b.Elapsed = float64(b.clock.Now() - start)
}

// IterWithLargeDrop runs f b.Iters times inside the timed region, but
// defers dropping (releasing) whatever f returns until after the clock
// has stopped, so a routine that allocates large results isn't penalized
// for its teardown cost.
func (b *Bencher) IterWithLargeDrop(f func() any) {
	b.called = true
	results := make([]any, b.Iters)
	start := b.clock.Now()
	for i := uint64(0); i < b.Iters; i++ {
		results[i] = f()
	}
	b.Elapsed = float64(b.clock.Now() - start)
	// Dropped here, outside the timed region.
	for i := range results {
		results[i] = nil
	}
}

// A Routine is the benched routine's ABI: given a Bencher and an input,
// it must call exactly one of the Bencher's Iter* methods.
type Routine func(b *Bencher, input any)

// An AsyncExecutor bridges an async routine to the synchronous driver.
// BlockOn must run future to completion and return its result; the
// driver has no awareness of the scheduling used to do so. Concrete
// adapters belong in an out-of-core sibling package, not here.
type AsyncExecutor interface {
	BlockOn(future func() any) any
}
