// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootstrap

import (
	"context"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// A Statistic evaluates a fixed-arity tuple of floats from one resample,
// given as a set of indices into the source population.
type Statistic func(idx []int) []float64

// A PairStatistic is a Statistic specialized for two-sample comparisons:
// it is given independent index resamples of each source population.
type PairStatistic func(idxA, idxB []int) []float64

// Distributions holds R evaluations of a tuple statistic: Distributions[k]
// is the bootstrap distribution of the k-th tuple component, of length R.
// The order of replicates within a distribution is unspecified; every
// consumer must treat it as a multiset.
type Distributions [][]float64

// Options configures a bootstrap run.
type Options struct {
	// Resamples is R, the number of bootstrap replicates to draw.
	Resamples int
	// Parallel enables the data-parallel fork-join path across
	// GOMAXPROCS workers. When false, resamples are drawn and
	// evaluated sequentially on the calling goroutine.
	Parallel bool
}

func numWorkers(parallel bool, work int) int {
	if !parallel {
		return 1
	}
	n := runtime.GOMAXPROCS(0)
	if n > work {
		n = work
	}
	if n < 1 {
		n = 1
	}
	return n
}

// OneSample draws opts.Resamples index resamples of length n and
// evaluates stat on each, returning the resulting tuple of distributions.
func OneSample(n int, opts Options, stat Statistic) Distributions {
	r := opts.Resamples
	workers := numWorkers(opts.Parallel, r)
	if workers <= 1 {
		res := NewResampler(n)
		return runSequential(r, func(i int) []float64 {
			return stat(res.Next())
		})
	}
	return runParallel(r, workers, func(workerShare int) func(i int) []float64 {
		res := NewResampler(n)
		return func(i int) []float64 { return stat(res.Next()) }
	})
}

// TwoSample implements the spec's two-sample bootstrap: let
// S = ceil(sqrt(R)); draw S resamples of A and, for each, S resamples of
// B, evaluating stat on each of the resulting S^2 pairs. This achieves
// the same marginal variance as R independent pairs for a fraction of
// the RNG cost.
func TwoSample(n1, n2 int, opts Options, stat PairStatistic) Distributions {
	s := int(math.Ceil(math.Sqrt(float64(opts.Resamples))))
	total := s * s
	workers := numWorkers(opts.Parallel, total)

	evalGrid := func(resA, resB *Resampler) Distributions {
		var out Distributions
		for i := 0; i < s; i++ {
			a := append([]int(nil), resA.Next()...)
			for j := 0; j < s; j++ {
				b := resB.Next()
				tuple := stat(a, b)
				out = appendTuple(out, tuple)
			}
		}
		return out
	}

	if workers <= 1 {
		return evalGrid(NewResampler(n1), NewResampler(n2))
	}

	// Partition the S outer draws of A across workers; each worker
	// redraws its own full inner loop over B with its own resampler,
	// so there's no shared mutable state.
	parts := partitionRange(s, workers)
	results := make([]Distributions, workers)
	g, _ := errgroup.WithContext(context.Background())
	for w, part := range parts {
		w, part := w, part
		g.Go(func() error {
			resA := NewResampler(n1)
			resB := NewResampler(n2)
			var out Distributions
			for i := part.lo; i < part.hi; i++ {
				a := append([]int(nil), resA.Next()...)
				for j := 0; j < s; j++ {
					b := resB.Next()
					tuple := stat(a, b)
					out = appendTuple(out, tuple)
				}
			}
			results[w] = out
			return nil
		})
	}
	_ = g.Wait()
	return mergeDistributions(results)
}

// Mixed builds the null distribution of a two-sample statistic (the
// Welch t-statistic, used exclusively for this) by pooling A and B,
// drawing R resamples of the pool, and for each resample splitting the
// first len(A) elements back into a synthetic "A" and the rest into a
// synthetic "B".
func Mixed(poolA, poolB []float64, opts Options, stat func(a, b []float64) float64) []float64 {
	n1, n2 := len(poolA), len(poolB)
	pool := make([]float64, 0, n1+n2)
	pool = append(pool, poolA...)
	pool = append(pool, poolB...)
	n := len(pool)

	workers := numWorkers(opts.Parallel, opts.Resamples)
	eval := func(r int) float64 {
		res := NewResampler(n)
		idx := res.Next()
		a := make([]float64, n1)
		b := make([]float64, n2)
		for i := 0; i < n1; i++ {
			a[i] = pool[idx[i]]
		}
		for i := 0; i < n2; i++ {
			b[i] = pool[idx[n1+i]]
		}
		return stat(a, b)
	}

	if workers <= 1 {
		out := make([]float64, opts.Resamples)
		for i := range out {
			out[i] = eval(i)
		}
		return out
	}

	parts := partitionRange(opts.Resamples, workers)
	results := make([][]float64, workers)
	g, _ := errgroup.WithContext(context.Background())
	for w, part := range parts {
		w, part := w, part
		g.Go(func() error {
			res := NewResampler(n)
			local := make([]float64, 0, part.hi-part.lo)
			for i := part.lo; i < part.hi; i++ {
				idx := res.Next()
				a := make([]float64, n1)
				b := make([]float64, n2)
				for k := 0; k < n1; k++ {
					a[k] = pool[idx[k]]
				}
				for k := 0; k < n2; k++ {
					b[k] = pool[idx[n1+k]]
				}
				local = append(local, stat(a, b))
			}
			results[w] = local
			return nil
		})
	}
	_ = g.Wait()
	var out []float64
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

// ConfidenceInterval returns the percentile-method [lower, upper] bounds
// of dist at the given confidence level (0 < level < 1): lower is the
// (1-level)/2 percentile and upper is the (1+level)/2 percentile.
func ConfidenceInterval(dist []float64, level float64) (lower, upper float64) {
	sorted := append([]float64(nil), dist...)
	sort.Float64s(sorted)
	lowerP := (1 - level) / 2 * 100
	upperP := (1 + level) / 2 * 100
	return percentile(sorted, lowerP), percentile(sorted, upperP)
}

// PValue returns the fraction of replicates in dist at least as extreme
// as observed. For a two-tailed test it is twice the smaller of the two
// tail fractions, capped at 1.
func PValue(dist []float64, observed float64, twoTailed bool) float64 {
	n := float64(len(dist))
	if n == 0 {
		return 1
	}
	var below, above int
	for _, v := range dist {
		if v <= observed {
			below++
		}
		if v >= observed {
			above++
		}
	}
	if !twoTailed {
		return float64(above) / n
	}
	p := 2 * math.Min(float64(below), float64(above)) / n
	if p > 1 {
		p = 1
	}
	return p
}

func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	idx := p * float64(n-1) / 100
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if hi > n-1 {
		hi = n - 1
	}
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func appendTuple(d Distributions, tuple []float64) Distributions {
	if d == nil {
		d = make(Distributions, len(tuple))
	}
	for k, v := range tuple {
		d[k] = append(d[k], v)
	}
	return d
}

func mergeDistributions(parts []Distributions) Distributions {
	var out Distributions
	for _, p := range parts {
		if out == nil {
			out = make(Distributions, len(p))
		}
		for k := range p {
			out[k] = append(out[k], p[k]...)
		}
	}
	return out
}

type rangePart struct{ lo, hi int }

// partitionRange splits [0, n) into at most workers contiguous,
// near-equal parts.
func partitionRange(n, workers int) []rangePart {
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	base := n / workers
	rem := n % workers
	parts := make([]rangePart, 0, workers)
	lo := 0
	for w := 0; w < workers; w++ {
		size := base
		if w < rem {
			size++
		}
		hi := lo + size
		if size > 0 {
			parts = append(parts, rangePart{lo, hi})
		}
		lo = hi
	}
	return parts
}

// runSequential evaluates f(0..n) on the calling goroutine and merges
// the tuple results into Distributions.
func runSequential(n int, f func(i int) []float64) Distributions {
	var out Distributions
	for i := 0; i < n; i++ {
		out = appendTuple(out, f(i))
	}
	return out
}

// runParallel partitions n calls to f across workers worker goroutines.
// mk is called once per worker to build a worker-local evaluator (so
// each worker gets its own Resampler); its int argument is unused by
// callers in this package but kept for symmetry with runSequential.
func runParallel(n, workers int, mk func(workerShare int) func(i int) []float64) Distributions {
	parts := partitionRange(n, workers)
	results := make([]Distributions, len(parts))
	g, _ := errgroup.WithContext(context.Background())
	for w, part := range parts {
		w, part := w, part
		g.Go(func() error {
			f := mk(part.hi - part.lo)
			var local Distributions
			for i := part.lo; i < part.hi; i++ {
				local = appendTuple(local, f(i))
			}
			results[w] = local
			return nil
		})
	}
	_ = g.Wait()
	return mergeDistributions(results)
}
