// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bootstrap draws resamples (sampling with replacement) from one
// or two samples and drives repeated evaluation of a user statistic over
// those resamples to build bootstrap distributions.
package bootstrap

import (
	crand "crypto/rand"
	"math/rand/v2"
)

// A Resampler produces, on demand, index resamples of a fixed length
// drawn with replacement from [0, n). It recycles one internal buffer
// (the "stage") across calls to Next, so the returned slice's contents
// are only valid until the next call.
//
// A Resampler is not safe for concurrent use; the bootstrap engine gives
// each parallel worker its own Resampler via NewResampler.
type Resampler struct {
	rng   *rand.Rand
	n     int
	stage []int
}

// NewResampler returns a Resampler that draws resamples of length n,
// seeded from an OS-random source. n must be >= 1.
func NewResampler(n int) *Resampler {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		// crypto/rand failing is effectively unrecoverable on any
		// real platform; fall back to a fixed seed rather than
		// propagating an error through every bootstrap call site.
		seed = [32]byte{1}
	}
	src := rand.NewChaCha8(seed)
	return &Resampler{rng: rand.New(src), n: n, stage: make([]int, n)}
}

// Split returns a new Resampler of the same resample length, seeded
// independently (from the OS-random source, not derived from r) so that
// parallel workers never share correlated bootstrap draws.
func (r *Resampler) Split() *Resampler {
	return NewResampler(r.n)
}

// Len returns the resample length (and the size of the source population
// indices are drawn from).
func (r *Resampler) Len() int { return r.n }

// Next draws n indices uniformly from [0, n) with replacement via
// rejection sampling and returns the reused stage buffer.
func (r *Resampler) Next() []int {
	for i := 0; i < r.n; i++ {
		r.stage[i] = r.uniformN()
	}
	return r.stage
}

// uniformN draws a single uniform integer in [0, n) with Rand.Uint64N,
// which rejects out-of-range draws and so avoids modulo bias.
func (r *Resampler) uniformN() int {
	if r.n <= 0 {
		return 0
	}
	return int(r.rng.Uint64N(uint64(r.n)))
}
