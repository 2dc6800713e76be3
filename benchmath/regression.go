// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchmath

import "errors"

// ErrMismatchedLengths is returned by NewRegression when x and y differ in
// length or have fewer than 2 points.
var ErrMismatchedLengths = errors.New("benchmath: regression requires matching x, y slices of length >= 2")

// A Regression fits a zero-intercept line y = m*x through paired
// (iters, elapsed) observations by ordinary least squares. The slope m
// is the harness's preferred per-iteration time estimate: unlike the raw
// mean of y/x, it is robust to a small fixed per-batch overhead that
// would otherwise dominate short-running iterations.
type Regression struct {
	X, Y []float64
}

// NewRegression validates and constructs a Regression over paired
// samples x (iteration counts) and y (elapsed times).
func NewRegression(x, y []float64) (*Regression, error) {
	if len(x) != len(y) || len(x) < 2 {
		return nil, ErrMismatchedLengths
	}
	return &Regression{X: x, Y: y}, nil
}

// Slope returns m = (x.y) / (x.x), the least-squares slope of the
// zero-intercept fit.
func (r *Regression) Slope() float64 {
	var xy, xx float64
	for i := range r.X {
		xy += r.X[i] * r.Y[i]
		xx += r.X[i] * r.X[i]
	}
	if xx == 0 {
		return 0
	}
	return xy / xx
}

// RSquared returns the coefficient of determination of the fit,
// 1 - SS_res/SS_tot, where SS_res sums (y_i - m*x_i)^2 and SS_tot sums
// (y_i - ybar)^2. It always lies in [0, 1] for a valid paired sample.
func (r *Regression) RSquared() float64 {
	m := r.Slope()
	var ybar float64
	for _, y := range r.Y {
		ybar += y
	}
	ybar /= float64(len(r.Y))

	var ssRes, ssTot float64
	for i := range r.Y {
		res := r.Y[i] - m*r.X[i]
		ssRes += res * res
		tot := r.Y[i] - ybar
		ssTot += tot * tot
	}
	if ssTot == 0 {
		// A perfectly flat y means the fit is exact iff residuals are
		// also all zero.
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	r2 := 1 - ssRes/ssTot
	if r2 < 0 {
		return 0
	}
	if r2 > 1 {
		return 1
	}
	return r2
}

// SlopeStatistic returns a single-float statistic functor suitable for
// driving bootstrap.OneSample over resampled pair indices: it refits the
// regression on the resampled (x, y) pairs and returns the slope.
func SlopeStatistic(x, y []float64) func(idx []int) float64 {
	return func(idx []int) float64 {
		rx := make([]float64, len(idx))
		ry := make([]float64, len(idx))
		for i, j := range idx {
			rx[i] = x[j]
			ry[i] = y[j]
		}
		r := &Regression{X: rx, Y: ry}
		return r.Slope()
	}
}
