// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchmath provides the statistics layer used to turn raw
// benchmark measurements into point estimates, confidence intervals, and
// outlier classifications.
//
// This package is opinionated. A Sample holds its own copy of the
// caller's data: construction validates the data once, and every further
// query is a pure, total function of that data.
package benchmath

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ErrInvalidSample is returned by NewSample when the input slice cannot
// be turned into a Sample: too few points, or a non-finite value.
var ErrInvalidSample = errors.New("benchmath: sample must have at least 2 finite values")

// A Sample is an ordered sequence of finite floating-point observations.
// Insertion order is preserved; callers that need sorted order use
// Percentile, which computes and caches a sorted view lazily.
type Sample struct {
	values  []float64
	sorted  []float64 // lazily populated by Percentile
	isSorted bool
}

// NewSample constructs a Sample from a copy of values, so later changes
// to values by the caller do not affect the returned Sample.
// It returns ErrInvalidSample if values has fewer than 2 elements or
// contains a NaN or an infinity.
func NewSample(values []float64) (*Sample, error) {
	if len(values) < 2 {
		return nil, ErrInvalidSample
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrInvalidSample
		}
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	return &Sample{values: cp}, nil
}

// Len returns the number of observations in s.
func (s *Sample) Len() int { return len(s.values) }

// Values returns the observations in insertion order. The caller must
// not modify the returned slice.
func (s *Sample) Values() []float64 { return s.values }

// Mean returns the arithmetic mean of s.
func (s *Sample) Mean() float64 {
	return stat.Mean(s.values, nil)
}

// Var returns the Bessel-corrected (divisor n-1) sample variance of s.
// If mean is non-nil, it is used instead of recomputing the mean.
func (s *Sample) Var(mean *float64) float64 {
	m := 0.0
	if mean != nil {
		m = *mean
	} else {
		m = s.Mean()
	}
	if len(s.values) < 2 {
		return 0
	}
	var ss float64
	for _, v := range s.values {
		d := v - m
		ss += d * d
	}
	return ss / float64(len(s.values)-1)
}

// StdDev returns sqrt(s.Var(mean)).
func (s *Sample) StdDev(mean *float64) float64 {
	return math.Sqrt(s.Var(mean))
}

// Min returns the smallest observation in s.
func (s *Sample) Min() float64 {
	m := s.values[0]
	for _, v := range s.values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest observation in s.
func (s *Sample) Max() float64 {
	m := s.values[0]
	for _, v := range s.values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// ensureSorted populates s.sorted on first use and returns it.
func (s *Sample) ensureSorted() []float64 {
	if !s.isSorted {
		sorted := make([]float64, len(s.values))
		copy(sorted, s.values)
		sort.Float64s(sorted)
		s.sorted = sorted
		s.isSorted = true
	}
	return s.sorted
}

// Percentile returns the p-th percentile of s (0 <= p <= 100), using
// linear interpolation between the two bracketing order statistics: the
// p-th percentile maps to fractional index p*(n-1)/100.
func (s *Sample) Percentile(p float64) float64 {
	sorted := s.ensureSorted()
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	idx := p * float64(n-1) / 100
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Median returns the 50th percentile of s.
func (s *Sample) Median() float64 {
	return s.Percentile(50)
}

// MedianAbsDev returns 1.4826 * median(|x_i - med|), the scale factor
// that makes this a consistent estimator of sigma for Gaussian data. If
// med is non-nil, it is used instead of recomputing the median.
func (s *Sample) MedianAbsDev(med *float64) float64 {
	m := 0.0
	if med != nil {
		m = *med
	} else {
		m = s.Median()
	}
	devs := make([]float64, len(s.values))
	for i, v := range s.values {
		devs[i] = math.Abs(v - m)
	}
	devSample := &Sample{values: devs}
	return 1.4826 * devSample.Median()
}

// T returns the Welch two-sample t-statistic comparing s and other.
func (s *Sample) T(other *Sample) float64 {
	m1, m2 := s.Mean(), other.Mean()
	v1, v2 := s.Var(&m1), other.Var(&m2)
	n1, n2 := float64(s.Len()), float64(other.Len())
	se := math.Sqrt(v1/n1 + v2/n2)
	if se == 0 {
		return 0
	}
	return (m1 - m2) / se
}
