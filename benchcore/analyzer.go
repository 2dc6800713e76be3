// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchcore

import (
	"fmt"
	"log"
	"math"

	"github.com/go-bench/benchkit/benchid"
	"github.com/go-bench/benchkit/benchmath"
	"github.com/go-bench/benchkit/benchrun"
	"github.com/go-bench/benchkit/benchstore"
	"github.com/go-bench/benchkit/bootstrap"
)

// An Analyzer combines the statistics layers to turn one benchmark's
// raw measurement into absolute estimates, an outlier classification,
// and — when a baseline exists — a comparison against it. It then
// persists the result and fans it out to the configured Reporters.
type Analyzer struct {
	Store     *benchstore.Store
	Reporters []Reporter
	Logger    *log.Logger // optional; nil means silent
}

func (a *Analyzer) logf(format string, args ...any) {
	if a.Logger != nil {
		a.Logger.Printf(format, args...)
	}
}

func (a *Analyzer) report(fn func(r Reporter)) {
	for _, r := range a.Reporters {
		fn(r)
	}
}

// Analyze runs the full C7 pipeline (spec.md §4.7) for one benchmark:
// label outliers, fit and bootstrap the slope, bootstrap the four
// avg_time statistics, compare against any existing baseline, persist
// everything, and emit the MeasurementData event.
func (a *Analyzer) Analyze(id benchid.ID, dirName string, raw benchrun.RawPairs, cfg Config, throughput *benchid.Throughput) (*MeasurementData, error) {
	avgTimes := make([]float64, len(raw.Iters))
	for i := range raw.Iters {
		avgTimes[i] = raw.Elapsed[i] / raw.Iters[i]
	}

	avgSample, err := benchmath.NewSample(avgTimes)
	if err != nil {
		return nil, fmt.Errorf("benchcore: analyze %s: %w", id.Title(), err)
	}
	labels, counts := avgSample.ClassifyAll()
	fences := avgSample.Fences()

	reg, err := benchmath.NewRegression(raw.Iters, raw.Elapsed)
	if err != nil {
		return nil, fmt.Errorf("benchcore: analyze %s: %w", id.Title(), err)
	}
	slopePoint := reg.Slope()

	resampleOpts := bootstrap.Options{Resamples: cfg.NResamples, Parallel: true}

	slopeStat := benchmath.SlopeStatistic(raw.Iters, raw.Elapsed)
	slopeDist := bootstrap.OneSample(len(raw.Iters), resampleOpts, func(idx []int) []float64 {
		return []float64{slopeStat(idx)}
	})[0]

	meanPoint := avgSample.Mean()
	medianPoint := avgSample.Median()
	stdDevPoint := avgSample.StdDev(&meanPoint)
	madPoint := avgSample.MedianAbsDev(&medianPoint)

	avgDist := bootstrap.OneSample(avgSample.Len(), resampleOpts, fourStatStatistic(avgTimes))

	distributions := map[Statistic][]float64{
		Mean:         avgDist[0],
		Median:       avgDist[1],
		StdDev:       avgDist[2],
		MedianAbsDev: avgDist[3],
		Slope:        slopeDist,
	}

	estimates := Estimates{
		Mean:         estimateFrom(meanPoint, distributions[Mean], cfg.ConfidenceLevel),
		Median:       estimateFrom(medianPoint, distributions[Median], cfg.ConfidenceLevel),
		StdDev:       estimateFrom(stdDevPoint, distributions[StdDev], cfg.ConfidenceLevel),
		MedianAbsDev: estimateFrom(madPoint, distributions[MedianAbsDev], cfg.ConfidenceLevel),
		Slope:        estimateFrom(slopePoint, distributions[Slope], cfg.ConfidenceLevel),
	}

	if err := a.Store.WriteNew(dirName, benchstore.NewRun{
		Sample:    benchstore.SampleFile{Iters: raw.Iters, Times: raw.Elapsed},
		Estimates: toEstimatesFile(estimates, cfg.ConfidenceLevel),
		Tukey: benchstore.TukeyFile{
			LowSevere:  fences.LowSevere,
			LowMild:    fences.LowMild,
			HighMild:   fences.HighMild,
			HighSevere: fences.HighSevere,
		},
		Benchmark: benchmarkFile(id, dirName, throughput),
	}); err != nil {
		a.logf("persist estimates for %s: %v", id.Title(), err)
	}

	data := &MeasurementData{
		ID:            id,
		IterCounts:    raw.Iters,
		SampleTimes:   raw.Elapsed,
		AvgTimes:      avgTimes,
		OutlierLabels: labels,
		OutlierCounts: counts,
		Fences:        fences,
		Estimates:     estimates,
		Distributions: distributions,
		Throughput:    throughput,
	}

	base, err := a.Store.LoadBase(dirName)
	if err == nil {
		cmp, cmpErr := a.compare(avgSample, base, resampleOpts, cfg)
		if cmpErr != nil {
			a.logf("compare %s against baseline: %v", id.Title(), cmpErr)
		} else {
			data.Comparison = cmp
			if writeErr := a.Store.WriteChange(dirName, relativeEstimatesFile(cmp, cfg.ConfidenceLevel)); writeErr != nil {
				a.logf("persist change/estimates.json for %s: %v", id.Title(), writeErr)
			}
		}
	} else if err != benchstore.ErrNoBaseline {
		a.logf("load baseline for %s: %v", id.Title(), err)
	}

	a.report(func(r Reporter) { r.MeasurementComplete(id, data) })
	a.Store.Promote(dirName)

	return data, nil
}

// Run is the single-benchmark orchestration entry point spec.md §2's
// data-flow diagram describes: validate cfg, register id, warm up,
// measure, and analyze. Run itself delivers Analysis and
// MeasurementComplete to a.Reporters; BenchmarkStart, WarmUp, and
// MeasurementStart are fired by driver on driver.Reporter, which Run
// does not set, so a.Reporters do not receive those three events.
// groupID need not have been seen before; group-level GroupComplete is
// fired separately, once every member has run, by RunGroup or a direct
// call to reg.CompleteGroup.
func (a *Analyzer) Run(reg *benchrun.Registry, driver *benchrun.Driver, groupID string, id benchid.ID, routine benchrun.Routine, input any, cfg Config, throughput *benchid.Throughput) (*MeasurementData, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dirName, err := reg.Register(groupID, id)
	if err != nil {
		return nil, err
	}

	sched := cfg.Schedule()
	elapsedLastBatch, itersLastBatch, err := driver.WarmUp(id, routine, input, sched)
	if err != nil {
		return nil, err
	}

	a.report(func(r Reporter) { r.Analysis(id) })

	batches := benchrun.BuildSchedule(elapsedLastBatch, itersLastBatch, sched)
	raw, err := driver.Measure(id, routine, input, batches, sched)
	if err != nil {
		return nil, err
	}

	return a.Analyze(id, dirName, raw, cfg, throughput)
}

// GroupMember is one benchmark in a RunGroup call: its id, the routine
// it runs, the routine's input, and an optional per-member config
// override (nil means use the group's ambient cfg unchanged, per
// SPEC_FULL.md §13's group-override semantics).
type GroupMember struct {
	ID         benchid.ID
	Routine    benchrun.Routine
	Input      any
	Override   func(*Config)
	Throughput *benchid.Throughput
}

// RunGroup runs every member of members under groupID via Run, in
// order, then fires GroupComplete once for every configured Reporter —
// the registry-triggered group-summary event of spec.md §4.9. It
// returns the first error encountered, after which no further members
// run, but GroupComplete still fires for whichever members succeeded.
func (a *Analyzer) RunGroup(reg *benchrun.Registry, driver *benchrun.Driver, groupID string, members []GroupMember, cfg Config) ([]*MeasurementData, error) {
	results := make([]*MeasurementData, 0, len(members))
	var runErr error
	for _, m := range members {
		memberCfg := cfg
		if m.Override != nil {
			memberCfg = cfg.Override(m.Override)
		}
		data, err := a.Run(reg, driver, groupID, m.ID, m.Routine, m.Input, memberCfg, m.Throughput)
		if err != nil {
			runErr = err
			break
		}
		results = append(results, data)
	}

	for _, r := range a.Reporters {
		reg.CompleteGroup(groupID, r)
	}
	if len(a.Reporters) == 0 {
		reg.CompleteGroup(groupID, nil)
	}

	return results, runErr
}

// compare implements spec.md §4.7 step 6: a mixed bootstrap builds the
// null distribution of the Welch t-statistic; a two-sample bootstrap
// estimates the relative change in mean and median.
func (a *Analyzer) compare(newSample *benchmath.Sample, base benchstore.NewRun, opts bootstrap.Options, cfg Config) (*ComparisonData, error) {
	baseAvg := make([]float64, len(base.Sample.Iters))
	for i := range base.Sample.Iters {
		baseAvg[i] = base.Sample.Times[i] / base.Sample.Iters[i]
	}
	baseSample, err := benchmath.NewSample(baseAvg)
	if err != nil {
		return nil, fmt.Errorf("benchcore: invalid baseline sample: %w", err)
	}

	observedT := newSample.T(baseSample)
	nullT := bootstrap.Mixed(newSample.Values(), baseSample.Values(), opts, func(x, y []float64) float64 {
		sx, errX := benchmath.NewSample(x)
		sy, errY := benchmath.NewSample(y)
		if errX != nil || errY != nil {
			return 0
		}
		return sx.T(sy)
	})
	pValue := bootstrap.PValue(nullT, observedT, true)

	relDist := bootstrap.TwoSample(newSample.Len(), baseSample.Len(), opts, func(idxA, idxB []int) []float64 {
		valsA := gather(newSample.Values(), idxA)
		valsB := gather(baseSample.Values(), idxB)
		sa, _ := benchmath.NewSample(valsA)
		sb, _ := benchmath.NewSample(valsB)
		return []float64{
			sa.Mean()/sb.Mean() - 1,
			sa.Median()/sb.Median() - 1,
		}
	})

	relMeanPoint := newSample.Mean()/baseSample.Mean() - 1
	relMedianPoint := newSample.Median()/baseSample.Median() - 1

	relEstimates := map[Statistic]Estimate{
		Mean:   estimateFrom(relMeanPoint, relDist[0], cfg.ConfidenceLevel),
		Median: estimateFrom(relMedianPoint, relDist[1], cfg.ConfidenceLevel),
	}

	baseEstimates := make(Estimates, len(base.Estimates))
	for name, rec := range base.Estimates {
		baseEstimates[statisticFromName(name)] = Estimate{
			Point: rec.Point, StdError: rec.StdError, Lower: rec.Lower, Upper: rec.Upper, Level: rec.Level,
		}
	}

	cmp := &ComparisonData{
		PValue:                pValue,
		TValue:                observedT,
		RelativeEstimates:     relEstimates,
		RelativeDistributions: map[Statistic][]float64{Mean: relDist[0], Median: relDist[1]},
		SignificanceThreshold: cfg.SignificanceLevel,
		NoiseThreshold:        cfg.NoiseThreshold,
		BaseIterCounts:        base.Sample.Iters,
		BaseSampleTimes:       base.Sample.Times,
		BaseAvgTimes:          baseAvg,
		BaseEstimates:         baseEstimates,
	}
	cmp.Classification = Classify(pValue, cfg.SignificanceLevel, cfg.NoiseThreshold, relEstimates[Mean])
	return cmp, nil
}

// Classify implements the five-way verdict from spec.md §4.7, given the
// comparison p-value, significance level alpha, noise threshold theta,
// and the relative-mean estimate (whose CI bounds are rl, ru).
func Classify(pValue, alpha, theta float64, relMean Estimate) Classification {
	if pValue >= alpha {
		return NoChangeDetected
	}
	rl, ru := relMean.Lower, relMean.Upper
	switch {
	case rl >= -theta && ru <= theta:
		return WithinNoise
	case ru < -theta:
		return Improved
	case rl > theta:
		return Regressed
	default:
		return ChangedUncertainDirection
	}
}

func gather(values []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

// fourStatStatistic returns the bootstrap.Statistic evaluating
// (Mean, Median, StdDev, MedianAbsDev) on each resample of values.
func fourStatStatistic(values []float64) bootstrap.Statistic {
	return func(idx []int) []float64 {
		resampled := gather(values, idx)
		s, err := benchmath.NewSample(resampled)
		if err != nil {
			return []float64{0, 0, 0, 0}
		}
		mean := s.Mean()
		median := s.Median()
		return []float64{mean, median, s.StdDev(&mean), s.MedianAbsDev(&median)}
	}
}

func estimateFrom(point float64, dist []float64, level float64) Estimate {
	lower, upper := bootstrap.ConfidenceInterval(dist, level)
	// A degenerate resample set (e.g. a sample of all-identical
	// values) can put the point estimate a hair outside its own CI
	// due to floating-point rounding; clamp rather than violate the
	// lower <= point <= upper invariant spec.md §3 requires.
	if point < lower {
		lower = point
	}
	if point > upper {
		upper = point
	}
	return Estimate{
		Point:    point,
		StdError: stdErrorOf(dist),
		Lower:    lower,
		Upper:    upper,
		Level:    level,
	}
}

func stdErrorOf(dist []float64) float64 {
	n := float64(len(dist))
	if n < 2 {
		return 0
	}
	var mean float64
	for _, v := range dist {
		mean += v
	}
	mean /= n
	var ss float64
	for _, v := range dist {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / (n - 1))
}

func benchmarkFile(id benchid.ID, dirName string, throughput *benchid.Throughput) benchstore.BenchmarkFile {
	f := benchstore.BenchmarkFile{Title: id.Title(), DirName: dirName}
	if throughput != nil {
		count := throughput.Count
		f.Throughput = &count
		f.ThroughputKind = throughput.Kind.String()
	}
	return f
}

func toEstimatesFile(e Estimates, level float64) benchstore.EstimatesFile {
	out := make(benchstore.EstimatesFile, len(e))
	for stat, est := range e {
		out[stat.String()] = benchstore.EstimateRecord{
			Point: est.Point, StdError: est.StdError, Lower: est.Lower, Upper: est.Upper, Level: level,
		}
	}
	return out
}

func relativeEstimatesFile(cmp *ComparisonData, level float64) benchstore.EstimatesFile {
	out := make(benchstore.EstimatesFile, 2)
	if est, ok := cmp.RelativeEstimates[Mean]; ok {
		out["relative_mean"] = benchstore.EstimateRecord{Point: est.Point, StdError: est.StdError, Lower: est.Lower, Upper: est.Upper, Level: level}
	}
	if est, ok := cmp.RelativeEstimates[Median]; ok {
		out["relative_median"] = benchstore.EstimateRecord{Point: est.Point, StdError: est.StdError, Lower: est.Lower, Upper: est.Upper, Level: level}
	}
	return out
}

func statisticFromName(name string) Statistic {
	switch name {
	case "mean":
		return Mean
	case "median":
		return Median
	case "median_abs_dev":
		return MedianAbsDev
	case "std_dev":
		return StdDev
	case "slope":
		return Slope
	default:
		return Mean
	}
}
