// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchrun

import "github.com/go-bench/benchkit/benchid"

// Reporter observes the phase boundaries the driver and registry control:
// a benchmark starting, warm-up completing, measurement starting, and a
// group completing. benchcore.Reporter embeds this and adds the two
// events that are the analyzer's own responsibility (analysis,
// measurement complete), so that a single Reporter implementation can
// observe all six events spec.md §6 documents in order.
type Reporter interface {
	BenchmarkStart(id benchid.ID)
	WarmUp(id benchid.ID, targetNs float64)
	MeasurementStart(id benchid.ID, sampleCount int, estimatedTotalNs float64, estIterCount uint64)
	GroupComplete(groupID string, ids []benchid.ID)
}

// NopReporter implements Reporter with no-op methods, useful as an
// embeddable base for reporters that only care about a subset of events.
type NopReporter struct{}

func (NopReporter) BenchmarkStart(benchid.ID)                         {}
func (NopReporter) WarmUp(benchid.ID, float64)                        {}
func (NopReporter) MeasurementStart(benchid.ID, int, float64, uint64) {}
func (NopReporter) GroupComplete(string, []benchid.ID)                {}
