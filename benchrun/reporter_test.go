// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchrun

import (
	"testing"

	"github.com/go-bench/benchkit/benchid"
)

type recordingReporter struct {
	events []string
}

func (r *recordingReporter) BenchmarkStart(id benchid.ID) {
	r.events = append(r.events, "benchmark_start")
}

func (r *recordingReporter) WarmUp(id benchid.ID, targetNs float64) {
	r.events = append(r.events, "warmup")
}

func (r *recordingReporter) MeasurementStart(id benchid.ID, sampleCount int, estimatedTotalNs float64, estIterCount uint64) {
	r.events = append(r.events, "measurement_start")
}

func (r *recordingReporter) GroupComplete(groupID string, ids []benchid.ID) {
	r.events = append(r.events, "group_complete")
}

func TestDriverFiresBenchmarkStartThenWarmUp(t *testing.T) {
	rec := &recordingReporter{}
	d := NewDriverWithClock(&stepClock{step: 100})
	d.Reporter = rec

	if _, _, err := d.WarmUp(testID, constRoutine(100), nil, Schedule{WarmUpTime: 1000}); err != nil {
		t.Fatal(err)
	}

	want := []string{"benchmark_start", "warmup"}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
	for i, e := range want {
		if rec.events[i] != e {
			t.Errorf("events[%d] = %q, want %q", i, rec.events[i], e)
		}
	}
}

func TestDriverFiresMeasurementStartBeforeFirstBatch(t *testing.T) {
	rec := &recordingReporter{}
	d := NewDriverWithClock(&stepClock{step: 50})
	d.Reporter = rec

	batches := []uint64{1, 2, 3}
	if _, err := d.Measure(testID, constRoutine(50), nil, batches, Schedule{}); err != nil {
		t.Fatal(err)
	}

	if len(rec.events) != 1 || rec.events[0] != "measurement_start" {
		t.Errorf("events = %v, want [measurement_start]", rec.events)
	}
}

func TestDriverWithoutReporterDoesNotPanic(t *testing.T) {
	d := NewDriverWithClock(&stepClock{step: 100})
	if _, _, err := d.WarmUp(testID, constRoutine(100), nil, Schedule{WarmUpTime: 1000}); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Measure(testID, constRoutine(50), nil, []uint64{1, 2}, Schedule{}); err != nil {
		t.Fatal(err)
	}
}
