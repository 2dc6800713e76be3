package benchrun

import (
	"testing"

	"github.com/go-bench/benchkit/benchid"
)

var testID = benchid.ID{Function: "BenchmarkDriverTest"}

// stepClock advances by a fixed amount on every call after the first,
// letting tests control exactly how much wall time each batch consumes.
type stepClock struct {
	now  int64
	step int64
}

func (c *stepClock) Now() int64 {
	n := c.now
	c.now += c.step
	return n
}

func constRoutine(nsPerIter int64) Routine {
	return func(b *Bencher, input any) {
		b.Iter(func() {})
	}
}

func TestWarmUpStopsPastTarget(t *testing.T) {
	clock := &stepClock{step: 100}
	d := NewDriverWithClock(clock)
	sched := Schedule{WarmUpTime: 1000}
	elapsed, iters, err := d.WarmUp(testID, constRoutine(100), nil, sched)
	if err != nil {
		t.Fatal(err)
	}
	if iters == 0 {
		t.Error("WarmUp returned 0 iters")
	}
	if elapsed <= 0 {
		t.Error("WarmUp returned non-positive elapsed")
	}
}

func TestWarmUpDoublesIters(t *testing.T) {
	clock := &stepClock{step: 1}
	d := NewDriverWithClock(clock)
	// With a tiny step and a large target, warm-up must run multiple
	// batches, each double the last.
	sched := Schedule{WarmUpTime: 1000}
	_, iters, err := d.WarmUp(testID, constRoutine(1), nil, sched)
	if err != nil {
		t.Fatal(err)
	}
	if iters&(iters-1) != 0 {
		t.Errorf("final iters = %d, want a power of two (doubling from 1)", iters)
	}
}

func TestRoutineThatNeverIteratesIsFatal(t *testing.T) {
	clock := &stepClock{step: 10}
	d := NewDriverWithClock(clock)
	bad := func(b *Bencher, input any) {}
	_, _, err := d.WarmUp(testID, bad, nil, Schedule{WarmUpTime: 100})
	if err != ErrRoutineDidNotIterate {
		t.Errorf("error = %v, want %v", err, ErrRoutineDidNotIterate)
	}
}

func TestBuildScheduleIsArithmeticProgression(t *testing.T) {
	sched := Schedule{MeasurementTime: 1e6, SampleSize: 5}
	batches := BuildSchedule(1000, 10, sched) // 100ns/iter estimate
	if len(batches) != 5 {
		t.Fatalf("len(batches) = %d, want 5", len(batches))
	}
	d := batches[0]
	if d == 0 {
		t.Fatal("batches[0] = 0")
	}
	for i, b := range batches {
		want := d * uint64(i+1)
		if b != want {
			t.Errorf("batches[%d] = %d, want %d (d=%d)", i, b, want, d)
		}
	}
}

func TestMeasureCollectsOnePairPerBatch(t *testing.T) {
	clock := &stepClock{step: 50}
	d := NewDriverWithClock(clock)
	batches := []uint64{1, 2, 3}
	out, err := d.Measure(testID, constRoutine(50), nil, batches, Schedule{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Iters) != len(batches) || len(out.Elapsed) != len(batches) {
		t.Fatalf("got %d pairs, want %d", len(out.Iters), len(batches))
	}
	for i, iters := range batches {
		if out.Iters[i] != float64(iters) {
			t.Errorf("out.Iters[%d] = %v, want %v", i, out.Iters[i], iters)
		}
	}
}

func TestMeasureQuickModeNeverExceedsSchedule(t *testing.T) {
	clock := &stepClock{step: 1000}
	d := NewDriverWithClock(clock)
	batches := make([]uint64, 50)
	for i := range batches {
		batches[i] = uint64(i + 1)
	}
	sched := Schedule{QuickMode: true, QuickModeThreshold: 0.5}
	out, err := d.Measure(testID, constRoutine(1000), nil, batches, sched)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Iters) > len(batches) {
		t.Fatalf("collected more batches (%d) than scheduled (%d)", len(out.Iters), len(batches))
	}
}
