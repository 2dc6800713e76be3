package benchmath

import (
	"math"
	"testing"
)

func TestRegressionSlope(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 7 * v // exact zero-intercept line, slope 7
	}
	r, err := NewRegression(x, y)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Slope(); math.Abs(got-7) > 1e-9 {
		t.Errorf("Slope() = %v, want 7", got)
	}
	if got := r.RSquared(); math.Abs(got-1) > 1e-9 {
		t.Errorf("RSquared() = %v, want 1", got)
	}
}

func TestRegressionRejectsMismatchedLengths(t *testing.T) {
	if _, err := NewRegression([]float64{1, 2}, []float64{1}); err != ErrMismatchedLengths {
		t.Errorf("error = %v, want %v", err, ErrMismatchedLengths)
	}
	if _, err := NewRegression([]float64{1}, []float64{1}); err != ErrMismatchedLengths {
		t.Errorf("error = %v, want %v", err, ErrMismatchedLengths)
	}
}

func TestSlopeStatisticMatchesDirectFit(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{3, 6, 9, 12}
	stat := SlopeStatistic(x, y)
	idx := []int{0, 1, 2, 3}
	got := stat(idx)
	r, _ := NewRegression(x, y)
	if want := r.Slope(); math.Abs(got-want) > 1e-9 {
		t.Errorf("SlopeStatistic with identity resample = %v, want %v", got, want)
	}
}
