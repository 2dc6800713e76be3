package benchmath

import "testing"

func TestClassifyAllPartitionsSample(t *testing.T) {
	values := []float64{10, 11, 9, 10, 12, 11, 10, 1000}
	s, err := NewSample(values)
	if err != nil {
		t.Fatal(err)
	}
	labels, counts := s.ClassifyAll()
	if len(labels) != len(values) {
		t.Fatalf("len(labels) = %d, want %d", len(labels), len(values))
	}
	if counts.Total() != len(values) {
		t.Errorf("counts.Total() = %d, want %d", counts.Total(), len(values))
	}
	if counts.HighSevere == 0 && counts.HighMild == 0 {
		t.Error("extreme outlier 1000 not flagged as high outlier")
	}
	for i, v := range values {
		if v == 1000 && labels[i] == NotAnOutlier {
			t.Error("value 1000 classified as NotAnOutlier")
		}
	}
}

func TestFencesOrdering(t *testing.T) {
	s, _ := NewSample([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	f := s.Fences()
	if !(f.LowSevere <= f.LowMild && f.LowMild <= f.HighMild && f.HighMild <= f.HighSevere) {
		t.Errorf("fences not ordered: %+v", f)
	}
}

func TestSeverityThreshold(t *testing.T) {
	c := OutlierCounts{NotAnOutlier: 10}
	if got := c.Severity(); got != "" {
		t.Errorf("Severity() with no outliers = %q, want empty", got)
	}
	c = OutlierCounts{NotAnOutlier: 2, HighSevere: 8}
	if got := c.Severity(); got == "" {
		t.Error("Severity() with majority outliers = empty, want a warning")
	}
}
