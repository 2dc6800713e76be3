package benchstore

import (
	"path/filepath"
	"testing"
)

func newTestRun() NewRun {
	return NewRun{
		Sample:    SampleFile{Iters: []float64{1, 2, 3}, Times: []float64{10, 20, 30}},
		Estimates: EstimatesFile{"mean": {Point: 10, StdError: 1, Lower: 8, Upper: 12, Level: 0.95}},
		Tukey:     TukeyFile{LowSevere: -5, LowMild: 0, HighMild: 15, HighSevere: 20},
		Benchmark: BenchmarkFile{Title: "pkg/Bench", DirName: "pkg_Bench"},
	}
}

func TestLoadBaseWithoutPriorRunReturnsErrNoBaseline(t *testing.T) {
	s := NewStore(t.TempDir())
	if _, err := s.LoadBase("pkg_Bench"); err != ErrNoBaseline {
		t.Errorf("LoadBase on empty store error = %v, want %v", err, ErrNoBaseline)
	}
}

func TestWriteNewThenPromoteRoundTrips(t *testing.T) {
	s := NewStore(t.TempDir())
	run := newTestRun()
	if err := s.WriteNew("pkg_Bench", run); err != nil {
		t.Fatalf("WriteNew: %v", err)
	}
	if _, err := s.LoadBase("pkg_Bench"); err != ErrNoBaseline {
		t.Fatalf("LoadBase before Promote error = %v, want %v", err, ErrNoBaseline)
	}
	s.Promote("pkg_Bench")

	got, err := s.LoadBase("pkg_Bench")
	if err != nil {
		t.Fatalf("LoadBase after Promote: %v", err)
	}
	if len(got.Sample.Iters) != len(run.Sample.Iters) {
		t.Errorf("round-tripped sample length = %d, want %d", len(got.Sample.Iters), len(run.Sample.Iters))
	}
	for i := range run.Sample.Iters {
		if got.Sample.Iters[i] != run.Sample.Iters[i] || got.Sample.Times[i] != run.Sample.Times[i] {
			t.Errorf("sample[%d] = (%v, %v), want (%v, %v)", i, got.Sample.Iters[i], got.Sample.Times[i], run.Sample.Iters[i], run.Sample.Times[i])
		}
	}
	if got.Estimates["mean"].Point != 10 {
		t.Errorf("round-tripped mean estimate = %v, want 10", got.Estimates["mean"].Point)
	}
	if got.Tukey.HighSevere != 20 {
		t.Errorf("round-tripped tukey.high_severe = %v, want 20", got.Tukey.HighSevere)
	}
}

func TestPromoteReplacesExistingBaseline(t *testing.T) {
	s := NewStore(t.TempDir())
	first := newTestRun()
	s.WriteNew("pkg_Bench", first)
	s.Promote("pkg_Bench")

	second := newTestRun()
	second.Estimates["mean"] = EstimateRecord{Point: 999, Level: 0.95}
	s.WriteNew("pkg_Bench", second)
	s.Promote("pkg_Bench")

	got, err := s.LoadBase("pkg_Bench")
	if err != nil {
		t.Fatal(err)
	}
	if got.Estimates["mean"].Point != 999 {
		t.Errorf("baseline not replaced: mean = %v, want 999", got.Estimates["mean"].Point)
	}
}

func TestWriteNewIsAtomicNoLeftoverTempFiles(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)
	if err := s.WriteNew("pkg_Bench", newTestRun()); err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(s.BenchmarkDir("pkg_Bench"), newDirName)
	entries, err := filepathGlobTmp(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("leftover temp files after WriteNew: %v", entries)
	}
}

func filepathGlobTmp(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "*.tmp-*"))
}

func TestWriteChangeRoundTrips(t *testing.T) {
	s := NewStore(t.TempDir())
	change := EstimatesFile{"relative_mean": {Point: 0.05, Level: 0.95}}
	if err := s.WriteChange("pkg_Bench", change); err != nil {
		t.Fatal(err)
	}
	var got EstimatesFile
	if err := readJSON(filepath.Join(s.BenchmarkDir("pkg_Bench"), changeDirName), estimatesFileName, &got); err != nil {
		t.Fatal(err)
	}
	if got["relative_mean"].Point != 0.05 {
		t.Errorf("relative_mean.point = %v, want 0.05", got["relative_mean"].Point)
	}
}
