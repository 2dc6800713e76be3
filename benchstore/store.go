// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchstore implements the on-disk baseline layout: one
// directory per benchmark, holding a "new" directory for the just-run
// measurement and a "base" directory for the most recent promoted
// baseline. Writes are atomic (temp file + rename); promotion from
// "new" to "base" is best-effort and never blocks a run from reporting
// its results.
package benchstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	newDirName    = "new"
	baseDirName   = "base"
	changeDirName = "change"

	sampleFileName     = "sample.json"
	estimatesFileName  = "estimates.json"
	tukeyFileName      = "tukey.json"
	benchmarkFileName  = "benchmark.json"
)

// A Store roots the directory-per-benchmark layout at a single
// filesystem path.
type Store struct {
	root   string
	Logger *log.Logger // optional; nil means silent
}

// NewStore returns a Store rooted at root. The directory is created
// lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// BenchmarkDir returns the path <root>/<dirName>.
func (s *Store) BenchmarkDir(dirName string) string {
	return filepath.Join(s.root, dirName)
}

func (s *Store) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

// SampleFile is the [iters[], times[]] pair persisted as sample.json.
type SampleFile struct {
	Iters []float64 `json:"iters"`
	Times []float64 `json:"times"`
}

// EstimateRecord mirrors benchcore.Estimate without importing it, so
// that benchstore has no dependency on the analyzer: point, standard
// error, and a confidence interval at a stated level.
type EstimateRecord struct {
	Point     float64 `json:"point"`
	StdError  float64 `json:"std_error"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Level     float64 `json:"level"`
}

// EstimatesFile maps a statistic name to its Estimate. Recognized keys
// are "mean", "median", "median_abs_dev", "slope", "std_dev" for
// new/base estimates.json, and "relative_mean", "relative_median" for
// change/estimates.json.
type EstimatesFile map[string]EstimateRecord

// TukeyFile holds the four Tukey fence values, persisted verbatim.
type TukeyFile struct {
	LowSevere  float64 `json:"low_severe"`
	LowMild    float64 `json:"low_mild"`
	HighMild   float64 `json:"high_mild"`
	HighSevere float64 `json:"high_severe"`
}

// BenchmarkFile holds identity and throughput, persisted alongside the
// other new/base files.
type BenchmarkFile struct {
	Title      string  `json:"title"`
	DirName    string  `json:"dir_name"`
	Throughput *uint64 `json:"throughput_count,omitempty"`
	ThroughputKind string `json:"throughput_kind,omitempty"`
}

// ErrNoBaseline is returned by LoadBase when no baseline exists yet for
// a benchmark. This is expected on a benchmark's first run and is not
// logged as an error.
var ErrNoBaseline = errors.New("benchstore: no baseline recorded for this benchmark")

// writeJSON marshals v as indented JSON and writes it atomically: it is
// written to a temp file with a UUID suffix that cannot collide with any
// legitimate name in the tree, then renamed into place.
func writeJSON(dir, name string, v any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("benchstore: create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return fmt.Errorf("benchstore: marshal %s: %w", name, err)
	}
	tmp := filepath.Join(dir, name+".tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("benchstore: write %s: %w", tmp, err)
	}
	final := filepath.Join(dir, name)
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("benchstore: rename into place %s: %w", final, err)
	}
	return nil
}

func readJSON(dir, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// NewRun is the payload of one "new/" directory: everything the
// analyzer produces for a freshly measured benchmark.
type NewRun struct {
	Sample    SampleFile
	Estimates EstimatesFile
	Tukey     TukeyFile
	Benchmark BenchmarkFile
}

// WriteNew persists run's files under <root>/<dirName>/new/. An I/O
// failure here is logged but must never prevent the in-memory results
// from being reported to the caller's own reporters (spec.md §7); the
// error is still returned so the caller can decide whether to log it
// itself.
func (s *Store) WriteNew(dirName string, run NewRun) error {
	dir := filepath.Join(s.BenchmarkDir(dirName), newDirName)
	for _, step := range []struct {
		name string
		v    any
	}{
		{sampleFileName, run.Sample},
		{estimatesFileName, run.Estimates},
		{tukeyFileName, run.Tukey},
		{benchmarkFileName, run.Benchmark},
	} {
		if err := writeJSON(dir, step.name, step.v); err != nil {
			s.logf("write new/%s for %s: %v", step.name, dirName, err)
			return err
		}
	}
	return nil
}

// WriteChange persists the relative (comparison) estimates under
// <root>/<dirName>/change/estimates.json.
func (s *Store) WriteChange(dirName string, change EstimatesFile) error {
	dir := filepath.Join(s.BenchmarkDir(dirName), changeDirName)
	if err := writeJSON(dir, estimatesFileName, change); err != nil {
		s.logf("write change/estimates.json for %s: %v", dirName, err)
		return err
	}
	return nil
}

// LoadBase loads the baseline previously promoted for dirName. It
// returns ErrNoBaseline if no base/ directory exists; a read or parse
// failure of a required file is logged on s.Logger and also surfaced as
// ErrNoBaseline per spec.md §7, so the caller proceeds without
// ComparisonData.
func (s *Store) LoadBase(dirName string) (NewRun, error) {
	dir := filepath.Join(s.BenchmarkDir(dirName), baseDirName)
	if _, err := os.Stat(dir); err != nil {
		return NewRun{}, ErrNoBaseline
	}
	var run NewRun
	if err := readJSON(dir, sampleFileName, &run.Sample); err != nil {
		s.logf("load base/%s for %s: %v", sampleFileName, dirName, err)
		return NewRun{}, ErrNoBaseline
	}
	if err := readJSON(dir, estimatesFileName, &run.Estimates); err != nil {
		s.logf("load base/%s for %s: %v", estimatesFileName, dirName, err)
		return NewRun{}, ErrNoBaseline
	}
	if err := readJSON(dir, tukeyFileName, &run.Tukey); err != nil {
		s.logf("load base/%s for %s: %v", tukeyFileName, dirName, err)
		return NewRun{}, ErrNoBaseline
	}
	_ = readJSON(dir, benchmarkFileName, &run.Benchmark) // best-effort; not required for comparison
	return run, nil
}

// Promote deletes the existing base/ (if any) and renames new/ to
// base/. Both steps are logged but non-fatal: spec.md §7 requires that a
// promotion failure never undoes a run's already-reported results.
func (s *Store) Promote(dirName string) {
	benchDir := s.BenchmarkDir(dirName)
	basePath := filepath.Join(benchDir, baseDirName)
	newPath := filepath.Join(benchDir, newDirName)

	if _, err := os.Stat(basePath); err == nil {
		if err := os.RemoveAll(basePath); err != nil {
			s.logf("promote %s: remove old base/: %v", dirName, err)
			return
		}
	}
	if err := os.Rename(newPath, basePath); err != nil {
		s.logf("promote %s: rename new/ to base/: %v", dirName, err)
	}
}
