package benchrun

import (
	"regexp"
	"testing"

	"github.com/go-bench/benchkit/benchid"
)

func TestRegisterRejectsDuplicateTitle(t *testing.T) {
	r := NewRegistry()
	id := benchid.ID{Function: "BenchmarkX"}
	if _, err := r.Register("g", id); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := r.Register("g", id); err != ErrDuplicateTitle {
		t.Errorf("second Register error = %v, want %v", err, ErrDuplicateTitle)
	}
}

func TestRegisterDisambiguatesDirNames(t *testing.T) {
	r := NewRegistry()
	a := benchid.ID{Function: "Bench", Value: "x"}
	b := benchid.ID{Function: "Bench x"} // maps to the same BaseDirName as a

	dirA, err := r.Register("g", a)
	if err != nil {
		t.Fatal(err)
	}
	dirB, err := r.Register("g", b)
	if err != nil {
		t.Fatal(err)
	}
	if dirA == dirB {
		t.Errorf("colliding base dir names were not disambiguated: both %q", dirA)
	}
}

func TestCompleteGroupFiresWithAllMembers(t *testing.T) {
	r := NewRegistry()
	a := benchid.ID{Function: "BenchmarkA"}
	b := benchid.ID{Function: "BenchmarkB"}
	if _, err := r.Register("g", a); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Register("g", b); err != nil {
		t.Fatal(err)
	}

	var gotGroup string
	var gotIDs []benchid.ID
	r.CompleteGroup("g", fakeGroupReporter{fn: func(groupID string, ids []benchid.ID) {
		gotGroup, gotIDs = groupID, ids
	}})

	if gotGroup != "g" {
		t.Errorf("groupID = %q, want %q", gotGroup, "g")
	}
	if len(gotIDs) != 2 {
		t.Errorf("len(ids) = %d, want 2", len(gotIDs))
	}
}

type fakeGroupReporter struct {
	fn func(string, []benchid.ID)
}

func (f fakeGroupReporter) BenchmarkStart(benchid.ID)                         {}
func (f fakeGroupReporter) WarmUp(benchid.ID, float64)                        {}
func (f fakeGroupReporter) MeasurementStart(benchid.ID, int, float64, uint64) {}
func (f fakeGroupReporter) GroupComplete(groupID string, ids []benchid.ID)    { f.fn(groupID, ids) }

func TestFilterMatching(t *testing.T) {
	id := benchid.ID{Group: "pkg", Function: "BenchmarkSort", Value: "n=100"}

	zero := Filter{}
	if !zero.Matches(id) {
		t.Error("zero-value Filter did not match")
	}

	sub := NewSubstringFilter("Sort")
	if !sub.Matches(id) {
		t.Error("substring filter did not match a containing title")
	}
	if NewSubstringFilter("nope").Matches(id) {
		t.Error("substring filter matched a non-containing title")
	}

	re := NewRegexpFilter(regexp.MustCompile(`n=\d+$`))
	if !re.Matches(id) {
		t.Error("regexp filter did not match")
	}
}
