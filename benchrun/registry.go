// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchrun

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-bench/benchkit/benchid"
)

// A Registry maintains the two process-wide sets a single run needs:
// every directory name and every title assigned so far. It is confined
// to the goroutine that orchestrates benchmark groups; nothing in this
// package shares a Registry across goroutines.
type Registry struct {
	dirNames map[string]bool
	titles   map[string]bool
	groups   map[string][]benchid.ID
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		dirNames: make(map[string]bool),
		titles:   make(map[string]bool),
		groups:   make(map[string][]benchid.ID),
	}
}

// ErrDuplicateTitle is returned by Register when id's title was already
// registered in this run — a duplicate benchmark id within one group,
// which is fatal for the benchmark that triggers it (spec.md scenario S4).
var ErrDuplicateTitle = fmt.Errorf("benchrun: duplicate benchmark title within this run")

// Register assigns id a disambiguated directory name, records its title
// as used, and adds it to groupID's membership. It returns
// ErrDuplicateTitle if id.Title() was already registered.
func (r *Registry) Register(groupID string, id benchid.ID) (dirName string, err error) {
	title := id.Title()
	if r.titles[title] {
		return "", ErrDuplicateTitle
	}
	r.titles[title] = true
	r.groups[groupID] = append(r.groups[groupID], id)
	return r.ensureDirNameUnique(id.BaseDirName()), nil
}

// CompleteGroup fires GroupComplete on reporter with every id registered
// under groupID so far, per spec.md §4.9: the registry, not the
// analyzer, is what triggers group-summary generation. A nil reporter
// is treated as NopReporter.
func (r *Registry) CompleteGroup(groupID string, reporter Reporter) {
	if reporter == nil {
		reporter = NopReporter{}
	}
	reporter.GroupComplete(groupID, r.groups[groupID])
}

// ensureDirNameUnique appends a monotonic numeric suffix to base until it
// no longer collides with a name already used this run, and records the
// result. Once a name has been registered, calling this again with the
// same base deterministically produces the next available suffix — it
// never reassigns a name already handed out.
func (r *Registry) ensureDirNameUnique(base string) string {
	if !r.dirNames[base] {
		r.dirNames[base] = true
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s.%d", base, n)
		if !r.dirNames[candidate] {
			r.dirNames[candidate] = true
			return candidate
		}
	}
}

// A Filter decides whether a benchmark id should run, by substring or
// regular expression match against the id's title.
type Filter struct {
	substr string
	re     *regexp.Regexp
}

// NewSubstringFilter matches any id whose title contains substr.
func NewSubstringFilter(substr string) Filter {
	return Filter{substr: substr}
}

// NewRegexpFilter matches any id whose title matches re.
func NewRegexpFilter(re *regexp.Regexp) Filter {
	return Filter{re: re}
}

// Matches reports whether id passes the filter. A zero Filter matches
// everything.
func (f Filter) Matches(id benchid.ID) bool {
	title := id.Title()
	switch {
	case f.re != nil:
		return f.re.MatchString(title)
	case f.substr != "":
		return strings.Contains(title, f.substr)
	default:
		return true
	}
}
