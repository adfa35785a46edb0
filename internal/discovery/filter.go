package discovery

import (
	"path/filepath"
	"strings"

	"autograde/internal/testcase"
)

// Filter filters testcases by name pattern
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// Match reports whether name matches pattern. Patterns with * or ? are
// wildcard patterns ("*loop*", "Test ?"); anything else matches as a
// substring. Matching is case-insensitive. An empty pattern matches all.
func (f *Filter) Match(name, pattern string) bool {
	if pattern == "" {
		return true
	}
	name = strings.ToLower(name)
	pattern = strings.ToLower(pattern)

	if !strings.ContainsAny(pattern, "*?") {
		return strings.Contains(name, pattern)
	}

	if matched, err := filepath.Match(pattern, name); err == nil && matched {
		return true
	}

	// Looser fallback for "*part*" style patterns: every literal part must
	// appear, in order.
	if strings.Contains(pattern, "?") {
		return false
	}
	rest, found := name, false
	for _, part := range strings.Split(pattern, "*") {
		if part == "" {
			continue
		}
		idx := strings.Index(rest, part)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(part):]
		found = true
	}
	return found
}

// FilterByName keeps the names matching pattern.
func (f *Filter) FilterByName(names []string, pattern string) []string {
	if pattern == "" {
		return names
	}
	var filtered []string
	for _, n := range names {
		if f.Match(n, pattern) {
			filtered = append(filtered, n)
		}
	}
	return filtered
}

// FilterTestcases keeps the testcases whose name matches pattern.
func (f *Filter) FilterTestcases(tcs []*testcase.Testcase, pattern string) []*testcase.Testcase {
	if pattern == "" {
		return tcs
	}
	var filtered []*testcase.Testcase
	for _, tc := range tcs {
		if f.Match(tc.Name(), pattern) {
			filtered = append(filtered, tc)
		}
	}
	return filtered
}

// FilterSuites applies FilterTestcases to every suite in place and drops
// suites left without testcases.
func (f *Filter) FilterSuites(suites []*Suite, pattern string) []*Suite {
	if pattern == "" {
		return suites
	}
	var kept []*Suite
	for _, s := range suites {
		s.Testcases = f.FilterTestcases(s.Testcases, pattern)
		if len(s.Testcases) > 0 {
			kept = append(kept, s)
		}
	}
	return kept
}
