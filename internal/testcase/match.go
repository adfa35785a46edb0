package testcase

import "strings"

// MatchOptions controls how two texts are compared. Each comparison site
// carries its own options.
type MatchOptions struct {
	CaseSensitive       bool
	WhitespaceSensitive bool
}

// Exact requires byte-for-byte equality.
var Exact = MatchOptions{CaseSensitive: true, WhitespaceSensitive: true}

// Equal compares actual with expected under the options.
func (o MatchOptions) Equal(actual, expected string) bool {
	return o.Normalize(actual) == o.Normalize(expected)
}

// Normalize applies the options to s: lowercase when case-insensitive, runs
// of whitespace collapsed and ends trimmed when whitespace-insensitive.
func (o MatchOptions) Normalize(s string) string {
	if !o.CaseSensitive {
		s = strings.ToLower(s)
	}
	if !o.WhitespaceSensitive {
		s = strings.Join(strings.Fields(s), " ")
	}
	return s
}
