// Package assertion parses the body of a CHECK(...) invocation into its
// operands and comparator.
package assertion

import (
	"fmt"
	"strings"
)

// Comparators in match order. Two-character tokens come first so "<=" is
// never split into "<" and a stray "=".
var comparators = []string{"==", "!=", "<=", ">=", "<", ">"}

// Assertion is one parsed check expression. It is immutable once parsed.
type Assertion struct {
	raw        string
	left       string
	comparator string
	right      string
}

// Parse parses a raw assertion body. location is used in error messages only.
func Parse(raw, location string) (Assertion, error) {
	if strings.Contains(raw, "&&") || strings.Contains(raw, "||") {
		return Assertion{}, NewDefinitionError(ErrMalformedAssertion, location,
			fmt.Sprintf("checks do not allow \"&&\" or \"||\": %q", raw))
	}

	pos, comp := findComparator(raw, 0)
	if pos < 0 {
		return Assertion{raw: raw, left: CompressWhitespace(raw)}, nil
	}

	if next, _ := findComparator(raw, pos+len(comp)); next >= 0 {
		return Assertion{}, NewDefinitionError(ErrMultipleComparators, location,
			fmt.Sprintf("checks can have only one comparison: %q", raw))
	}

	return Assertion{
		raw:        raw,
		left:       CompressWhitespace(raw[:pos]),
		comparator: comp,
		right:      CompressWhitespace(raw[pos+len(comp):]),
	}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and fixed
// expressions.
func MustParse(raw string) Assertion {
	a, err := Parse(raw, "")
	if err != nil {
		panic(err)
	}
	return a
}

// findComparator returns the position and token of the first comparator at or
// after start, or -1.
func findComparator(s string, start int) (int, string) {
	for i := start; i < len(s); i++ {
		for _, c := range comparators {
			if strings.HasPrefix(s[i:], c) {
				return i, c
			}
		}
	}
	return -1, ""
}

// CompressWhitespace collapses runs of whitespace into one space and trims
// both ends.
func CompressWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Raw returns the original expression text.
func (a Assertion) Raw() string { return a.raw }

// Left returns the whitespace-normalized left operand (or the whole
// expression for a truthiness check).
func (a Assertion) Left() string { return a.left }

// Right returns the right operand; empty for truthiness checks.
func (a Assertion) Right() string { return a.right }

// Comparator returns the comparison token, empty for truthiness checks.
func (a Assertion) Comparator() string { return a.comparator }

// HasComparator reports whether this is a comparison rather than a
// truthiness check.
func (a Assertion) HasComparator() bool { return a.comparator != "" }

// String renders the assertion as it appears in reports.
func (a Assertion) String() string {
	if !a.HasComparator() {
		return a.left
	}
	return a.left + " " + a.comparator + " " + a.right
}

// FlipComparator returns the negation of a comparator ("<" becomes ">=").
// Unknown input yields "".
func FlipComparator(comp string) string {
	switch comp {
	case "==":
		return "!="
	case "!=":
		return "=="
	case "<":
		return ">="
	case "<=":
		return ">"
	case ">":
		return "<="
	case ">=":
		return "<"
	}
	return ""
}
