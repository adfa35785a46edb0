// Package instrument rewrites testcase code blocks into self-reporting
// programs.
package instrument

import (
	"autograde/internal/domain"
)

// Unit is everything a generator needs to build one testcase's program.
type Unit struct {
	TestcaseID      int
	Code            string  // Code block with CHECK(...) invocations
	Header          string  // Suite-level header placed before the generated code
	ResultLog       string  // Where the program writes its check results
	Points          float64 // Score written when every check passes
	CallsEntryPoint bool    // Run the program's own main() after the checks
}

// Program is a generated, compilable unit plus its unresolved checks.
type Program struct {
	Source string
	Checks []*domain.Check
}

// Generator turns a code block into a program for a particular target
// language. Implementations must not run anything.
type Generator interface {
	Generate(unit Unit) (*Program, error)
}
