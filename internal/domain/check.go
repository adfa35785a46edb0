package domain

import (
	"fmt"

	"autograde/internal/assertion"
)

// Check is the bookkeeping record for one assertion in a testcase.
type Check struct {
	ID         int                 // Zero-based, in source order
	Label      string              // e.g. "Test #3, Check #1"
	Line       int                 // Zero-based line in the code block where the invocation starts
	Assertion  assertion.Assertion // Parsed expression
	LeftValue  string              // Left operand as rendered by the program under test
	RightValue string              // Right operand as rendered; empty for truthiness checks
	Passed     bool
	Resolved   bool
}

// NewCheck creates an unresolved check
func NewCheck(id int, label string, line int, a assertion.Assertion) *Check {
	return &Check{ID: id, Label: label, Line: line, Assertion: a}
}

// CheckLabel builds the location label for a check.
func CheckLabel(testID, checkID int) string {
	return fmt.Sprintf("Test #%d, Check #%d", testID, checkID)
}

// Resolve folds one execution of the check into the record. The first event
// resolves it; later events (a check inside a loop) can only turn a pass into
// a failure, and the first failing values are kept.
func (c *Check) Resolve(ev CheckEvent) {
	if ev.ID != c.ID {
		return
	}
	if c.Resolved && (!c.Passed || ev.Passed) {
		return
	}
	c.Resolved = true
	c.Passed = ev.Passed
	c.LeftValue = ev.Left
	c.RightValue = ev.Right
}
