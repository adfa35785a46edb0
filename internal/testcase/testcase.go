// Package testcase holds the unit of grading: one code block, its run
// configuration, its checks and the outcome of building and running it.
package testcase

import (
	"strings"
	"time"

	"autograde/internal/domain"
)

// NotRun is the exit code recorded before a step has run.
const NotRun = -1

// Testcase is created through a Builder. Configuration is fixed after Build;
// run state changes only through the lifecycle methods in lifecycle.go.
type Testcase struct {
	// -- Configuration --
	id                  int
	name                string
	suite               string
	points              float64
	inputFile           string
	expectedFile        string
	codeFile            string
	code                string
	hasCode             bool
	args                []string
	callsEntryPoint     bool
	hidden              bool
	caseSensitive       bool
	whitespaceSensitive bool
	timeout             time.Duration
	paths               Paths

	// -- Run state --
	state           State
	failure         domain.FailureReason
	defErr          error
	source          string
	checks          []*domain.Check
	compileExitCode int
	compileOutput   string
	runExitCode     int
	stdout          string
	stderr          string
	outputMatched   bool
	timedOut        bool
	report          domain.RunReport
}

func (t *Testcase) ID() int { return t.id }
func (t *Testcase) Name() string { return t.name }
func (t *Testcase) Suite() string { return t.suite }
func (t *Testcase) Points() float64 { return t.points }
func (t *Testcase) InputFile() string { return t.inputFile }
func (t *Testcase) ExpectedOutputFile() string { return t.expectedFile }
func (t *Testcase) CodeFile() string { return t.codeFile }
func (t *Testcase) Args() []string { return append([]string(nil), t.args...) }
func (t *Testcase) CallsEntryPoint() bool { return t.callsEntryPoint }
func (t *Testcase) Hidden() bool { return t.hidden }
func (t *Testcase) Timeout() time.Duration { return t.timeout }
func (t *Testcase) Paths() Paths { return t.paths }
func (t *Testcase) State() State { return t.state }
func (t *Testcase) Source() string { return t.source }
func (t *Testcase) CompileExitCode() int { return t.compileExitCode }
func (t *Testcase) CompileOutput() string { return t.compileOutput }
func (t *Testcase) RunExitCode() int { return t.runExitCode }
func (t *Testcase) Stdout() string { return t.stdout }
func (t *Testcase) Stderr() string { return t.stderr }
func (t *Testcase) OutputMatched() bool { return t.outputMatched }
func (t *Testcase) TimedOut() bool { return t.timedOut }
func (t *Testcase) Report() domain.RunReport { return t.report }

// DefinitionError returns the error that stopped setup, if any.
func (t *Testcase) DefinitionError() error { return t.defErr }

// MatchOptions returns how standard output is compared with the expected output.
func (t *Testcase) MatchOptions() MatchOptions {
	return MatchOptions{CaseSensitive: t.caseSensitive, WhitespaceSensitive: t.whitespaceSensitive}
}

// Code returns the code block: inline code, or the code file's contents once
// resolved.
func (t *Testcase) Code() string { return t.code }

// CodeLines splits the code block into lines for listings.
func (t *Testcase) CodeLines() []string {
	if t.code == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(t.code, "\n"), "\n")
}

// Checks returns copies of the check records; the testcase keeps ownership.
func (t *Testcase) Checks() []domain.Check {
	out := make([]domain.Check, len(t.checks))
	for i, c := range t.checks {
		out[i] = *c
	}
	return out
}

func (t *Testcase) NumChecks() int { return len(t.checks) }

// CountPassed returns how many checks passed.
func (t *Testcase) CountPassed() int {
	n := 0
	for _, c := range t.checks {
		if c.Passed {
			n++
		}
	}
	return n
}

// CountFailed returns how many checks failed or never ran.
func (t *Testcase) CountFailed() int { return len(t.checks) - t.CountPassed() }

// Passed reports whether the whole testcase passed: every check passed, the
// output matched, it finished in time and it compiled.
func (t *Testcase) Passed() bool {
	return t.CountPassed() == len(t.checks) && t.outputMatched && !t.timedOut && t.compileExitCode == 0
}

// PassedCheck reports whether the check with the given sequence id passed.
// An id with no check is vacuously passing.
func (t *Testcase) PassedCheck(id int) bool {
	for _, c := range t.checks {
		if c.ID == id {
			return c.Passed
		}
	}
	return true
}

// PassedLine reports whether every check starting on the given code line
// passed. Lines without checks are vacuously passing.
func (t *Testcase) PassedLine(line int) bool {
	for _, c := range t.checks {
		if c.Line == line && !c.Passed {
			return false
		}
	}
	return true
}

// EarnedPoints is the testcase's points if it passed, otherwise zero.
func (t *Testcase) EarnedPoints() float64 {
	if t.Passed() {
		return t.points
	}
	return 0
}

// Reason returns the single highest-priority reason the testcase did not
// pass, or ReasonNone.
func (t *Testcase) Reason() domain.FailureReason {
	switch {
	case t.defErr != nil:
		return domain.ReasonDefinition
	case t.compileExitCode == NotRun:
		return domain.ReasonNotRun
	case t.compileExitCode != 0:
		return domain.ReasonCompileError
	case t.timedOut:
		return domain.ReasonTimeout
	case !t.outputMatched:
		return domain.ReasonOutputMismatch
	case t.CountPassed() != len(t.checks):
		return domain.ReasonCheckFailed
	}
	return domain.ReasonNone
}

// Result converts the testcase into its persisted form.
func (t *Testcase) Result() domain.TestcaseResult {
	res := domain.TestcaseResult{
		ID:           t.id,
		Name:         t.name,
		Suite:        t.suite,
		Hidden:       t.hidden,
		Points:       t.points,
		Earned:       t.EarnedPoints(),
		Passed:       t.Passed(),
		Reason:       t.Reason().String(),
		Message:      t.Reason().Message(),
		CompileCode:  t.compileExitCode,
		RunCode:      t.runExitCode,
		TimedOut:     t.timedOut,
		OutputMatch:  t.outputMatched,
		Code:         t.CodeLines(),
		CompileNotes: t.compileOutput,
		Checks:       make([]domain.CheckResult, 0, len(t.checks)),
	}
	if t.defErr != nil {
		res.Error = t.defErr.Error()
	}
	for _, c := range t.checks {
		res.Checks = append(res.Checks, domain.CheckResult{
			ID:         c.ID,
			Label:      c.Label,
			Line:       c.Line,
			Test:       c.Assertion.Raw(),
			Left:       c.Assertion.Left(),
			Comparator: c.Assertion.Comparator(),
			Right:      c.Assertion.Right(),
			LeftValue:  c.LeftValue,
			RightValue: c.RightValue,
			Passed:     c.Passed,
			Resolved:   c.Resolved,
		})
	}
	return res
}
