package testcase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"autograde/internal/assertion"
	"autograde/internal/domain"
	"autograde/internal/instrument"
)

// State is a step in the testcase lifecycle:
//
//	Defined -> CodeResolved -> Generated -> Compiled -> Executed -> Scored
//
// Failed is terminal and reachable from setup (definition error), Compiled
// (compile error) and Executed (timeout, output mismatch).
type State int

const (
	StateDefined State = iota
	StateCodeResolved
	StateGenerated
	StateCompiled
	StateExecuted
	StateScored
	StateFailed
)

var stateNames = [...]string{"defined", "code_resolved", "generated", "compiled", "executed", "scored", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ErrInvalidTransition is returned when a lifecycle step is called out of order.
var ErrInvalidTransition = errors.New("invalid testcase state transition")

// BuildRequest asks a Compiler to build one generated program.
type BuildRequest struct {
	TestcaseID int
	Source     string
	Paths      Paths
}

// BuildResult is what a Compiler reports. A non-zero exit code is a compile
// failure, not an error.
type BuildResult struct {
	ExitCode    int
	Diagnostics string
}

// Compiler builds generated programs into executables.
type Compiler interface {
	Build(ctx context.Context, req BuildRequest) (BuildResult, error)
}

// ExecRequest asks an Executor to run one built program.
type ExecRequest struct {
	TestcaseID int
	Executable string
	StdinFile  string // Empty for no input
	Args       []string
	Timeout    time.Duration
	Paths      Paths
}

// ExecResult is what an Executor reports, including the checks the program
// resolved while it ran.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Report   domain.RunReport
}

// Executor runs built programs under a timeout.
type Executor interface {
	Execute(ctx context.Context, req ExecRequest) (ExecResult, error)
}

// ReadFileFunc loads a file; os.ReadFile in production.
type ReadFileFunc func(name string) ([]byte, error)

// Toolchain bundles the collaborators a testcase needs to run end to end.
type Toolchain struct {
	Generator instrument.Generator
	Compiler  Compiler
	Executor  Executor
	ReadFile  ReadFileFunc
	Header    string
}

func (t *Testcase) expect(s State) error {
	if t.state != s {
		return fmt.Errorf("%w: test %d is %s, expected %s", ErrInvalidTransition, t.id, t.state, s)
	}
	return nil
}

func (t *Testcase) fail(reason domain.FailureReason) {
	t.state = StateFailed
	t.failure = reason
}

func (t *Testcase) failDefinition(err error) error {
	t.defErr = err
	t.fail(domain.ReasonDefinition)
	return err
}

// ResolveCode loads the code block from the code file when one is set.
// Inline code and a code file are mutually exclusive.
func (t *Testcase) ResolveCode(readFile ReadFileFunc) error {
	if err := t.expect(StateDefined); err != nil {
		return err
	}

	location := fmt.Sprintf("Test #%d", t.id)
	switch {
	case t.hasCode && t.codeFile != "":
		return t.failDefinition(assertion.NewDefinitionError(assertion.ErrConflictingCodeSource, location,
			"cannot have both a code file and inline code"))
	case !t.hasCode && t.codeFile == "":
		return t.failDefinition(assertion.NewDefinitionError(assertion.ErrMissingCodeSource, location,
			"neither a code file nor inline code is configured"))
	case t.codeFile != "":
		if readFile == nil {
			readFile = os.ReadFile
		}
		data, err := readFile(t.codeFile)
		if err != nil {
			return fmt.Errorf("read code file for test %d: %w", t.id, err)
		}
		t.code = string(data)
	}

	t.state = StateCodeResolved
	return nil
}

// Generate instruments the code block and records the unresolved checks.
func (t *Testcase) Generate(gen instrument.Generator, header string) error {
	if err := t.expect(StateCodeResolved); err != nil {
		return err
	}

	prog, err := gen.Generate(instrument.Unit{
		TestcaseID:      t.id,
		Code:            t.code,
		Header:          header,
		ResultLog:       t.paths.ResultLog,
		Points:          t.points,
		CallsEntryPoint: t.callsEntryPoint,
	})
	if err != nil {
		if assertion.IsDefinitionError(err) {
			return t.failDefinition(err)
		}
		return fmt.Errorf("generate test %d: %w", t.id, err)
	}

	t.source = prog.Source
	t.checks = prog.Checks
	t.state = StateGenerated
	return nil
}

// Compile builds the generated program. A non-zero exit code moves the
// testcase to Failed(CompileError) and leaves every check unresolved.
func (t *Testcase) Compile(ctx context.Context, c Compiler) error {
	if err := t.expect(StateGenerated); err != nil {
		return err
	}

	res, err := c.Build(ctx, BuildRequest{TestcaseID: t.id, Source: t.source, Paths: t.paths})
	if err != nil {
		return fmt.Errorf("compile test %d: %w", t.id, err)
	}

	t.compileExitCode = res.ExitCode
	t.compileOutput = res.Diagnostics
	if res.ExitCode != 0 {
		t.fail(domain.ReasonCompileError)
		return nil
	}
	t.state = StateCompiled
	return nil
}

// Execute runs the built program, resolves checks from what it reported and
// compares its output with the expected output file, if any.
func (t *Testcase) Execute(ctx context.Context, e Executor, readFile ReadFileFunc) error {
	if err := t.expect(StateCompiled); err != nil {
		return err
	}
	if readFile == nil {
		readFile = os.ReadFile
	}

	res, err := e.Execute(ctx, ExecRequest{
		TestcaseID: t.id,
		Executable: t.paths.Executable,
		StdinFile:  t.inputFile,
		Args:       t.Args(),
		Timeout:    t.timeout,
		Paths:      t.paths,
	})
	if err != nil {
		return fmt.Errorf("execute test %d: %w", t.id, err)
	}

	t.runExitCode = res.ExitCode
	t.stdout = res.Stdout
	t.stderr = res.Stderr
	t.timedOut = res.TimedOut
	t.report = res.Report
	t.applyEvents(res.Report.Events)

	if t.timedOut {
		t.fail(domain.ReasonTimeout)
		return nil
	}

	if t.expectedFile != "" {
		expected, err := readFile(t.expectedFile)
		if err != nil {
			return fmt.Errorf("read expected output for test %d: %w", t.id, err)
		}
		t.outputMatched = t.MatchOptions().Equal(t.stdout, string(expected))
		if !t.outputMatched {
			t.fail(domain.ReasonOutputMismatch)
			return nil
		}
	}

	t.state = StateExecuted
	return nil
}

func (t *Testcase) applyEvents(events []domain.CheckEvent) {
	byID := make(map[int]*domain.Check, len(t.checks))
	for _, c := range t.checks {
		byID[c.ID] = c
	}
	for _, ev := range events {
		if c, ok := byID[ev.ID]; ok {
			c.Resolve(ev)
		}
	}
}

// Score finalizes an executed testcase and returns the points it earned.
// Failed testcases stay failed and earn zero.
func (t *Testcase) Score() float64 {
	if t.state == StateExecuted {
		t.state = StateScored
	}
	return t.EarnedPoints()
}

// Run drives the testcase through its whole lifecycle. Run-time failures
// (compile error, timeout, mismatched output, failed checks) are recorded on
// the testcase and are not errors; definition errors and infrastructure
// problems are returned.
func (t *Testcase) Run(ctx context.Context, tc Toolchain) error {
	if err := t.ResolveCode(tc.ReadFile); err != nil {
		return err
	}
	if err := t.Generate(tc.Generator, tc.Header); err != nil {
		return err
	}
	if err := t.Compile(ctx, tc.Compiler); err != nil {
		return err
	}
	if t.state == StateFailed {
		return nil
	}
	if err := t.Execute(ctx, tc.Executor, tc.ReadFile); err != nil {
		return err
	}
	t.Score()
	return nil
}

// Failure returns the reason recorded when the testcase entered Failed, or
// ReasonNone.
func (t *Testcase) Failure() domain.FailureReason {
	if t.state != StateFailed {
		return domain.ReasonNone
	}
	return t.failure
}
