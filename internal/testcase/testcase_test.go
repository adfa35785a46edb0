package testcase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autograde/internal/assertion"
	"autograde/internal/domain"
	"autograde/internal/instrument"
)

type fakeCompiler struct {
	exitCode int
	err      error
	got      BuildRequest
}

func (f *fakeCompiler) Build(_ context.Context, req BuildRequest) (BuildResult, error) {
	f.got = req
	return BuildResult{ExitCode: f.exitCode, Diagnostics: "diag"}, f.err
}

type fakeExecutor struct {
	result ExecResult
	err    error
	got    ExecRequest
}

func (f *fakeExecutor) Execute(_ context.Context, req ExecRequest) (ExecResult, error) {
	f.got = req
	return f.result, f.err
}

func files(m map[string]string) ReadFileFunc {
	return func(name string) ([]byte, error) {
		if s, ok := m[name]; ok {
			return []byte(s), nil
		}
		return nil, os.ErrNotExist
	}
}

func build(t *testing.T, b *Builder) *Testcase {
	t.Helper()
	tc, err := b.Build()
	require.NoError(t, err)
	return tc
}

func TestBuilder_Defaults(t *testing.T) {
	tc := build(t, NewBuilder(3))
	assert.Equal(t, "Test 3", tc.Name())
	assert.True(t, tc.CallsEntryPoint())
	assert.Equal(t, Exact, tc.MatchOptions())
	assert.Equal(t, DefaultTimeout, tc.Timeout())
	assert.Equal(t, StateDefined, tc.State())
	assert.Equal(t, NotRun, tc.CompileExitCode())
	assert.Equal(t, DerivePaths(DefaultDir, 3), tc.Paths())
	assert.False(t, tc.Passed())
	assert.Equal(t, domain.ReasonNotRun, tc.Reason())
}

func TestBuilder_Validation(t *testing.T) {
	_, err := NewBuilder(1).Points(-1).Build()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewBuilder(1).Timeout(0).Build()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewBuilder(-2).Build()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	b := NewBuilder(1)
	_, err = b.Build()
	require.NoError(t, err)
	_, err = b.Build()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBuilder_ArtifactPaths(t *testing.T) {
	tc := build(t, NewBuilder(7).Dir("work").ArtifactPaths(Paths{Stdout: "custom.txt"}))
	p := tc.Paths()
	assert.Equal(t, "custom.txt", p.Stdout)
	assert.Equal(t, filepath.Join("work", "Test7.cpp"), p.Source)
	assert.Equal(t, filepath.Join("work", "Test7-results.txt"), p.ResultLog)
}

func TestDerivePaths_UniquePerID(t *testing.T) {
	a, b := DerivePaths("d", 1), DerivePaths("d", 2)
	for k, v := range a.Vars() {
		assert.NotEqual(t, v, b.Vars()[k], "path %s shared between testcases", k)
	}
}

func TestRun_EndToEnd(t *testing.T) {
	tc := build(t, NewBuilder(0).Points(10).Code("CHECK(2+2==4);"))
	comp := &fakeCompiler{}
	exec := &fakeExecutor{result: ExecResult{
		Report: domain.RunReport{
			TestcaseID: 0,
			Events:     []domain.CheckEvent{{ID: 0, Passed: true, Left: "4", Right: "4"}},
			Score:      10,
			HasScore:   true,
		},
	}}

	err := tc.Run(context.Background(), Toolchain{
		Generator: instrument.NewCppGenerator(),
		Compiler:  comp,
		Executor:  exec,
		ReadFile:  files(nil),
	})
	require.NoError(t, err)

	checks := tc.Checks()
	require.Len(t, checks, 1)
	assert.True(t, checks[0].Passed)
	assert.True(t, checks[0].Resolved)
	assert.Equal(t, "4", checks[0].LeftValue)
	assert.True(t, tc.Passed())
	assert.Equal(t, 10.0, tc.EarnedPoints())
	assert.Equal(t, StateScored, tc.State())
	assert.Equal(t, domain.ReasonNone, tc.Reason())

	assert.Equal(t, tc.Source(), comp.got.Source)
	assert.Equal(t, tc.Paths().Executable, exec.got.Executable)
	assert.Equal(t, DefaultTimeout, exec.got.Timeout)
}

func TestRun_CompileFailureShortCircuits(t *testing.T) {
	tc := build(t, NewBuilder(1).Points(5).Code("CHECK(x == 1);"))
	exec := &fakeExecutor{}

	err := tc.Run(context.Background(), Toolchain{
		Generator: instrument.NewCppGenerator(),
		Compiler:  &fakeCompiler{exitCode: 1},
		Executor:  exec,
	})
	require.NoError(t, err)
	assert.Equal(t, StateFailed, tc.State())
	assert.Equal(t, domain.ReasonCompileError, tc.Failure())
	assert.Equal(t, domain.ReasonCompileError, tc.Reason())
	assert.Equal(t, "diag", tc.CompileOutput())
	assert.False(t, tc.Passed())
	assert.Zero(t, tc.EarnedPoints())
	assert.Empty(t, exec.got.Executable, "executor must not run after a compile failure")
	assert.False(t, tc.Checks()[0].Resolved)
}

func TestRun_Timeout(t *testing.T) {
	tc := build(t, NewBuilder(2).Points(5).Code("CHECK(a()); CHECK(b());").Timeout(time.Second))
	err := tc.Run(context.Background(), Toolchain{
		Generator: instrument.NewCppGenerator(),
		Compiler:  &fakeCompiler{},
		Executor: &fakeExecutor{result: ExecResult{
			TimedOut: true,
			ExitCode: -1,
			Report:   domain.RunReport{Events: []domain.CheckEvent{{ID: 0, Passed: true, Left: "true"}}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonTimeout, tc.Failure())
	assert.True(t, tc.PassedCheck(0))
	assert.False(t, tc.PassedCheck(1))
	assert.Zero(t, tc.EarnedPoints())
}

func TestRun_OutputComparison(t *testing.T) {
	tests := []struct {
		name      string
		builder   func(*Builder) *Builder
		stdout    string
		expected  string
		wantMatch bool
	}{
		{name: "exact match", builder: func(b *Builder) *Builder { return b }, stdout: "Hello\n", expected: "Hello\n", wantMatch: true},
		{name: "case differs", builder: func(b *Builder) *Builder { return b }, stdout: "hello\n", expected: "Hello\n", wantMatch: false},
		{name: "case ignored", builder: func(b *Builder) *Builder { return b.CaseSensitive(false) }, stdout: "hello\n", expected: "HELLO\n", wantMatch: true},
		{name: "whitespace differs", builder: func(b *Builder) *Builder { return b }, stdout: "a  b", expected: "a b\n", wantMatch: false},
		{name: "whitespace ignored", builder: func(b *Builder) *Builder { return b.WhitespaceSensitive(false) }, stdout: "a  b", expected: "a b\n", wantMatch: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(4).Points(3).Code("CHECK(true);").ExpectedOutputFile("expected.txt")
			tc := build(t, tt.builder(b))
			err := tc.Run(context.Background(), Toolchain{
				Generator: instrument.NewCppGenerator(),
				Compiler:  &fakeCompiler{},
				Executor: &fakeExecutor{result: ExecResult{
					Stdout: tt.stdout,
					Report: domain.RunReport{Events: []domain.CheckEvent{{ID: 0, Passed: true}}},
				}},
				ReadFile: files(map[string]string{"expected.txt": tt.expected}),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantMatch, tc.OutputMatched())
			assert.Equal(t, tt.wantMatch, tc.Passed())
			if !tt.wantMatch {
				assert.Equal(t, domain.ReasonOutputMismatch, tc.Failure())
				assert.True(t, tc.PassedCheck(0), "resolved checks are still reported")
			}
		})
	}
}

func TestRun_FailedCheck(t *testing.T) {
	tc := build(t, NewBuilder(5).Points(4).Code("int x = 3;\nCHECK(x == 4);\nCHECK(x > 0);"))
	err := tc.Run(context.Background(), Toolchain{
		Generator: instrument.NewCppGenerator(),
		Compiler:  &fakeCompiler{},
		Executor: &fakeExecutor{result: ExecResult{Report: domain.RunReport{Events: []domain.CheckEvent{
			{ID: 0, Passed: false, Left: "3", Right: "4"},
			{ID: 1, Passed: true, Left: "3", Right: "0"},
		}}}},
	})
	require.NoError(t, err)
	assert.Equal(t, StateScored, tc.State())
	assert.Equal(t, domain.ReasonCheckFailed, tc.Reason())
	assert.False(t, tc.PassedLine(1))
	assert.True(t, tc.PassedLine(2))
	assert.True(t, tc.PassedLine(0))
	assert.Equal(t, 1, tc.CountFailed())
	assert.Zero(t, tc.Score())
}

func TestResolveCode(t *testing.T) {
	t.Run("conflicting sources", func(t *testing.T) {
		tc := build(t, NewBuilder(1).Code("x").CodeFile("a.cpp"))
		err := tc.ResolveCode(files(nil))
		assert.ErrorIs(t, err, assertion.ErrConflictingCodeSource)
		assert.Equal(t, StateFailed, tc.State())
		assert.Equal(t, domain.ReasonDefinition, tc.Reason())
	})

	t.Run("missing source", func(t *testing.T) {
		tc := build(t, NewBuilder(1))
		err := tc.ResolveCode(files(nil))
		assert.ErrorIs(t, err, assertion.ErrMissingCodeSource)
		assert.Contains(t, err.Error(), "Test #1")
	})

	t.Run("empty inline code is a source", func(t *testing.T) {
		tc := build(t, NewBuilder(1).Code(""))
		require.NoError(t, tc.ResolveCode(files(nil)))
		assert.Equal(t, StateCodeResolved, tc.State())
	})

	t.Run("loads code file", func(t *testing.T) {
		tc := build(t, NewBuilder(1).CodeFile("t.cpp"))
		require.NoError(t, tc.ResolveCode(files(map[string]string{"t.cpp": "CHECK(1 == 1);\n"})))
		assert.Equal(t, "CHECK(1 == 1);\n", tc.Code())
		assert.Equal(t, []string{"CHECK(1 == 1);"}, tc.CodeLines())
	})

	t.Run("unreadable code file is not a definition error", func(t *testing.T) {
		tc := build(t, NewBuilder(1).CodeFile("missing.cpp"))
		err := tc.ResolveCode(files(nil))
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.False(t, assertion.IsDefinitionError(err))
	})
}

func TestGenerate_DefinitionErrorAborts(t *testing.T) {
	tc := build(t, NewBuilder(8).Code("CHECK(a == 1); CHECK(b || c);"))
	require.NoError(t, tc.ResolveCode(nil))
	err := tc.Generate(instrument.NewCppGenerator(), "")
	assert.ErrorIs(t, err, assertion.ErrMalformedAssertion)
	assert.Contains(t, err.Error(), "Test #8, Check #1")
	assert.Equal(t, 0, tc.NumChecks(), "no partial instrumentation is kept")
	assert.Equal(t, StateFailed, tc.State())
}

func TestLifecycle_OutOfOrder(t *testing.T) {
	tc := build(t, NewBuilder(1).Code("CHECK(true);"))
	err := tc.Compile(context.Background(), &fakeCompiler{})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = tc.Execute(context.Background(), &fakeExecutor{}, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, tc.ResolveCode(nil))
	assert.ErrorIs(t, tc.ResolveCode(nil), ErrInvalidTransition)
}

func TestLifecycle_InfrastructureErrors(t *testing.T) {
	boom := errors.New("boom")
	tc := build(t, NewBuilder(1).Code("CHECK(true);"))
	err := tc.Run(context.Background(), Toolchain{
		Generator: instrument.NewCppGenerator(),
		Compiler:  &fakeCompiler{err: boom},
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateGenerated, tc.State())
	assert.Equal(t, domain.ReasonNotRun, tc.Reason())
}

func TestPassed_Properties(t *testing.T) {
	newChecks := func(passed ...bool) []*domain.Check {
		var out []*domain.Check
		for i, p := range passed {
			c := domain.NewCheck(i, domain.CheckLabel(0, i), i, assertion.MustParse("x"))
			c.Resolve(domain.CheckEvent{ID: i, Passed: p})
			out = append(out, c)
		}
		return out
	}

	t.Run("compile failure never passes", func(t *testing.T) {
		tc := build(t, NewBuilder(0).Points(10))
		tc.checks = newChecks(true, true)
		tc.compileExitCode = 1
		assert.False(t, tc.Passed())
		assert.Zero(t, tc.EarnedPoints())
	})

	t.Run("all conditions met", func(t *testing.T) {
		tc := build(t, NewBuilder(0).Points(10))
		tc.checks = newChecks(true, true, true)
		tc.compileExitCode = 0
		tc.outputMatched = true
		tc.timedOut = false
		assert.True(t, tc.Passed())
		assert.Equal(t, 10.0, tc.EarnedPoints())
	})

	t.Run("nonexistent check id is vacuously passing", func(t *testing.T) {
		tc := build(t, NewBuilder(0))
		assert.True(t, tc.PassedCheck(0))
		assert.True(t, tc.PassedCheck(42))
		tc.checks = newChecks(false, true)
		assert.True(t, tc.PassedCheck(5))
		assert.True(t, tc.PassedCheck(-1))
		assert.False(t, tc.PassedCheck(0))
	})

	t.Run("priority of reasons", func(t *testing.T) {
		tc := build(t, NewBuilder(0))
		tc.checks = newChecks(false)
		tc.compileExitCode = 0
		tc.outputMatched = false
		tc.timedOut = true
		assert.Equal(t, domain.ReasonTimeout, tc.Reason())
		tc.timedOut = false
		assert.Equal(t, domain.ReasonOutputMismatch, tc.Reason())
		tc.outputMatched = true
		assert.Equal(t, domain.ReasonCheckFailed, tc.Reason())
	})
}

func TestChecks_ReturnsCopies(t *testing.T) {
	tc := build(t, NewBuilder(0).Code("CHECK(true);"))
	require.NoError(t, tc.ResolveCode(nil))
	require.NoError(t, tc.Generate(instrument.NewCppGenerator(), ""))

	checks := tc.Checks()
	checks[0].Passed = true
	assert.False(t, tc.PassedCheck(0))
}

func TestResult(t *testing.T) {
	tc := build(t, NewBuilder(2).Name("Adds").Points(4).Hidden(true).Code("CHECK(1 + 1 == 2);"))
	require.NoError(t, tc.Run(context.Background(), Toolchain{
		Generator: instrument.NewCppGenerator(),
		Compiler:  &fakeCompiler{},
		Executor: &fakeExecutor{result: ExecResult{Report: domain.RunReport{Events: []domain.CheckEvent{
			{ID: 0, Passed: true, Left: "2", Right: "2"},
		}}}},
	}))

	res := tc.Result()
	assert.Equal(t, "Adds", res.Name)
	assert.True(t, res.Hidden)
	assert.True(t, res.Passed)
	assert.Equal(t, 4.0, res.Earned)
	assert.Equal(t, "none", res.Reason)
	require.Len(t, res.Checks, 1)
	assert.Equal(t, "1 + 1", res.Checks[0].Left)
	assert.Equal(t, "==", res.Checks[0].Comparator)
	assert.Equal(t, "2", res.Checks[0].RightValue)
}

func TestMatchOptions(t *testing.T) {
	assert.True(t, Exact.Equal("a b\n", "a b\n"))
	assert.False(t, Exact.Equal("a b", "a b\n"))
	loose := MatchOptions{}
	assert.True(t, loose.Equal("  A\tB \n", "a b"))
	assert.Equal(t, "a b", loose.Normalize(" A \n B "))
}
