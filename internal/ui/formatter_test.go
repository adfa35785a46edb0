package ui

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autograde/internal/config"
	"autograde/internal/discovery"
	"autograde/internal/domain"
	"autograde/internal/storage"
	"autograde/internal/testcase"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func sampleResults() *domain.SuiteResults {
	return &domain.SuiteResults{
		Meta: domain.SuiteResultsMeta{
			RunID: "run", TotalTestcases: 3, PassedTestcases: 1, FailedTestcases: 2, FailedChecks: 1,
			PointsEarned: 10, PointsTotal: 20, DurationSeconds: 1.234, Workers: 4, Timestamp: "2026-01-02T03:04:05Z",
		},
		Details: []domain.TestcaseResult{
			{ID: 0, Name: "adds", Suite: "math", Passed: true, Reason: "none"},
			{ID: 1, Name: "subtracts", Suite: "math", Reason: "check_failed", Message: domain.ReasonCheckFailed.Message(),
				Points: 5, Checks: []domain.CheckResult{
					{ID: 0, Label: "Test #1, Check #0", Line: 2, Test: "a - b == 1", Left: "a - b", Comparator: "==", Right: "1", LeftValue: "3", RightValue: "1", Resolved: true},
					{ID: 1, Label: "Test #1, Check #1", Line: 3, Test: "ok", Left: "ok", LeftValue: "1", Passed: true, Resolved: true},
				},
				Code: []string{"int a = 4;", "int b = 1;", "CHECK(a - b == 1);", "CHECK(ok);"}},
			{ID: 2, Name: "builds", Suite: "build", Reason: "compile_error", Message: domain.ReasonCompileError.Message(),
				Points: 5, CompileNotes: "error: expected ';'", Checks: []domain.CheckResult{
					{ID: 0, Label: "Test #2, Check #0", Line: 0, Test: "f() == 2", Comparator: "=="},
				}},
		},
	}
}

func TestFormatter_PrintMetaStats(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(config.New())
	f.SetOutput(&buf)

	f.PrintMetaStats(sampleResults())
	out := buf.String()

	assert.Contains(t, out, "│ Total Testcases                 │ 3                           │")
	assert.Contains(t, out, "│ Score                           │ 10 / 20                     │")
	assert.Contains(t, out, "│ Duration                        │ 1.23s                       │")
	assert.Contains(t, out, "✗ 2 testcase(s) failed with 1 check failure(s)")

	// Suites sorted, the unrun check of the compile failure is not listed
	assert.Contains(t, out, "├── build\n│   └── Test 2: builds (compile_error)\n")
	assert.Contains(t, out, "└── math\n    └── Test 1: subtracts (check_failed)\n        └── line 3: a - b == 1\n")
	assert.NotContains(t, out, "f() == 2")
}

func TestFormatter_PrintMetaStatsAllPassed(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(config.New())
	f.SetOutput(&buf)

	f.PrintMetaStats(&domain.SuiteResults{Meta: domain.SuiteResultsMeta{TotalTestcases: 1, PassedTestcases: 1}})
	assert.Contains(t, buf.String(), "✓ All testcases passed!")
}

func TestFormatter_PrintSuiteList(t *testing.T) {
	project := t.TempDir()
	cfg := config.New()
	cfg.ProjectPath = project

	tc0, err := testcase.NewBuilder(0).Name("adds").Points(2).Code("").Build()
	require.NoError(t, err)
	tc1, err := testcase.NewBuilder(1).Name("subtracts").Points(3).Hidden(true).Code("").Build()
	require.NoError(t, err)
	suites := []*discovery.Suite{
		{Name: "math", Path: filepath.Join(project, "suites", "math.yaml"), Testcases: []*testcase.Testcase{tc0, tc1}},
		{Name: "empty", Path: filepath.Join(project, "empty.yaml")},
	}
	failed := map[string]struct{}{storage.Key("math", "subtracts"): {}}

	tests := []struct {
		name          string
		showTestcases bool
		want          []string
		notWant       []string
	}{
		{
			name: "suites only",
			want: []string{
				"Found 2 suite(s) with 2 testcase(s):",
				"├── math (" + filepath.Join("suites", "math.yaml") + ", 5 pts) [F]\n",
				"└── empty (empty.yaml, 0 pts)\n",
			},
			notWant: []string{"adds"},
		},
		{
			name:          "with testcases",
			showTestcases: true,
			want: []string{
				"│   ├── 0: adds\n",
				"│   └── 1: subtracts [HIDDEN] [F]\n",
				"    └── (no testcases found)\n",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f := NewFormatter(cfg)
			f.SetOutput(&buf)
			f.PrintSuiteList(suites, tt.showTestcases, failed)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, buf.String(), w)
			}
		})
	}
}

func TestFormatFailureDetails(t *testing.T) {
	results := sampleResults()

	out := formatFailureDetails(results.Details[1])
	assert.Contains(t, out, "Test 1: subtracts")
	assert.Contains(t, out, "Check FAILED[white] (Test #1, Check #0, line 3)")
	assert.Contains(t, out, "  Left side:   a - b  resolves to:  3\n")
	assert.Contains(t, out, "[red]>   3  CHECK(a - b == 1);[white]\n")
	assert.Contains(t, out, "    4  CHECK(ok);\n")
	assert.NotContains(t, out, "Check #1)")

	out = formatFailureDetails(results.Details[2])
	assert.Contains(t, out, "Compiler output:")
	assert.NotContains(t, out, "Check ")

	stats := formatFailureStats(results.Details[2])
	assert.True(t, strings.HasPrefix(stats, "[cyan]suite:[white] [yellow]build[white]::[yellow]builds"))
}

func TestFailedIndexes(t *testing.T) {
	assert.Equal(t, []int{1, 2}, failedIndexes(sampleResults()))
	assert.Empty(t, failedIndexes(&domain.SuiteResults{}))
}
