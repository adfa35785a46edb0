package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"autograde/internal/assertion"
	"autograde/internal/config"
	"autograde/internal/discovery"
	"autograde/internal/storage"
	"autograde/internal/testcase"
	"autograde/internal/ui"
)

const mathSuite = `
name: math
testcases:
  - name: adds
    points: 2
    code: "CHECK(1 + 1 == 2);"
  - name: subtracts
    points: 3
    code: "CHECK(2 - 1 == 1);"
`

const stringsSuite = `
name: strings
outputs:
  - filename: strings.txt
    detail: summary
testcases:
  - name: concat
    code: "CHECK(s == t == u);"
`

func newCommands(t *testing.T, flags config.Flags) (*Commands, string) {
	t.Helper()
	project := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(project, "suites"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(project, "suites", "math.yaml"), []byte(mathSuite), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(project, "suites", "strings.yml"), []byte(stringsSuite), 0644))

	cfg := config.New()
	cfg.ProjectPath = project
	cfg.ApplyFlags(flags)

	c := NewCommands(cfg)
	c.wire(zap.NewNop())
	return c, project
}

func TestDiscoverer_Discover(t *testing.T) {
	c, _ := newCommands(t, config.Flags{})
	suites, err := c.Run.discoverer.Discover()
	require.NoError(t, err)
	require.Len(t, suites, 2)
	assert.Equal(t, "math", suites[0].Name)
	assert.Equal(t, "strings", suites[1].Name)
	assert.Equal(t, 2, suites[1].Testcases[0].ID(), "ids continue across suites")

	c, _ = newCommands(t, config.Flags{NameFilter: "sub*"})
	suites, err = c.Run.discoverer.Discover()
	require.NoError(t, err)
	require.Len(t, suites, 1)
	require.Len(t, suites[0].Testcases, 1)
	assert.Equal(t, "subtracts", suites[0].Testcases[0].Name())

	c, _ = newCommands(t, config.Flags{SuitePath: "missing"})
	_, err = c.Run.discoverer.Discover()
	assert.Error(t, err)
}

func TestKeepFailed(t *testing.T) {
	c, _ := newCommands(t, config.Flags{})
	suites, err := c.Run.discoverer.Discover()
	require.NoError(t, err)

	kept := keepFailed(suites, map[string]struct{}{storage.Key("math", "adds"): {}})
	require.Len(t, kept, 1)
	require.Len(t, kept[0].Testcases, 1)
	assert.Equal(t, "adds", kept[0].Testcases[0].Name())
	assert.Equal(t, 1, countTestcases(kept))

	assert.Empty(t, keepFailed(kept, nil))
}

func TestRunCommand_Outputs(t *testing.T) {
	suite := &discovery.Suite{Name: "s", Outputs: []discovery.OutputSpec{
		{Filename: "a.html", Detail: "teacher"},
		{Filename: "b.pdf"},
	}}

	core, logs := observer.New(zapcore.WarnLevel)
	c, _ := newCommands(t, config.Flags{})
	c.Run.logger = zap.New(core)

	outs, err := c.Run.outputs(suite)
	require.NoError(t, err)
	assert.Equal(t, []ui.Output{
		{Filename: "a.html", Format: ui.FormatHTML, Detail: ui.DetailTeacher},
		{Filename: "b.pdf", Format: ui.FormatText, Detail: ui.DetailStudent},
	}, outs)
	assert.Equal(t, 1, logs.FilterMessage(`unknown output type "b.pdf"; using txt`).Len())

	// Flags replace the suite's outputs
	c.config.Flags.Outputs = []string{"-", "r.txt"}
	c.config.Flags.Detail = "score"
	outs, err = c.Run.outputs(suite)
	require.NoError(t, err)
	assert.Equal(t, []ui.Output{
		{Filename: "", Format: ui.FormatText, Detail: ui.DetailScore},
		{Filename: "r.txt", Format: ui.FormatText, Detail: ui.DetailScore},
	}, outs)

	// No outputs anywhere means stdout
	c.config.Flags.Outputs = nil
	c.config.Flags.Detail = ""
	outs, err = c.Run.outputs(&discovery.Suite{Name: "bare"})
	require.NoError(t, err)
	assert.Equal(t, []ui.Output{{Format: ui.FormatText, Detail: ui.DetailStudent}}, outs)

	c.config.Flags.Detail = "everything"
	_, err = c.Run.outputs(&discovery.Suite{Name: "bare"})
	assert.ErrorContains(t, err, "suite bare")
}

func TestRunCommand_WriteReports(t *testing.T) {
	c, project := newCommands(t, config.Flags{})
	var stdout bytes.Buffer
	c.Run.stdout = &stdout

	tc, err := testcase.NewBuilder(0).Name("never ran").Code("").Build()
	require.NoError(t, err)
	report := filepath.Join(project, "report.txt")
	suites := []*discovery.Suite{
		{Name: "one", Testcases: []*testcase.Testcase{tc}},
		{Name: "two", Testcases: []*testcase.Testcase{tc}, Outputs: []discovery.OutputSpec{{Filename: report, Detail: "percent"}}},
	}

	require.NoError(t, c.Run.writeReports(suites))
	assert.Contains(t, stdout.String(), "TEST CASE 0: never ran\nResult: NOT RUN.\n")

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Equal(t, "Percent: 0%\n", string(data))

	suites[1].Outputs[0].Filename = filepath.Join(project, "missing", "dir", "report.txt")
	assert.Error(t, c.Run.writeReports(suites))
}

func TestRunCommand_WriteReports_SharedFile(t *testing.T) {
	c, project := newCommands(t, config.Flags{})
	suites, err := c.Run.discoverer.Discover()
	require.NoError(t, err)
	require.Len(t, suites, 2)

	report := filepath.Join(project, "all.txt")
	c.config.Flags.Outputs = []string{report}
	require.NoError(t, c.Run.writeReports(suites))

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	got := string(data)
	assert.Contains(t, got, "Test Case 0: adds (0/2)")
	assert.Contains(t, got, "Test Case 1: subtracts (0/3)")
	assert.Contains(t, got, "Test Case 2: concat")
	assert.Equal(t, 1, strings.Count(got, "Summary:\n"), "one report covers both suites")

	// Same file spelled differently, with a conflicting detail level
	core, logs := observer.New(zapcore.WarnLevel)
	c.Run.logger = zap.New(core)
	c.config.Flags.Outputs = nil
	suites[0].Outputs = []discovery.OutputSpec{{Filename: report, Detail: "summary"}}
	suites[1].Outputs = []discovery.OutputSpec{{Filename: filepath.Join(project, ".", "all.txt"), Detail: "percent"}}
	require.NoError(t, c.Run.writeReports(suites))

	data, err = os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Test Case 0: adds")
	assert.Contains(t, string(data), "Test Case 2: concat")
	assert.Equal(t, 1, logs.FilterMessage("Report settings differ between suites; using the first").Len())
}

func TestGenerateCommand_Execute(t *testing.T) {
	c, project := newCommands(t, config.Flags{})

	err := c.Generate.Execute(&cobra.Command{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, assertion.ErrMultipleComparators)

	for _, id := range []string{"Test0.cpp", "Test1.cpp"} {
		data, err := os.ReadFile(filepath.Join(project, config.DefaultBuildDir, id))
		require.NoError(t, err)
		assert.Contains(t, string(data), "void _chk_main()")
	}
	assert.NoFileExists(t, filepath.Join(project, config.DefaultBuildDir, "Test2.cpp"))
}
