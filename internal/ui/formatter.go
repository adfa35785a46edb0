package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/fatih/color"

	"autograde/internal/config"
	"autograde/internal/discovery"
	"autograde/internal/domain"
	"autograde/internal/storage"
)

// Formatter writes the coloured console views: run statistics and suite
// listings.
type Formatter struct {
	config *config.Config
	out    io.Writer
}

// NewFormatter creates a Formatter writing to the colour-aware stdout.
func NewFormatter(cfg *config.Config) *Formatter {
	return &Formatter{config: cfg, out: color.Output}
}

// SetOutput redirects the formatter.
func (f *Formatter) SetOutput(w io.Writer) { f.out = w }

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	white  = color.New(color.FgWhite)
)

// PrintMetaStats displays the statistics of a grading run followed by a tree
// of what failed.
func (f *Formatter) PrintMetaStats(results *domain.SuiteResults) {
	meta := results.Meta

	fmt.Fprintln(f.out)
	cyan.Fprintln(f.out, "╔═══════════════════════════════════════════════════════════════╗")
	cyan.Fprintln(f.out, "║                     Grading Statistics                        ║")
	cyan.Fprintln(f.out, "╚═══════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(f.out)

	const sep = "├─────────────────────────────────┼─────────────────────────────┤"
	rows := []struct {
		label string
		value string
		c     *color.Color
	}{
		{"Total Testcases", fmt.Sprint(meta.TotalTestcases), white},
		{"Passed Testcases", fmt.Sprint(meta.PassedTestcases), green},
		{"Failed Testcases", fmt.Sprint(meta.FailedTestcases), red},
		{"Failed Checks", fmt.Sprint(meta.FailedChecks), red},
		{"Score", formatPoints(meta.PointsEarned) + " / " + formatPoints(meta.PointsTotal), white},
		{"Duration", fmt.Sprintf("%.2fs", meta.DurationSeconds), white},
		{"Workers", fmt.Sprint(meta.Workers), white},
		{"Timestamp", meta.Timestamp, white},
	}

	fmt.Fprintln(f.out, "┌─────────────────────────────────┬─────────────────────────────┐")
	for i, row := range rows {
		fmt.Fprintf(f.out, "│ %-31s │ ", row.label)
		row.c.Fprintf(f.out, "%-27s", row.value)
		fmt.Fprintln(f.out, " │")
		if i < len(rows)-1 {
			fmt.Fprintln(f.out, sep)
		}
	}
	fmt.Fprintln(f.out, "└─────────────────────────────────┴─────────────────────────────┘")

	fmt.Fprintln(f.out)
	if meta.FailedTestcases == 0 {
		green.Fprintln(f.out, "✓ All testcases passed!")
		return
	}
	red.Fprintf(f.out, "✗ %d testcase(s) failed with %d check failure(s)\n", meta.FailedTestcases, meta.FailedChecks)
	fmt.Fprintln(f.out)
	f.printFailedTree(results.Failed())
}

// printFailedTree prints suite -> testcase -> failed check.
func (f *Formatter) printFailedTree(failed []domain.TestcaseResult) {
	bySuite := make(map[string][]domain.TestcaseResult)
	for _, d := range failed {
		bySuite[d.Suite] = append(bySuite[d.Suite], d)
	}
	suites := make([]string, 0, len(bySuite))
	for s := range bySuite {
		suites = append(suites, s)
	}
	sort.Strings(suites)

	for i, s := range suites {
		lastSuite := i == len(suites)-1
		branch, indent := "├── ", "│   "
		if lastSuite {
			branch, indent = "└── ", "    "
		}
		cyan.Fprintf(f.out, "%s%s\n", branch, s)

		cases := bySuite[s]
		for j, d := range cases {
			caseBranch, caseIndent := "├── ", "│   "
			if j == len(cases)-1 {
				caseBranch, caseIndent = "└── ", "    "
			}
			yellow.Fprintf(f.out, "%s%sTest %d: %s", indent, caseBranch, d.ID, d.Name)
			red.Fprintf(f.out, " (%s)\n", d.Reason)

			var checks []domain.CheckResult
			for _, c := range d.Checks {
				if !c.Passed && (c.Resolved || d.Reason == domain.ReasonCheckFailed.String()) {
					checks = append(checks, c)
				}
			}
			for k, c := range checks {
				checkBranch := "├── "
				if k == len(checks)-1 {
					checkBranch = "└── "
				}
				red.Fprintf(f.out, "%s%s%sline %d: %s\n", indent, caseIndent, checkBranch, c.Line+1, c.Test)
			}
		}
	}
}

func (f *Formatter) relPath(path string) string {
	if rel, err := filepath.Rel(f.config.ProjectPath, path); err == nil {
		return rel
	}
	return path
}

// PrintSuiteList prints suites, optionally with their testcases. Testcases
// whose storage.Key is in failed are marked [F] (from the last run).
func (f *Formatter) PrintSuiteList(suites []*discovery.Suite, showTestcases bool, failed map[string]struct{}) {
	total := 0
	for _, s := range suites {
		total += len(s.Testcases)
	}
	green.Fprintf(f.out, "Found %d suite(s) with %d testcase(s):\n\n", len(suites), total)

	isFailed := func(s *discovery.Suite, name string) bool {
		_, ok := failed[storage.Key(s.Name, name)]
		return ok
	}

	for i, s := range suites {
		lastSuite := i == len(suites)-1
		branch, indent := "├── ", "│   "
		if lastSuite {
			branch, indent = "└── ", "    "
		}

		marker := ""
		for _, tc := range s.Testcases {
			if isFailed(s, tc.Name()) {
				marker = " " + red.Sprint("[F]")
				break
			}
		}
		cyan.Fprintf(f.out, "%s%s (%s, %s pts)", branch, s.Name, f.relPath(s.Path), formatPoints(s.PointsTotal()))
		fmt.Fprintf(f.out, "%s\n", marker)

		if !showTestcases {
			continue
		}
		if len(s.Testcases) == 0 {
			fmt.Fprintf(f.out, "%s└── %s\n", indent, red.Sprint("(no testcases found)"))
			continue
		}
		for j, tc := range s.Testcases {
			caseBranch := "├── "
			if j == len(s.Testcases)-1 {
				caseBranch = "└── "
			}
			line := fmt.Sprintf("%d: %s", tc.ID(), tc.Name())
			if tc.Hidden() {
				line += " [HIDDEN]"
			}
			fmt.Fprintf(f.out, "%s%s%s", indent, caseBranch, yellow.Sprint(line))
			if isFailed(s, tc.Name()) {
				fmt.Fprintf(f.out, " %s", red.Sprint("[F]"))
			}
			fmt.Fprintln(f.out)
		}
		if !lastSuite {
			fmt.Fprintln(f.out)
		}
	}
}
