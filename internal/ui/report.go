package ui

import (
	"fmt"
	"html"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"autograde/internal/assertion"
	"autograde/internal/discovery"
	"autograde/internal/domain"
	"autograde/internal/testcase"
)

// Graded is the read-only view of a testcase that reports render.
// *testcase.Testcase implements it.
type Graded interface {
	ID() int
	Name() string
	Hidden() bool
	Points() float64
	EarnedPoints() float64
	Passed() bool
	Reason() domain.FailureReason
	DefinitionError() error
	Checks() []domain.Check
	CodeLines() []string
	PassedLine(line int) bool
}

// Reporter renders testcase outcomes as plain text or HTML. It never
// changes what it renders, so rendering the same testcase twice gives the
// same output.
type Reporter struct {
	format Format
	detail Detail
}

// NewReporter creates a Reporter.
func NewReporter(format Format, detail Detail) *Reporter {
	return &Reporter{format: format, detail: detail}
}

// printer writes until the first error and keeps it.
type printer struct {
	w    io.Writer
	html bool
	err  error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// esc escapes user-controlled text for HTML output.
func (p *printer) esc(s string) string {
	if p.html {
		return html.EscapeString(s)
	}
	return s
}

func (r *Reporter) printer(w io.Writer) *printer {
	return &printer{w: w, html: r.format == FormatHTML}
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteHeading writes the report title for the detail level, if it has one.
func (r *Reporter) WriteHeading(w io.Writer) error {
	heading := r.detail.Heading()
	if heading == "" {
		return nil
	}
	p := r.printer(w)
	if p.html {
		p.printf("<h1>%s</h1>\n\n", heading)
	} else {
		p.printf("%s\n\n", heading)
	}
	return p.err
}

// WriteTestcase renders one testcase: title, outcome, failed checks and the
// source listing. Hidden testcases show check details and source only at
// teacher detail or above; passed testcases list source only at full detail
// or above.
func (r *Reporter) WriteTestcase(w io.Writer, g Graded) error {
	p := r.printer(w)
	showDetails := !g.Hidden() || r.detail.HasHiddenDetails()

	r.writeTitle(p, g)
	r.writeOutcome(p, g)

	if showDetails {
		if err := g.DefinitionError(); err != nil {
			if p.html {
				p.printf("<p>Error: <code>%s</code></p>\n", p.esc(err.Error()))
			} else {
				p.printf("Error: %s\n", err)
			}
		}
		reason := g.Reason()
		ran := reason == domain.ReasonNone || reason >= domain.ReasonTimeout
		for _, c := range g.Checks() {
			if c.Passed || (!c.Resolved && !ran) {
				continue
			}
			r.writeCheck(p, c)
		}
	}

	if showDetails && (!g.Passed() || r.detail.HasPassedDetails()) {
		r.writeSource(p, g)
	}

	p.printf("\n")
	return p.err
}

func (r *Reporter) writeTitle(p *printer, g Graded) {
	if p.html {
		p.printf("<h2>Test Case %d: %s", g.ID(), p.esc(g.Name()))
		if g.Hidden() {
			p.printf(" <small>[HIDDEN]</small>")
		}
		p.printf("</h2>\n")
		return
	}
	p.printf("TEST CASE %d: %s", g.ID(), g.Name())
	if g.Hidden() {
		p.printf(" [HIDDEN]")
	}
	p.printf("\n")
}

func (r *Reporter) writeOutcome(p *printer, g Graded) {
	// Passed() is authoritative; Reason() picks the single message to show.
	message := domain.ReasonNone.Message()
	if !g.Passed() {
		message = g.Reason().Message()
	}
	if p.html {
		c := "green"
		if !g.Passed() {
			c = "red"
		}
		p.printf("<b>Result: <span style=\"color: %s\">%s</span></b><br><br>\n\n", c, message)
		return
	}
	p.printf("Result: %s\n", message)
}

func (r *Reporter) writeCheck(p *printer, c domain.Check) {
	a := c.Assertion
	status := "FAILED"
	if !c.Resolved {
		status = "NOT REACHED"
	}

	if p.html {
		p.printf("<p>Check <span style=\"color: red\"><b>%s</b></span> (%s, line %d):<br>\n", status, p.esc(c.Label), c.Line+1)
		p.printf("Test: <code>%s</code><br><br>\n", p.esc(a.String()))
		if a.HasComparator() && c.Resolved {
			p.printf("<table><tr><td>Left side:<td><code>%s</code><td>&nbsp;&nbsp;resolves to:<td><code>%s</code></tr>\n",
				p.esc(a.Left()), p.esc(c.LeftValue))
			p.printf("<tr><td>Right side:<td><code>%s</code><td>&nbsp;&nbsp;resolves to:<td><code>%s</code></tr></table><br>\n",
				p.esc(a.Right()), p.esc(c.RightValue))
			p.printf("Expected <code>%s</code>, but <code>%s</code>.<br>\n",
				p.esc(a.String()), p.esc(actual(c)))
		}
		p.printf("</p>\n")
		return
	}

	p.printf("Check %s (%s, line %d):\n", status, c.Label, c.Line+1)
	p.printf("  Test: %s\n", a)
	if a.HasComparator() && c.Resolved {
		var b strings.Builder
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "  Left side:\t%s\tresolves to:\t%s\n", a.Left(), c.LeftValue)
		fmt.Fprintf(tw, "  Right side:\t%s\tresolves to:\t%s\n", a.Right(), c.RightValue)
		tw.Flush()
		p.printf("%s", b.String())
		p.printf("  Expected %s, but %s.\n", a, actual(c))
	}
}

// actual phrases what the failed comparison actually found, e.g. "3 != 4".
func actual(c domain.Check) string {
	return fmt.Sprintf("%s %s %s", c.LeftValue, assertion.FlipComparator(c.Assertion.Comparator()), c.RightValue)
}

func (r *Reporter) writeSource(p *printer, g Graded) {
	lines := g.CodeLines()
	if p.html {
		p.printf("Source:<br><br>\n<table style=\"background-color:#E3E0CF;\"><tr><td><pre>\n")
		for i, line := range lines {
			if g.PassedLine(i) {
				p.printf("%s\n", p.esc(line))
			} else {
				p.printf("<b style=\"color: red\">%s</b>\n", p.esc(line))
			}
		}
		p.printf("</pre></td></tr></table>\n")
		return
	}

	p.printf("Source:\n\n")
	for i, line := range lines {
		marker := "  "
		if !g.PassedLine(i) {
			marker = "> "
		}
		p.printf("%s%3d  %s\n", marker, i+1, line)
	}
}

// WriteSummary writes the suite-level summary the detail level allows: a
// pass/fail line per testcase, the score and the percentage.
func (r *Reporter) WriteSummary(w io.Writer, graded []Graded) error {
	p := r.printer(w)

	var earned, total float64
	passed := 0
	for _, g := range graded {
		earned += g.EarnedPoints()
		total += g.Points()
		if g.Passed() {
			passed++
		}
	}

	if r.detail.HasSummary() {
		if p.html {
			p.printf("<h2>Summary</h2>\n<table>\n")
		} else {
			p.printf("Summary:\n")
		}
		for _, g := range graded {
			status, c := "PASSED", "green"
			if !g.Passed() {
				status, c = "FAILED", "red"
			}
			hidden := ""
			if g.Hidden() {
				hidden = " [HIDDEN]"
			}
			score := formatPoints(g.EarnedPoints()) + "/" + formatPoints(g.Points())
			if p.html {
				p.printf("<tr><td><span style=\"color: %s\">%s</span><td>Test Case %d: %s%s<td>%s</tr>\n",
					c, status, g.ID(), p.esc(g.Name()), hidden, score)
			} else {
				p.printf("  %-6s  Test Case %d: %s%s (%s)\n", status, g.ID(), g.Name(), hidden, score)
			}
		}
		if p.html {
			p.printf("</table>\n")
		}
	}

	if r.detail.HasScore() {
		if p.html {
			p.printf("<p><b>Score:</b> %s / %s</p>\n", formatPoints(earned), formatPoints(total))
		} else {
			p.printf("Score: %s / %s\n", formatPoints(earned), formatPoints(total))
		}
	}

	if r.detail.HasPercent() {
		percent := 100.0
		switch {
		case total > 0:
			percent = 100 * earned / total
		case len(graded) > 0:
			percent = 100 * float64(passed) / float64(len(graded))
		}
		if p.html {
			p.printf("<p><b>Percent:</b> %.0f%%</p>\n", percent)
		} else {
			p.printf("Percent: %.0f%%\n", percent)
		}
	}
	return p.err
}

// WriteDebug dumps a testcase's configuration and artifact paths.
func (r *Reporter) WriteDebug(w io.Writer, tc *testcase.Testcase) error {
	p := r.printer(w)
	orNone := func(s string) string {
		if s == "" {
			return "(none)"
		}
		return s
	}
	paths := tc.Paths()
	opts := tc.MatchOptions()

	if p.html {
		p.printf("<pre>\n")
	}
	p.printf("===============\n")
	rows := []struct{ k, v string }{
		{"Name", tc.Name()},
		{"Points", formatPoints(tc.Points())},
		{"Hidden", strconv.FormatBool(tc.Hidden())},
		{"match_case", strconv.FormatBool(opts.CaseSensitive)},
		{"match_space", strconv.FormatBool(opts.WhitespaceSensitive)},
		{"run_main", strconv.FormatBool(tc.CallsEntryPoint())},
		{"Command Line Args", strings.Join(tc.Args(), " ")},
		{"Timeout", tc.Timeout().String()},
		{"Input file", orNone(tc.InputFile())},
		{"Expected output", orNone(tc.ExpectedOutputFile())},
		{"Code file", orNone(tc.CodeFile())},
		{"Generated source", paths.Source},
		{"Compile log", paths.CompileLog},
		{"Executable", paths.Executable},
		{"Stdout", paths.Stdout},
		{"Stderr", paths.Stderr},
		{"Result log", paths.ResultLog},
		{"State", tc.State().String()},
		{"Compile exit code", strconv.Itoa(tc.CompileExitCode())},
		{"Run exit code", strconv.Itoa(tc.RunExitCode())},
	}
	for _, row := range rows {
		p.printf("%s: %s\n", (row.k + " " + strings.Repeat(".", 20))[:20], p.esc(row.v))
	}
	if p.html {
		p.printf("</pre>\n")
	}
	return p.err
}

// WriteReport writes a complete report for suites at the reporter's detail
// level.
func (r *Reporter) WriteReport(w io.Writer, suites []*discovery.Suite) error {
	if err := r.WriteHeading(w); err != nil {
		return err
	}

	var graded []Graded
	for _, s := range suites {
		for _, tc := range s.Testcases {
			graded = append(graded, tc)
			if !r.detail.HasResults() {
				continue
			}
			if err := r.WriteTestcase(w, tc); err != nil {
				return err
			}
			if r.detail.HasDebug() {
				if err := r.WriteDebug(w, tc); err != nil {
					return err
				}
			}
		}
	}

	return r.WriteSummary(w, graded)
}

// Output is one report destination.
type Output struct {
	Filename string // Empty for standard output
	Format   Format
	Detail   Detail
}

// NewOutput builds an Output from a suite's output settings. An unknown type
// falls back to text and is returned as a warning.
func NewOutput(spec discovery.OutputSpec) (Output, string, error) {
	detail, err := ParseDetail(spec.Detail)
	if err != nil {
		return Output{}, "", err
	}
	format, known := ParseFormat(spec.Type, spec.Filename)
	warning := ""
	if !known {
		name := spec.Type
		if name == "" {
			name = spec.Filename
		}
		warning = fmt.Sprintf("unknown output type %q; using txt", name)
	}
	return Output{Filename: spec.Filename, Format: format, Detail: detail}, warning, nil
}

// Write renders suites to the output's file, or to stdout when it has none.
func (o Output) Write(suites []*discovery.Suite, stdout io.Writer) error {
	reporter := NewReporter(o.Format, o.Detail)
	if o.Filename == "" {
		return reporter.WriteReport(stdout, suites)
	}

	f, err := os.Create(o.Filename)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", o.Filename, err)
	}
	if err := reporter.WriteReport(f, suites); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report %s: %w", o.Filename, err)
	}
	return f.Close()
}
