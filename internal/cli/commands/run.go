package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"autograde/internal/config"
	"autograde/internal/discovery"
	"autograde/internal/domain"
	"autograde/internal/execution"
	"autograde/internal/gradebook"
	"autograde/internal/instrument"
	"autograde/internal/parser"
	"autograde/internal/storage"
	"autograde/internal/testcase"
	"autograde/internal/ui"
)

// RunCommand handles the run command
type RunCommand struct {
	config     *config.Config
	discoverer *Discoverer
	executor   *execution.WorkerPool
	storage    *storage.JSONStorage
	formatter  *ui.Formatter
	viewer     ui.Viewer
	gradebook  func() (gradebook.Gradebook, error)
	logger     *zap.Logger
	stdout     io.Writer
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	cfg *config.Config,
	discoverer *Discoverer,
	executor *execution.WorkerPool,
	st *storage.JSONStorage,
	formatter *ui.Formatter,
	viewer ui.Viewer,
	gb func() (gradebook.Gradebook, error),
	logger *zap.Logger,
) *RunCommand {
	return &RunCommand{
		config:     cfg,
		discoverer: discoverer,
		executor:   executor,
		storage:    st,
		formatter:  formatter,
		viewer:     viewer,
		gradebook:  gb,
		logger:     logger,
		stdout:     os.Stdout,
	}
}

// jobs pairs every testcase with its suite's toolchain.
func (rc *RunCommand) jobs(suites []*discovery.Suite) []execution.Job {
	gen := instrument.NewCppGenerator()
	process := execution.NewProcessExecutor(parser.NewResultLogParser(), rc.logger)

	var jobs []execution.Job
	for _, s := range suites {
		toolchain := testcase.Toolchain{
			Generator: gen,
			Compiler:  execution.NewCommandBuilder(s.Compile, s.Vars, rc.logger),
			Executor:  process,
			Header:    s.Header,
		}
		for _, tc := range s.Testcases {
			jobs = append(jobs, execution.Job{Testcase: tc, Toolchain: toolchain})
		}
	}
	return jobs
}

// outputs returns where each suite's report goes: the --output flags for
// every suite when given, otherwise the suite's own outputs, otherwise
// stdout at the --detail level.
func (rc *RunCommand) outputs(s *discovery.Suite) ([]ui.Output, error) {
	flags := rc.config.Flags
	specs := s.Outputs
	if len(flags.Outputs) > 0 {
		specs = make([]discovery.OutputSpec, 0, len(flags.Outputs))
		for _, name := range flags.Outputs {
			if name == "-" {
				name = ""
			}
			specs = append(specs, discovery.OutputSpec{Filename: name, Detail: flags.Detail})
		}
	}
	if len(specs) == 0 {
		specs = []discovery.OutputSpec{{Detail: flags.Detail}}
	}

	outs := make([]ui.Output, 0, len(specs))
	for _, spec := range specs {
		out, warning, err := ui.NewOutput(spec)
		if err != nil {
			return nil, fmt.Errorf("suite %s: %w", s.Name, err)
		}
		if warning != "" {
			rc.logger.Warn(warning, zap.String("suite", s.Name))
		}
		outs = append(outs, out)
	}
	return outs, nil
}

// destination is one report target and the suites written to it.
type destination struct {
	out    ui.Output
	suites []*discovery.Suite
}

// writeReports writes every report once, with all the suites that name its
// file. A file named with different settings keeps the first ones. Standard
// output is grouped by format and detail. Every destination is attempted.
func (rc *RunCommand) writeReports(suites []*discovery.Suite) error {
	var (
		errs  []error
		order []string
		dests = make(map[string]*destination)
	)
	for _, s := range suites {
		outs, err := rc.outputs(s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, out := range outs {
			key := filepath.Clean(out.Filename)
			if out.Filename == "" {
				key = fmt.Sprintf("stdout:%s:%s", out.Format, out.Detail)
			}
			d, ok := dests[key]
			if !ok {
				d = &destination{out: out}
				dests[key] = d
				order = append(order, key)
			} else if d.out.Format != out.Format || d.out.Detail != out.Detail {
				rc.logger.Warn("Report settings differ between suites; using the first",
					zap.String("file", out.Filename), zap.String("suite", s.Name))
			}
			if n := len(d.suites); n == 0 || d.suites[n-1] != s {
				d.suites = append(d.suites, s)
			}
		}
	}

	for _, key := range order {
		d := dests[key]
		if err := d.out.Write(d.suites, rc.stdout); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	suites, err := rc.discoverer.Discover()
	if err != nil {
		return err
	}

	if rc.config.Flags.OnlyFailed {
		failed, err := rc.storage.FailedKeys()
		if err != nil {
			return fmt.Errorf("failed to load last run: %w", err)
		}
		suites = keepFailed(suites, failed)
	}

	if countTestcases(suites) == 0 {
		color.Yellow("No testcases to run")
		return nil
	}

	// Validate outputs before spending time on the run
	for _, s := range suites {
		if _, err := rc.outputs(s); err != nil {
			return err
		}
	}

	jobs := rc.jobs(suites)
	rc.executor.SetProgress(ui.NewProgressBar(len(jobs)))

	// Definition and infrastructure errors are reported after the results
	duration, runErr := rc.executor.Execute(cmd.Context(), jobs, rc.config.Flags.FailFast)

	results := storage.NewSuiteResults(suites, duration, rc.config.Processors)
	if err := rc.storage.Save(results); err != nil {
		return fmt.Errorf("failed to save grading results: %w", err)
	}

	if err := rc.writeReports(suites); err != nil {
		return errors.Join(runErr, err)
	}

	rc.formatter.PrintMetaStats(results)

	if rc.config.Flags.Gradebook {
		if err := rc.record(cmd, results); err != nil {
			return errors.Join(runErr, err)
		}
	}

	if rc.config.Flags.OpenFaills && results.Meta.FailedTestcases > 0 {
		if err := rc.viewer.View(results); err != nil {
			return errors.Join(runErr, err)
		}
	}

	return runErr
}

func (rc *RunCommand) record(cmd *cobra.Command, results *domain.SuiteResults) error {
	gb, err := rc.gradebook()
	if err != nil {
		return err
	}
	if err := gb.Record(cmd.Context(), results); err != nil {
		return fmt.Errorf("failed to record scores: %w", err)
	}
	color.Green("Recorded %d score(s) for run %s", len(results.Details), results.Meta.RunID)
	return nil
}
