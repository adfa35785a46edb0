package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"autograde/internal/domain"
	"autograde/internal/logging"
	"autograde/internal/parser"
	"autograde/internal/testcase"
)

// DefaultWaitDelay bounds how long output pipes are drained after a
// timed-out program is killed.
const DefaultWaitDelay = 500 * time.Millisecond

// ProcessExecutor runs built programs as child processes. It implements
// testcase.Executor.
type ProcessExecutor struct {
	parser    parser.Parser
	waitDelay time.Duration
	logger    *zap.Logger
}

// NewProcessExecutor creates a ProcessExecutor that reads results with p.
func NewProcessExecutor(p parser.Parser, logger *zap.Logger) *ProcessExecutor {
	if p == nil {
		p = parser.NewResultLogParser()
	}
	return &ProcessExecutor{parser: p, waitDelay: DefaultWaitDelay, logger: logging.OrNop(logger)}
}

// Execute runs the executable with the request's stdin file and arguments.
// The program is killed once the timeout passes. Standard output and error
// are captured to their artifact files and returned; the result log the
// program wrote is parsed into the report.
func (e *ProcessExecutor) Execute(ctx context.Context, req testcase.ExecRequest) (testcase.ExecResult, error) {
	result := testcase.ExecResult{ExitCode: testcase.NotRun}

	// A stale log from an earlier run must not resolve checks.
	if err := os.Remove(req.Paths.ResultLog); err != nil && !errors.Is(err, os.ErrNotExist) {
		return result, fmt.Errorf("failed to remove stale result log: %w", err)
	}

	executable, err := filepath.Abs(req.Executable)
	if err != nil {
		return result, fmt.Errorf("failed to resolve executable %s: %w", req.Executable, err)
	}

	execCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, executable, req.Args...)
	cmd.WaitDelay = e.waitDelay

	if req.StdinFile != "" {
		stdin, err := os.Open(req.StdinFile)
		if err != nil {
			return result, fmt.Errorf("failed to open input for test %d: %w", req.TestcaseID, err)
		}
		defer stdin.Close()
		cmd.Stdin = stdin
	}

	var stdout, stderr bytes.Buffer
	outFile, err := createArtifact(req.Paths.Stdout)
	if err != nil {
		return result, err
	}
	defer outFile.Close()
	errFile, err := createArtifact(req.Paths.Stderr)
	if err != nil {
		return result, err
	}
	defer errFile.Close()
	cmd.Stdout = io.MultiWriter(&stdout, outFile)
	cmd.Stderr = io.MultiWriter(&stderr, errFile)

	e.logger.Debug("Running", zap.Int("test", req.TestcaseID), zap.String("executable", executable),
		zap.Strings("args", req.Args), zap.Duration("timeout", req.Timeout))
	runErr := cmd.Run()

	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	switch {
	case errors.Is(execCtx.Err(), context.DeadlineExceeded):
		result.TimedOut = true
		e.logger.Debug("Timed out", zap.Int("test", req.TestcaseID))
	case ctx.Err() != nil:
		return result, ctx.Err()
	case runErr == nil:
		result.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return result, fmt.Errorf("failed to run test %d: %w", req.TestcaseID, runErr)
		}
		result.ExitCode = exitErr.ExitCode()
		if result.ExitCode < 0 {
			// Killed by a signal.
			result.ExitCode = 1
		}
	}

	report, err := e.parser.ParseFile(req.Paths.ResultLog)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Crashed or timed out before opening the log; nothing resolved.
		report = domain.RunReport{TestcaseID: req.TestcaseID}
	case err != nil:
		return result, fmt.Errorf("test %d: %w", req.TestcaseID, err)
	}
	result.Report = report
	return result, nil
}

type nopWriteCloser struct{}

func (nopWriteCloser) Write(p []byte) (int, error) { return len(p), nil }
func (nopWriteCloser) Close() error                { return nil }

func createArtifact(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}
