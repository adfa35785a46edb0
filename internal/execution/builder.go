package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"autograde/internal/discovery"
	"autograde/internal/logging"
	"autograde/internal/testcase"
)

// DefaultCompileCommand is used when a suite names no compile commands.
const DefaultCompileCommand = "c++ -std=c++17 -o ${exe} ${cpp}"

// CommandBuilder compiles generated programs by running shell command lines
// after variable substitution. It implements testcase.Compiler.
type CommandBuilder struct {
	lines  []string
	vars   discovery.Vars
	shell  string
	logger *zap.Logger
}

// NewCommandBuilder creates a builder for the given command lines. vars are
// the suite variables; per-testcase artifact variables are added per build.
func NewCommandBuilder(lines []string, vars discovery.Vars, logger *zap.Logger) *CommandBuilder {
	if len(lines) == 0 {
		lines = []string{DefaultCompileCommand}
	}
	if vars == nil {
		vars = discovery.Vars{}
	}
	return &CommandBuilder{lines: lines, vars: vars, shell: "/bin/sh", logger: logging.OrNop(logger)}
}

// Build writes the generated source and runs each command line in order,
// stopping at the first non-zero exit. Diagnostics of every line run are
// collected into the compile log.
func (b *CommandBuilder) Build(ctx context.Context, req testcase.BuildRequest) (testcase.BuildResult, error) {
	if err := writeArtifact(req.Paths.Source, []byte(req.Source)); err != nil {
		return testcase.BuildResult{}, err
	}

	vars := b.vars.With(req.Paths.Vars())
	vars.Set("#test", strconv.Itoa(req.TestcaseID))

	var diag bytes.Buffer
	result := testcase.BuildResult{}
	for _, line := range b.lines {
		command, err := vars.Expand(line)
		if err != nil {
			return testcase.BuildResult{}, fmt.Errorf("compile command for test %d: %w", req.TestcaseID, err)
		}

		b.logger.Debug("Compiling", zap.Int("test", req.TestcaseID), zap.String("command", command))
		cmd := exec.CommandContext(ctx, b.shell, "-c", command)
		cmd.Stdout = &diag
		cmd.Stderr = &diag

		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return testcase.BuildResult{}, ctx.Err()
			}
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				return testcase.BuildResult{}, fmt.Errorf("failed to run compile command for test %d: %w", req.TestcaseID, err)
			}
			result.ExitCode = exitErr.ExitCode()
			if result.ExitCode < 0 {
				// Killed by a signal; keep it distinct from testcase.NotRun
				result.ExitCode = 1
			}
			b.logger.Debug("Compile failed", zap.Int("test", req.TestcaseID), zap.Int("exit_code", result.ExitCode))
			break
		}
	}

	result.Diagnostics = diag.String()
	if err := writeArtifact(req.Paths.CompileLog, diag.Bytes()); err != nil {
		return testcase.BuildResult{}, err
	}
	return result, nil
}

// writeArtifact writes data to path, creating its directory.
func writeArtifact(path string, data []byte) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
