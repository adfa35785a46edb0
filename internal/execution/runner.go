package execution

import (
	"context"

	"go.uber.org/zap"

	"autograde/internal/logging"
	"autograde/internal/testcase"
)

// Runner takes a single testcase through its whole lifecycle
type Runner struct {
	logger *zap.Logger
}

// NewRunner creates a new Runner
func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{logger: logging.OrNop(logger)}
}

// Run runs one job on behalf of the given worker. Grading outcomes stay on
// the testcase; the error is a definition or infrastructure error.
func (r *Runner) Run(ctx context.Context, job Job, workerID int) error {
	tc := job.Testcase
	log := r.logger.With(zap.Int("worker", workerID), zap.Int("test", tc.ID()), zap.String("name", tc.Name()))

	if err := tc.Run(ctx, job.Toolchain); err != nil {
		log.Warn("Testcase did not run", zap.Error(err))
		return err
	}

	report := tc.Report()
	if tc.RunExitCode() != testcase.NotRun && report.TestcaseID >= 0 && report.TestcaseID != tc.ID() {
		log.Warn("Result log names a different testcase", zap.Int("logged", report.TestcaseID))
	}
	if report.HasScore && report.Score != tc.EarnedPoints() {
		log.Warn("Program reported a different score",
			zap.Float64("reported", report.Score), zap.Float64("earned", tc.EarnedPoints()))
	}
	log.Debug("Testcase finished",
		zap.Stringer("state", tc.State()),
		zap.Stringer("reason", tc.Reason()),
		zap.Float64("earned", tc.EarnedPoints()))
	return nil
}
