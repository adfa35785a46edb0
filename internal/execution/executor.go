package execution

import (
	"context"
	"time"

	"autograde/internal/testcase"
)

// Job is one testcase together with the toolchain of its suite.
type Job struct {
	Testcase  *testcase.Testcase
	Toolchain testcase.Toolchain
}

// Executor runs jobs and leaves their outcomes on the testcases. The
// returned error joins every definition and infrastructure error.
type Executor interface {
	Execute(ctx context.Context, jobs []Job, failFast bool) (time.Duration, error)
}

// Progress receives live pass/fail counts while jobs run.
type Progress interface {
	Update(passed, failed int)
	Finish()
}
