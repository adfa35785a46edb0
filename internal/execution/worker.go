package execution

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"autograde/internal/logging"
)

// WorkerPool manages a pool of workers for parallel testcase execution
type WorkerPool struct {
	workers  int
	runner   *Runner
	progress Progress
	logger   *zap.Logger
}

// NewWorkerPool creates a new WorkerPool with the given number of workers
func NewWorkerPool(workers int, runner *Runner, logger *zap.Logger) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	return &WorkerPool{workers: workers, runner: runner, logger: logging.OrNop(logger)}
}

// SetProgress sets the progress reporter for the worker pool
func (wp *WorkerPool) SetProgress(progress Progress) {
	wp.progress = progress
}

// Execute runs every job, or with failFast stops handing out jobs after the
// first testcase that does not pass. Jobs never started keep their
// testcases in the Defined state.
func (wp *WorkerPool) Execute(ctx context.Context, jobs []Job, failFast bool) (time.Duration, error) {
	if len(jobs) == 0 {
		return 0, nil
	}

	// Stopping dispatch leaves jobs already running to finish.
	dispatch, stop := context.WithCancel(ctx)
	defer stop()
	startTime := time.Now()

	queue := make(chan Job)
	go func() {
		defer close(queue)
		for _, job := range jobs {
			select {
			case <-dispatch.Done():
				return
			case queue <- job:
			}
		}
	}()

	var (
		mu             sync.Mutex
		errs           []error
		passed, failed int
	)
	record := func(job Job, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
		}
		if err == nil && job.Testcase.Passed() {
			passed++
		} else {
			failed++
			if failFast {
				stop()
			}
		}
		if wp.progress != nil {
			wp.progress.Update(passed, failed)
		}
	}

	var wg sync.WaitGroup
	for i := 1; i <= wp.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range queue {
				if dispatch.Err() != nil {
					continue
				}
				record(job, wp.runner.Run(ctx, job, workerID))
			}
		}(i)
	}
	wg.Wait()

	if wp.progress != nil {
		wp.progress.Finish()
	}

	duration := time.Since(startTime)
	wp.logger.Debug("Worker pool finished",
		zap.Int("jobs", len(jobs)), zap.Int("passed", passed), zap.Int("failed", failed), zap.Duration("duration", duration))
	return duration, errors.Join(errs...)
}
