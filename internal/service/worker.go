package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"visionq/internal/domain"
	"visionq/internal/infrastructure/logger"
	"visionq/internal/port"
)

// WorkerPool runs a fixed number of worker slots over the shared queue.
// Each slot claims one job at a time and runs it to completion; there is
// no preemption, only cooperative cancellation via the token. A job
// failure never takes down the slot.
type WorkerPool struct {
	queue        port.Queue
	jobs         port.JobStore
	executors    map[domain.JobKind]Executor
	coordinator  *Coordinator
	cancels      *CancelRegistry
	reporter     *Reporter
	workers      int
	pollInterval time.Duration
}

func NewWorkerPool(
	queue port.Queue,
	jobs port.JobStore,
	coordinator *Coordinator,
	cancels *CancelRegistry,
	reporter *Reporter,
	workers int,
	executors ...Executor,
) *WorkerPool {
	byKind := make(map[domain.JobKind]Executor, len(executors))
	for _, ex := range executors {
		byKind[ex.Kind()] = ex
	}
	if workers <= 0 {
		workers = 2
	}
	return &WorkerPool{
		queue:        queue,
		jobs:         jobs,
		executors:    byKind,
		coordinator:  coordinator,
		cancels:      cancels,
		reporter:     reporter,
		workers:      workers,
		pollInterval: 500 * time.Millisecond,
	}
}

// Start launches the worker slots and blocks until ctx is cancelled and
// in-flight jobs have finished.
func (wp *WorkerPool) Start(ctx context.Context) error {
	logger.Info.Printf("starting %d workers", wp.workers)

	g, ctx := errgroup.WithContext(ctx)
	for i := range wp.workers {
		g.Go(func() error {
			wp.runWorker(ctx, i)
			return nil
		})
	}
	return g.Wait()
}

func (wp *WorkerPool) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			logger.Info.Printf("worker %d shutting down", id)
			return
		default:
		}

		jobID, err := wp.queue.Claim(ctx)
		if err != nil {
			logger.Error.Printf("worker %d: failed to claim job: %v", id, err)
			wp.sleep(ctx, 2*time.Second)
			continue
		}

		if jobID == "" {
			// No pending jobs, wait before polling again
			wp.sleep(ctx, wp.pollInterval)
			continue
		}

		wp.processJob(ctx, id, jobID)
	}
}

func (wp *WorkerPool) processJob(ctx context.Context, workerID int, jobID string) {
	job, err := wp.jobs.Get(ctx, jobID)
	if err != nil {
		logger.Error.Printf("worker %d: job %s not loadable: %v", workerID, jobID, err)
		return
	}
	if job.Status.IsTerminal() {
		logger.Warn.Printf("worker %d: job %s already %s, skipping", workerID, jobID, job.Status)
		return
	}

	logger.Info.Printf("worker %d: processing job %s (kind=%s, input=%s)", workerID, job.ID, job.Kind, job.InputKey)

	token := wp.cancels.Create(job.ID)
	wp.coordinator.Emit(LifecycleEvent{Type: LifecycleStarted, JobID: job.ID})

	outcome, err := wp.runExecutor(ctx, job, token)
	wp.reporter.Forget(job.ID)

	switch {
	case err != nil:
		logger.Error.Printf("job %s failed: %v", job.ID, err)
		wp.coordinator.Emit(LifecycleEvent{Type: LifecycleFailed, JobID: job.ID, Err: err})
	case outcome.Aborted:
		logger.Info.Printf("job %s aborted at checkpoint", job.ID)
		wp.coordinator.Emit(LifecycleEvent{Type: LifecycleRevoked, JobID: job.ID})
	default:
		logger.Info.Printf("job %s completed (result=%s)", job.ID, outcome.ResultKey)
		wp.coordinator.Emit(LifecycleEvent{
			Type:      LifecycleSucceeded,
			JobID:     job.ID,
			ResultKey: outcome.ResultKey,
			Result:    outcome.Result,
		})
	}
}

// runExecutor dispatches to the kind-specific executor, converting panics
// into job failures so a single job cannot crash the worker slot.
func (wp *WorkerPool) runExecutor(ctx context.Context, job *domain.Job, token *Token) (outcome *Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = nil
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()

	ex, ok := wp.executors[job.Kind]
	if !ok {
		return nil, fmt.Errorf("no executor for job kind %q", job.Kind)
	}
	return ex.Run(ctx, job, token, wp.reporter)
}

func (wp *WorkerPool) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
