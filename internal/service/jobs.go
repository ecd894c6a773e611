package service

import (
	"context"
	"fmt"

	"visionq/internal/domain"
	"visionq/internal/infrastructure/logger"
	"visionq/internal/port"
)

// JobService answers status queries and fields cancellation and deletion
// requests from the caller-facing layer.
type JobService struct {
	jobs    port.JobStore
	queue   port.Queue
	cancels *CancelRegistry
	coord   *Coordinator
	blobs   port.BlobStore
}

func NewJobService(jobs port.JobStore, queue port.Queue, cancels *CancelRegistry, coord *Coordinator, blobs port.BlobStore) *JobService {
	return &JobService{
		jobs:    jobs,
		queue:   queue,
		cancels: cancels,
		coord:   coord,
		blobs:   blobs,
	}
}

func (s *JobService) Get(ctx context.Context, id string) (*domain.Job, error) {
	return s.jobs.Get(ctx, id)
}

func (s *JobService) List(ctx context.Context, filter port.JobFilter) ([]*domain.Job, int, error) {
	return s.jobs.List(ctx, filter)
}

// Cancel requests best-effort termination. A running job is flagged
// through its token and stops at its next checkpoint; a still-queued job
// is pulled from the queue and revoked immediately. Cancelling a terminal
// or unknown job is a no-op.
func (s *JobService) Cancel(ctx context.Context, id string) error {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return nil
	}

	if s.cancels.Request(id) {
		logger.Info.Printf("job %s: cancellation requested", id)
		return nil
	}

	removed, err := s.queue.Revoke(ctx, id)
	if err != nil {
		return fmt.Errorf("revoke queued job: %w", err)
	}
	if removed {
		s.coord.Emit(LifecycleEvent{Type: LifecycleRevoked, JobID: id})
		logger.Info.Printf("job %s: revoked before start", id)
	}
	// Neither running nor queued: the job is between claim and token
	// creation, or a signal is already in flight. Best-effort, no error.
	return nil
}

// FetchResult copies a finished job's result artifact into destDir and
// returns the local path. Only jobs that completed successfully have one.
func (s *JobService) FetchResult(ctx context.Context, id, destDir string) (string, error) {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if job.Status != domain.JobStatusSuccess || job.ResultKey == "" {
		return "", fmt.Errorf("job %s has no result: %w", id, domain.ErrNotFound)
	}
	return s.blobs.Fetch(ctx, job.ResultKey, destDir)
}

// Delete removes a terminal job record and its result blob. A non-terminal
// job cannot be deleted; cancellation is requested instead and the caller
// must retry once the job settles.
func (s *JobService) Delete(ctx context.Context, id string) error {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return err
	}

	if !job.Status.IsTerminal() {
		if err := s.Cancel(ctx, id); err != nil {
			logger.Warn.Printf("job %s: cancel before delete: %v", id, err)
		}
		return fmt.Errorf("job %s is still %s, cancellation requested: %w",
			id, job.Status, domain.ErrJobActive)
	}

	if job.ResultKey != "" {
		if failed := s.blobs.Delete(ctx, job.ResultKey); len(failed) > 0 {
			logger.Warn.Printf("job %s: result blob delete: %v", id, failed)
		}
	}

	return s.jobs.Delete(ctx, id)
}
