package service

import (
	"context"
	"errors"
	"fmt"

	"visionq/internal/domain"
	"visionq/internal/infrastructure/logger"
	"visionq/internal/port"
)

// Dispatcher accepts job submissions, creates the pending record and hands
// the job to the queue. It returns immediately; no deduplication is
// performed, every call creates a new job.
type Dispatcher struct {
	jobs    port.JobStore
	queue   port.Queue
	catalog port.MediaCatalog
}

func NewDispatcher(jobs port.JobStore, queue port.Queue, catalog port.MediaCatalog) *Dispatcher {
	return &Dispatcher{jobs: jobs, queue: queue, catalog: catalog}
}

// Submit validates the input reference against the media catalog, inserts
// a PENDING record and enqueues the job id.
func (d *Dispatcher) Submit(ctx context.Context, kind domain.JobKind, params domain.JobParams, mediaID string) (*domain.Job, error) {
	if !domain.ValidKind(kind) {
		return nil, fmt.Errorf("unknown job kind %q: %w", kind, domain.ErrInvalidInput)
	}

	media, err := d.catalog.Get(mediaID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("media %s not found: %w", mediaID, domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("resolve media %s: %w", mediaID, err)
	}
	if !media.CompatibleWith(kind) {
		return nil, fmt.Errorf("media %s is %s, incompatible with %s: %w",
			mediaID, media.Kind, kind, domain.ErrInvalidInput)
	}

	job := domain.NewJob(kind, mediaID, media.Key, params)
	if err := d.jobs.Insert(ctx, job); err != nil {
		return nil, fmt.Errorf("insert job record: %w", err)
	}

	if err := d.queue.Enqueue(ctx, job.ID); err != nil {
		// The record exists but will never run; fail it so the caller
		// sees a terminal status instead of an eternal PENDING.
		if markErr := d.jobs.MarkFailure(ctx, job.ID, "enqueue failed: "+err.Error()); markErr != nil {
			logger.Error.Printf("job %s: mark enqueue failure: %v", job.ID, markErr)
		}
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	logger.Info.Printf("job %s submitted (kind=%s, media=%s)", job.ID, kind, mediaID)
	return job, nil
}
