package port

import (
	"context"

	"visionq/internal/domain"
)

// JobFilter narrows List results.
type JobFilter struct {
	Status domain.JobStatus
	Kind   domain.JobKind
	Limit  int
	Offset int
}

// JobStore is the durable job record store. All status mutations are
// conditional writes: a transition is applied only while the current status
// still allows it, so exactly one terminal write ever wins and late writes
// from a finished executor are rejected with domain.ErrTerminal.
type JobStore interface {
	Insert(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, id string) (*domain.Job, error)
	List(ctx context.Context, filter JobFilter) ([]*domain.Job, int, error)

	// Delete removes a record. Only terminal jobs may be deleted.
	Delete(ctx context.Context, id string) error

	// MarkRunning transitions PENDING -> RUNNING, stamping the start time
	// and resetting progress to zero.
	MarkRunning(ctx context.Context, id string) error

	// MarkSuccess, MarkFailure and MarkRevoked write a terminal state when
	// the job is not already terminal.
	MarkSuccess(ctx context.Context, id, resultKey, result string) error
	MarkFailure(ctx context.Context, id, errMsg string) error
	MarkRevoked(ctx context.Context, id string) error

	// SetProgress writes progress while the job is RUNNING. Regressions are
	// silently ignored; progress never decreases within a run.
	SetProgress(ctx context.Context, id string, progress int) error

	// FailStalled marks jobs left RUNNING by a crashed worker process as
	// FAILURE. Run once at startup before the pool starts.
	FailStalled(ctx context.Context, errMsg string) (int, error)
}
