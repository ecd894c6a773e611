package port

import "context"

// Queue is the transport half of the queue engine: a durable FIFO of job
// ids waiting for a worker slot. Lifecycle signals are emitted by the
// worker pool, not the transport.
type Queue interface {
	// Enqueue appends a job id to the queue.
	Enqueue(ctx context.Context, jobID string) error

	// Claim removes and returns the oldest queued job id, or "" when the
	// queue is empty.
	Claim(ctx context.Context) (string, error)

	// Revoke removes a still-queued job id before any worker claims it.
	// Returns true when the entry was found and removed.
	Revoke(ctx context.Context, jobID string) (bool, error)
}
