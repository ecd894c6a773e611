// Package sqliteq implements the job queue transport on the same sqlite
// database as the job store, so queued work survives a process restart.
package sqliteq

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"visionq/internal/adapter/storage/sqlite"
	"visionq/internal/port"
)

type Queue struct {
	db *sql.DB
}

func New(store *sqlite.Store) *Queue {
	return &Queue{db: store.DB()}
}

func (q *Queue) Enqueue(ctx context.Context, jobID string) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO job_queue (job_id) VALUES (?)`, jobID)
	if err != nil {
		return fmt.Errorf("enqueue job %s: %w", jobID, err)
	}
	return nil
}

func (q *Queue) Claim(ctx context.Context) (string, error) {
	var jobID string
	err := q.db.QueryRowContext(ctx, `
		DELETE FROM job_queue
		WHERE seq = (SELECT seq FROM job_queue ORDER BY seq LIMIT 1)
		RETURNING job_id`).Scan(&jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("claim job: %w", err)
	}
	return jobID, nil
}

func (q *Queue) Revoke(ctx context.Context, jobID string) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM job_queue WHERE job_id = ?`, jobID)
	if err != nil {
		return false, fmt.Errorf("revoke job %s: %w", jobID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

var _ port.Queue = (*Queue)(nil)
