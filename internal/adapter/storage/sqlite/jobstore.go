package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"visionq/internal/domain"
	"visionq/internal/port"
)

// JobStore persists job records. Status transitions are expressed as
// conditional UPDATEs guarded on the current status, so a terminal write is
// accepted at most once per job and late writes are rejected.
type JobStore struct {
	db *sql.DB
}

func NewJobStore(store *Store) *JobStore {
	return &JobStore{db: store.db}
}

const jobColumns = `id, kind, media_id, input_key, result_key, result, params,
	status, progress, error_message, created_at, started_at, ended_at`

func (s *JobStore) Insert(ctx context.Context, job *domain.Job) error {
	params, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, kind, media_id, input_key, result_key, result,
			params, status, progress, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, string(job.Kind), job.MediaID, job.InputKey, job.ResultKey,
		job.Result, string(params), string(job.Status), job.Progress,
		job.ErrorMessage, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (s *JobStore) List(ctx context.Context, filter port.JobFilter) ([]*domain.Job, int, error) {
	where := "1=1"
	args := []any{}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.Kind != "" {
		where += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM jobs WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE `+where+
			` ORDER BY created_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
	}
	return jobs, total, rows.Err()
}

func (s *JobStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM jobs
		WHERE id = ? AND status IN ('SUCCESS', 'FAILURE', 'REVOKED')`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		job, getErr := s.Get(ctx, id)
		if getErr != nil {
			return getErr
		}
		return fmt.Errorf("job %s is %s: %w", id, job.Status, domain.ErrJobActive)
	}
	return nil
}

func (s *JobStore) MarkRunning(ctx context.Context, id string) error {
	return s.conditional(ctx, id, `
		UPDATE jobs SET status = 'RUNNING', progress = 0, started_at = ?
		WHERE id = ? AND status = 'PENDING'`,
		time.Now().UTC(), id)
}

func (s *JobStore) MarkSuccess(ctx context.Context, id, resultKey, result string) error {
	return s.conditional(ctx, id, `
		UPDATE jobs SET status = 'SUCCESS', progress = 100, result_key = ?,
			result = ?, ended_at = ?
		WHERE id = ? AND status NOT IN ('SUCCESS', 'FAILURE', 'REVOKED')`,
		resultKey, result, time.Now().UTC(), id)
}

func (s *JobStore) MarkFailure(ctx context.Context, id, errMsg string) error {
	return s.conditional(ctx, id, `
		UPDATE jobs SET status = 'FAILURE', error_message = ?, ended_at = ?
		WHERE id = ? AND status NOT IN ('SUCCESS', 'FAILURE', 'REVOKED')`,
		errMsg, time.Now().UTC(), id)
}

func (s *JobStore) MarkRevoked(ctx context.Context, id string) error {
	return s.conditional(ctx, id, `
		UPDATE jobs SET status = 'REVOKED', ended_at = ?
		WHERE id = ? AND status NOT IN ('SUCCESS', 'FAILURE', 'REVOKED')`,
		time.Now().UTC(), id)
}

func (s *JobStore) SetProgress(ctx context.Context, id string, progress int) error {
	// Guarded on RUNNING and monotonicity; a regression or a write landing
	// after the terminal state simply affects zero rows.
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?
		WHERE id = ? AND status = 'RUNNING' AND progress <= ?`,
		progress, id, progress)
	if err != nil {
		return fmt.Errorf("set progress: %w", err)
	}
	return nil
}

func (s *JobStore) FailStalled(ctx context.Context, errMsg string) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = 'FAILURE', error_message = ?, ended_at = ?
		WHERE status = 'RUNNING'`,
		errMsg, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("fail stalled jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// conditional runs a guarded status update and maps "zero rows affected"
// onto ErrNotFound or ErrTerminal.
func (s *JobStore) conditional(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM jobs WHERE id = ?`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check job: %w", err)
		}
		if exists == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrTerminal
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job    domain.Job
		kind   string
		status string
		params string
	)
	err := row.Scan(&job.ID, &kind, &job.MediaID, &job.InputKey,
		&job.ResultKey, &job.Result, &params, &status, &job.Progress,
		&job.ErrorMessage, &job.CreatedAt, &job.StartedAt, &job.EndedAt)
	if err != nil {
		return nil, err
	}
	job.Kind = domain.JobKind(kind)
	job.Status = domain.JobStatus(status)
	if err := json.Unmarshal([]byte(params), &job.Params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	return &job, nil
}

var _ port.JobStore = (*JobStore)(nil)
