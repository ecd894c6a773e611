// Package redisq implements the job queue transport on a Redis list, for
// deployments where several worker processes share one queue.
package redisq

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"visionq/internal/port"
)

const queueKey = "visionq:queue"

type Queue struct {
	rdb *redis.Client
}

func New(addr string) *Queue {
	return &Queue{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// NewWithClient wires an existing client, mainly for tests.
func NewWithClient(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

func (q *Queue) Enqueue(ctx context.Context, jobID string) error {
	if err := q.rdb.LPush(ctx, queueKey, jobID).Err(); err != nil {
		return fmt.Errorf("enqueue job %s: %w", jobID, err)
	}
	return nil
}

func (q *Queue) Claim(ctx context.Context) (string, error) {
	jobID, err := q.rdb.RPop(ctx, queueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("claim job: %w", err)
	}
	return jobID, nil
}

func (q *Queue) Revoke(ctx context.Context, jobID string) (bool, error) {
	n, err := q.rdb.LRem(ctx, queueKey, 1, jobID).Result()
	if err != nil {
		return false, fmt.Errorf("revoke job %s: %w", jobID, err)
	}
	return n > 0, nil
}

func (q *Queue) Close() error {
	return q.rdb.Close()
}

var _ port.Queue = (*Queue)(nil)
