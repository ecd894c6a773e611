package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"visionq/internal/domain"
	"visionq/internal/port"
)

// Outcome is the result of one executor run. Aborted is a distinguished
// cooperative-cancellation outcome, not an error; partial output is
// discarded and nothing is pushed.
type Outcome struct {
	ResultKey string
	Result    string
	Aborted   bool
}

var abortedOutcome = &Outcome{Aborted: true}

// Executor runs the kind-specific pipeline for one job. Implementations
// must check the cancellation token at every safe suspension point and
// remove their scratch files on every exit path.
type Executor interface {
	Kind() domain.JobKind
	Run(ctx context.Context, job *domain.Job, token *Token, rep *Reporter) (*Outcome, error)
}

func detectOptions(p domain.JobParams) port.DetectOptions {
	return port.DetectOptions{
		Confidence: p.Confidence,
		Width:      p.Width,
		Height:     p.Height,
		Augment:    p.Augment,
		Classes:    p.Classes,
	}
}

// makeScratch creates the per-job scratch directory. The caller removes it
// with os.RemoveAll on every exit path.
func makeScratch(root, jobID string) (string, error) {
	dir := filepath.Join(root, jobID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, nil
}

// fetchInput pulls the job's input blob into scratch, mapping transport
// failures onto the media-fetch taxonomy.
func fetchInput(ctx context.Context, blobs port.BlobStore, job *domain.Job, scratch string) (string, error) {
	local, err := blobs.Fetch(ctx, job.InputKey, scratch)
	if err != nil {
		return "", fmt.Errorf("fetch input: %v: %w", err, domain.ErrMediaFetch)
	}
	return local, nil
}

// resultKeyFor derives the deterministic output key for a job.
func resultKeyFor(jobID, ext string) string {
	return "results/" + jobID + ext
}

// pushResult uploads the produced artifact, mapping failures onto the
// media-push taxonomy. A push failure fails the job even though the
// pipeline itself succeeded.
func pushResult(ctx context.Context, blobs port.BlobStore, localPath, key string) error {
	if err := blobs.Push(ctx, localPath, key); err != nil {
		return fmt.Errorf("push result: %v: %w", err, domain.ErrMediaPush)
	}
	return nil
}
