package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"visionq/internal/domain"
	"visionq/internal/port"
)

// ImageExecutor runs a single inference call over one image. There is no
// meaningful intermediate progress: it reports 0, then 100.
type ImageExecutor struct {
	blobs       port.BlobStore
	detector    port.Detector
	scratchRoot string
}

func NewImageExecutor(blobs port.BlobStore, detector port.Detector, scratchRoot string) *ImageExecutor {
	return &ImageExecutor{blobs: blobs, detector: detector, scratchRoot: scratchRoot}
}

func (e *ImageExecutor) Kind() domain.JobKind { return domain.JobKindImageInference }

func (e *ImageExecutor) Run(ctx context.Context, job *domain.Job, token *Token, rep *Reporter) (*Outcome, error) {
	scratch, err := makeScratch(e.scratchRoot, job.ID)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(scratch)

	rep.Report(ctx, job.ID, 0)

	local, err := fetchInput(ctx, e.blobs, job, scratch)
	if err != nil {
		return nil, err
	}

	if token.Aborted() {
		return abortedOutcome, nil
	}

	res, err := e.detector.Detect(ctx, local, detectOptions(job.Params))
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}

	if token.Aborted() {
		return abortedOutcome, nil
	}

	resultKey := resultKeyFor(job.ID, filepath.Ext(res.AnnotatedPath))
	if err := pushResult(ctx, e.blobs, res.AnnotatedPath, resultKey); err != nil {
		return nil, err
	}

	summary, err := json.Marshal(map[string]any{
		"detections": res.Detections,
		"count":      len(res.Detections),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	rep.Flush(ctx, job.ID, 100)

	return &Outcome{ResultKey: resultKey, Result: string(summary)}, nil
}

var _ Executor = (*ImageExecutor)(nil)
