package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"visionq/internal/domain"
	"visionq/internal/port"
)

// TranscodeExecutor invokes the external codec filter once on the whole
// input, parsing its streamed time-elapsed output into progress. The
// filter run is one discrete step: the token is checked before and after
// it, not in the middle.
type TranscodeExecutor struct {
	blobs       port.BlobStore
	transcoder  port.Transcoder
	scratchRoot string
}

func NewTranscodeExecutor(blobs port.BlobStore, transcoder port.Transcoder, scratchRoot string) *TranscodeExecutor {
	return &TranscodeExecutor{blobs: blobs, transcoder: transcoder, scratchRoot: scratchRoot}
}

func (e *TranscodeExecutor) Kind() domain.JobKind { return domain.JobKindTranscode }

func (e *TranscodeExecutor) Run(ctx context.Context, job *domain.Job, token *Token, rep *Reporter) (*Outcome, error) {
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

	probe, err := e.transcoder.Probe(ctx, local)
	if err != nil {
		return nil, fmt.Errorf("probe input: %v: %w", err, domain.ErrTranscode)
	}
	duration := probe.Duration()

	if token.Aborted() {
		return abortedOutcome, nil
	}

	output := filepath.Join(scratch, job.ID+".mp4")
	err = e.transcoder.Transcode(ctx, local, output, func(elapsed time.Duration) {
		rep.Report(ctx, job.ID, domain.ClampProgress(elapsed.Seconds(), duration))
	})
	if err != nil {
		return nil, err
	}

	if token.Aborted() {
		return abortedOutcome, nil
	}

	resultKey := resultKeyFor(job.ID, ".mp4")
	if err := pushResult(ctx, e.blobs, output, resultKey); err != nil {
		return nil, err
	}

	summary, err := json.Marshal(map[string]any{
		"output":   resultKey,
		"duration": duration,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	rep.Flush(ctx, job.ID, 100)

	return &Outcome{ResultKey: resultKey, Result: string(summary)}, nil
}

var _ Executor = (*TranscodeExecutor)(nil)
