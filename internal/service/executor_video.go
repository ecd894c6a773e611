package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"visionq/internal/domain"
	"visionq/internal/port"
)

// framePattern is the numbered-frame naming contract between the detector
// sidecar and the frame-sequence encoder.
const framePattern = "frame_%06d.png"

// VideoExecutor decodes a video frame by frame, runs inference on each
// frame, assembles the annotated frames into an intermediate video and
// re-encodes it to a web-compatible format before uploading. The
// cancellation token is checked before every frame.
type VideoExecutor struct {
	blobs       port.BlobStore
	detector    port.Detector
	transcoder  port.Transcoder
	scratchRoot string
}

func NewVideoExecutor(blobs port.BlobStore, detector port.Detector, transcoder port.Transcoder, scratchRoot string) *VideoExecutor {
	return &VideoExecutor{
		blobs:       blobs,
		detector:    detector,
		transcoder:  transcoder,
		scratchRoot: scratchRoot,
	}
}

func (e *VideoExecutor) Kind() domain.JobKind { return domain.JobKindVideoInference }

func (e *VideoExecutor) Run(ctx context.Context, job *domain.Job, token *Token, rep *Reporter) (*Outcome, error) {
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
		return nil, fmt.Errorf("probe input: %v: %w", err, domain.ErrInference)
	}
	totalFrames := probe.FrameCount()
	fps := probe.FrameRate()

	frameDir := filepath.Join(scratch, "frames")
	if err := os.MkdirAll(frameDir, 0755); err != nil {
		return nil, fmt.Errorf("create frame dir: %w", err)
	}

	stream, err := e.detector.OpenVideo(ctx, local, frameDir, detectOptions(job.Params))
	if err != nil {
		return nil, fmt.Errorf("open video inference: %w", err)
	}
	defer stream.Close()

	processed := 0
	for {
		if token.Aborted() {
			return abortedOutcome, nil
		}

		_, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("inference frame %d: %w", processed+1, err)
		}
		processed++
		rep.Report(ctx, job.ID, domain.ClampProgress(float64(processed), float64(totalFrames)))
	}

	if token.Aborted() {
		return abortedOutcome, nil
	}

	intermediate := filepath.Join(scratch, "annotated.mp4")
	pattern := filepath.Join(frameDir, framePattern)
	if err := e.transcoder.EncodeFrames(ctx, pattern, intermediate, fps, job.Params.Width, job.Params.Height); err != nil {
		return nil, fmt.Errorf("assemble annotated video: %w", err)
	}

	if token.Aborted() {
		return abortedOutcome, nil
	}

	final := filepath.Join(scratch, job.ID+".mp4")
	if err := e.transcoder.Transcode(ctx, intermediate, final, nil); err != nil {
		return nil, fmt.Errorf("re-encode annotated video: %w", err)
	}

	resultKey := resultKeyFor(job.ID, ".mp4")
	if err := pushResult(ctx, e.blobs, final, resultKey); err != nil {
		return nil, err
	}

	summary, err := json.Marshal(map[string]any{"frames": processed})
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	rep.Flush(ctx, job.ID, 100)

	return &Outcome{ResultKey: resultKey, Result: string(summary)}, nil
}

var _ Executor = (*VideoExecutor)(nil)
