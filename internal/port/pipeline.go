package port

import (
	"context"
	"time"

	"visionq/internal/domain"
)

// DetectOptions mirror the job parameters handed to the model.
type DetectOptions struct {
	Confidence float64
	Width      int
	Height     int
	Augment    bool
	Classes    []int
}

// Detector is the black-box inference model: image in, annotated image and
// detections out. Implementations must be safe for concurrent use across
// distinct inputs.
type Detector interface {
	// Detect runs one inference call and writes the annotated image next
	// to the input.
	Detect(ctx context.Context, imagePath string, opts DetectOptions) (*domain.InferenceResult, error)

	// OpenVideo starts streaming inference over a video. Annotated frames
	// are written under frameDir; results arrive in decode order.
	OpenVideo(ctx context.Context, videoPath, frameDir string, opts DetectOptions) (FrameStream, error)
}

// FrameStream yields per-frame inference results. Next returns io.EOF after
// the last frame. Close releases the underlying decoder; it is safe to call
// after a partial read.
type FrameStream interface {
	Next() (*domain.FrameResult, error)
	Close() error
}

// Transcoder is the external codec filter boundary.
type Transcoder interface {
	// Transcode re-encodes input to a web-compatible format, invoking
	// progressFn with the elapsed output timestamp as the filter reports
	// it. A nonzero filter exit surfaces as domain.ErrTranscode.
	Transcode(ctx context.Context, inputPath, outputPath string, progressFn func(elapsed time.Duration)) error

	// EncodeFrames assembles a numbered frame sequence into an
	// intermediate video at the given frame rate and dimensions.
	EncodeFrames(ctx context.Context, framePattern, outputPath string, fps float64, width, height int) error

	// Probe inspects a media file (dimensions, duration, frame count).
	Probe(ctx context.Context, path string) (*domain.ProbeResult, error)
}
