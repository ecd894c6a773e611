// Package yolocli drives an external YOLO detector process. The model is a
// black box behind a small CLI contract: the binary reads one image (or
// decodes a video frame by frame), writes annotated output files, and
// reports detections as JSON on stdout, one document per input frame.
package yolocli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"visionq/internal/domain"
	"visionq/internal/port"
)

type Detector struct {
	binPath string
}

func NewDetector(binPath string) *Detector {
	if binPath == "" {
		binPath = "yolo-detect"
	}
	return &Detector{binPath: binPath}
}

// frameDoc is the wire format emitted by the detector CLI.
type frameDoc struct {
	Index      int                `json:"index"`
	Annotated  string             `json:"annotated"`
	Detections []domain.Detection `json:"detections"`
}

func (d *Detector) args(input, outDir string, opts port.DetectOptions, stream bool) []string {
	args := []string{
		"--input", input,
		"--output-dir", outDir,
		"--conf", strconv.FormatFloat(opts.Confidence, 'f', -1, 64),
		"--size", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
	}
	if opts.Augment {
		args = append(args, "--augment")
	}
	if len(opts.Classes) > 0 {
		classes := make([]string, len(opts.Classes))
		for i, c := range opts.Classes {
			classes[i] = strconv.Itoa(c)
		}
		args = append(args, "--classes", strings.Join(classes, ","))
	}
	if stream {
		args = append(args, "--stream")
	}
	return args
}

func (d *Detector) Detect(ctx context.Context, imagePath string, opts port.DetectOptions) (*domain.InferenceResult, error) {
	outDir := filepath.Dir(imagePath)
	cmd := exec.CommandContext(ctx, d.binPath, d.args(imagePath, outDir, opts, false)...)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("detector run: %v: %w", err, domain.ErrInference)
	}

	var doc frameDoc
	if err := json.Unmarshal(output, &doc); err != nil {
		return nil, fmt.Errorf("parse detector output: %v: %w", err, domain.ErrInference)
	}
	return &domain.InferenceResult{
		Detections:    doc.Detections,
		AnnotatedPath: doc.Annotated,
	}, nil
}

func (d *Detector) OpenVideo(ctx context.Context, videoPath, frameDir string, opts port.DetectOptions) (port.FrameStream, error) {
	cmd := exec.CommandContext(ctx, d.binPath, d.args(videoPath, frameDir, opts, true)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("detector stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start detector: %v: %w", err, domain.ErrInference)
	}

	return &frameStream{
		cmd:     cmd,
		scanner: bufio.NewScanner(stdout),
	}, nil
}

type frameStream struct {
	cmd     *exec.Cmd
	scanner *bufio.Scanner
	done    bool
}

func (s *frameStream) Next() (*domain.FrameResult, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return nil, fmt.Errorf("read detector stream: %v: %w", err, domain.ErrInference)
		}
		s.done = true
		if err := s.cmd.Wait(); err != nil {
			return nil, fmt.Errorf("detector exited: %v: %w", err, domain.ErrInference)
		}
		return nil, io.EOF
	}

	var doc frameDoc
	if err := json.Unmarshal(s.scanner.Bytes(), &doc); err != nil {
		return nil, fmt.Errorf("parse detector frame: %v: %w", err, domain.ErrInference)
	}
	return &domain.FrameResult{
		Index:      doc.Index,
		FramePath:  doc.Annotated,
		Detections: doc.Detections,
	}, nil
}

func (s *frameStream) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	return nil
}

var _ port.Detector = (*Detector)(nil)
