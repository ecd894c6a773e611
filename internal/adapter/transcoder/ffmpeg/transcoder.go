// Package ffmpeg shells out to ffmpeg/ffprobe for transcoding, frame
// sequence assembly and media probing.
package ffmpeg

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"visionq/internal/domain"
	"visionq/internal/port"
)

var (
	ErrEmptyPath   = errors.New("path is empty")
	ErrInvalidPath = errors.New("path contains invalid characters")
)

type Transcoder struct {
	ffmpegPath  string
	ffprobePath string
}

func NewTranscoder(ffmpegPath, ffprobePath string) *Transcoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Transcoder{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

func validatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if strings.ContainsRune(path, 0) {
		return ErrInvalidPath
	}
	return nil
}

// Transcode re-encodes the input to H.264 high profile MP4 with faststart,
// streaming "-progress pipe:1" output into progressFn.
func (t *Transcoder) Transcode(ctx context.Context, inputPath, outputPath string, progressFn func(elapsed time.Duration)) error {
	if err := validatePath(inputPath); err != nil {
		return fmt.Errorf("invalid input path: %w", err)
	}
	if err := validatePath(outputPath); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}

	args := []string{
		"-i", inputPath,
		"-c:v", "libx264",
		"-profile:v", "high",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-progress", "pipe:1",
		"-y", outputPath,
	}
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if progressFn == nil {
			continue
		}
		if elapsed, ok := ParseProgressLine(scanner.Text()); ok {
			progressFn(elapsed)
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg exited: %v: %w", err, domain.ErrTranscode)
	}
	return nil
}

// EncodeFrames assembles a numbered image sequence (e.g. "frame_%06d.png")
// into an intermediate video.
func (t *Transcoder) EncodeFrames(ctx context.Context, framePattern, outputPath string, fps float64, width, height int) error {
	if err := validatePath(framePattern); err != nil {
		return fmt.Errorf("invalid frame pattern: %w", err)
	}
	if err := validatePath(outputPath); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	if fps <= 0 {
		fps = 25
	}

	args := []string{
		"-framerate", fmt.Sprintf("%g", fps),
		"-i", framePattern,
	}
	if width > 0 && height > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", width, height))
	}
	args = append(args,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-y", outputPath,
	)
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("encode frames: %v: %s: %w", err, lastLine(out), domain.ErrTranscode)
	}
	return nil
}

func (t *Transcoder) Probe(ctx context.Context, path string) (*domain.ProbeResult, error) {
	if err := validatePath(path); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	cmd := exec.CommandContext(ctx, t.ffprobePath, args...)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe domain.ProbeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	probe.RawJSON = string(output)
	return &probe, nil
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

var _ port.Transcoder = (*Transcoder)(nil)
