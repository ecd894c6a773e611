package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"visionq/internal/domain"
	"visionq/internal/port"
)

// memJobStore is an in-memory JobStore with the same conditional-write
// semantics as the sqlite adapter.
type memJobStore struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job

	failMarkSuccess error
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[string]*domain.Job)}
}

func (s *memJobStore) Insert(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *memJobStore) Get(_ context.Context, id string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *memJobStore) List(_ context.Context, filter port.JobFilter) ([]*domain.Job, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Job
	for _, job := range s.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.Kind != "" && job.Kind != filter.Kind {
			continue
		}
		copied := *job
		out = append(out, &copied)
	}
	return out, len(out), nil
}

func (s *memJobStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if !job.Status.IsTerminal() {
		return fmt.Errorf("job %s is %s: %w", id, job.Status, domain.ErrJobActive)
	}
	delete(s.jobs, id)
	return nil
}

func (s *memJobStore) MarkRunning(_ context.Context, id string) error {
	return s.transition(id, func(job *domain.Job) bool {
		if job.Status != domain.JobStatusPending {
			return false
		}
		job.Status = domain.JobStatusRunning
		job.Progress = 0
		job.StartedAt.Time, job.StartedAt.Valid = time.Now().UTC(), true
		return true
	})
}

func (s *memJobStore) MarkSuccess(_ context.Context, id, resultKey, result string) error {
	if s.failMarkSuccess != nil {
		return s.failMarkSuccess
	}
	return s.transition(id, func(job *domain.Job) bool {
		if job.Status.IsTerminal() {
			return false
		}
		job.Status = domain.JobStatusSuccess
		job.Progress = 100
		job.ResultKey = resultKey
		job.Result = result
		job.EndedAt.Time, job.EndedAt.Valid = time.Now().UTC(), true
		return true
	})
}

func (s *memJobStore) MarkFailure(_ context.Context, id, errMsg string) error {
	return s.transition(id, func(job *domain.Job) bool {
		if job.Status.IsTerminal() {
			return false
		}
		job.Status = domain.JobStatusFailure
		job.ErrorMessage = errMsg
		job.EndedAt.Time, job.EndedAt.Valid = time.Now().UTC(), true
		return true
	})
}

func (s *memJobStore) MarkRevoked(_ context.Context, id string) error {
	return s.transition(id, func(job *domain.Job) bool {
		if job.Status.IsTerminal() {
			return false
		}
		job.Status = domain.JobStatusRevoked
		job.EndedAt.Time, job.EndedAt.Valid = time.Now().UTC(), true
		return true
	})
}

func (s *memJobStore) SetProgress(_ context.Context, id string, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if ok && job.Status == domain.JobStatusRunning && job.Progress <= progress {
		job.Progress = progress
	}
	return nil
}

func (s *memJobStore) FailStalled(_ context.Context, errMsg string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, job := range s.jobs {
		if job.Status == domain.JobStatusRunning {
			job.Status = domain.JobStatusFailure
			job.ErrorMessage = errMsg
			n++
		}
	}
	return n, nil
}

func (s *memJobStore) transition(id string, apply func(*domain.Job) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if !apply(job) {
		return domain.ErrTerminal
	}
	return nil
}

var _ port.JobStore = (*memJobStore)(nil)

// memQueue is an in-memory FIFO Queue.
type memQueue struct {
	mu      sync.Mutex
	ids     []string
	failing error
}

func (q *memQueue) Enqueue(_ context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failing != nil {
		return q.failing
	}
	q.ids = append(q.ids, jobID)
	return nil
}

func (q *memQueue) Claim(_ context.Context) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ids) == 0 {
		return "", nil
	}
	id := q.ids[0]
	q.ids = q.ids[1:]
	return id, nil
}

func (q *memQueue) Revoke(_ context.Context, jobID string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, id := range q.ids {
		if id == jobID {
			q.ids = append(q.ids[:i], q.ids[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

var _ port.Queue = (*memQueue)(nil)

// memCatalog is an in-memory MediaCatalog.
type memCatalog struct {
	mu    sync.Mutex
	media map[string]*domain.MediaInfo

	failSave error
}

func newMemCatalog() *memCatalog {
	return &memCatalog{media: make(map[string]*domain.MediaInfo)}
}

func (c *memCatalog) Save(m *domain.MediaInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSave != nil {
		return c.failSave
	}
	c.media[m.ID] = m
	return nil
}

func (c *memCatalog) Get(id string) (*domain.MediaInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.media[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

func (c *memCatalog) List() ([]*domain.MediaInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*domain.MediaInfo, 0, len(c.media))
	for _, m := range c.media {
		out = append(out, m)
	}
	return out, nil
}

func (c *memCatalog) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.media, id)
	return nil
}

var _ port.MediaCatalog = (*memCatalog)(nil)

// memBlobStore keeps blobs in a map, writing them out on Fetch.
type memBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte

	failFetch error
	failPush  error
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (b *memBlobStore) put(key, content string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = []byte(content)
}

func (b *memBlobStore) Fetch(_ context.Context, key, destDir string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failFetch != nil {
		return "", b.failFetch
	}
	data, ok := b.blobs[key]
	if !ok {
		return "", fmt.Errorf("blob %s: %w", key, domain.ErrNotFound)
	}
	path := filepath.Join(destDir, filepath.Base(key))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (b *memBlobStore) Push(_ context.Context, localPath, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failPush != nil {
		return b.failPush
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	b.blobs[key] = data
	return nil
}

func (b *memBlobStore) Exists(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.blobs[key]
	return ok, nil
}

func (b *memBlobStore) Delete(_ context.Context, keys ...string) map[string]error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, key := range keys {
		delete(b.blobs, key)
	}
	return map[string]error{}
}

var _ port.BlobStore = (*memBlobStore)(nil)

// fakeDetector returns canned results, optionally writing the annotated
// file so executors can push it.
type fakeDetector struct {
	detectFn    func(ctx context.Context, imagePath string, opts port.DetectOptions) (*domain.InferenceResult, error)
	openVideoFn func(ctx context.Context, videoPath, frameDir string, opts port.DetectOptions) (port.FrameStream, error)
}

func (d *fakeDetector) Detect(ctx context.Context, imagePath string, opts port.DetectOptions) (*domain.InferenceResult, error) {
	return d.detectFn(ctx, imagePath, opts)
}

func (d *fakeDetector) OpenVideo(ctx context.Context, videoPath, frameDir string, opts port.DetectOptions) (port.FrameStream, error) {
	return d.openVideoFn(ctx, videoPath, frameDir, opts)
}

var _ port.Detector = (*fakeDetector)(nil)

// sliceStream serves a fixed number of frames, invoking onNext before each.
type sliceStream struct {
	frames []*domain.FrameResult
	pos    int
	onNext func(index int)
	closed bool
}

func (s *sliceStream) Next() (*domain.FrameResult, error) {
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}
	if s.onNext != nil {
		s.onNext(s.pos)
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

var _ port.FrameStream = (*sliceStream)(nil)

func frames(n int) []*domain.FrameResult {
	out := make([]*domain.FrameResult, n)
	for i := range out {
		out[i] = &domain.FrameResult{Index: i, FramePath: fmt.Sprintf("frame_%06d.png", i+1)}
	}
	return out
}

// fakeTranscoder fabricates output files instead of running ffmpeg.
type fakeTranscoder struct {
	probe         *domain.ProbeResult
	probeErr      error
	transcodeErr  error
	encodeErr     error
	progressTicks []time.Duration
}

func (t *fakeTranscoder) Transcode(_ context.Context, inputPath, outputPath string, progressFn func(time.Duration)) error {
	if t.transcodeErr != nil {
		return t.transcodeErr
	}
	for _, tick := range t.progressTicks {
		if progressFn != nil {
			progressFn(tick)
		}
	}
	return os.WriteFile(outputPath, []byte("encoded"), 0644)
}

func (t *fakeTranscoder) EncodeFrames(_ context.Context, framePattern, outputPath string, fps float64, width, height int) error {
	if t.encodeErr != nil {
		return t.encodeErr
	}
	return os.WriteFile(outputPath, []byte("frames"), 0644)
}

func (t *fakeTranscoder) Probe(_ context.Context, path string) (*domain.ProbeResult, error) {
	if t.probeErr != nil {
		return nil, t.probeErr
	}
	if t.probe != nil {
		return t.probe, nil
	}
	return &domain.ProbeResult{}, nil
}

var _ port.Transcoder = (*fakeTranscoder)(nil)

func probeFor(frames int, fps float64, durationSec float64) *domain.ProbeResult {
	return &domain.ProbeResult{
		Format: domain.ProbeFormat{Duration: fmt.Sprintf("%f", durationSec)},
		Streams: []domain.ProbeStream{{
			CodecType:    "video",
			CodecName:    "h264",
			Width:        1280,
			Height:       720,
			AvgFrameRate: fmt.Sprintf("%d/1", int(fps)),
			NbFrames:     fmt.Sprintf("%d", frames),
			Duration:     fmt.Sprintf("%f", durationSec),
		}},
	}
}
