package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visionq/internal/domain"
	"visionq/internal/port"
)

func imageJob(t *testing.T, jobs *memJobStore) *domain.Job {
	t.Helper()
	job := domain.NewJob(domain.JobKindImageInference, "m", "origins/in.png", domain.DefaultParams())
	require.NoError(t, jobs.Insert(context.Background(), job))
	require.NoError(t, jobs.MarkRunning(context.Background(), job.ID))
	return job
}

// annotatingDetector writes an annotated copy next to the input and
// reports one detection.
func annotatingDetector() *fakeDetector {
	return &fakeDetector{
		detectFn: func(_ context.Context, imagePath string, _ port.DetectOptions) (*domain.InferenceResult, error) {
			annotated := filepath.Join(filepath.Dir(imagePath), "annotated.png")
			if err := os.WriteFile(annotated, []byte("annotated"), 0644); err != nil {
				return nil, err
			}
			return &domain.InferenceResult{
				AnnotatedPath: annotated,
				Detections: []domain.Detection{
					{Class: 0, Label: "person", Confidence: 0.93, X: 10, Y: 20, W: 30, H: 40},
				},
			}, nil
		},
	}
}

func TestImageExecutor_Success(t *testing.T) {
	jobs := newMemJobStore()
	blobs := newMemBlobStore()
	blobs.put("origins/in.png", "image bytes")
	scratchRoot := t.TempDir()

	ex := NewImageExecutor(blobs, annotatingDetector(), scratchRoot)
	rep := NewReporter(jobs, nil, time.Nanosecond)
	job := imageJob(t, jobs)

	outcome, err := ex.Run(context.Background(), job, &Token{}, rep)
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.False(t, outcome.Aborted)
	assert.Equal(t, "results/"+job.ID+".png", outcome.ResultKey)

	var summary struct {
		Count      int                `json:"count"`
		Detections []domain.Detection `json:"detections"`
	}
	require.NoError(t, json.Unmarshal([]byte(outcome.Result), &summary))
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, "person", summary.Detections[0].Label)

	pushed, _ := blobs.Exists(context.Background(), outcome.ResultKey)
	assert.True(t, pushed)

	assert.Equal(t, 100, storedProgress(t, jobs, job.ID))

	entries, err := os.ReadDir(scratchRoot)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch must be removed on success")
}

func TestImageExecutor_FetchFailure(t *testing.T) {
	jobs := newMemJobStore()
	blobs := newMemBlobStore() // input blob deliberately missing

	ex := NewImageExecutor(blobs, annotatingDetector(), t.TempDir())
	rep := NewReporter(jobs, nil, time.Nanosecond)
	job := imageJob(t, jobs)

	_, err := ex.Run(context.Background(), job, &Token{}, rep)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMediaFetch)
	assert.Contains(t, err.Error(), "origins/in.png")
}

func TestImageExecutor_AbortBeforeInference(t *testing.T) {
	jobs := newMemJobStore()
	blobs := newMemBlobStore()
	blobs.put("origins/in.png", "image bytes")
	scratchRoot := t.TempDir()

	detectCalled := false
	detector := &fakeDetector{
		detectFn: func(_ context.Context, _ string, _ port.DetectOptions) (*domain.InferenceResult, error) {
			detectCalled = true
			return nil, nil
		},
	}

	ex := NewImageExecutor(blobs, detector, scratchRoot)
	rep := NewReporter(jobs, nil, time.Nanosecond)
	job := imageJob(t, jobs)

	token := &Token{}
	token.aborted.Store(true)

	outcome, err := ex.Run(context.Background(), job, token, rep)
	require.NoError(t, err)
	assert.True(t, outcome.Aborted)
	assert.False(t, detectCalled, "aborted before the inference checkpoint")

	pushed, _ := blobs.Exists(context.Background(), "results/"+job.ID+".png")
	assert.False(t, pushed)

	entries, _ := os.ReadDir(scratchRoot)
	assert.Empty(t, entries, "scratch must be removed on abort")
}

func TestImageExecutor_PushFailure(t *testing.T) {
	jobs := newMemJobStore()
	blobs := newMemBlobStore()
	blobs.put("origins/in.png", "image bytes")
	blobs.failPush = os.ErrPermission

	ex := NewImageExecutor(blobs, annotatingDetector(), t.TempDir())
	rep := NewReporter(jobs, nil, time.Nanosecond)
	job := imageJob(t, jobs)

	_, err := ex.Run(context.Background(), job, &Token{}, rep)
	assert.ErrorIs(t, err, domain.ErrMediaPush)
}
