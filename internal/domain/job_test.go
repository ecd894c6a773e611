package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidKind(t *testing.T) {
	assert.True(t, ValidKind(JobKindImageInference))
	assert.True(t, ValidKind(JobKindVideoInference))
	assert.True(t, ValidKind(JobKindTranscode))
	assert.False(t, ValidKind("thumbnail"))
	assert.False(t, ValidKind(""))
}

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.IsTerminal())
	assert.False(t, JobStatusRunning.IsTerminal())
	assert.True(t, JobStatusSuccess.IsTerminal())
	assert.True(t, JobStatusFailure.IsTerminal())
	assert.True(t, JobStatusRevoked.IsTerminal())
}

func TestValidTransition(t *testing.T) {
	tests := []struct {
		name string
		from JobStatus
		to   JobStatus
		want bool
	}{
		{"pending to running", JobStatusPending, JobStatusRunning, true},
		{"pending to failure", JobStatusPending, JobStatusFailure, true},
		{"pending to revoked", JobStatusPending, JobStatusRevoked, true},
		{"pending to success", JobStatusPending, JobStatusSuccess, false},
		{"running to success", JobStatusRunning, JobStatusSuccess, true},
		{"running to failure", JobStatusRunning, JobStatusFailure, true},
		{"running to revoked", JobStatusRunning, JobStatusRevoked, true},
		{"running to pending", JobStatusRunning, JobStatusPending, false},
		{"success is final", JobStatusSuccess, JobStatusRunning, false},
		{"failure is final", JobStatusFailure, JobStatusRevoked, false},
		{"revoked is final", JobStatusRevoked, JobStatusSuccess, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidTransition(tt.from, tt.to))
		})
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob(JobKindImageInference, "media-1", "origins/a.png", DefaultParams())

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 0, job.Progress)
	assert.Equal(t, "media-1", job.MediaID)
	assert.Equal(t, "origins/a.png", job.InputKey)
	assert.False(t, job.StartedAt.Valid)
	assert.False(t, job.EndedAt.Valid)

	other := NewJob(JobKindImageInference, "media-1", "origins/a.png", DefaultParams())
	assert.NotEqual(t, job.ID, other.ID)
}

func TestClampProgress(t *testing.T) {
	tests := []struct {
		name  string
		done  float64
		total float64
		want  int
	}{
		{"zero of total", 0, 100, 0},
		{"half", 50, 100, 50},
		{"complete", 100, 100, 100},
		{"over total", 150, 100, 100},
		{"truncates down", 1, 3, 33},
		{"unknown total", 10, 0, 0},
		{"negative total", 10, -5, 0},
		{"negative done", -1, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampProgress(tt.done, tt.total))
		})
	}
}

func TestClampProgress_Monotonic(t *testing.T) {
	// A growing done count over a fixed total must never yield a smaller
	// value than a previous one.
	last := -1
	for done := 0; done <= 240; done++ {
		got := ClampProgress(float64(done), 240)
		assert.GreaterOrEqual(t, got, last)
		last = got
	}
	assert.Equal(t, 100, last)
}

func TestMediaInfo_CompatibleWith(t *testing.T) {
	image := &MediaInfo{Kind: MediaKindImage}
	video := &MediaInfo{Kind: MediaKindVideo}

	assert.True(t, image.CompatibleWith(JobKindImageInference))
	assert.False(t, image.CompatibleWith(JobKindVideoInference))
	assert.False(t, image.CompatibleWith(JobKindTranscode))

	assert.False(t, video.CompatibleWith(JobKindImageInference))
	assert.True(t, video.CompatibleWith(JobKindVideoInference))
	assert.True(t, video.CompatibleWith(JobKindTranscode))

	assert.False(t, video.CompatibleWith("thumbnail"))
}
