package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type JobKind string

const (
	JobKindImageInference JobKind = "image-inference"
	JobKindVideoInference JobKind = "video-inference"
	JobKindTranscode      JobKind = "transcode"
)

// ValidKind reports whether k is one of the known job kinds.
func ValidKind(k JobKind) bool {
	switch k {
	case JobKindImageInference, JobKindVideoInference, JobKindTranscode:
		return true
	}
	return false
}

type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailure JobStatus = "FAILURE"
	JobStatusRevoked JobStatus = "REVOKED"
)

// IsTerminal reports whether s permits no further transitions.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSuccess, JobStatusFailure, JobStatusRevoked:
		return true
	}
	return false
}

// ValidTransition enforces the allowed job state machine edges.
func ValidTransition(from, to JobStatus) bool {
	switch from {
	case JobStatusPending:
		return to == JobStatusRunning || to == JobStatusFailure || to == JobStatusRevoked
	case JobStatusRunning:
		return to.IsTerminal()
	default:
		return false
	}
}

// JobParams carries the kind-specific pipeline parameters. They are
// immutable once the job has been handed to the queue.
type JobParams struct {
	Confidence float64 `json:"confidence"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Augment    bool    `json:"augment"`
	Classes    []int   `json:"classes,omitempty"`
}

// DefaultParams mirrors the defaults applied when a submission omits values.
func DefaultParams() JobParams {
	return JobParams{
		Confidence: 0.25,
		Width:      1920,
		Height:     1088,
	}
}

// Job is the durable record for one unit of submitted work. It is created
// by the dispatcher in PENDING state and mutated only by the lifecycle
// coordinator and the executor that owns it.
type Job struct {
	ID           string       `json:"id"`
	Kind         JobKind      `json:"kind"`
	MediaID      string       `json:"media_id"`
	InputKey     string       `json:"input_key"`
	ResultKey    string       `json:"result_key,omitempty"`
	Result       string       `json:"result,omitempty"`
	Params       JobParams    `json:"params"`
	Status       JobStatus    `json:"status"`
	Progress     int          `json:"progress"`
	ErrorMessage string       `json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	StartedAt    sql.NullTime `json:"started_at"`
	EndedAt      sql.NullTime `json:"ended_at"`
}

func NewJob(kind JobKind, mediaID, inputKey string, params JobParams) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		MediaID:   mediaID,
		InputKey:  inputKey,
		Params:    params,
		Status:    JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// ClampProgress truncates a fractional completion ratio into the 0-100
// integer range. Values are never rounded up.
func ClampProgress(done, total float64) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	pct := int(done / total * 100)
	if pct > 100 {
		return 100
	}
	return pct
}
