package domain

import "errors"

var (
	// ErrNotFound is returned when a job, media record or blob is absent.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput rejects a submission synchronously; no job is created.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMediaFetch wraps failures pulling an input blob to scratch space.
	ErrMediaFetch = errors.New("media fetch failed")

	// ErrMediaPush wraps failures uploading a produced artifact.
	ErrMediaPush = errors.New("media push failed")

	// ErrInference wraps pipeline-internal detector failures.
	ErrInference = errors.New("inference failed")

	// ErrTranscode indicates the external codec filter exited nonzero.
	ErrTranscode = errors.New("transcode failed")

	// ErrAborted is the cooperative cancellation outcome. It is a distinct
	// terminal result, not a failure, and never records an error message.
	ErrAborted = errors.New("job aborted")

	// ErrTerminal rejects a write against a job already in a terminal state.
	ErrTerminal = errors.New("job is terminal")

	// ErrJobActive rejects deletion of a job that has not settled yet.
	ErrJobActive = errors.New("job is still active")
)
