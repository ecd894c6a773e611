package service

import (
	"context"
	"sync"
	"time"

	"visionq/internal/infrastructure/logger"
	"visionq/internal/port"
)

// Reporter coalesces per-frame progress updates into bounded-rate store
// writes. Values are monotonic per job: a regression is dropped before it
// reaches the store. Flush always writes so the final value of a run is
// durable even when the throttle window has not elapsed.
type Reporter struct {
	jobs     port.JobStore
	bus      *EventBus
	interval time.Duration

	mu    sync.Mutex
	state map[string]*progressState
}

type progressState struct {
	last      int
	lastWrite time.Time
}

func NewReporter(jobs port.JobStore, bus *EventBus, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Reporter{
		jobs:     jobs,
		bus:      bus,
		interval: interval,
		state:    make(map[string]*progressState),
	}
}

// Report records progress for a running job, writing through to the store
// at most once per interval.
func (r *Reporter) Report(ctx context.Context, jobID string, progress int) {
	progress = clamp(progress)

	r.mu.Lock()
	st, ok := r.state[jobID]
	if !ok {
		st = &progressState{last: -1}
		r.state[jobID] = st
	}
	if progress <= st.last {
		r.mu.Unlock()
		return
	}
	st.last = progress
	now := time.Now()
	if now.Sub(st.lastWrite) < r.interval && progress < 100 {
		r.mu.Unlock()
		return
	}
	st.lastWrite = now
	r.mu.Unlock()

	r.write(ctx, jobID, progress)
}

// Flush writes the current value unconditionally. Executors call it before
// exiting so the last observed progress is durable.
func (r *Reporter) Flush(ctx context.Context, jobID string, progress int) {
	progress = clamp(progress)

	r.mu.Lock()
	st, ok := r.state[jobID]
	if ok && progress < st.last {
		progress = st.last
	}
	if st != nil {
		st.last = progress
		st.lastWrite = time.Now()
	}
	r.mu.Unlock()

	r.write(ctx, jobID, progress)
}

// Forget drops throttle state once the job is terminal.
func (r *Reporter) Forget(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.state, jobID)
}

func (r *Reporter) write(ctx context.Context, jobID string, progress int) {
	if err := r.jobs.SetProgress(ctx, jobID, progress); err != nil {
		logger.Warn.Printf("job %s: progress write failed: %v", jobID, err)
		return
	}
	if r.bus != nil {
		r.bus.Publish(jobID, Event{Type: "progress", Progress: progress})
	}
}

func clamp(progress int) int {
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}
