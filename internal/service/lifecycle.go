package service

import (
	"context"
	"errors"

	"visionq/internal/domain"
	"visionq/internal/infrastructure/logger"
	"visionq/internal/port"
)

type LifecycleEventType string

const (
	LifecycleStarted   LifecycleEventType = "started"
	LifecycleSucceeded LifecycleEventType = "succeeded"
	LifecycleFailed    LifecycleEventType = "failed"
	LifecycleRevoked   LifecycleEventType = "revoked"
)

// LifecycleEvent is one queue-engine signal about a job.
type LifecycleEvent struct {
	Type      LifecycleEventType
	JobID     string
	ResultKey string
	Result    string
	Err       error
}

// Coordinator reconciles lifecycle events into the job store. Every write
// is conditional on the current status being non-terminal, so whichever
// terminal signal lands first wins and later ones are ignored. Voluntary
// in-loop aborts and external revocations both map to REVOKED.
type Coordinator struct {
	jobs    port.JobStore
	cancels *CancelRegistry
	bus     *EventBus
	events  chan LifecycleEvent
}

func NewCoordinator(jobs port.JobStore, cancels *CancelRegistry, bus *EventBus) *Coordinator {
	return &Coordinator{
		jobs:    jobs,
		cancels: cancels,
		bus:     bus,
		events:  make(chan LifecycleEvent, 64),
	}
}

// Emit hands a lifecycle event to the coordinator.
func (c *Coordinator) Emit(ev LifecycleEvent) {
	c.events <- ev
}

// Run consumes lifecycle events until ctx is cancelled. Events already
// queued are drained before returning.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case ev := <-c.events:
			c.apply(ctx, ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-c.events:
					c.apply(context.Background(), ev)
				default:
					return
				}
			}
		}
	}
}

func (c *Coordinator) apply(ctx context.Context, ev LifecycleEvent) {
	var err error
	switch ev.Type {
	case LifecycleStarted:
		err = c.jobs.MarkRunning(ctx, ev.JobID)
	case LifecycleSucceeded:
		err = c.jobs.MarkSuccess(ctx, ev.JobID, ev.ResultKey, ev.Result)
	case LifecycleFailed:
		msg := "unknown error"
		if ev.Err != nil {
			msg = ev.Err.Error()
		}
		err = c.jobs.MarkFailure(ctx, ev.JobID, msg)
	case LifecycleRevoked:
		err = c.jobs.MarkRevoked(ctx, ev.JobID)
	default:
		logger.Warn.Printf("job %s: unknown lifecycle event %q", ev.JobID, ev.Type)
		return
	}

	if err != nil {
		if errors.Is(err, domain.ErrTerminal) {
			// A terminal write already won; late signals are ignored.
			logger.Debug.Printf("job %s: late %s signal ignored", ev.JobID, ev.Type)
		} else {
			logger.Error.Printf("job %s: apply %s failed: %v", ev.JobID, ev.Type, err)
		}
		return
	}

	if ev.Type != LifecycleStarted {
		c.cancels.Remove(ev.JobID)
	}
	c.publish(ev)
}

func (c *Coordinator) publish(ev LifecycleEvent) {
	if c.bus == nil {
		return
	}
	status := map[LifecycleEventType]domain.JobStatus{
		LifecycleStarted:   domain.JobStatusRunning,
		LifecycleSucceeded: domain.JobStatusSuccess,
		LifecycleFailed:    domain.JobStatusFailure,
		LifecycleRevoked:   domain.JobStatusRevoked,
	}[ev.Type]

	event := Event{Type: "status", Status: string(status)}
	if ev.Err != nil {
		event.Message = ev.Err.Error()
	}
	c.bus.Publish(ev.JobID, event)
}
