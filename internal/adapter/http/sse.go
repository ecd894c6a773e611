package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"visionq/internal/domain"
	"visionq/internal/service"
)

type SSEHandler struct {
	eventBus *service.EventBus
	jobSvc   *service.JobService
}

func NewSSEHandler(eventBus *service.EventBus, jobSvc *service.JobService) *SSEHandler {
	return &SSEHandler{
		eventBus: eventBus,
		jobSvc:   jobSvc,
	}
}

// sseWrite writes a single SSE event with a JSON payload.
func sseWrite(w http.ResponseWriter, eventName string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventName, payload)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// sendKeepAlive writes an SSE comment to keep the connection active.
func sendKeepAlive(w http.ResponseWriter) {
	_, _ = fmt.Fprint(w, ": keep-alive\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// Events streams status and progress updates for a single task. The
// current snapshot is sent first, then live events until the task reaches
// a terminal state, at which point the stream closes.
func (h *SSEHandler) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		job, err := h.jobSvc.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "task not found", http.StatusNotFound)
				return
			}
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		snapshot := service.Event{
			Type:     "status",
			Status:   string(job.Status),
			Progress: job.Progress,
			Message:  job.ErrorMessage,
		}
		sseWrite(w, "status", snapshot)
		if job.Status.IsTerminal() {
			return
		}

		ch := h.eventBus.Subscribe(id)
		defer h.eventBus.Unsubscribe(id, ch)

		ctx := r.Context()
		keepAlive := time.NewTicker(15 * time.Second)
		defer keepAlive.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-keepAlive.C:
				sendKeepAlive(w)
			case event, ok := <-ch:
				if !ok {
					return
				}
				sseWrite(w, event.Type, event)
				if event.Type == "status" && domain.JobStatus(event.Status).IsTerminal() {
					return
				}
			}
		}
	}
}
