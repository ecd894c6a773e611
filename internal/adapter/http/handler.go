package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"visionq/internal/adapter/http/validation"
	"visionq/internal/domain"
	"visionq/internal/infrastructure/logger"
	"visionq/internal/port"
	"visionq/internal/service"
)

type Handlers struct {
	dispatcher *service.Dispatcher
	jobSvc     *service.JobService
	mediaSvc   *service.MediaService
	maxSizeMB  int
}

func NewHandlers(dispatcher *service.Dispatcher, jobSvc *service.JobService, mediaSvc *service.MediaService, maxSizeMB int) *Handlers {
	return &Handlers{
		dispatcher: dispatcher,
		jobSvc:     jobSvc,
		mediaSvc:   mediaSvc,
		maxSizeMB:  maxSizeMB,
	}
}

type submitRequest struct {
	Kind    string  `json:"kind"`
	MediaID string  `json:"media_id"`
	Conf    float64 `json:"confidence"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Augment bool    `json:"augment"`
	Classes []int   `json:"classes"`
}

func (h *Handlers) SubmitTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		params := domain.DefaultParams()
		if req.Conf > 0 {
			params.Confidence = req.Conf
		}
		if req.Width > 0 {
			params.Width = req.Width
		}
		if req.Height > 0 {
			params.Height = req.Height
		}
		params.Augment = req.Augment
		params.Classes = req.Classes

		job, err := h.dispatcher.Submit(r.Context(), domain.JobKind(req.Kind), params, req.MediaID)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			logger.Error.Printf("submit failed: %v", err)
			writeError(w, http.StatusInternalServerError, "submission failed")
			return
		}

		writeJSON(w, http.StatusAccepted, statusOf(job))
	}
}

// taskStatus is the caller-facing status payload.
type taskStatus struct {
	ID        string          `json:"task_id"`
	Kind      domain.JobKind  `json:"kind"`
	Status    string          `json:"status"`
	Progress  int             `json:"progress"`
	StartedAt *string         `json:"started_at,omitempty"`
	EndedAt   *string         `json:"ended_at,omitempty"`
	ResultKey string          `json:"result_key,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func statusOf(job *domain.Job) taskStatus {
	st := taskStatus{
		ID:        job.ID,
		Kind:      job.Kind,
		Status:    string(job.Status),
		Progress:  job.Progress,
		ResultKey: job.ResultKey,
		Error:     job.ErrorMessage,
	}
	if job.Result != "" {
		st.Result = json.RawMessage(job.Result)
	}
	if job.StartedAt.Valid {
		s := job.StartedAt.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
		st.StartedAt = &s
	}
	if job.EndedAt.Valid {
		s := job.EndedAt.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
		st.EndedAt = &s
	}
	return st
}

func (h *Handlers) TaskStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := h.jobSvc.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusNotFound, "task not found")
				return
			}
			logger.Error.Printf("task status failed: %v", err)
			writeError(w, http.StatusInternalServerError, "lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, statusOf(job))
	}
}

func (h *Handlers) ListTasks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := port.JobFilter{
			Status: domain.JobStatus(r.URL.Query().Get("status")),
			Kind:   domain.JobKind(r.URL.Query().Get("kind")),
			Limit:  queryInt(r, "limit", 20),
			Offset: queryInt(r, "offset", 0),
		}

		jobs, total, err := h.jobSvc.List(r.Context(), filter)
		if err != nil {
			logger.Error.Printf("list tasks failed: %v", err)
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}

		statuses := make([]taskStatus, 0, len(jobs))
		for _, job := range jobs {
			statuses = append(statuses, statusOf(job))
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"tasks": statuses,
			"total": total,
		})
	}
}

func (h *Handlers) CancelTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := h.jobSvc.Cancel(r.Context(), id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusNotFound, "task not found")
				return
			}
			logger.Error.Printf("cancel task %s failed: %v", id, err)
			writeError(w, http.StatusInternalServerError, "cancel failed")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"message": "cancellation requested"})
	}
}

func (h *Handlers) DeleteTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		err := h.jobSvc.Delete(r.Context(), id)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]string{"message": "task deleted"})
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "task not found")
		case errors.Is(err, domain.ErrJobActive):
			writeError(w, http.StatusConflict, err.Error())
		default:
			logger.Error.Printf("delete task %s failed: %v", id, err)
			writeError(w, http.StatusInternalServerError, "delete failed")
		}
	}
}

func (h *Handlers) UploadMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxBytes := int64(h.maxSizeMB) * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		if err := r.ParseMultipartForm(maxBytes); err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid file upload")
			return
		}
		defer file.Close() //nolint:errcheck

		tmpFile, err := os.CreateTemp("", "upload-*.tmp")
		if err != nil {
			logger.Error.Printf("create temp upload: %v", err)
			writeError(w, http.StatusInternalServerError, "upload failed")
			return
		}
		defer os.Remove(tmpFile.Name()) //nolint:errcheck
		defer tmpFile.Close()           //nolint:errcheck

		if _, err := io.Copy(tmpFile, file); err != nil {
			logger.Error.Printf("buffer upload: %v", err)
			writeError(w, http.StatusInternalServerError, "upload failed")
			return
		}

		mime, allowed, err := validation.ValidateMagicBytes(tmpFile)
		if err != nil || !allowed {
			writeError(w, http.StatusUnsupportedMediaType, "unsupported file type")
			return
		}

		var kind domain.MediaKind
		switch {
		case strings.HasPrefix(mime, "image/"):
			kind = domain.MediaKindImage
		case strings.HasPrefix(mime, "video/"):
			kind = domain.MediaKindVideo
		default:
			writeError(w, http.StatusUnsupportedMediaType, "unsupported file type")
			return
		}

		name := validation.SanitizeFilename(header.Filename)
		info, err := h.mediaSvc.Upload(r.Context(), tmpFile.Name(), name, mime, kind)
		if err != nil {
			logger.Error.Printf("media upload failed: %v", err)
			writeError(w, http.StatusInternalServerError, "upload failed")
			return
		}

		writeJSON(w, http.StatusCreated, info)
	}
}

func (h *Handlers) GetMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := h.mediaSvc.Get(r.PathValue("id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusNotFound, "media not found")
				return
			}
			logger.Error.Printf("media lookup failed: %v", err)
			writeError(w, http.StatusInternalServerError, "lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

func (h *Handlers) ListMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.mediaSvc.List()
		if err != nil {
			logger.Error.Printf("media list failed: %v", err)
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"media": list})
	}
}

func (h *Handlers) DownloadMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scratch, err := os.MkdirTemp("", "serve-*")
		if err != nil {
			logger.Error.Printf("media download scratch: %v", err)
			writeError(w, http.StatusInternalServerError, "download failed")
			return
		}
		defer os.RemoveAll(scratch) //nolint:errcheck

		path, info, err := h.mediaSvc.FetchFile(r.Context(), r.PathValue("id"), scratch)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusNotFound, "media not found")
				return
			}
			logger.Error.Printf("media download failed: %v", err)
			writeError(w, http.StatusInternalServerError, "download failed")
			return
		}

		w.Header().Set("Content-Disposition", validation.ContentDisposition(info.OriginalName, true))
		http.ServeFile(w, r, path)
	}
}

func (h *Handlers) DownloadResult() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		scratch, err := os.MkdirTemp("", "serve-*")
		if err != nil {
			logger.Error.Printf("result download scratch: %v", err)
			writeError(w, http.StatusInternalServerError, "download failed")
			return
		}
		defer os.RemoveAll(scratch) //nolint:errcheck

		path, err := h.jobSvc.FetchResult(r.Context(), id, scratch)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusNotFound, "result not found")
				return
			}
			logger.Error.Printf("result download failed: %v", err)
			writeError(w, http.StatusInternalServerError, "download failed")
			return
		}

		w.Header().Set("Content-Disposition", validation.ContentDisposition(filepath.Base(path), false))
		http.ServeFile(w, r, path)
	}
}

func (h *Handlers) DeleteMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := h.mediaSvc.Delete(r.Context(), id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusNotFound, "media not found")
				return
			}
			logger.Error.Printf("media delete failed: %v", err)
			writeError(w, http.StatusInternalServerError, "delete failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "media deleted"})
	}
}

func (h *Handlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
