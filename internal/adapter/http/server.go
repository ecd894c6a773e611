package http

import (
	"net/http"

	"visionq/internal/adapter/http/middleware"
	"visionq/internal/service"
)

type Server struct {
	mux        *http.ServeMux
	handlers   *Handlers
	sseHandler *SSEHandler
}

func NewServer(dispatcher *service.Dispatcher, jobSvc *service.JobService, mediaSvc *service.MediaService, eventBus *service.EventBus, maxSizeMB int) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:        mux,
		handlers:   NewHandlers(dispatcher, jobSvc, mediaSvc, maxSizeMB),
		sseHandler: NewSSEHandler(eventBus, jobSvc),
	}

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/tasks", s.handlers.SubmitTask())
	s.mux.HandleFunc("GET /api/tasks", s.handlers.ListTasks())
	s.mux.HandleFunc("GET /api/tasks/{id}", s.handlers.TaskStatus())
	s.mux.HandleFunc("POST /api/tasks/{id}/cancel", s.handlers.CancelTask())
	s.mux.HandleFunc("DELETE /api/tasks/{id}", s.handlers.DeleteTask())
	s.mux.HandleFunc("GET /api/tasks/{id}/result", s.handlers.DownloadResult())
	s.mux.HandleFunc("GET /api/tasks/{id}/events", s.sseHandler.Events())

	s.mux.HandleFunc("POST /api/media", s.handlers.UploadMedia())
	s.mux.HandleFunc("GET /api/media", s.handlers.ListMedia())
	s.mux.HandleFunc("GET /api/media/{id}", s.handlers.GetMedia())
	s.mux.HandleFunc("GET /api/media/{id}/file", s.handlers.DownloadMedia())
	s.mux.HandleFunc("DELETE /api/media/{id}", s.handlers.DeleteMedia())

	s.mux.HandleFunc("GET /api/health", s.handlers.Health())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	middleware.SecurityHeaders(s.mux).ServeHTTP(w, r)
}
