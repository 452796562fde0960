package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/readaloud/internal/config"
	"github.com/dgallion1/readaloud/internal/library"
	"github.com/dgallion1/readaloud/internal/pipeline"
	"github.com/dgallion1/readaloud/internal/session"
)

// Server is the HTTP API server for readaloud.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	library      *library.Library
	desk         *session.Desk
	speechWS     http.Handler
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. speechWS serves the
// speech client websocket and may be nil when another driver is in use.
func NewServer(orch *pipeline.Orchestrator, lib *library.Library, desk *session.Desk, speechWS http.Handler, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		library:      lib,
		desk:         desk,
		speechWS:     speechWS,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/documents", s.handleUpload)
		r.Get("/api/documents", s.handleListDocuments)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
		r.Post("/api/documents/{docID}/open", s.handleOpenDocument)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)

		r.Route("/api/desk", func(r chi.Router) {
			r.Get("/", s.handleDeskStatus)
			r.Get("/text", s.handleDeskText)
			r.Post("/page", s.handleGoToPage)
			r.Post("/page/next", s.handleNextPage)
			r.Post("/page/prev", s.handlePrevPage)
			r.Post("/read/start", s.handleReadStart)
			r.Post("/read/stop", s.handleReadStop)
			r.Post("/read/pause", s.handleReadPause)
			r.Post("/read/resume", s.handleReadResume)
		})

		r.Post("/api/speak", s.handleSpeak)
		r.Get("/api/speech/ws", s.handleSpeechWS)
		r.Get("/api/stats/extract", s.handleExtractStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleSpeechWS(w http.ResponseWriter, r *http.Request) {
	if s.speechWS == nil {
		jsonError(w, "websocket speech driver is not enabled", http.StatusNotFound)
		return
	}
	s.speechWS.ServeHTTP(w, r)
}

func (s *Server) handleExtractStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"documents":   s.library.Len(),
		"stats":       s.orchestrator.Stats().Snapshot(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
