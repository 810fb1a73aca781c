package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/nbview/internal/config"
	"github.com/dgallion1/nbview/internal/library"
	"github.com/dgallion1/nbview/internal/stats"
)

// Server is the HTTP API server for nbview.
type Server struct {
	router  chi.Router
	library *library.Library
	stats   *stats.RenderStats
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(lib *library.Library, st *stats.RenderStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		library: lib,
		stats:   st,
		log:     log,
		cfg:     cfg,
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
	r.Get("/view/{id}", s.handleView)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/notebooks", s.handleUpload)
		r.Get("/api/notebooks", s.handleListNotebooks)
		r.Delete("/api/notebooks/{id}", s.handleDeleteNotebook)
		r.Get("/api/notebooks/{id}/render", s.handleRenderNotebook)
		r.Post("/api/render", s.handleRender)
		r.Get("/api/stats/render", s.handleRenderStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
