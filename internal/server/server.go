// Package server exposes the extraction pipeline over HTTP: document
// upload plus read access to the extraction journal.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"github.com/donexus/lease-extract/internal/files"
	"github.com/donexus/lease-extract/internal/model"
	"github.com/donexus/lease-extract/internal/store"
)

// Processor runs one document through the extraction pipeline.
type Processor interface {
	Process(ctx context.Context, path string) (*model.ExtractionResult, error)
}

// Server holds the handler dependencies.
type Server struct {
	pipe        Processor
	store       store.Store
	files       *files.Manager
	corsOrigins []string
}

// New wires a Server over the pipeline, journal and upload storage.
func New(pipe Processor, st store.Store, fm *files.Manager, corsOrigins []string) *Server {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	return &Server{
		pipe:        pipe,
		store:       st,
		files:       fm,
		corsOrigins: corsOrigins,
	}
}

// Router builds the chi mux with middleware and all routes mounted.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Route("/extractions", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Get("/{id}", s.handleGet)
			r.Delete("/{id}", s.handleDelete)
		})
	})

	return r
}

// errResponse is the uniform error envelope.
type errResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errResponse{Success: false, Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
