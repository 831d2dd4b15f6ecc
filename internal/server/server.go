// Package server exposes the ingestion and query pipelines over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/passagedb/passage/internal/pipeline"
	"github.com/passagedb/passage/internal/registry"
)

// Config holds server configuration.
type Config struct {
	Port              int
	AllowAll          bool // allow all CORS origins (dev mode)
	DefaultCollection string
	MaxUploadBytes    int64
	GenerationTarget  string // provider/model label reported by /health
}

// Server serves the passage HTTP API.
type Server struct {
	cfg        Config
	registry   *registry.Registry
	ingestor   *pipeline.Ingestor
	querier    *pipeline.Querier
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all dependencies.
func New(cfg Config, reg *registry.Registry, ingestor *pipeline.Ingestor, querier *pipeline.Querier) *Server {
	s := &Server{
		cfg:      cfg,
		registry: reg,
		ingestor: ingestor,
		querier:  querier,
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Post("/query", s.handleQuery)
		r.Get("/stats", s.handleStats)
		r.Get("/ws", s.handleWebSocket)

		r.Route("/collections", func(r chi.Router) {
			r.Get("/", s.handleListCollections)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetCollection)
				r.Delete("/", s.handleDeleteCollection)
				r.Get("/documents", s.handleListDocuments)
				r.Delete("/documents", s.handleClearDocuments)
				r.Get("/documents/{id}", s.handleGetDocument)
				r.Delete("/documents/{id}", s.handleDeleteDocument)
				r.Get("/chunks", s.handleListChunks)
			})
		})
	})

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("passage server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
