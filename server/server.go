// Package server exposes the ETF explorer tools as a JSON HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/etnz/etfx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Config holds server configuration
type Config struct {
	Addr      string
	Log       zerolog.Logger
	Workspace *etfx.Workspace
	Service   etfx.Service
}

// Server is the HTTP API server.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	ws     *etfx.Workspace
	svc    etfx.Service
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		ws:     cfg.Workspace,
		svc:    cfg.Service,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler of the API.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/search", s.handleSearch)

		// static routes take precedence over {tool}.
		r.Get("/intersection/shared", s.handleShared)
		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/", s.handlePortfolio)
			r.Delete("/", s.handlePortfolioReset)
			r.Get("/report", s.handlePortfolioReport)
			r.Post("/allocations", s.handleAllocationAdd)
			r.Put("/allocations/{symbol}", s.handleAllocationSet)
			r.Delete("/allocations/{symbol}", s.handleAllocationRemove)
			r.Post("/compare", s.handleCompare)
		})

		r.Route("/{tool}", func(r chi.Router) {
			r.Get("/", s.handleSelection)
			r.Delete("/", s.handleReset)
			r.Get("/report", s.handleReport)
			r.Post("/etfs", s.handleAdd)
			r.Delete("/etfs/{symbol}", s.handleRemove)
		})
	})
}

// Start starts the HTTP server, it blocks until the server is shut down.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	s.ws.Close()
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
