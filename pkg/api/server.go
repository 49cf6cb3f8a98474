package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/polarized-clustering-service/pkg/scg"
)

// Server wires the job service, routes and metrics registry into an HTTP
// server configured from the server.* and jobs.* keys
type Server struct {
	config     *scg.Config
	jobs       *JobService
	router     *mux.Router
	httpServer *http.Server
}

// NewServer builds a server with its own Prometheus registry
func NewServer(config *scg.Config) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	jobs := NewJobService(config, NewMetrics(registry))
	router := mux.NewRouter()
	SetupRoutes(router, NewHandlers(jobs), registry)

	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)
	router.Use(RecoveryMiddleware)

	return &Server{
		config: config,
		jobs:   jobs,
		router: router,
		httpServer: &http.Server{
			Addr:         config.ServerAddress(),
			Handler:      router,
			ReadTimeout:  config.ReadTimeout(),
			WriteTimeout: config.WriteTimeout(),
		},
	}
}

// Handler exposes the routed handler for tests and embedding
func (s *Server) Handler() http.Handler { return s.router }

// Jobs returns the job service behind the routes
func (s *Server) Jobs() *JobService { return s.jobs }

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", s.httpServer.Addr).Msg("Server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.jobs.Close()
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.jobs.Close()
	if err != nil {
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}
