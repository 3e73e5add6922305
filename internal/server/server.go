package server

import (
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/copyleftdev/tspswarm/internal/config"
	"github.com/copyleftdev/tspswarm/internal/metrics"
)

// maxSweepRuns bounds the grid size of a synchronous sweep request.
const maxSweepRuns = 256

// Server implements the HTTP and JSON-RPC server for the solver service.
// It manages solve jobs and provides endpoints to start, monitor, and cancel
// them, plus synchronous parameter sweeps.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Registry

	jobs   map[string]*Job
	jobsMu sync.RWMutex // Protects jobs and every Job in it
	wg     sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records swarm and job metrics on reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Server) {
		s.metrics = reg
	}
}

// NewServer creates a new server instance with the given config and logger.
func NewServer(cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		logger: logger.Named("server"),
		jobs:   make(map[string]*Job),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRoutes mounts the REST API under /api/v1 and JSON-RPC on /rpc.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/solve/{id}", s.handleCancel)
		r.Post("/sweep", s.handleSweep)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// Close cancels every job and waits for their goroutines to return.
func (s *Server) Close() error {
	s.jobsMu.Lock()
	for _, job := range s.jobs {
		if job.cancel != nil {
			job.cancel()
		}
	}
	s.jobsMu.Unlock()

	s.wg.Wait()
	return nil
}
