package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/climo-likelihood/internal/domain"
	"github.com/couchcryptid/climo-likelihood/internal/observability"
)

// LikelihoodService answers likelihood queries. It is implemented by
// pipeline.Pipeline.
type LikelihoodService interface {
	Run(ctx context.Context, req domain.Request) (domain.LikelihoodResult, error)
	Conditions() []domain.ConditionInfo
	DefaultConditions() []domain.Condition
	CheckReadiness(ctx context.Context) error
}

// Options configures the HTTP server.
type Options struct {
	Addr              string
	AllowedOrigins    []string
	DefaultWindowDays int
	// WriteTimeout bounds a whole request, including the upstream fetch.
	WriteTimeout time.Duration
}

// Server exposes the likelihood API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer    *http.Server
	service       LikelihoodService
	geocoder      domain.Geocoder
	defaultWindow int
	logger        *slog.Logger
}

// NewServer creates the HTTP server. geocoder may be nil, in which case
// /locations answers 503.
func NewServer(opts Options, service LikelihoodService, geocoder domain.Geocoder, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Minute
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		service:       service,
		geocoder:      geocoder,
		defaultWindow: opts.DefaultWindowDays,
		logger:        logger,
	}
	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      requestID(cors(origins)(instrument(metrics, logger)(mux))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	mux.HandleFunc("POST /likelihood", s.handleLikelihood)
	mux.HandleFunc("GET /variables", s.handleVariables)
	mux.HandleFunc("GET /conditions", s.handleConditions)
	mux.HandleFunc("GET /locations", s.handleLocations)
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("GET /healthz", sharedobs.LivenessHandler())
	mux.Handle("GET /readyz", sharedobs.ReadinessHandler(service))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
