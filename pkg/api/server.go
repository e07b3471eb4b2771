package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/protodoc/pkg/httputil"
	"github.com/platinummonkey/protodoc/pkg/observability"
	"github.com/platinummonkey/protodoc/pkg/registry"
)

const signatureCache = "signature"

// Options configure a Server
type Options struct {
	// CacheSize bounds the signature cache; zero disables it
	CacheSize int
	CacheTTL  time.Duration

	// Metrics and Gatherer enable instrumentation and the /metrics endpoint
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer

	CORSOrigins []string
	Logger      *logrus.Logger
}

// Server is the read-only query service over the registry's current
// snapshot
type Server struct {
	registry *registry.Registry
	router   *mux.Router
	cache    *expirable.LRU[string, string]
	metrics  *observability.Metrics
	logger   *logrus.Logger
}

// NewServer creates a query server and subscribes it to snapshot swaps
func NewServer(reg *registry.Registry, opts Options) *Server {
	s := &Server{
		registry: reg,
		router:   mux.NewRouter(),
		metrics:  opts.Metrics,
		logger:   observability.OrDefault(opts.Logger),
	}

	if opts.CacheSize > 0 {
		s.cache = expirable.NewLRU[string, string](opts.CacheSize, nil, opts.CacheTTL)
		// Entries are keyed by generation, so purging only frees memory early.
		reg.Subscribe(func(*registry.Snapshot) {
			s.cache.Purge()
		})
	}

	s.router.Use(httputil.RequestIDMiddleware)
	s.router.Use(httputil.RecoveryMiddleware(s.logger))
	s.router.Use(httputil.LoggingMiddleware(s.logger))
	if len(opts.CORSOrigins) > 0 {
		s.router.Use(httputil.CORSMiddleware(opts.CORSOrigins))
	}
	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics))
	}

	s.setupRoutes()
	if opts.Gatherer != nil {
		observability.RegisterMetricsEndpoint(s.router, opts.Gatherer)
	}
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.health).Methods("GET")

	// Symbol routes
	s.router.HandleFunc("/v1/symbols", s.listSymbols).Methods("GET")
	s.router.HandleFunc("/v1/symbols/{symbol}", s.getSymbol).Methods("GET")
	s.router.HandleFunc("/v1/comments/{symbol}", s.getComment).Methods("GET")

	// Signature routes
	s.router.HandleFunc("/v1/messages/{symbol}/signature", s.messageSignature).Methods("GET")
	s.router.HandleFunc("/v1/enums/{symbol}/signature", s.enumSignature).Methods("GET")

	// Method routes
	s.router.HandleFunc("/v1/methods/{symbol}", s.getMethod).Methods("GET")
	s.router.HandleFunc("/v1/methods/{symbol}/related", s.getRelated).Methods("GET")
	s.router.HandleFunc("/v1/methods/{symbol}/route", s.getRoute).Methods("GET")
	s.router.HandleFunc("/v1/services", s.listServices).Methods("GET")

	// File documentation routes
	s.router.HandleFunc("/v1/files", s.listFiles).Methods("GET")
	s.router.HandleFunc("/v1/files/{name:.+}", s.getFile).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPOptions configure the listener run by ListenAndServe
type HTTPOptions struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// ListenAndServe serves until ctx is done and then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, opts HTTPOptions) error {
	srv := &http.Server{
		Addr:         opts.Addr,
		Handler:      s,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", opts.Addr).Info("Starting query server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("query server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info("Shutting down query server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("query server shutdown: %w", err)
	}
	return nil
}
