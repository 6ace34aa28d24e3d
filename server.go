// Package issuehub is a GraphQL gateway exposing a small set of GitHub issue
// operations. Each inbound operation is translated into one GitHub GraphQL
// request by package upstream and the answer is reshaped into this
// gateway's schema.
package issuehub

import (
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sockerless/issuehub/upstream"
)

// Server is the issuehub HTTP server.
type Server struct {
	cfg           Config
	mux           *http.ServeMux
	logger        zerolog.Logger
	client        *upstream.Client
	metrics       *Metrics
	graphqlSchema graphql.Schema
}

// NewServer validates cfg, builds the upstream client and registers all
// routes. A configuration error is returned before anything listens.
func NewServer(cfg Config, logger zerolog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		logger:  logger,
		metrics: NewMetrics(),
	}
	client, err := upstream.NewClient(cfg.Upstream,
		upstream.WithLogger(logger.With().Str("component", "upstream").Logger()),
		upstream.WithObserver(s.metrics),
	)
	if err != nil {
		return nil, err
	}
	s.client = client
	s.initGraphQLSchema()
	s.registerRoutes()
	return s, nil
}

// Metrics returns the server's metrics collector (for tests).
func (s *Server) Metrics() *Metrics { return s.metrics }

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	// GraphQL endpoint + explorer (graphql.go, playground.go)
	s.registerGraphQLRoutes()
	s.mux.HandleFunc("GET /{$}", s.handlePlayground)

	s.mux.HandleFunc("/", s.handleCatchAll)
}

func (s *Server) handleCatchAll(w http.ResponseWriter, r *http.Request) {
	s.logger.Warn().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("query", r.URL.RawQuery).
		Msg("unhandled request")
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "issuehub"})
}

// Handler returns the full middleware chain around the route mux.
func (s *Server) Handler() http.Handler {
	inner := s.requestIDMiddleware(s.mux)
	logged := s.loggingMiddleware(inner)
	return otelhttp.NewHandler(logged, "issuehub")
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on signal
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh
		s.logger.Info().Str("signal", sig.String()).Msg("shutting down")
		srv.Close()
	}()

	host, port, _ := net.SplitHostPort(s.cfg.Addr)
	if host == "" {
		host = "localhost"
	}

	var err error
	if s.cfg.TLSCert != "" && s.cfg.TLSKey != "" {
		s.logger.Info().Msgf("issuehub listening on https://%s:%s", host, port)
		err = srv.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
	} else {
		s.logger.Info().Msgf("issuehub listening on http://%s:%s", host, port)
		err = srv.ListenAndServe()
	}
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// writeJSON marshals v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
