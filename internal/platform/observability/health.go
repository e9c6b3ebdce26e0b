// Package observability exposes Prometheus metrics for the pipeline and a
// small HTTP server with health and readiness endpoints.
package observability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// ResultReader provides read access to the last published analysis result,
// as raw JSON. Implemented by the artifact store.
type ResultReader interface {
	LastPublished() ([]byte, bool)
}

// Server serves /healthz, /readyz, /metrics and the last published result.
type Server struct {
	results ResultReader
	port    int
	logger  *zerolog.Logger
}

// NewServer creates a health/metrics server backed by the given result store.
func NewServer(results ResultReader, port int, logger *zerolog.Logger) *Server {
	return &Server{
		results: results,
		port:    port,
		logger:  logger,
	}
}

// Start runs the server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "OK")
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if _, ok := s.results.LastPublished(); !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprint(w, "no analysis published yet")

			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "OK")
	})

	mux.HandleFunc("/analysis", func(w http.ResponseWriter, _ *http.Request) {
		raw, ok := s.results.LastPublished()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "no analysis available"})

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
	})

	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.Info().Int("port", s.port).Msg("health server started")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("health server shutdown: %w", err)
		}

		return nil
	case err := <-errCh:
		return fmt.Errorf("health server: %w", err)
	}
}
