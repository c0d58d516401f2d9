// Package server exposes the rendered navigation output over HTTP for
// preview and daemon mode, together with health and metrics endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// Status is the health payload. The daemon updates it after every build.
type Status struct {
	Healthy   bool      `json:"healthy"`
	LastBuild time.Time `json:"last_build,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	Builds    int       `json:"builds"`
}

// Server serves the output directory plus operational endpoints.
type Server struct {
	siteDir string
	port    int

	mu     sync.RWMutex
	status Status

	httpServer *http.Server
}

// New creates a Server for the given site directory and port. metricsHandler
// may be nil to disable the metrics endpoint; metricsPath defaults to
// /metrics.
func New(siteDir string, port int, metricsHandler http.Handler, metricsPath string) *Server {
	s := &Server{siteDir: siteDir, port: port}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(siteDir)))
	mux.HandleFunc("/healthz", s.handleHealth)
	if metricsHandler != nil {
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		mux.Handle(metricsPath, metricsHandler)
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start serves until the context is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	slog.Info("Serving site", "dir", s.siteDir, "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// RecordBuild updates the health status after a build attempt.
func (s *Server) RecordBuild(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Builds++
	s.status.LastBuild = time.Now().UTC()
	if err != nil {
		s.status.LastError = err.Error()
		s.status.Healthy = false
	} else {
		s.status.LastError = ""
		s.status.Healthy = true
	}
}

// Handler returns the server's HTTP handler, exposed for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	status := s.status
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy && status.LastError != "" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}
