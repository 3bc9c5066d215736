// Package server exposes the Workbench devtools REST API: artifact CRUD,
// workflow state transitions, schema delivery, graph projection, and a
// WebSocket event feed.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/workbench/config"
	"github.com/c360studio/workbench/schema"
	"github.com/c360studio/workbench/storage"
	"github.com/c360studio/workbench/workflow"
)

// Server serves the Workbench API over HTTP.
type Server struct {
	cfg      *config.Config
	store    storage.ArtifactStore
	sessions *workflow.Store
	nc       *nats.Conn // nil when NATS is not configured
	logger   *slog.Logger

	hub     *Hub
	metrics *metrics
	httpSrv *http.Server

	mu         sync.RWMutex
	validation string // cached result of the last validation run
}

// New creates a server over the given stores. nc may be nil; graph
// entity publishing is skipped without it.
func New(cfg *config.Config, store storage.ArtifactStore, sessions *workflow.Store, nc *nats.Conn, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		sessions: sessions,
		nc:       nc,
		logger:   logger,
		hub:      NewHub(logger),
		metrics:  newMetrics(),
	}

	mux := http.NewServeMux()
	s.RegisterHTTPHandlers("api/devtools", mux)
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/api/devtools/events", s.hub.HandleWebSocket)

	s.httpSrv = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      s.metrics.instrument(mux),
		ReadTimeout:  cfg.HTTP.RequestTimeout,
		WriteTimeout: cfg.HTTP.RequestTimeout,
	}
	return s
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.cfg.HTTP.Addr)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.hub.Close()
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}

// NotifyArtifactChanged broadcasts an artifact change to WebSocket
// clients. The watcher calls this when artifact files change on disk.
func (s *Server) NotifyArtifactChanged(path string) {
	s.hub.Broadcast("artifact.changed", map[string]string{"path": path})
}

// interpreterFor builds a schema interpreter for an artifact's type.
func interpreterFor(t workflow.ArtifactType) (*schema.Interpreter, error) {
	doc, err := schema.Builtin(string(t))
	if err != nil {
		return nil, err
	}
	return schema.NewInterpreter(doc), nil
}
