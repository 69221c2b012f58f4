package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/event-impact-service/internal/domain"
	"github.com/couchcryptid/event-impact-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SnapshotSource is the read/refresh surface of the pipeline the API serves.
type SnapshotSource interface {
	sharedobs.ReadinessChecker
	Snapshot() domain.Snapshot
	Refresh(ctx context.Context) (domain.Snapshot, error)
}

// Server exposes the event-impact API alongside health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	source     SnapshotSource
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the probe, metrics and /api routes.
func NewServer(addr string, source SnapshotSource, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		source: source,
		logger: logger,
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(source))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/event-impact", s.handleSnapshot)
		r.Post("/event-impact/refresh", s.handleRefresh)
		r.Get("/outlook", s.handleOutlook)
	})

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

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newSnapshotView(s.source.Snapshot(), nil))
}

// handleRefresh runs a refresh inline. A failed fetch still answers with the
// (empty) snapshot so the caller can render the unavailable state.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.source.Refresh(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, newSnapshotView(snap, nil))
	case errors.Is(err, pipeline.ErrRefreshInFlight):
		writeJSON(w, http.StatusConflict, newSnapshotView(snap, err))
	default:
		s.logger.Warn("manual refresh failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeJSON(w, http.StatusBadGateway, newSnapshotView(snap, err))
	}
}

func (s *Server) handleOutlook(w http.ResponseWriter, _ *http.Request) {
	outlook, err := domain.ComputeOutlook(s.source.Snapshot().Records)
	if errors.Is(err, domain.ErrInsufficientData) || errors.Is(err, domain.ErrUnboundedReturns) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, outlook)
}

// writeJSON encodes before writing the header so an unencodable body becomes
// a 500 instead of an empty 2xx.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n')) //nolint:errcheck // client may have gone away
}
