// Package http exposes the operational endpoints (health, readiness,
// metrics) and the annotation API.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/embiggeneye/crater-etl/internal/domain"
	"github.com/embiggeneye/crater-etl/internal/observability"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// AnnotationStore is the persistence surface the annotation API needs.
type AnnotationStore interface {
	Accept(ctx context.Context, ann domain.Annotation) (bool, error)
	SetComment(ctx context.Context, id, comment string) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]domain.Annotation, error)
	ExportGeoJSON(ctx context.Context) (domain.GeoJSONFeatureCollection, error)
}

// Server exposes health, readiness, metrics, and annotation HTTP endpoints.
type Server struct {
	httpServer *http.Server
	store      AnnotationStore
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with operational routes plus the
// annotation API when a store is provided.
func NewServer(addr string, ready ReadinessChecker, store AnnotationStore, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:   store,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	if store != nil {
		mux.HandleFunc("GET /annotations", s.handleListAnnotations)
		mux.HandleFunc("POST /annotations", s.handleAcceptAnnotation)
		mux.HandleFunc("POST /annotations/{id}/comment", s.handleSetComment)
		mux.HandleFunc("DELETE /annotations/{id}", s.handleDeleteAnnotation)
		mux.HandleFunc("GET /annotations/export", s.handleExportAnnotations)
	}

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// acceptRequest is the body of POST /annotations: a normalized feature plus
// an optional comment.
type acceptRequest struct {
	domain.Feature
	Comment string `json:"comment,omitempty"`
}

func (s *Server) handleAcceptAnnotation(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.countAnnotationOp("accept", "invalid")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.ID == "" {
		s.countAnnotationOp("accept", "invalid")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "feature id is required"})
		return
	}

	ann := domain.NewAnnotation(req.Feature, req.Comment)
	created, err := s.store.Accept(r.Context(), ann)
	if err != nil {
		s.annotationError(w, "accept", err)
		return
	}

	if !created {
		s.countAnnotationOp("accept", "exists")
		writeJSON(w, http.StatusOK, map[string]string{"status": "exists", "id": req.ID})
		return
	}
	s.countAnnotationOp("accept", "created")
	writeJSON(w, http.StatusCreated, ann)
}

func (s *Server) handleSetComment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.countAnnotationOp("comment", "invalid")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	found, err := s.store.SetComment(r.Context(), id, req.Comment)
	if err != nil {
		s.annotationError(w, "comment", err)
		return
	}
	if !found {
		s.countAnnotationOp("comment", "not_found")
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "annotation not found", "id": id})
		return
	}
	s.countAnnotationOp("comment", "updated")
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated", "id": id})
}

func (s *Server) handleDeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	deleted, err := s.store.Delete(r.Context(), id)
	if err != nil {
		s.annotationError(w, "delete", err)
		return
	}
	if !deleted {
		s.countAnnotationOp("delete", "not_found")
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "annotation not found", "id": id})
		return
	}
	s.countAnnotationOp("delete", "deleted")
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

func (s *Server) handleListAnnotations(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.annotationError(w, "list", err)
		return
	}
	s.countAnnotationOp("list", "ok")
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleExportAnnotations(w http.ResponseWriter, r *http.Request) {
	fc, err := s.store.ExportGeoJSON(r.Context())
	if err != nil {
		s.annotationError(w, "export", err)
		return
	}
	s.countAnnotationOp("export", "ok")
	w.Header().Set("Content-Disposition", `attachment; filename="annotations.geojson"`)
	writeJSON(w, http.StatusOK, fc)
}

func (s *Server) annotationError(w http.ResponseWriter, op string, err error) {
	s.countAnnotationOp(op, "error")
	s.logger.Error("annotation store error", "op", op, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "annotation store failure"})
}

func (s *Server) countAnnotationOp(op, outcome string) {
	if s.metrics != nil {
		s.metrics.AnnotationOps.WithLabelValues(op, outcome).Inc()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
