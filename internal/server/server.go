// Package server exposes the brand pipeline over HTTP with server-sent
// progress events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/vampirenirmal/brandkit/internal/core"
	"github.com/vampirenirmal/brandkit/internal/domain"
	"github.com/vampirenirmal/brandkit/internal/stage"
)

const maxBodyBytes = 1 << 20

// Status reports which providers have credentials.
type Status struct {
	TextConfigured  bool
	MediaConfigured bool
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

type Server struct {
	orch     *core.Orchestrator
	strategy *stage.StrategyStage
	regen    *stage.Regenerator
	status   Status
	origins  []string
	logger   *slog.Logger
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger.With("component", "server")
	}
}

// WithCORSOrigins allows browser requests from the given origins. "*"
// allows any origin but never with credentials.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

func New(orch *core.Orchestrator, strategy *stage.StrategyStage, regen *stage.Regenerator, status Status, opts ...Option) *Server {
	s := &Server{
		orch:     orch,
		strategy: strategy,
		regen:    regen,
		status:   status,
		logger:   slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/generate-brand", s.handleGenerate(""))
	mux.HandleFunc("POST /api/generate-brand-detailed", s.handleGenerate(domain.KindDetailed))
	mux.HandleFunc("POST /api/regenerate-asset", s.handleRegenerate)
	mux.HandleFunc("GET /api/test-agents", s.handleTestAgents)

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "healthy",
		"text_generation":  configured(s.status.TextConfigured),
		"media_generation": configured(s.status.MediaConfigured),
	})
}

func (s *Server) handleGenerate(force domain.RequestKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(r.Context(), s.logger)

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "could not read request body"})
			return
		}
		req, err := domain.DecodeBrandRequest(body, force)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "streaming unsupported"})
			return
		}

		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		_, err = s.orch.Run(r.Context(), req, func(u domain.ProgressUpdate) error {
			return writeEvent(w, flusher, u)
		})
		switch {
		case err == nil:
		case errors.Is(err, core.ErrConsumerGone), errors.Is(err, core.ErrCancelled):
			log.Info("client went away during generation", "error", err)
		default:
			log.Error("generation failed", "error", err)
		}
	}
}

func writeEvent(w io.Writer, flusher http.Flusher, u domain.ProgressUpdate) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encoding progress update: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

type regenerateResponse struct {
	Success bool                   `json:"success"`
	Asset   *domain.GeneratedAsset `json:"asset,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	var req stage.RegenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, regenerateResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	asset, err := s.regen.Regenerate(r.Context(), req)
	switch {
	case errors.Is(err, stage.ErrUnknownAssetKind):
		writeJSON(w, http.StatusBadRequest, regenerateResponse{Error: err.Error()})
	case err != nil:
		requestLogger(r.Context(), s.logger).Error("regeneration failed", "asset_type", req.AssetType, "error", err)
		writeJSON(w, http.StatusBadGateway, regenerateResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, regenerateResponse{Success: true, Asset: &asset})
	}
}

func (s *Server) handleTestAgents(w http.ResponseWriter, r *http.Request) {
	report := Diagnose(r.Context(), s.strategy, s.status)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		h := w.Header()
		switch {
		case origin == "":
		case slices.Contains(s.origins, origin):
			// Only explicitly listed origins may send credentials.
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
			setCORSMethods(h)
		case slices.Contains(s.origins, "*"):
			h.Set("Access-Control-Allow-Origin", "*")
			setCORSMethods(h)
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func setCORSMethods(h http.Header) {
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

type ctxKey struct{}

func requestLogger(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return fallback
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		log := s.logger.With("request_id", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		rec.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), ctxKey{}, log)

		next.ServeHTTP(rec, r.WithContext(ctx))

		log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
