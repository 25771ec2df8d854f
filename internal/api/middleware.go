package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/nyashahama/ops-diagnostic-backend/internal/lifecycle"
	"github.com/nyashahama/ops-diagnostic-backend/internal/report"
	"github.com/nyashahama/ops-diagnostic-backend/internal/store"
	"github.com/nyashahama/ops-diagnostic-backend/internal/worker"
)

// ─── CORS ─────────────────────────────────────────────────────────────────────

// corsMiddleware handles preflight OPTIONS requests and sets CORS headers.
// Credentials are allowed so the admin_session cookie travels with admin
// requests, which means the origin is echoed rather than "*". In production
// only BaseURL is accepted.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		if s.cfg.Env == "production" && origin != s.cfg.BaseURL {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.Header().Add("Vary", "Origin")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ─── LOGGER MIDDLEWARE ────────────────────────────────────────────────────────

// loggerMiddleware logs each request with method, path, status, and duration.
func (s *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// ─── RESPONSE HELPERS ─────────────────────────────────────────────────────────

// respond writes a JSON body with the given status code.
func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// respondErr writes a standard JSON error envelope.
func respondErr(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}

// respondNotFound is the envelope for unknown assessment references. It
// points the respondent at intake so they can start over.
func respondNotFound(w http.ResponseWriter) {
	respond(w, http.StatusNotFound, map[string]string{
		"error":     "assessment not found",
		"start_new": "/api/assessments",
	})
}

// respondInternalErr logs an unexpected error and returns a 500 to the client
// without leaking internal details.
func (s *Server) respondInternalErr(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("internal error",
		"error", err,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
	)
	respondErr(w, http.StatusInternalServerError, "internal server error")
}

// respondDomainErr maps store, lifecycle and worker sentinels to status
// codes. Anything unrecognised is a 500.
func (s *Server) respondDomainErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondNotFound(w)
	case errors.Is(err, store.ErrInvalidContact),
		errors.Is(err, report.ErrInvalidInsight),
		errors.Is(err, lifecycle.ErrInvalidStep):
		respondErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrAlreadyReleased),
		errors.Is(err, lifecycle.ErrScoresMissing),
		errors.Is(err, lifecycle.ErrNarrativeRequired):
		respondErr(w, http.StatusConflict, err.Error())
	case errors.Is(err, worker.ErrGenerationInProgress):
		respondErr(w, http.StatusConflict, "narrative generation already in progress")
	default:
		s.respondInternalErr(w, r, err)
	}
}

// logAndIgnoreEmailErr logs an email send error without surfacing it to the
// caller. Used where email failure must not fail the HTTP response.
func (s *Server) logAndIgnoreEmailErr(r *http.Request, err error, context string) {
	if err == nil {
		return
	}
	s.logger.Error("email send failed",
		"context", context,
		"error", err,
		"request_id", middleware.GetReqID(r.Context()),
	)
}

// ─── REQUEST PARSING HELPERS ─────────────────────────────────────────────────

// decode JSON-decodes r.Body into dst. Returns false and writes 400 if the
// body is missing, malformed, or too large. Callers should return immediately
// on false.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB max
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// logField returns a slog.Attr using the request ID for correlation.
func logField(r *http.Request) slog.Attr {
	return slog.String("request_id", middleware.GetReqID(r.Context()))
}
