// Package app exposes the tuning orchestrator over HTTP: one endpoint per
// mode, JSON payloads, and optional server-sent progress events for the
// per-requirement flow.
package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"tailor/internal/llm"
	"tailor/internal/tuner"
)

type HTTPServer struct {
	resolver   *tuner.Resolver
	tuner      *tuner.Tuner
	corsOrigin string
}

func NewHTTPServer(client llm.Client, corsOrigin string) *HTTPServer {
	return &HTTPServer{
		resolver:   tuner.NewResolver(client),
		tuner:      tuner.NewTuner(client),
		corsOrigin: corsOrigin,
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.corsOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
		}
		w.Header().Set("X-Request-Id", uuid.NewString())
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/tune" {
		s.handleTune(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/requirements/resolve" {
		s.handleResolve(w, r)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
}

func (s *HTTPServer) handleTune(w http.ResponseWriter, r *http.Request) {
	var req tuner.TuneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body: "+err.Error())
		return
	}
	if req.Document == nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "document is required")
		return
	}
	result, err := s.tuner.Tune(r.Context(), req)
	if err != nil {
		s.writeGenerationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req tuner.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body: "+err.Error())
		return
	}
	if req.Document == nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "document is required")
		return
	}

	if wantsEventStream(r) {
		s.resolveStreaming(w, r, req)
		return
	}

	result, err := s.resolver.ResolveAll(r.Context(), req, nil)
	if err != nil {
		s.writeGenerationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func wantsEventStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// resolveStreaming delivers the per-requirement response as named events:
// one progress event per finished requirement, then done or error. The event
// order matches requirement processing order exactly; the sink runs on the
// same sequential flow as the resolver.
func (s *HTTPServer) resolveStreaming(w http.ResponseWriter, r *http.Request, req tuner.ResolveRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "STREAM_UNSUPPORTED", "response writer does not support streaming")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sink := func(p tuner.Progress) {
		writeEvent(w, flusher, "progress", p)
	}

	result, err := s.resolver.ResolveAll(r.Context(), req, sink)
	if err != nil {
		code := "GENERATION_FAILED"
		if llm.IsTransient(err) {
			code = "GENERATION_UNAVAILABLE"
		}
		writeEvent(w, flusher, "error", errorBody{Code: code, Message: err.Error()})
		return
	}
	writeEvent(w, flusher, "done", result)
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("sse: marshal %s event: %v", name, err)
		return
	}
	fmt.Fprintf(w, "event:%s\ndata:%s\n\n", name, data)
	flusher.Flush()
}

// writeGenerationError is the only place expected-shape failures become HTTP
// statuses: transient provider exhaustion maps to 503, everything permanent
// to 500.
func (s *HTTPServer) writeGenerationError(w http.ResponseWriter, err error) {
	if llm.IsTransient(err) {
		writeError(w, http.StatusServiceUnavailable, "GENERATION_UNAVAILABLE", err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "GENERATION_FAILED", err.Error())
}
