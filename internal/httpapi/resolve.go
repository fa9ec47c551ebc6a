package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vango-dev/navintent/pkg/deeplink"
	"github.com/vango-dev/navintent/pkg/middleware"
)

const maxBatchBody = 1 << 20

type batchRequest struct {
	URLs []string `json:"urls"`
}

type batchResponse struct {
	Results []deeplink.Intent `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	values, ok := r.URL.Query()["url"]
	if !ok {
		s.writeError(w, http.StatusBadRequest, "missing url parameter")
		return
	}

	intent := s.resolve(r, values[0])
	s.writeJSON(w, http.StatusOK, intent)
}

func (s *Server) handleResolveBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBody))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.URLs) > MaxBatchSize {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d urls per request, got %d", MaxBatchSize, len(req.URLs)))
		return
	}

	resp := batchResponse{Results: make([]deeplink.Intent, 0, len(req.URLs))}
	for _, raw := range req.URLs {
		resp.Results = append(resp.Results, s.resolve(r, raw))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleOpen resolves the request's own path, so web links pointed at
// /open/... bounce into the app.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	raw := "/" + chi.URLParam(r, "*")
	if r.URL.RawQuery != "" {
		raw += "?" + r.URL.RawQuery
	}

	intent := s.resolve(r, raw)
	http.Redirect(w, r, s.appLink(intent.Route), http.StatusFound)
}

// appLink turns a route into the redirect target.
func (s *Server) appLink(route string) string {
	if s.opts.AppScheme == "" {
		return route
	}
	return strings.TrimSuffix(s.opts.AppScheme, "://") + "://" + route
}

func (s *Server) resolve(r *http.Request, raw string) deeplink.Intent {
	intent := s.opts.Resolver.ResolveIntent(raw)
	middleware.RecordResolve(string(intent.Kind))
	if span := middleware.SpanFromContext(r.Context()); span != nil {
		span.SetAttributes(
			attribute.String("navintent.kind", string(intent.Kind)),
			attribute.String("navintent.route", intent.Route),
		)
	}
	return intent
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
