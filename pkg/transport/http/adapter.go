package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rhuss/dolmetscher/pkg/api"
	"github.com/rhuss/dolmetscher/pkg/debug"
	"github.com/rhuss/dolmetscher/pkg/observability"
	"github.com/rhuss/dolmetscher/pkg/transport"
)

// Endpoint paths served by the adapter.
const (
	PathGenerate   = "/api/generate"
	PathChat       = "/api/chat"
	PathEmbeddings = "/api/embeddings"
	PathEmbed      = "/api/embed"
	PathTags       = "/api/tags"
	PathPS         = "/api/ps"
	PathVersion    = "/api/version"
	PathHealth     = "/"
	PathMetrics    = "/metrics"
)

// Adapter serves the Ollama API over HTTP.
// It decodes and validates requests, hands them to the Handler and
// serializes what the handler writes.
type Adapter struct {
	handler  transport.Handler
	catalog  transport.Catalog // nil serves empty model lists
	inflight *transport.InFlightRegistry
	mux      *http.ServeMux
	config   Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64

	// GenerateStreamFormat frames /api/generate streams. /api/chat always
	// streams NDJSON.
	GenerateStreamFormat StreamFormat

	// Name and Version are reported by / and /api/version.
	Name    string
	Version string

	// SupportedProviders is listed by /api/version.
	SupportedProviders []string

	// Metrics enables GET /metrics.
	Metrics bool

	Validation api.ValidationConfig
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize:          10 << 20, // 10 MB
		GenerateStreamFormat: FormatLines,
		Name:                 "dolmetscher",
		Version:              "0.1.0",
		SupportedProviders:   []string{"alibaba", "deepseek", "siliconflow", "volcengine"},
		Metrics:              true,
		Validation:           api.DefaultValidationConfig(),
	}
}

// NewAdapter creates an HTTP adapter with the given Handler and Catalog.
// Middleware is applied to the handler in the given order.
func NewAdapter(handler transport.Handler, catalog transport.Catalog, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if len(middlewares) > 0 {
		handler = transport.Chain(middlewares...)(handler)
	}
	if cfg.GenerateStreamFormat == "" {
		cfg.GenerateStreamFormat = FormatLines
	}

	a := &Adapter{
		handler:  handler,
		catalog:  catalog,
		inflight: transport.NewInFlightRegistry(),
		mux:      http.NewServeMux(),
		config:   cfg,
	}

	a.mux.HandleFunc("POST "+PathGenerate, a.handleGenerate)
	a.mux.HandleFunc("POST "+PathChat, a.handleChat)
	a.mux.HandleFunc("POST "+PathEmbeddings, a.handleEmbeddings)
	a.mux.HandleFunc("POST "+PathEmbed, a.handleEmbed)
	a.mux.HandleFunc("GET "+PathTags, a.handleTags)
	a.mux.HandleFunc("GET "+PathPS, a.handlePS)
	a.mux.HandleFunc("GET "+PathVersion, a.handleVersion)
	a.mux.HandleFunc("GET /{$}", a.handleHealth)
	if cfg.Metrics {
		a.mux.Handle("GET "+PathMetrics, observability.Handler())
	}

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. The returned handler includes
// HTTP-level middleware for CORS, request ID propagation and metrics.
func (a *Adapter) Handler() http.Handler {
	return corsMiddleware(httpRequestIDMiddleware(observability.MetricsMiddleware(a.mux)))
}

// InFlight returns the registry of running streams.
func (a *Adapter) InFlight() *transport.InFlightRegistry {
	return a.inflight
}

// corsMiddleware allows every origin, method and header. Preflight
// requests are answered directly with 204.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "*")
		h.Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// httpRequestIDMiddleware is HTTP-level middleware that propagates the
// X-Request-ID header. A client-supplied ID is kept, otherwise a new one
// is generated. The ID is stored in the context, where the transport-level
// RequestID middleware finds it, and echoed in the response headers.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = transport.NewRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(transport.ContextWithRequestID(r.Context(), id)))
	})
}

// handleGenerate handles POST /api/generate.
func (a *Adapter) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req api.GenerateRequest
	if !a.decode(w, r, PathGenerate, &req) {
		return
	}
	observability.SetRequestLabels(r.Context(), PathGenerate, req.Model)
	if apiErr := api.ValidateGenerate(&req); apiErr != nil {
		a.writeError(w, apiErr)
		return
	}
	a.dispatch(w, r, &transport.Request{Op: transport.OpGenerate, Generate: &req}, a.config.GenerateStreamFormat)
}

// handleChat handles POST /api/chat.
func (a *Adapter) handleChat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if !a.decode(w, r, PathChat, &req) {
		return
	}
	observability.SetRequestLabels(r.Context(), PathChat, req.Model)
	if apiErr := api.ValidateChat(&req, a.config.Validation); apiErr != nil {
		a.writeError(w, apiErr)
		return
	}
	a.dispatch(w, r, &transport.Request{Op: transport.OpChat, Chat: &req}, FormatNDJSON)
}

// handleEmbeddings handles POST /api/embeddings.
func (a *Adapter) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req api.EmbeddingsRequest
	if !a.decode(w, r, PathEmbeddings, &req) {
		return
	}
	observability.SetRequestLabels(r.Context(), PathEmbeddings, req.Model)
	if apiErr := api.ValidateEmbeddings(&req); apiErr != nil {
		a.writeError(w, apiErr)
		return
	}
	a.dispatch(w, r, &transport.Request{Op: transport.OpEmbeddings, Embeddings: &req}, FormatNDJSON)
}

// handleEmbed handles POST /api/embed.
func (a *Adapter) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req api.EmbedRequest
	if !a.decode(w, r, PathEmbed, &req) {
		return
	}
	observability.SetRequestLabels(r.Context(), PathEmbed, req.Model)
	if apiErr := api.ValidateEmbed(&req, a.config.Validation); apiErr != nil {
		a.writeError(w, apiErr)
		return
	}
	a.dispatch(w, r, &transport.Request{Op: transport.OpEmbed, Embed: &req}, FormatNDJSON)
}

// decode reads a JSON body into v. On failure it writes the error
// response and returns false.
func (a *Adapter) decode(w http.ResponseWriter, r *http.Request, endpoint string, v any) bool {
	observability.SetRequestLabels(r.Context(), endpoint, "")
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			a.writeError(w, api.NewError(http.StatusRequestEntityTooLarge, api.LabelInvalidRequest,
				fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)))
			return false
		}
		a.writeError(w, api.NewInvalidRequestError("invalid JSON: "+err.Error()))
		return false
	}
	return true
}

// dispatch runs the handler for one inference request. Streams are
// tracked in the in-flight registry until the handler returns.
func (a *Adapter) dispatch(w http.ResponseWriter, r *http.Request, req *transport.Request, format StreamFormat) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	id := transport.RequestIDFromContext(ctx)
	if id == "" {
		id = transport.NewRequestID()
		ctx = transport.ContextWithRequestID(ctx, id)
	}
	if req.Stream() {
		a.inflight.Register(id, cancel)
		defer a.inflight.Remove(id)
		debug.Log("streaming", "stream requested", "request_id", id, "op", req.Op, "format", format)
	}

	rw := newFrameWriter(w, format)
	if err := a.handler.Handle(ctx, req, rw); err != nil {
		a.writeHandlerError(w, rw, err)
	}
}

// writeHandlerError writes an error response from the handler. Once the
// response has started, the handler has already reported the failure
// in-band and nothing more is written.
func (a *Adapter) writeHandlerError(w http.ResponseWriter, rw *frameWriter, err error) {
	if rw.hasStarted() {
		debug.Log("transport", "error after response started", "error", err)
		return
	}
	a.writeError(w, err)
}

// writeError classifies err, counts it and writes the JSON envelope.
func (a *Adapter) writeError(w http.ResponseWriter, err error) {
	apiErr := transport.WriteError(w, err)
	observability.ErrorsTotal.WithLabelValues(apiErr.Label, "response").Inc()
	if apiErr.Status >= http.StatusInternalServerError {
		slog.Warn("request error", "status", apiErr.Status, "error", apiErr.Label, "details", apiErr.Details)
	}
}

// handleTags handles GET /api/tags.
func (a *Adapter) handleTags(w http.ResponseWriter, r *http.Request) {
	observability.SetRequestLabels(r.Context(), PathTags, "")
	resp := &api.TagsResponse{Models: []api.ListedModel{}}
	if a.catalog != nil {
		var err error
		if resp, err = a.catalog.Tags(r.Context()); err != nil {
			a.writeError(w, err)
			return
		}
	}
	writeJSON(w, resp)
}

// handlePS handles GET /api/ps.
func (a *Adapter) handlePS(w http.ResponseWriter, r *http.Request) {
	observability.SetRequestLabels(r.Context(), PathPS, "")
	resp := &api.ProcessResponse{Models: []api.RunningModel{}}
	if a.catalog != nil {
		var err error
		if resp, err = a.catalog.Running(r.Context()); err != nil {
			a.writeError(w, err)
			return
		}
	}
	writeJSON(w, resp)
}

// handleVersion handles GET /api/version.
func (a *Adapter) handleVersion(w http.ResponseWriter, r *http.Request) {
	observability.SetRequestLabels(r.Context(), PathVersion, "")
	writeJSON(w, &api.VersionResponse{
		Version:            a.config.Version,
		Name:               a.config.Name,
		Adapter:            true,
		SupportedProviders: a.config.SupportedProviders,
	})
}

// handleHealth handles GET and HEAD /.
func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	observability.SetRequestLabels(r.Context(), PathHealth, "")
	writeJSON(w, &api.HealthResponse{
		Status:  "ok",
		Message: a.config.Name + " is running",
		Version: a.config.Version,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
