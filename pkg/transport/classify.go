package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rhuss/dolmetscher/pkg/api"
	"github.com/rhuss/dolmetscher/pkg/provider"
)

// kindStatus maps backend error kinds to status and label. The order of
// the kinds in Classify is the priority order; the table only carries
// the mapping.
var kindStatus = map[provider.ErrorKind]struct {
	status int
	label  string
}{
	provider.ErrorKindAuthentication:     {http.StatusUnauthorized, api.LabelAuthentication},
	provider.ErrorKindPermission:         {http.StatusForbidden, api.LabelPermission},
	provider.ErrorKindRateLimit:          {http.StatusTooManyRequests, api.LabelRateLimit},
	provider.ErrorKindBadRequest:         {http.StatusBadRequest, api.LabelInvalidRequest},
	provider.ErrorKindServiceUnavailable: {http.StatusServiceUnavailable, api.LabelServiceUnavailable},
	provider.ErrorKindTimeout:            {http.StatusRequestTimeout, api.LabelTimeout},
	provider.ErrorKindConnection:         {http.StatusBadGateway, api.LabelConnection},
	provider.ErrorKindContentPolicy:      {http.StatusBadRequest, api.LabelContentPolicy},
}

// classifyOrder is the fixed priority in which kinds are tested.
var classifyOrder = []provider.ErrorKind{
	provider.ErrorKindAuthentication,
	provider.ErrorKindPermission,
	provider.ErrorKindRateLimit,
	provider.ErrorKindBadRequest,
	provider.ErrorKindServiceUnavailable,
	provider.ErrorKindTimeout,
	provider.ErrorKindConnection,
	provider.ErrorKindContentPolicy,
}

// Classify converts any error into an APIError with exactly one status
// and label. It never returns nil for a non-nil err.
//
// An *api.APIError is returned unchanged. A *provider.BackendError is
// matched by kind in priority order. Whatever remains is tested with a
// substring heuristic for "model" and "not found", which yields 404 and
// is approximate. Remaining backend errors are 500 "LLM API error",
// everything else 500 "Internal server error".
func Classify(err error) *api.APIError {
	if err == nil {
		return nil
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var be *provider.BackendError
	isBackend := errors.As(err, &be)

	details := err.Error()
	if isBackend {
		details = be.Message
		for _, kind := range classifyOrder {
			if be.Kind == kind {
				m := kindStatus[kind]
				return api.NewError(m.status, m.label, details)
			}
		}
	} else if errors.Is(err, context.DeadlineExceeded) {
		return api.NewError(http.StatusRequestTimeout, api.LabelTimeout, details)
	}

	if looksLikeModelNotFound(details) {
		return api.NewError(http.StatusNotFound, api.LabelModelNotFound, details)
	}

	if isBackend {
		return api.NewError(http.StatusInternalServerError, api.LabelBackend, details)
	}
	return api.NewError(http.StatusInternalServerError, api.LabelInternal, details)
}

func looksLikeModelNotFound(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "model") && strings.Contains(lower, "not found")
}

// WriteErrorResponse writes the JSON error envelope with the error's
// status code.
func WriteErrorResponse(w http.ResponseWriter, apiErr *api.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	json.NewEncoder(w).Encode(apiErr.Response())
}

// WriteError classifies err and writes the resulting envelope. It returns
// the classification for logging and metrics.
func WriteError(w http.ResponseWriter, err error) *api.APIError {
	apiErr := Classify(err)
	WriteErrorResponse(w, apiErr)
	return apiErr
}
